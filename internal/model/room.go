package model

import (
	"fmt"

	"github.com/onenight/partyclient/internal/protocol"
)

// Room is the client's view of a room, built from the latest RoomInfo.
type Room struct {
	Code    string
	Players []string
	Host    string

	// rawRoles is keyed by server role spelling, as received.
	rawRoles map[string]int64
}

// NewRoom builds a Room from a RoomInfo push.
func NewRoom(code string, info protocol.RoomInfo) Room {
	players := make([]string, len(info.Players))
	copy(players, info.Players)

	raw := make(map[string]int64, len(info.Roles))
	for k, v := range info.Roles {
		raw[k] = v
	}

	return Room{
		Code:     code,
		Players:  players,
		Host:     info.Host,
		rawRoles: raw,
	}
}

// HasPlayer reports whether name is in the room.
func (r Room) HasPlayer(name string) bool {
	for _, p := range r.Players {
		if p == name {
			return true
		}
	}
	return false
}

// IsHost reports whether name hosts the room.
func (r Room) IsHost(name string) bool {
	return name != "" && name == r.Host
}

// RoleCounts returns the count for every known role, zero when the server
// did not mention it. An unrecognized server role name is an error.
func (r Room) RoleCounts() (map[Role]int64, error) {
	counts := make(map[Role]int64, len(roles))
	for _, role := range roles {
		counts[role] = 0
	}

	for name, n := range r.rawRoles {
		role, err := ParseServerRole(name)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", r.Code, err)
		}
		counts[role] = n
	}
	return counts, nil
}

// TotalRoles returns the number of role cards selected.
func (r Room) TotalRoles() int64 {
	var total int64
	for _, n := range r.rawRoles {
		total += n
	}
	return total
}
