package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role name matches no known role.
var ErrUnknownRole = errors.New("unknown role")

// Role identifies a card in the game.
type Role string

const (
	RoleDoppelganger Role = "Doppelganger"
	RoleWerewolf     Role = "Werewolf"
	RoleAlphaWolf    Role = "Alpha_Wolf"
	RoleMysticWolf   Role = "Mystic_Wolf"
	RoleDreamWolf    Role = "Dream_Wolf"
	RoleMinion       Role = "Minion"
	RoleTanner       Role = "Tanner"
	RoleMason        Role = "Mason"
	RoleSeer         Role = "Seer"
	RoleHunter       Role = "Hunter"
	RoleRobber       Role = "Robber"
	RoleVoodooLou    Role = "Voodoo_Lou"
	RoleTroublemaker Role = "Troublemaker"
	RoleDrunk        Role = "Drunk"
	RoleInsomniac    Role = "Insomniac"
)

// roles is in display order.
var roles = []Role{
	RoleDoppelganger,
	RoleWerewolf,
	RoleAlphaWolf,
	RoleMysticWolf,
	RoleDreamWolf,
	RoleMinion,
	RoleTanner,
	RoleMason,
	RoleSeer,
	RoleHunter,
	RoleRobber,
	RoleVoodooLou,
	RoleTroublemaker,
	RoleDrunk,
	RoleInsomniac,
}

// Roles returns every role in display order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// DisplayName returns the human readable name, e.g. "Alpha Wolf".
func (r Role) DisplayName() string {
	return strings.ReplaceAll(string(r), "_", " ")
}

// ServerName returns the spelling the game server uses, e.g. "AlphaWolf".
func (r Role) ServerName() string {
	return strings.ReplaceAll(string(r), "_", "")
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ParseServerRole maps a server role name back to a Role.
func ParseServerRole(name string) (Role, error) {
	for _, r := range roles {
		if r.ServerName() == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// ParseDisplayRole accepts an identifier ("Alpha_Wolf"), display name
// ("Alpha Wolf") or server name ("AlphaWolf"), case-insensitively.
func ParseDisplayRole(name string) (Role, error) {
	for _, r := range roles {
		if strings.EqualFold(name, string(r)) ||
			strings.EqualFold(name, r.DisplayName()) ||
			strings.EqualFold(name, r.ServerName()) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
}
