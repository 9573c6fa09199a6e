package model

import (
	"errors"
	"testing"

	"github.com/onenight/partyclient/internal/protocol"
)

func TestNewRoom(t *testing.T) {
	info := protocol.RoomInfo{
		Players: []string{"Alice", "Bob"},
		Host:    "Alice",
		Roles:   map[string]int64{"Werewolf": 2, "AlphaWolf": 1, "Seer": 1},
	}
	room := NewRoom("ABCD", info)

	t.Run("membership", func(t *testing.T) {
		if !room.HasPlayer("Bob") {
			t.Error("HasPlayer(Bob) = false")
		}
		if room.HasPlayer("Carol") {
			t.Error("HasPlayer(Carol) = true")
		}
		if !room.IsHost("Alice") || room.IsHost("Bob") || room.IsHost("") {
			t.Error("IsHost mismatch")
		}
	})

	t.Run("role counts", func(t *testing.T) {
		counts, err := room.RoleCounts()
		if err != nil {
			t.Fatalf("RoleCounts failed: %v", err)
		}
		if len(counts) != len(Roles()) {
			t.Errorf("len(counts) = %d, want %d", len(counts), len(Roles()))
		}
		if counts[RoleWerewolf] != 2 {
			t.Errorf("Werewolf = %d, want 2", counts[RoleWerewolf])
		}
		if counts[RoleAlphaWolf] != 1 {
			t.Errorf("Alpha_Wolf = %d, want 1", counts[RoleAlphaWolf])
		}
		if counts[RoleTanner] != 0 {
			t.Errorf("Tanner = %d, want 0", counts[RoleTanner])
		}
		if room.TotalRoles() != 4 {
			t.Errorf("TotalRoles() = %d, want 4", room.TotalRoles())
		}
	})

	t.Run("copies input", func(t *testing.T) {
		info.Players[0] = "Mallory"
		info.Roles["Werewolf"] = 9
		if room.Players[0] != "Alice" {
			t.Errorf("Players[0] = %q, want Alice", room.Players[0])
		}
		if room.TotalRoles() != 4 {
			t.Errorf("TotalRoles() = %d after mutating input, want 4", room.TotalRoles())
		}
	})
}

func TestRoomRoleCounts_UnknownRole(t *testing.T) {
	room := NewRoom("ABCD", protocol.RoomInfo{Roles: map[string]int64{"Vampire": 1}})
	if _, err := room.RoleCounts(); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("RoleCounts() error = %v, want ErrUnknownRole", err)
	}
}
