package clientpackets

import (
	"fmt"

	"github.com/udisondev/dcolony/internal/model"
)

// PlayerRace is a lobby faction pick.
//
// Packet structure (C2S 0x66):
//   - race    byte faction, 0x00 aliens / 0x01 humans
//   - ordinal byte slot index the sender claims
type PlayerRace struct {
	Race    model.Race
	Ordinal int
}

// ParsePlayerRace parses a player_race command. Out-of-range race bytes
// collapse to aliens rather than failing.
func ParsePlayerRace(data []byte) (*PlayerRace, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("player_race: %d data bytes, want 2", len(data))
	}
	return &PlayerRace{Race: model.NormalizeRace(data[0]), Ordinal: int(data[1])}, nil
}
