package clientpackets

import "fmt"

// PlayerTeam is a lobby team pick.
//
// Packet structure (C2S 0x6d):
//   - team    byte team index
//   - ordinal byte slot index the sender claims
type PlayerTeam struct {
	Team    byte
	Ordinal int
}

// ParsePlayerTeam parses a player_team command.
func ParsePlayerTeam(data []byte) (*PlayerTeam, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("player_team: %d data bytes, want 2", len(data))
	}
	return &PlayerTeam{Team: data[0], Ordinal: int(data[1])}, nil
}
