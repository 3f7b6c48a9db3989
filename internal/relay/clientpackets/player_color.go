package clientpackets

import "fmt"

// PlayerColor is a lobby color pick.
//
// Packet structure (C2S 0x6b):
//   - color   byte palette index
//   - ordinal byte slot index the sender claims
type PlayerColor struct {
	Color   byte
	Ordinal int
}

// ParsePlayerColor parses a player_color command.
func ParsePlayerColor(data []byte) (*PlayerColor, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("player_color: %d data bytes, want 2", len(data))
	}
	return &PlayerColor{Color: data[0], Ordinal: int(data[1])}, nil
}
