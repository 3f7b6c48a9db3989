package clientpackets

import "fmt"

// PlayerReady is a lobby ready toggle.
//
// Packet structure (C2S 0x68):
//   - ready   byte toggle value, informational only
//   - ordinal byte slot index the sender claims
type PlayerReady struct {
	Ready   byte
	Ordinal int
}

// ParsePlayerReady parses a player_ready command.
func ParsePlayerReady(data []byte) (*PlayerReady, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("player_ready: %d data bytes, want 2", len(data))
	}
	return &PlayerReady{Ready: data[0], Ordinal: int(data[1])}, nil
}
