package clientpackets

import "fmt"

// PlayerName is a lobby name change request.
//
// Packet structure (C2S 0x67):
//   - ordinal byte   slot index the sender claims
//   - pad     byte   always 0x00
//   - name    string ASCII null-terminated
type PlayerName struct {
	Ordinal int
	Name    string
}

// ParsePlayerName parses a player_name command. Opcode already stripped by
// the command splitter.
func ParsePlayerName(data []byte) (*PlayerName, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("player_name: %d data bytes, want at least 2", len(data))
	}
	name := data[2:]
	if n := len(name); n > 0 && name[n-1] == 0x00 {
		name = name[:n-1]
	}
	return &PlayerName{Ordinal: int(data[0]), Name: string(name)}, nil
}
