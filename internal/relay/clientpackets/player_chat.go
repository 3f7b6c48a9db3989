package clientpackets

// PlayerChat is a lobby chat line.
//
// Packet structure (C2S 0x65):
//   - text string ASCII null-terminated
type PlayerChat struct {
	Text string
}

// ParsePlayerChat parses a player_chat command. An empty data region is a
// valid empty line.
func ParsePlayerChat(data []byte) (*PlayerChat, error) {
	if n := len(data); n > 0 && data[n-1] == 0x00 {
		data = data[:n-1]
	}
	return &PlayerChat{Text: string(data)}, nil
}
