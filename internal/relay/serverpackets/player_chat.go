package serverpackets

import "github.com/udisondev/dcolony/internal/constants"

// PlayerChat writes a chat line payload into buf.
// Returns the number of bytes written.
func PlayerChat(buf []byte, text string) int {
	buf[0] = constants.OpcodePlayerChat
	n := 1 + copy(buf[1:], text)
	buf[n] = 0x00
	return n + 1
}
