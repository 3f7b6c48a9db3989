package serverpackets

import "github.com/udisondev/dcolony/internal/constants"

// PlayerName writes a name update payload into buf.
// Returns the number of bytes written.
func PlayerName(buf []byte, slot int, name string) int {
	buf[0] = constants.OpcodePlayerName
	buf[1] = byte(slot)
	buf[2] = 0x00
	n := 3 + copy(buf[3:], name)
	buf[n] = 0x00
	return n + 1
}
