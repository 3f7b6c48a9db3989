package serverpackets

import "github.com/udisondev/dcolony/internal/constants"

// PlayerColor writes a color update payload into buf.
// Returns the number of bytes written.
func PlayerColor(buf []byte, color byte, slot int) int {
	buf[0] = constants.OpcodePlayerColor
	buf[1] = color
	buf[2] = byte(slot)
	return 3
}
