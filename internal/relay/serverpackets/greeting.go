package serverpackets

import "github.com/udisondev/dcolony/internal/constants"

// Greeting writes the initial_packet greeting into buf. The client reads
// its assigned slot from it and unlocks the lobby screen.
// Returns the number of bytes written.
func Greeting(buf []byte, slot int) int {
	buf[0] = constants.OpcodeInitialPacket
	buf[1] = 0x0F
	buf[2] = 0x00
	buf[3] = byte(slot)
	buf[4] = 0x00
	return 5
}
