package serverpackets

import (
	"encoding/binary"

	"github.com/udisondev/dcolony/internal/constants"
)

// GameSpeed writes the battle-start speed announcement into buf.
// Returns the number of bytes written.
func GameSpeed(buf []byte, speed uint32) int {
	buf[0] = constants.OpcodeGameSpeed
	binary.LittleEndian.PutUint32(buf[1:], speed)
	return 5
}
