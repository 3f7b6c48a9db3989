package serverpackets

import (
	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/model"
)

// PlayerRace writes a race update payload into buf.
// Returns the number of bytes written.
func PlayerRace(buf []byte, race model.Race, slot int) int {
	buf[0] = constants.OpcodePlayerRace
	buf[1] = byte(race)
	buf[2] = byte(slot)
	return 3
}
