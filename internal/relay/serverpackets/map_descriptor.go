package serverpackets

import (
	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/model"
)

// MapDescriptor writes the scenario advertisement payload into buf: map
// type, player count, the null-terminated scenario filename and the display
// name. The display name carries no terminator, the frame length bounds it.
// Returns the number of bytes written.
func MapDescriptor(buf []byte, m model.MapInfo) int {
	n := 0
	buf[n] = constants.OpcodeRoomMap
	buf[n+1] = m.Type
	buf[n+2] = m.PlayerCount
	n += 3
	n += copy(buf[n:], m.Filename)
	buf[n] = 0x00
	n++
	n += copy(buf[n:], m.DisplayName)
	return n
}
