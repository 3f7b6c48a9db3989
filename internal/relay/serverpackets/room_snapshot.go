package serverpackets

import (
	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/model"
)

// roomParamDefaults are the sixteen scenario parameters appended to every
// snapshot. Index 0 enables erupting vents, index 1 keeps renewable vents
// off; the remaining values match retail lobby captures.
var roomParamDefaults = [constants.RoomParamCount]uint16{
	constants.ParamEruptingVents:  1,
	constants.ParamRenewableVents: 0,
	4:                             4,
	5:                             4,
	7:                             0xB8,
	8:                             1,
}

// RoomSnapshot writes the full room state payload into buf: two placeholder
// bytes, one player_init tuple per slot, one description block per slot and
// the sixteen room_param tuples. Clients rebuild their whole lobby view
// from it, so it goes out on join, leave and ready changes.
// Returns the number of bytes written.
func RoomSnapshot(buf []byte, slots [model.SlotCount]model.Slot) int {
	n := 0
	buf[n] = constants.OpcodeRoomMap
	buf[n+1] = 0x00
	buf[n+2] = 0x00
	n += 3

	for i := range slots {
		buf[n] = constants.OpcodePlayerInit
		buf[n+1] = 0x00
		buf[n+2] = byte(i)
		n += 3
	}

	for i := range slots {
		s := &slots[i]

		buf[n] = constants.OpcodePlayerName
		buf[n+1] = byte(i)
		buf[n+2] = 0x00
		n += 3
		n += copy(buf[n:], s.Name)
		buf[n] = 0x00
		n++

		buf[n] = constants.OpcodePlayerRace
		buf[n+1] = byte(s.Race)
		buf[n+2] = byte(i)
		n += 3

		buf[n] = constants.OpcodePlayerType
		buf[n+1] = byte(s.Type)
		buf[n+2] = byte(i)
		n += 3

		buf[n] = constants.OpcodePlayerColor
		buf[n+1] = s.Color
		buf[n+2] = byte(i)
		n += 3

		buf[n] = constants.OpcodePlayerTeam2
		buf[n+1] = s.Team
		buf[n+2] = byte(i)
		n += 3

		buf[n] = constants.OpcodePlayerReady
		buf[n+1] = s.ReadyByte()
		buf[n+2] = byte(i)
		n += 3
	}

	for i, v := range roomParamDefaults {
		buf[n] = constants.OpcodeRoomParam
		buf[n+1] = byte(i)
		buf[n+2] = 0x00
		buf[n+3] = byte(v)
		buf[n+4] = byte(v >> 8)
		n += 5
	}

	return n
}
