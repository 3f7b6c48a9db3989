package serverpackets

import (
	"encoding/binary"

	"github.com/udisondev/dcolony/internal/constants"
)

// BattlePing writes a battle keep-alive payload into buf: the ping sequence
// number followed by the connection counter captured at battle start plus
// that sequence, both little-endian.
// Returns the number of bytes written.
func BattlePing(buf []byte, seq, counter uint32) int {
	buf[0] = constants.OpcodeBattlePing1
	binary.LittleEndian.PutUint32(buf[1:], seq)
	binary.LittleEndian.PutUint32(buf[5:], counter)
	return 1 + constants.BattlePingPayloadSize
}
