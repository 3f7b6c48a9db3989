package clientpackets

import (
	"encoding/binary"
	"fmt"

	"github.com/udisondev/dcolony/internal/constants"
)

// BattlePing is the echoed in-battle keep-alive.
//
// Packet structure (C2S 0x02):
//   - seq     uint32 ping sequence number, little-endian
//   - counter uint32 start counter plus seq, little-endian
type BattlePing struct {
	Seq     uint32
	Counter uint32
}

// ParseBattlePing parses a battle_ping1 echo.
func ParseBattlePing(data []byte) (*BattlePing, error) {
	if len(data) < constants.BattlePingPayloadSize {
		return nil, fmt.Errorf("battle_ping1: %d data bytes, want %d", len(data), constants.BattlePingPayloadSize)
	}
	return &BattlePing{
		Seq:     binary.LittleEndian.Uint32(data),
		Counter: binary.LittleEndian.Uint32(data[4:]),
	}, nil
}
