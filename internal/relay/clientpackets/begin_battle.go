package clientpackets

import (
	"bytes"
	"fmt"

	"github.com/udisondev/dcolony/internal/constants"
)

// ParseBeginBattle validates a begin_battle command. The command carries no
// fields, only the fixed marker bytes 0x06 0x00 0x02; anything else is some
// other traffic on the same opcode and must not launch a battle.
func ParseBeginBattle(data []byte) error {
	if len(data) < len(constants.BeginBattleMarker) {
		return fmt.Errorf("begin_battle: %d data bytes, want %d", len(data), len(constants.BeginBattleMarker))
	}
	if !bytes.Equal(data[:len(constants.BeginBattleMarker)], constants.BeginBattleMarker[:]) {
		return fmt.Errorf("begin_battle: marker mismatch: % x", data[:len(constants.BeginBattleMarker)])
	}
	return nil
}
