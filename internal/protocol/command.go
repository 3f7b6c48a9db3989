package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/udisondev/dcolony/internal/constants"
)

// Command is a single decoded command inside a frame body.
// Data aliases the frame body it was split from.
type Command struct {
	Opcode byte
	Data   []byte
}

// ErrUnknownCommand reports an opcode missing from the command table.
var ErrUnknownCommand = errors.New("unknown command opcode")

// NextCommand splits the first command off a frame body and returns the
// remaining bytes. String-bearing commands own their bytes through the NUL
// terminator, fixed-size commands own exactly their documented span, and
// relay or marker commands own the rest of the frame.
//
// On an unknown opcode the returned command carries the full remaining
// region so the caller can dump it; the rest is empty because no later
// command boundary can be recovered.
func NextCommand(body []byte) (Command, []byte, error) {
	if len(body) == 0 {
		return Command{}, nil, nil
	}

	op := body[0]
	data := body[1:]

	var span int
	switch op {
	case constants.OpcodePlayerName:
		// <slot> 0x00 <ascii> 0x00
		span = nulSpan(data, 2)
	case constants.OpcodePlayerChat:
		// <ascii> 0x00
		span = nulSpan(data, 0)
	case constants.OpcodePlayerRace,
		constants.OpcodePlayerReady,
		constants.OpcodePlayerType,
		constants.OpcodePlayerColor,
		constants.OpcodePlayerInit,
		constants.OpcodePlayerTeam,
		constants.OpcodePlayerTeam2:
		// <value> <slot>
		span = min(2, len(data))
	case constants.OpcodeInitialPacket:
		// 0x0f 0x00 <slot> 0x00
		span = min(4, len(data))
	case constants.OpcodeBattlePing1:
		span = min(constants.BattlePingPayloadSize, len(data))
	case constants.OpcodeBattlePing2:
		span = min(constants.BattlePing2PayloadSize, len(data))
	case constants.OpcodePing:
		span = 0
	case constants.OpcodeRoomParam, constants.OpcodeBeginBattle:
		// room_param echoes and the begin_battle marker own the whole frame
		span = len(data)
	default:
		if op >= constants.RelayOpcodeMin && op <= constants.RelayOpcodeMax {
			// opaque in-battle relay, forwarded without interpretation
			span = len(data)
			break
		}
		return Command{Opcode: op, Data: data}, nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, op)
	}

	return Command{Opcode: op, Data: data[:span]}, data[span:], nil
}

// nulSpan returns the length of a command data region that ends at the first
// NUL terminator at or after skip. Without a terminator the whole region
// belongs to the command.
func nulSpan(data []byte, skip int) int {
	if skip >= len(data) {
		return len(data)
	}
	if i := bytes.IndexByte(data[skip:], 0x00); i >= 0 {
		return skip + i + 1
	}
	return len(data)
}

// CommandName returns the capture-derived name of an opcode for logging.
// Unlisted opcodes come back as their hex form.
func CommandName(op byte) string {
	switch op {
	case constants.OpcodeInitialPacket:
		return "initial_packet"
	case constants.OpcodePlayerChat:
		return "player_chat"
	case constants.OpcodePlayerRace:
		return "player_race"
	case constants.OpcodePlayerName:
		return "player_name"
	case constants.OpcodePlayerReady:
		return "player_ready"
	case constants.OpcodeRoomMap:
		return "room_map"
	case constants.OpcodePlayerType:
		return "player_type"
	case constants.OpcodePlayerColor:
		return "player_color"
	case constants.OpcodePlayerInit:
		return "player_init"
	case constants.OpcodePlayerTeam:
		return "player_team"
	case constants.OpcodePlayerTeam2:
		return "player_team2"
	case constants.OpcodeRoomParam:
		return "room_param"
	case constants.OpcodePing:
		return "ping"
	case constants.OpcodeBeginBattle:
		return "begin_battle"
	case constants.OpcodeBattlePing1:
		return "battle_ping1"
	case constants.OpcodeBattlePing2:
		return "battle_ping2"
	case constants.OpcodeButtonUnit:
		return "button_unit"
	case constants.OpcodeButtonBuilding:
		return "button_building"
	case constants.OpcodeButtonUpgrade:
		return "button_upgrade"
	case constants.OpcodeButtonSuperweapon:
		return "button_superweapon"
	case constants.OpcodeUnitSelect:
		return "unit_select"
	case constants.OpcodeUnitSelectData:
		return "unit_select_data"
	case constants.OpcodeUnitMove:
		return "unit_move"
	case constants.OpcodeUnitDestination:
		return "unit_destination"
	case constants.OpcodeUnitDestinationData:
		return "unit_destination_data"
	case constants.OpcodeUnitAttack:
		return "unit_attack"
	case constants.OpcodeGameSpeed:
		return "game_speed"
	case constants.OpcodeUnitInspire:
		return "unit_inspire"
	case constants.OpcodeBattleChat:
		return "battle_chat"
	}
	return fmt.Sprintf("0x%02X", op)
}
