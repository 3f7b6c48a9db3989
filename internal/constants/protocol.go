package constants

// Dark Colony Lobby Protocol Constants
//
// This file contains all protocol-level constants for the Dark Colony (1997)
// multiplayer lobby and battle relay. The game predates any public protocol
// documentation; the values below were recovered from packet captures of the
// retail client talking to the original matchmaking service.

// Frame Structure Constants
//
// Every message travels inside a frame:
//
//	[length low 8 bits] [counter<<4 | length high 4 bits] [payload] [0x00]
//
// The 12-bit length is little-endian and covers the complete frame: both
// header bytes, the payload, and the trailing terminator.
const (
	// FrameHeaderSize is the size of the length+counter header in bytes
	FrameHeaderSize = 2

	// FrameTerminatorSize is the size of the trailing terminator byte
	FrameTerminatorSize = 1

	// FrameOverhead is the number of housekeeping bytes around a payload
	FrameOverhead = FrameHeaderSize + FrameTerminatorSize

	// MaxFrameSize is the largest encodable frame (12-bit length field)
	MaxFrameSize = 0x0FFF

	// MaxPayloadSize is the largest payload that fits in a single frame
	MaxPayloadSize = MaxFrameSize - FrameOverhead

	// CounterMask keeps the outbound sequence counter inside its 4-bit field
	CounterMask = 0x0F
)

// Lobby Command Opcodes
//
// Lobby commands use the high opcode range. Directions follow the retail
// client: most slot mutations flow both ways, snapshot-only opcodes flow
// server to client.
const (
	// OpcodeInitialPacket is the server greeting sent right after admission
	OpcodeInitialPacket = 0x64

	// OpcodePlayerChat carries a NUL-terminated ASCII chat line
	OpcodePlayerChat = 0x65

	// OpcodePlayerRace carries `<race> <slot>`
	OpcodePlayerRace = 0x66

	// OpcodePlayerName carries `<slot> 0x00 <ascii-name> 0x00`
	OpcodePlayerName = 0x67

	// OpcodePlayerReady carries `<ready> <slot>` server to client; the
	// client variant has no trusted payload and refers to the sender's slot
	OpcodePlayerReady = 0x68

	// OpcodeRoomMap leads both the room snapshot and the map descriptor
	OpcodeRoomMap = 0x69

	// OpcodePlayerType carries `<type> <slot>` inside snapshots
	OpcodePlayerType = 0x6A

	// OpcodePlayerColor carries `<color> <slot>`
	OpcodePlayerColor = 0x6B

	// OpcodePlayerInit carries `0x00 <slot>` inside snapshots
	OpcodePlayerInit = 0x6C

	// OpcodePlayerTeam carries `<team> <slot>`
	OpcodePlayerTeam = 0x6D

	// OpcodePlayerTeam2 is the snapshot form of the team assignment
	OpcodePlayerTeam2 = 0x6E

	// OpcodeRoomParam carries `<param-idx> 0x00 <value-lo> <value-hi>`
	OpcodeRoomParam = 0x6F

	// OpcodePing is the empty lobby keep-alive
	OpcodePing = 0x71

	// OpcodeBeginBattle carries the fixed marker bytes 0x06 0x00 0x02
	OpcodeBeginBattle = 0x76
)

// Battle Command Opcodes
//
// Once a room enters battle the game switches to the low opcode range.
// Apart from the two ping forms everything inside the relay window is
// forwarded to the other clients of the room without interpretation.
const (
	// OpcodeBattlePing1 is the echoed keep-alive carrying two LE u32 counters
	OpcodeBattlePing1 = 0x02

	// OpcodeBattlePing2 is a client-only keep-alive that gets no response
	OpcodeBattlePing2 = 0x08

	// RelayOpcodeMin is the first opcode of the opaque in-battle relay window
	RelayOpcodeMin = 0x09

	// RelayOpcodeMax is the last opcode of the opaque in-battle relay window
	RelayOpcodeMax = 0x1A
)

// Relay Window Opcodes
//
// Individual opcodes inside the relay window. Capture evidence pins only
// game_speed (the battle-start broadcast); the rest were mapped from the
// client's dispatch order and only matter for logging plus the unit_move
// terminator quirk.
const (
	OpcodeButtonUnit          = 0x09
	OpcodeButtonBuilding      = 0x0A
	OpcodeButtonUpgrade       = 0x0B
	OpcodeButtonSuperweapon   = 0x0C
	OpcodeUnitSelect          = 0x0D
	OpcodeUnitSelectData      = 0x0E
	OpcodeUnitMove            = 0x0F
	OpcodeUnitDestination     = 0x10
	OpcodeUnitDestinationData = 0x11
	OpcodeUnitAttack          = 0x12
	OpcodeGameSpeed           = 0x13
	OpcodeUnitInspire         = 0x14
	OpcodeBattleChat          = 0x15
)

// BeginBattleMarker is the fixed three-byte disambiguator that follows the
// begin_battle opcode.
var BeginBattleMarker = [3]byte{0x06, 0x00, 0x02}

// GameSpeedDefault is the speed value broadcast when a battle starts (200%).
const GameSpeedDefault = 0x21

// Battle Ping Payload Sizes
const (
	// BattlePingPayloadSize is the data size of a battle_ping1 command
	// (two little-endian u32 values: sequence and counter echo)
	BattlePingPayloadSize = 8

	// BattlePing2PayloadSize is the data size of a battle_ping2 command
	BattlePing2PayloadSize = 6
)

// Room Parameter Constants
//
// The room snapshot ends with sixteen room_param tuples. Only a handful of
// indices carry non-zero defaults; the named ones control vent behavior on
// the battle map.
const (
	// ParamEruptingVents toggles erupting vents (default on)
	ParamEruptingVents = 0

	// ParamRenewableVents toggles renewable vents (default off)
	ParamRenewableVents = 1

	// RoomParamCount is the number of room_param tuples in a snapshot
	RoomParamCount = 16
)

// Buffer Pool Size Constants
const (
	// DefaultFrameBufSize fits the common lobby frames without reallocation
	DefaultFrameBufSize = 512

	// DefaultReadBufSize is the per-connection read chunk size
	DefaultReadBufSize = 4096

	// SnapshotBufSize fits a full room snapshot frame with headroom
	SnapshotBufSize = 1024
)
