package model

import "fmt"

// Race identifies a slot's playable faction.
type Race byte

const (
	// RaceAliens is the alien faction (wire value 0x00).
	RaceAliens Race = 0x00
	// RaceHumans is the human faction (wire value 0x01).
	RaceHumans Race = 0x01
)

// String returns the race name for logging.
func (r Race) String() string {
	switch r {
	case RaceAliens:
		return "aliens"
	case RaceHumans:
		return "humans"
	}
	return fmt.Sprintf("race(%d)", byte(r))
}

// NormalizeRace maps a wire byte onto a valid race: 0x01 selects humans,
// everything else falls back to aliens.
func NormalizeRace(b byte) Race {
	if b == byte(RaceHumans) {
		return RaceHumans
	}
	return RaceAliens
}

// SlotType identifies who controls a slot.
type SlotType byte

const (
	// SlotAIEasy is a computer player on the easy setting.
	SlotAIEasy SlotType = 0x00
	// SlotAIHard is a computer player on the hard setting.
	SlotAIHard SlotType = 0x01
	// SlotGamer is a human player.
	SlotGamer SlotType = 0x02
	// SlotNone is an open position.
	SlotNone SlotType = 0x03
)

// String returns the slot type name for logging.
func (t SlotType) String() string {
	switch t {
	case SlotAIEasy:
		return "ai_easy"
	case SlotAIHard:
		return "ai_hard"
	case SlotGamer:
		return "gamer"
	case SlotNone:
		return "none"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// Active reports whether the slot takes part in the game and therefore
// occupies a color.
func (t SlotType) Active() bool {
	return t != SlotNone
}

// Ready flag wire values.
const (
	// ReadyByteReady marks a slot as ready in snapshots.
	ReadyByteReady = 0x00
	// ReadyByteNotReady marks a slot as not ready in snapshots.
	ReadyByteNotReady = 0x01
	// ReadyByteForBattle is the value broadcast on player_ready updates.
	ReadyByteForBattle = 0x02
)

// Slot is one of the eight positions of a room. Slots are plain values;
// the owning room's lock serializes every mutation.
type Slot struct {
	ClientID uint32 // 0 when no connection is bound
	Name     string
	Race     Race
	Type     SlotType
	Team     byte
	Color    byte
	Ready    bool
}

// ReadyByte returns the snapshot encoding of the ready flag.
func (s Slot) ReadyByte() byte {
	if s.Ready {
		return ReadyByteReady
	}
	return ReadyByteNotReady
}

// Occupied reports whether a connection is bound to the slot.
func (s Slot) Occupied() bool {
	return s.ClientID != 0
}

// Free reports whether the slot can admit a new player.
func (s Slot) Free() bool {
	return s.Type == SlotNone && s.ClientID == 0
}
