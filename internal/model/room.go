package model

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	// SlotCount is the number of positions in a room (1 AI + 7 human).
	SlotCount = 8

	// AISlot is the reserved index of the computer player.
	AISlot = 0

	// FirstHumanSlot is the first index a connection can be bound to.
	FirstHumanSlot = 1
)

var (
	// ErrRoomFull reports a join against a room with no free human slot.
	ErrRoomFull = errors.New("room has no free slot")

	// ErrRoomInBattle reports a join against a room that already launched.
	ErrRoomInBattle = errors.New("room is in battle")

	// ErrBadSlot reports a slot index outside 0..7.
	ErrBadSlot = errors.New("slot index out of range")
)

// Room hosts up to seven connections plus the AI slot, sharing one map and
// eventually one battle. A room holds client ids rather than connection
// handles; the relay resolves ids when it fans out frames, so either side
// can be destroyed independently.
//
// Thread-safe: all methods acquire the internal mutex. Methods that take a
// *rand.Rand rely on the caller (the room manager) to serialize them.
type Room struct {
	mu         sync.RWMutex
	id         int
	slots      [SlotCount]Slot
	clients    map[uint32]struct{}
	inBattle   bool
	mapInfo    MapInfo
	lobbyPings uint32
}

// NewRoom creates a room with its lobby defaults: the AI slot is a
// spectator placeholder, human slots are open positions named PlayerN with
// team and color matching their index, and every slot rolls a random race.
func NewRoom(id int, mapInfo MapInfo, rng *rand.Rand) *Room {
	r := &Room{
		id:      id,
		clients: make(map[uint32]struct{}, SlotCount),
		mapInfo: mapInfo,
	}
	r.slots[AISlot] = Slot{
		Name:  "spectator",
		Race:  randomRace(rng),
		Type:  SlotGamer,
		Team:  0,
		Ready: false,
		Color: 0,
	}
	r.fillHumanSlotsLocked(rng)
	return r
}

// Reset returns an emptied room to its defaults so the next group finds a
// clean lobby. The AI slot comes back as a hard bot rather than the
// create-time spectator, which distinguishes recycled rooms from fresh ones.
func (r *Room) Reset(rng *rand.Rand) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inBattle = false
	r.lobbyPings = 0
	clear(r.clients)
	r.slots[AISlot] = Slot{
		Name:  "battle_bot",
		Race:  randomRace(rng),
		Type:  SlotAIHard,
		Team:  0,
		Ready: false,
		Color: 0,
	}
	r.fillHumanSlotsLocked(rng)
}

func (r *Room) fillHumanSlotsLocked(rng *rand.Rand) {
	for i := FirstHumanSlot; i < SlotCount; i++ {
		r.slots[i] = Slot{
			Name:  fmt.Sprintf("Player%d", i),
			Race:  randomRace(rng),
			Type:  SlotNone,
			Team:  byte(i),
			Ready: true,
			Color: byte(i),
		}
	}
}

func randomRace(rng *rand.Rand) Race {
	return Race(rng.IntN(2))
}

// ID returns the immutable room id.
func (r *Room) ID() int {
	return r.id
}

// Join binds a client to a uniformly random free human slot. The slot
// becomes a not-ready gamer and takes the lowest color not held by any
// active slot. Returns the chosen slot index and whether the room already
// had clients before this join.
func (r *Room) Join(clientID uint32, rng *rand.Rand) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inBattle {
		return 0, false, ErrRoomInBattle
	}
	if _, ok := r.clients[clientID]; ok {
		return 0, false, fmt.Errorf("client %d already joined room %d", clientID, r.id)
	}

	free := make([]int, 0, SlotCount-1)
	for i := FirstHumanSlot; i < SlotCount; i++ {
		if r.slots[i].Free() {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return 0, false, ErrRoomFull
	}

	hadOthers := len(r.clients) > 0
	idx := free[rng.IntN(len(free))]

	// Color is chosen while the slot still counts as inactive, so its own
	// stale color does not block reuse.
	color := r.pickColorLocked(rng)
	s := &r.slots[idx]
	s.ClientID = clientID
	s.Type = SlotGamer
	s.Ready = false
	s.Color = color

	r.clients[clientID] = struct{}{}
	return idx, hadOthers, nil
}

// pickColorLocked returns the lowest color 0..7 not held by an active slot,
// falling back to a random color in the impossible case that all are taken.
func (r *Room) pickColorLocked(rng *rand.Rand) byte {
	var used [SlotCount]bool
	for i := range r.slots {
		s := r.slots[i]
		if s.Type.Active() && s.Color < SlotCount {
			used[s.Color] = true
		}
	}
	for c := 0; c < SlotCount; c++ {
		if !used[c] {
			return byte(c)
		}
	}
	return byte(rng.IntN(SlotCount))
}

// Leave unbinds a client and reopens its slot, keeping the cosmetic fields
// so a rejoining player finds the lobby roughly as they left it. Returns
// the number of clients remaining.
func (r *Room) Leave(clientID uint32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[clientID]; !ok {
		return len(r.clients)
	}
	delete(r.clients, clientID)
	for i := range r.slots {
		if r.slots[i].ClientID == clientID {
			r.slots[i].ClientID = 0
			r.slots[i].Type = SlotNone
			r.slots[i].Ready = true
			break
		}
	}
	return len(r.clients)
}

// SetReady marks the sender's slot ready. When every occupied human slot is
// ready the AI slot follows, so a full lobby never waits on the computer
// player. Returns the sender's slot index and whether the AI slot was
// marked as part of this call.
func (r *Room) SetReady(clientID uint32) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.slotOfLocked(clientID)
	if idx < 0 {
		return 0, false, fmt.Errorf("client %d not in room %d", clientID, r.id)
	}
	r.slots[idx].Ready = true

	aiReadied := r.allHumansReadyLocked()
	if aiReadied {
		r.slots[AISlot].Ready = true
	}
	return idx, aiReadied, nil
}

func (r *Room) allHumansReadyLocked() bool {
	for i := FirstHumanSlot; i < SlotCount; i++ {
		if r.slots[i].Occupied() && !r.slots[i].Ready {
			return false
		}
	}
	return true
}

// SetName stores a sanitized name on the addressed slot.
func (r *Room) SetName(slot int, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}
	r.slots[slot].Name = name
	return nil
}

// SetRace stores a race on the addressed slot.
func (r *Room) SetRace(slot int, race Race) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}
	r.slots[slot].Race = race
	return nil
}

// SetColor stores a color on the addressed slot.
func (r *Room) SetColor(slot int, color byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}
	r.slots[slot].Color = color
	return nil
}

// SetTeam stores a team on the addressed slot.
func (r *Room) SetTeam(slot int, team byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot < 0 || slot >= SlotCount {
		return fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}
	r.slots[slot].Team = team
	return nil
}

// BeginBattle flips the room into battle once every joined client reports
// initiated=true through the callback. The callback runs under the room
// lock and must not call back into the room.
func (r *Room) BeginBattle(initiated func(clientID uint32) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inBattle || len(r.clients) == 0 {
		return false
	}
	for id := range r.clients {
		if !initiated(id) {
			return false
		}
	}
	r.inBattle = true
	return true
}

// InBattle reports whether the room has launched its game.
func (r *Room) InBattle() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inBattle
}

// Joinable reports whether the room can admit one more connection.
func (r *Room) Joinable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.inBattle {
		return false
	}
	for i := FirstHumanSlot; i < SlotCount; i++ {
		if r.slots[i].Free() {
			return true
		}
	}
	return false
}

// Slots returns a snapshot copy of all eight slots.
// Safe to encode without holding the lock.
func (r *Room) Slots() [SlotCount]Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots
}

// SlotOf returns the slot index bound to a client, or -1.
func (r *Room) SlotOf(clientID uint32) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slotOfLocked(clientID)
}

func (r *Room) slotOfLocked(clientID uint32) int {
	for i := range r.slots {
		if r.slots[i].ClientID == clientID {
			return i
		}
	}
	return -1
}

// ClientIDs returns a snapshot of the joined client ids.
func (r *Room) ClientIDs() []uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint32, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}

// ClientCount returns the number of joined clients.
func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// MapInfo returns the room's scenario descriptor.
func (r *Room) MapInfo() MapInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mapInfo
}

// BumpLobbyPings advances the lobby keep-alive counter and returns it.
func (r *Room) BumpLobbyPings() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lobbyPings++
	return r.lobbyPings
}
