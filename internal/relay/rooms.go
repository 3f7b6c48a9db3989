package relay

import (
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/udisondev/dcolony/internal/model"
)

// RoomManager owns every room and decides where new connections land.
// Thread-safe; the shared rand source is only touched under the manager
// lock.
type RoomManager struct {
	mu      sync.Mutex
	rooms   map[int]*model.Room
	rng     *rand.Rand
	mapInfo model.MapInfo
}

// NewRoomManager creates the manager with room 1 already standing. Room 1
// outlives every group; rooms above it come and go with demand.
func NewRoomManager(mapInfo model.MapInfo, rng *rand.Rand) *RoomManager {
	rm := &RoomManager{
		rooms:   make(map[int]*model.Room, 4),
		rng:     rng,
		mapInfo: mapInfo,
	}
	rm.rooms[1] = model.NewRoom(1, mapInfo, rng)
	return rm
}

// Admit places a client into the first joinable room in ascending id order,
// creating a room with the lowest unused id when every existing one is full
// or fighting. Returns the room, the assigned slot and whether the room
// held clients before this join.
func (rm *RoomManager) Admit(clientID uint32) (*model.Room, int, bool, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(rm.rooms)) {
		slot, hadOthers, err := rm.rooms[id].Join(clientID, rm.rng)
		if err != nil {
			continue
		}
		return rm.rooms[id], slot, hadOthers, nil
	}

	id := rm.lowestFreeIDLocked()
	room := model.NewRoom(id, rm.mapInfo, rm.rng)
	slot, hadOthers, err := room.Join(clientID, rm.rng)
	if err != nil {
		// A fresh room rejects nothing but a duplicate client id, which
		// means bookkeeping upstream went wrong.
		return nil, 0, false, err
	}
	rm.rooms[id] = room
	slog.Info("room created", "room", id)
	return room, slot, hadOthers, nil
}

func (rm *RoomManager) lowestFreeIDLocked() int {
	id := 1
	for {
		if _, ok := rm.rooms[id]; !ok {
			return id
		}
		id++
	}
}

// Leave detaches a client from its room. An emptied room goes back to its
// lobby defaults, and emptied rooms above 1 are deleted. Returns the room
// and how many clients remain in it.
func (rm *RoomManager) Leave(roomID int, clientID uint32) (*model.Room, int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	room := rm.rooms[roomID]
	if room == nil {
		return nil, 0
	}
	remaining := room.Leave(clientID)
	if remaining == 0 {
		room.Reset(rm.rng)
		if roomID > 1 {
			delete(rm.rooms, roomID)
			slog.Info("room deleted", "room", roomID)
		}
	}
	return room, remaining
}

// Get returns the room with the given id, nil when not found.
func (rm *RoomManager) Get(id int) *model.Room {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.rooms[id]
}

// Count returns the number of standing rooms.
func (rm *RoomManager) Count() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.rooms)
}

// ForEachRoom iterates over rooms in ascending id order. fn must not call
// back into the manager. If fn returns false, iteration stops.
func (rm *RoomManager) ForEachRoom(fn func(*model.Room) bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, id := range slices.Sorted(maps.Keys(rm.rooms)) {
		if !fn(rm.rooms[id]) {
			return
		}
	}
}
