package relay

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// ClientManager tracks every live session by id and hands out new ids.
// Thread-safe for concurrent access.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[uint32]*Client

	nextID atomic.Uint32
}

// NewClientManager creates an empty manager. Session ids start at 1.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*Client, 64),
	}
}

// NextID allocates a session id. Ids grow monotonically and are never
// reused within a process lifetime, so a stale id in a room resolves to
// nobody instead of a stranger.
func (cm *ClientManager) NextID() uint32 {
	return cm.nextID.Add(1)
}

// Register adds a client once its session state is ready.
func (cm *ClientManager) Register(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.ID()] = c
}

// Unregister removes a client. Called from the connection teardown path.
func (cm *ClientManager) Unregister(id uint32) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.clients, id)
}

// Get returns the client with the given id, nil when not found.
func (cm *ClientManager) Get(id uint32) *Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[id]
}

// Count returns the number of live sessions.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// ForEachClient iterates over all live sessions. fn must not call back into
// the manager. If fn returns false, iteration stops.
func (cm *ClientManager) ForEachClient(fn func(*Client) bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	for _, c := range cm.clients {
		if !fn(c) {
			return
		}
	}
}

// BroadcastTo frames payload once per recipient (each connection carries
// its own counter) and queues it to every id in ids except exceptID; pass 0
// to exclude nobody. A recipient whose queue rejects the frame is already
// on its way down, the failure stays contained to it.
// Returns the number of queued deliveries.
func (cm *ClientManager) BroadcastTo(ids []uint32, payload []byte, exceptID uint32) int {
	sent := 0
	for _, id := range ids {
		if id == exceptID {
			continue
		}
		c := cm.Get(id)
		if c == nil {
			continue
		}
		if err := c.SendPayload(payload); err != nil {
			slog.Debug("broadcast delivery failed", "client", c.IP(), "error", err)
			continue
		}
		sent++
	}
	return sent
}
