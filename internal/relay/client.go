package relay

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/protocol"
)

// Default write queue / timeout constants.
// Overridden by config values when available.
const (
	defaultSendQueueSize = 256
	defaultWriteTimeout  = 5 * time.Second
)

// Client represents a single Dark Colony connection.
type Client struct {
	id   uint32
	conn net.Conn
	ip   string

	// sendMu orders counter assignment and queue insertion together, so
	// frames reach the wire in counter order.
	sendMu  sync.Mutex
	counter byte

	// lastActivity holds unix nanos of the most recent inbound read.
	lastActivity atomic.Int64

	battleInitiated atomic.Bool
	mapSent         atomic.Bool

	// mu protects the room binding and the battle pinger (rare operations).
	mu     sync.Mutex
	roomID int
	slot   int
	pinger *battlePinger

	// Per-client write queue: buffered channel of framed packets
	// (pool-backed), drained by a dedicated writePump goroutine.
	sendCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once

	writePool    *BytePool
	writeTimeout time.Duration
}

// NewClient creates the session state for an accepted connection.
func NewClient(id uint32, conn net.Conn, writePool *BytePool, sendQueueSize int, writeTimeout time.Duration) (*Client, error) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, fmt.Errorf("splitting host port: %w", err)
	}

	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	c := &Client{
		id:           id,
		conn:         conn,
		ip:           host,
		slot:         -1,
		sendCh:       make(chan []byte, sendQueueSize),
		closeCh:      make(chan struct{}),
		writePool:    writePool,
		writeTimeout: writeTimeout,
	}
	c.Touch()
	return c, nil
}

// ID returns the session id assigned on accept.
func (c *Client) ID() uint32 {
	return c.id
}

// IP returns the client's remote IP address.
func (c *Client) IP() string {
	return c.ip
}

// SetRoom records the room and slot the client was admitted to.
func (c *Client) SetRoom(roomID, slot int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
	c.slot = slot
}

// Room returns the id of the room the client belongs to.
func (c *Client) Room() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Slot returns the assigned slot index, -1 before admission.
func (c *Client) Slot() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// Touch records inbound activity for the idle reaper.
func (c *Client) Touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the time of the most recent inbound read.
func (c *Client) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// MarkBattleInitiated records that this client sent begin_battle.
func (c *Client) MarkBattleInitiated() {
	c.battleInitiated.Store(true)
}

// BattleInitiated reports whether this client sent begin_battle.
func (c *Client) BattleInitiated() bool {
	return c.battleInitiated.Load()
}

// MarkMapSent records that the lobby handshake finished. The lobby ping
// ticker only targets clients past this point.
func (c *Client) MarkMapSent() {
	c.mapSent.Store(true)
}

// MapSent reports whether the lobby handshake finished.
func (c *Client) MapSent() bool {
	return c.mapSent.Load()
}

// CounterSnapshot returns the counter value the next outgoing frame will
// carry. The battle ping driver captures it when begin_battle arrives.
func (c *Client) CounterSnapshot() byte {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.counter
}

// SendPayload frames a command payload (opcode plus data) and queues it for
// async delivery. The payload is copied into a pooled buffer; the caller
// keeps ownership of payload.
func (c *Client) SendPayload(payload []byte) error {
	if len(payload) > constants.MaxPayloadSize {
		return fmt.Errorf("payload of %d bytes exceeds frame limit", len(payload))
	}

	buf := c.writePool.Get(len(payload) + constants.FrameOverhead)
	copy(buf[constants.FrameHeaderSize:], payload)

	// Counter assignment and enqueue stay under one lock so concurrent
	// senders cannot reorder nibbles on the wire.
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	ctr := c.counter
	if _, err := protocol.EncodeFrame(buf, ctr, len(payload)); err != nil {
		c.writePool.Put(buf)
		return err
	}
	if err := c.send(buf); err != nil {
		return err
	}
	c.counter = (ctr + 1) & constants.CounterMask
	return nil
}

// send queues a framed packet for async delivery. Non-blocking: a full
// queue means the client stopped reading, so the connection is torn down.
// Takes ownership of pkt and returns it to the pool on failure.
func (c *Client) send(pkt []byte) error {
	if c.Closed() {
		c.writePool.Put(pkt)
		return fmt.Errorf("connection closed")
	}
	select {
	case c.sendCh <- pkt:
		return nil
	default:
		c.writePool.Put(pkt)
		slog.Warn("send queue full, disconnecting slow client", "client", c.ip)
		c.Close()
		return fmt.Errorf("send queue full")
	}
}

// writePump is the dedicated writer goroutine for this client. It reads
// framed packets from sendCh and writes them to conn, batching with
// net.Buffers (writev) when several packets are queued. Buffers go back to
// the pool after every write, success or not.
func (c *Client) writePump() {
	bufs := make(net.Buffers, 0, 64)
	poolBufs := make([][]byte, 0, 64)

	defer func() {
		// Drain remaining packets and return them to the pool.
		for {
			select {
			case pkt := <-c.sendCh:
				c.writePool.Put(pkt)
			default:
				return
			}
		}
	}()

	for {
		select {
		case pkt := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				slog.Warn("set write deadline failed", "client", c.ip, "error", err)
				c.writePool.Put(pkt)
				c.Close()
				return
			}

			queued := len(c.sendCh)
			if queued == 0 {
				// Single packet, direct write.
				_, err := c.conn.Write(pkt)
				c.writePool.Put(pkt)
				if err != nil {
					slog.Warn("write failed", "client", c.ip, "error", err)
					c.Close()
					return
				}
				continue
			}

			// Multiple packets queued, hand them to writev in one call.
			bufs = bufs[:0]
			poolBufs = poolBufs[:0]
			bufs = append(bufs, pkt)
			poolBufs = append(poolBufs, pkt)
			for range queued {
				p := <-c.sendCh
				bufs = append(bufs, p)
				poolBufs = append(poolBufs, p)
			}

			_, err := bufs.WriteTo(c.conn)
			for _, b := range poolBufs {
				c.writePool.Put(b)
			}
			if err != nil {
				slog.Warn("batch write failed", "client", c.ip, "error", err)
				c.Close()
				return
			}

		case <-c.closeCh:
			return
		}
	}
}

// StartPinger installs and launches the battle ping driver. Reports false
// when one is already running, so duplicate begin_battle sends do not
// double the stream.
func (c *Client) StartPinger(p *battlePinger) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pinger != nil {
		return false
	}
	c.pinger = p
	go p.run()
	return true
}

// Pinger returns the battle ping driver, nil before battle start.
func (c *Client) Pinger() *battlePinger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pinger
}

// StopPinger cancels the battle ping driver if one is running.
func (c *Client) StopPinger() {
	c.mu.Lock()
	p := c.pinger
	c.pinger = nil
	c.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// Closed reports whether the connection has been shut down.
func (c *Client) Closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// CloseAsync signals the writePump to stop without blocking.
// Safe to call multiple times.
func (c *Client) CloseAsync() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})
}

// Close stops the writePump and closes the connection, unblocking any
// pending read.
func (c *Client) Close() error {
	c.CloseAsync()
	return c.conn.Close()
}
