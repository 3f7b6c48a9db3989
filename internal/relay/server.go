package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/dcolony/internal/config"
	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/model"
	"github.com/udisondev/dcolony/internal/protocol"
	"github.com/udisondev/dcolony/internal/relay/serverpackets"
)

const keepAlivePeriod = 30 * time.Second

// ServerOption is a functional option for Server configuration.
type ServerOption func(*Server)

// WithRand sets a custom rand source (useful for deterministic tests).
func WithRand(rng *rand.Rand) ServerOption {
	return func(s *Server) {
		s.rng = rng
	}
}

// Server accepts Dark Colony connections, runs their lobbies and relays
// their battles.
type Server struct {
	cfg config.Relay
	rng *rand.Rand

	clients  *ClientManager
	rooms    *RoomManager
	handler  *Handler
	sendPool *BytePool

	listener net.Listener
	mu       sync.Mutex
}

// NewServer wires the managers and the dispatcher from config.
func NewServer(cfg config.Relay, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		clients:  NewClientManager(),
		sendPool: NewBytePool(constants.DefaultFrameBufSize),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.rooms = NewRoomManager(mapInfoFromConfig(cfg.Map), s.rng)
	s.handler = NewHandler(s.rooms, s.clients, s.sendPool, cfg.BattlePingInterval, cfg.BattlePingTimeout)
	return s
}

// mapInfoFromConfig overlays configured map fields onto the built-in
// default scenario.
func mapInfoFromConfig(m config.Map) model.MapInfo {
	info := model.DefaultMapInfo()
	if m.Type != "" {
		info.Type = m.Type[0]
	}
	if m.PlayerCount != "" {
		info.PlayerCount = m.PlayerCount[0]
	}
	if m.Filename != "" {
		info.Filename = m.Filename
	}
	if m.DisplayName != "" {
		info.DisplayName = m.DisplayName
	}
	return info
}

// Addr returns the address the server listens on, nil before Run.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close shuts the listener down and stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run listens on cfg.BindAddress:cfg.Port and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindAddress, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from a ready listener and runs the periodic
// tickers until ctx is canceled. Used directly by tests with ephemeral
// listeners. Returns nil on graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var conns sync.WaitGroup

	g.Go(func() error {
		slog.Info("relay server started", "address", ln.Addr())
		s.acceptLoop(ctx, &conns, ln)
		return nil
	})
	g.Go(func() error {
		return s.runIdleReaper(ctx)
	})
	g.Go(func() error {
		return s.runLobbyPing(ctx)
	})

	err := g.Wait()
	conns.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, conns *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("failed to accept new connection", "error", err)
				continue
			}
			tuneConn(conn)
			conns.Go(func() {
				s.handleConnection(ctx, conn)
			})
		}
	}
}

// tuneConn applies the relay's TCP knobs: Nagle off so the battle
// heartbeat leaves at once, kernel keep-alives under the application ones.
func tuneConn(conn net.Conn) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	tcp.SetNoDelay(true)
	tcp.SetKeepAlive(true)
	tcp.SetKeepAlivePeriod(keepAlivePeriod)
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	client, err := NewClient(s.clients.NextID(), conn, s.sendPool, s.cfg.SendQueueSize, s.cfg.WriteTimeout)
	if err != nil {
		slog.Error("failed to create client", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	room, slot, hadOthers, err := s.rooms.Admit(client.ID())
	if err != nil {
		slog.Warn("no room available, dropping connection", "client", client.IP(), "error", err)
		return
	}
	client.SetRoom(room.ID(), slot)
	s.clients.Register(client)
	go client.writePump()

	defer s.teardown(client)

	slog.Info("client connected",
		"client", client.IP(),
		"id", client.ID(),
		"room", room.ID(),
		"slot", slot)

	// The greeting delay filters port scanners that vanish right after
	// connecting; no point composing a snapshot for them.
	if !sleepCtx(ctx, s.cfg.GreetingDelay) {
		return
	}

	if err := s.sendWelcome(client, room, hadOthers); err != nil {
		slog.Warn("welcome sequence failed", "client", client.IP(), "error", err)
		return
	}

	s.readLoop(ctx, client, conn)
}

// sendWelcome runs the lobby handshake: greeting, room snapshot, map
// descriptor, then the configured chat lines. Pre-existing room members get
// a snapshot update after the newcomer has its map packet.
func (s *Server) sendWelcome(client *Client, room *model.Room, hadOthers bool) error {
	buf := s.sendPool.Get(constants.SnapshotBufSize)
	defer s.sendPool.Put(buf)

	n := serverpackets.Greeting(buf, client.Slot())
	if err := client.SendPayload(buf[:n]); err != nil {
		return fmt.Errorf("greeting: %w", err)
	}

	n = serverpackets.RoomSnapshot(buf, room.Slots())
	if err := client.SendPayload(buf[:n]); err != nil {
		return fmt.Errorf("room snapshot: %w", err)
	}

	n = serverpackets.MapDescriptor(buf, room.MapInfo())
	if err := client.SendPayload(buf[:n]); err != nil {
		return fmt.Errorf("map descriptor: %w", err)
	}

	for _, line := range s.cfg.WelcomeLines {
		n = serverpackets.PlayerChat(buf, model.SanitizeChat(line))
		if err := client.SendPayload(buf[:n]); err != nil {
			return fmt.Errorf("welcome chat: %w", err)
		}
	}

	client.MarkMapSent()

	if hadOthers {
		n = serverpackets.RoomSnapshot(buf, room.Slots())
		s.clients.BroadcastTo(room.ClientIDs(), buf[:n], client.ID())
	}
	return nil
}

func (s *Server) readLoop(ctx context.Context, client *Client, conn net.Conn) {
	dec := protocol.NewDecoder()
	chunk := make([]byte, constants.DefaultReadBufSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(chunk)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				slog.Debug("read failed", "client", client.IP(), "error", err)
			}
			return
		}
		client.Touch()
		dec.Feed(chunk[:n])

		for {
			body, counter, err := dec.Next()
			if err != nil {
				slog.Warn("malformed frame, resyncing", "client", client.IP(), "error", err)
				continue
			}
			if body == nil {
				break
			}
			slog.Debug("frame received",
				"client", client.IP(),
				"counter", counter,
				"bytes", len(body))
			s.handler.HandleFrame(client, body)
		}
	}
}

// teardown runs the disconnect path in strict order: silence the ping
// stream, drop the session from the registry, free the room slot, then let
// any survivors see the updated lobby.
func (s *Server) teardown(client *Client) {
	client.StopPinger()
	client.Close()
	s.clients.Unregister(client.ID())

	room, remaining := s.rooms.Leave(client.Room(), client.ID())
	if room != nil && remaining > 0 {
		buf := s.sendPool.Get(constants.SnapshotBufSize)
		n := serverpackets.RoomSnapshot(buf, room.Slots())
		s.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
		s.sendPool.Put(buf)
	}

	slog.Info("client disconnected",
		"client", client.IP(),
		"id", client.ID(),
		"room", client.Room())
}

// sleepCtx waits for d and reports false when ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
