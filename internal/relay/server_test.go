package relay

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"net"
	"testing"
	"time"

	"github.com/udisondev/dcolony/internal/config"
	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/model"
	"github.com/udisondev/dcolony/internal/protocol"
	"github.com/udisondev/dcolony/internal/testutil"
)

// startTestServer runs a relay on an ephemeral loopback port with timings
// compressed for tests. The server stops with the test.
func startTestServer(t *testing.T, mutate func(*config.Relay)) (*Server, string) {
	t.Helper()

	cfg := config.DefaultRelay()
	cfg.GreetingDelay = 40 * time.Millisecond
	cfg.IdleTimeout = time.Minute
	cfg.ReapInterval = time.Minute
	cfg.LobbyPingInterval = 50 * time.Millisecond
	cfg.BattlePingInterval = 20 * time.Millisecond
	cfg.BattlePingTimeout = 5 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	srv := NewServer(cfg, WithRand(rand.New(rand.NewPCG(11, 13))))
	ln, addr := testutil.ListenTCP(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx, ln); err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, addr
}

// testPeer drives one client connection from the game's side of the wire.
type testPeer struct {
	t       *testing.T
	conn    net.Conn
	frames  <-chan recvFrame
	counter byte
}

func dialRelay(t *testing.T, addr string) *testPeer {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testPeer{t: t, conn: conn, frames: collectFrames(conn)}
}

// encodeFrame wraps a payload with the length header, this peer's counter
// nibble and the terminator.
func (p *testPeer) encodeFrame(payload []byte) []byte {
	p.t.Helper()
	buf := make([]byte, len(payload)+constants.FrameOverhead)
	copy(buf[constants.FrameHeaderSize:], payload)
	n, err := protocol.EncodeFrame(buf, p.counter, len(payload))
	if err != nil {
		p.t.Fatalf("encode frame: %v", err)
	}
	p.counter = (p.counter + 1) & constants.CounterMask
	return buf[:n]
}

func (p *testPeer) send(payload []byte) {
	p.t.Helper()
	if _, err := p.conn.Write(p.encodeFrame(payload)); err != nil {
		p.t.Fatalf("write frame: %v", err)
	}
}

// drainHandshake consumes the six welcome frames and returns the slot the
// server assigned.
func drainHandshake(t *testing.T, p *testPeer) byte {
	t.Helper()
	f := nextFrame(t, p.frames)
	if len(f.body) != 5 || f.body[0] != constants.OpcodeInitialPacket {
		t.Fatalf("first frame = % x, want greeting", f.body)
	}
	slot := f.body[3]
	for range 5 {
		nextFrame(t, p.frames)
	}
	return slot
}

func expectNoOpcode(t *testing.T, frames <-chan recvFrame, op byte, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return
			}
			if len(f.body) > 0 && f.body[0] == op {
				t.Fatalf("unexpected 0x%02X frame % x", op, f.body)
			}
		case <-deadline:
			return
		}
	}
}

func TestServer_HandshakeSequence(t *testing.T) {
	_, addr := startTestServer(t, nil)
	p := dialRelay(t, addr)

	// Greeting: fixed marker bytes around the assigned slot.
	f := nextFrame(t, p.frames)
	if f.counter != 0 {
		t.Errorf("greeting counter = %d, want 0", f.counter)
	}
	if len(f.body) != 5 || f.body[0] != constants.OpcodeInitialPacket ||
		f.body[1] != 0x0F || f.body[2] != 0x00 || f.body[4] != 0x00 {
		t.Fatalf("greeting = % x", f.body)
	}
	slot := f.body[3]
	if slot < model.FirstHumanSlot || slot >= model.SlotCount {
		t.Errorf("assigned slot %d out of range", slot)
	}

	// Room snapshot, distinguished from the map frame by its zero lead-in.
	f = nextFrame(t, p.frames)
	if f.counter != 1 || f.body[0] != constants.OpcodeRoomMap || f.body[1] != 0x00 {
		t.Fatalf("second frame counter=%d body=% x, want room snapshot", f.counter, f.body)
	}

	// Map descriptor with the stock eight player desert map.
	f = nextFrame(t, p.frames)
	wantPrefix := append([]byte{constants.OpcodeRoomMap, 'D', '8'}, "PLAY01.SCN\x00Armageddon\n"...)
	if f.counter != 2 || !bytes.HasPrefix(f.body, wantPrefix) {
		t.Fatalf("third frame counter=%d body=% x, want map descriptor", f.counter, f.body)
	}

	// Three welcome chat lines, each NUL terminated.
	for i := range 3 {
		f = nextFrame(t, p.frames)
		if f.counter != byte(3+i) {
			t.Errorf("welcome line %d counter = %d, want %d", i, f.counter, 3+i)
		}
		if f.body[0] != constants.OpcodePlayerChat || f.body[len(f.body)-1] != 0x00 {
			t.Errorf("welcome line %d = % x, want chat", i, f.body)
		}
	}
}

func TestServer_JoinBroadcastsSnapshot(t *testing.T) {
	srv, addr := startTestServer(t, nil)
	p1 := dialRelay(t, addr)
	drainHandshake(t, p1)

	p2 := dialRelay(t, addr)
	s2 := drainHandshake(t, p2)

	// The first client hears about the newcomer through a fresh snapshot.
	f := nextFrameWithOpcode(t, p1.frames, constants.OpcodeRoomMap)
	if f.body[1] != 0x00 {
		t.Fatalf("broadcast = % x, want room snapshot", f.body)
	}

	room := srv.rooms.Get(1)
	if room == nil {
		t.Fatal("room 1 missing")
	}
	got := room.Slots()[s2]
	if got.Type != model.SlotGamer || !got.Occupied() {
		t.Errorf("newcomer slot = %+v, want an occupied gamer", got)
	}
}

func TestServer_NameChangeReachesEveryone(t *testing.T) {
	_, addr := startTestServer(t, nil)
	p1 := dialRelay(t, addr)
	s1 := drainHandshake(t, p1)
	p2 := dialRelay(t, addr)
	drainHandshake(t, p2)

	p1.send(append([]byte{constants.OpcodePlayerName, s1, 0x00}, "Foo\x00"...))

	want := append([]byte{constants.OpcodePlayerName, s1, 0x00}, "Foo\x00"...)
	for _, p := range []*testPeer{p1, p2} {
		f := nextFrameWithOpcode(t, p.frames, constants.OpcodePlayerName)
		if !bytes.Equal(f.body, want) {
			t.Errorf("name broadcast = % x, want % x", f.body, want)
		}
	}
}

func TestServer_BattleLaunch(t *testing.T) {
	srv, addr := startTestServer(t, nil)
	p1 := dialRelay(t, addr)
	drainHandshake(t, p1)
	p2 := dialRelay(t, addr)
	drainHandshake(t, p2)

	begin := []byte{constants.OpcodeBeginBattle, 0x06, 0x00, 0x02}

	// The first initiator's ping stream starts before the room launches.
	p1.send(begin)
	f := nextFrameWithOpcode(t, p1.frames, constants.OpcodeBattlePing1)
	if seq := binary.LittleEndian.Uint32(f.body[1:5]); seq != 0 {
		t.Fatalf("first ping seq = %d, want 0", seq)
	}
	if srv.rooms.Get(1).InBattle() {
		t.Fatal("room launched with one initiator")
	}

	// The second initiator completes the set: game_speed goes out and the
	// room flips into battle.
	p2.send(begin)
	gameSpeed := []byte{constants.OpcodeGameSpeed, 0x21, 0x00, 0x00, 0x00}
	for _, p := range []*testPeer{p1, p2} {
		f := nextFrameWithOpcode(t, p.frames, constants.OpcodeGameSpeed)
		if !bytes.Equal(f.body, gameSpeed) {
			t.Fatalf("game_speed = % x, want % x", f.body, gameSpeed)
		}
	}
	if !srv.rooms.Get(1).InBattle() {
		t.Fatal("room not in battle after every client initiated")
	}

	// Echoing p2's ping advances its sequence against the captured base.
	f = nextFrameWithOpcode(t, p2.frames, constants.OpcodeBattlePing1)
	seq := binary.LittleEndian.Uint32(f.body[1:5])
	base := binary.LittleEndian.Uint32(f.body[5:9]) - seq
	p2.send(append([]byte(nil), f.body...))

	f = nextFrameWithOpcode(t, p2.frames, constants.OpcodeBattlePing1)
	nextSeq := binary.LittleEndian.Uint32(f.body[1:5])
	nextSum := binary.LittleEndian.Uint32(f.body[5:9])
	if nextSeq != seq+1 || nextSum != base+nextSeq {
		t.Errorf("ping after echo = (%d, %d), want (%d, %d)", nextSeq, nextSum, seq+1, base+nextSeq)
	}

	// In-battle commands relay to the rest of the room only.
	attack := []byte{constants.OpcodeUnitAttack, 0xAA, 0xBB, 0xCC}
	p1.send(attack)
	f = nextFrameWithOpcode(t, p2.frames, constants.OpcodeUnitAttack)
	if !bytes.Equal(f.body, attack) {
		t.Errorf("relayed = % x, want % x", f.body, attack)
	}
	expectNoOpcode(t, p1.frames, constants.OpcodeUnitAttack, 100*time.Millisecond)

	// Battling rooms drop out of the lobby ping rotation.
	expectNoOpcode(t, p2.frames, constants.OpcodePing, 150*time.Millisecond)
}

func TestServer_IdleClientsReaped(t *testing.T) {
	srv, addr := startTestServer(t, func(cfg *config.Relay) {
		cfg.IdleTimeout = 150 * time.Millisecond
		cfg.ReapInterval = 50 * time.Millisecond
	})
	p := dialRelay(t, addr)
	drainHandshake(t, p)

	// No inbound bytes at all: outbound lobby pings must not keep the
	// session alive.
	testutil.WaitForCleanup(t, func() bool {
		return srv.clients.Count() == 0
	}, 2*time.Second, "idle session reaped")

	for {
		select {
		case _, ok := <-p.frames:
			if !ok {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("connection still open after reap")
		}
	}
}

func TestServer_DisconnectRestoresSlot(t *testing.T) {
	srv, addr := startTestServer(t, nil)
	p1 := dialRelay(t, addr)
	drainHandshake(t, p1)
	p2 := dialRelay(t, addr)
	s2 := drainHandshake(t, p2)

	// Consume the join snapshot so the departure snapshot is next.
	nextFrameWithOpcode(t, p1.frames, constants.OpcodeRoomMap)
	before := srv.rooms.Get(1).Slots()[s2]

	p2.conn.Close()
	testutil.WaitForCleanup(t, func() bool {
		return srv.clients.Count() == 1
	}, 2*time.Second, "departed session removed")

	f := nextFrameWithOpcode(t, p1.frames, constants.OpcodeRoomMap)
	if f.body[1] != 0x00 {
		t.Fatalf("broadcast = % x, want room snapshot", f.body)
	}

	got := srv.rooms.Get(1).Slots()[s2]
	if got.Type != model.SlotNone || got.ClientID != 0 || !got.Ready {
		t.Errorf("freed slot = %+v, want an open ready position", got)
	}
	// Cosmetic fields survive the departure.
	if got.Color != before.Color || got.Team != before.Team || got.Name != before.Name {
		t.Errorf("freed slot cosmetics = %+v, want those of %+v", got, before)
	}
}

func TestServer_FragmentedFrameDispatchesOnce(t *testing.T) {
	_, addr := startTestServer(t, nil)
	p1 := dialRelay(t, addr)
	s1 := drainHandshake(t, p1)
	p2 := dialRelay(t, addr)
	drainHandshake(t, p2)

	// A 14 byte name frame delivered in chunks of 5 and 9 dispatches
	// exactly once.
	frame := p1.encodeFrame(append([]byte{constants.OpcodePlayerName, s1, 0x00}, "Colony7\x00"...))
	if len(frame) != 14 {
		t.Fatalf("frame length = %d, want 14", len(frame))
	}
	if _, err := p1.conn.Write(frame[:5]); err != nil {
		t.Fatalf("write first chunk: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := p1.conn.Write(frame[5:]); err != nil {
		t.Fatalf("write second chunk: %v", err)
	}

	want := append([]byte{constants.OpcodePlayerName, s1, 0x00}, "Colony7\x00"...)
	for _, p := range []*testPeer{p1, p2} {
		f := nextFrameWithOpcode(t, p.frames, constants.OpcodePlayerName)
		if !bytes.Equal(f.body, want) {
			t.Errorf("broadcast = % x, want % x", f.body, want)
		}
	}
	expectNoOpcode(t, p1.frames, constants.OpcodePlayerName, 100*time.Millisecond)
}

func TestServer_MalformedLengthResyncs(t *testing.T) {
	_, addr := startTestServer(t, nil)
	p1 := dialRelay(t, addr)
	drainHandshake(t, p1)

	// A length below the housekeeping minimum cannot be a frame; the
	// stream recovers at the next boundary.
	if _, err := p1.conn.Write([]byte{0x01, 0x00}); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	p1.send([]byte{constants.OpcodePlayerChat, 'o', 'k', 0x00})

	f := nextFrameWithOpcode(t, p1.frames, constants.OpcodePlayerChat)
	want := []byte{constants.OpcodePlayerChat, 'o', 'k', 0x00}
	if !bytes.Equal(f.body, want) {
		t.Errorf("chat after resync = % x, want % x", f.body, want)
	}
}

func TestServer_RunServesConfiguredPort(t *testing.T) {
	cfg := config.DefaultRelay()
	cfg.BindAddress = "127.0.0.1"
	cfg.Port = 0
	cfg.GreetingDelay = 10 * time.Millisecond

	srv := NewServer(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()

	testutil.WaitForCleanup(t, func() bool {
		return srv.Addr() != nil
	}, 2*time.Second, "listener up")
	testutil.WaitForTCPReady(t, srv.Addr().String(), 2*time.Second)

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	f := nextFrame(t, collectFrames(conn))
	if f.body[0] != constants.OpcodeInitialPacket {
		t.Fatalf("first frame = % x, want greeting", f.body)
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
