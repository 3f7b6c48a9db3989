package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/relay/serverpackets"
)

// battlePinger drives the in-battle heartbeat for one client at roughly
// 30 Hz. The client echoes every ping; an echo missing past the timeout
// counts as lost and the stream moves on, so one dropped packet cannot
// stall a battle.
type battlePinger struct {
	client      *Client
	initCounter uint32
	interval    time.Duration
	timeout     time.Duration

	echoCh   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// newBattlePinger captures the client's outbound counter into the ping
// payload base. It must be constructed when begin_battle arrives, before
// any response frames advance the counter.
func newBattlePinger(c *Client, interval, timeout time.Duration) *battlePinger {
	return &battlePinger{
		client:      c,
		initCounter: uint32(c.CounterSnapshot()),
		interval:    interval,
		timeout:     timeout,
		echoCh:      make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
}

// run is the driver loop: send ping 0, then alternate between echo waits
// and interval sleeps. Launched by Client.StartPinger.
func (p *battlePinger) run() {
	timeout := time.NewTimer(p.timeout)
	defer timeout.Stop()

	var seq uint32
	p.sendPing(seq)
	lastSend := time.Now()

	for {
		select {
		case <-p.echoCh:
			seq++
			// The next ping is due interval after the previous send, not
			// after the echo, so the cadence holds under jitter.
			if wait := time.Until(lastSend.Add(p.interval)); wait > 0 {
				pause := time.NewTimer(wait)
				select {
				case <-pause.C:
				case <-p.stopCh:
					pause.Stop()
					return
				}
			}
			p.sendPing(seq)
			lastSend = time.Now()
			timeout.Reset(p.timeout)

		case <-timeout.C:
			// Lost echo: keep the stream alive rather than waiting forever.
			slog.Warn("battle ping echo timed out", "client", p.client.IP(), "seq", seq)
			seq++
			p.sendPing(seq)
			lastSend = time.Now()
			timeout.Reset(p.timeout)

		case <-p.stopCh:
			return
		}
	}
}

func (p *battlePinger) sendPing(seq uint32) {
	var buf [1 + constants.BattlePingPayloadSize]byte
	n := serverpackets.BattlePing(buf[:], seq, p.initCounter+seq)
	if err := p.client.SendPayload(buf[:n]); err != nil {
		slog.Debug("battle ping send failed", "client", p.client.IP(), "error", err)
	}
}

// Echo hands a battle_ping1 receipt to the driver. Non-blocking; an echo
// arriving while one is already pending is dropped.
func (p *battlePinger) Echo() {
	select {
	case p.echoCh <- struct{}{}:
	default:
	}
}

// Stop cancels the driver. Safe to call multiple times and from any
// goroutine, including the teardown path racing the driver itself.
func (p *battlePinger) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}
