package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/dcolony/internal/model"
	"github.com/udisondev/dcolony/internal/relay/serverpackets"
)

// runIdleReaper disconnects clients whose last inbound read is older than
// the idle timeout. Any inbound byte counts as activity, so a lobby client
// stays alive through its own ping echoes.
func (s *Server) runIdleReaper(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now()
			s.clients.ForEachClient(func(c *Client) bool {
				idle := now.Sub(c.LastActivity())
				if idle <= s.cfg.IdleTimeout {
					return true
				}
				slog.Info("client disconnected",
					"type", "disconnect",
					"reason", "idle",
					"client", c.IP(),
					"id", c.ID(),
					"idle", idle.Round(time.Millisecond))
				c.Close()
				return true
			})
			slog.Debug("server stats",
				"clients", s.clients.Count(),
				"rooms", s.rooms.Count())
		}
	}
}

// runLobbyPing keeps NAT mappings warm: every interval each waiting room
// with clients gets an empty ping frame fanned out to everyone who already
// finished the lobby handshake.
func (s *Server) runLobbyPing(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.LobbyPingInterval)
	defer ticker.Stop()

	var payload [1]byte
	n := serverpackets.Ping(payload[:])

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.rooms.ForEachRoom(func(room *model.Room) bool {
				if room.InBattle() || room.ClientCount() == 0 {
					return true
				}
				room.BumpLobbyPings()
				for _, id := range room.ClientIDs() {
					c := s.clients.Get(id)
					if c == nil || !c.MapSent() {
						continue
					}
					if err := c.SendPayload(payload[:n]); err != nil {
						slog.Debug("lobby ping failed", "client", c.IP(), "error", err)
					}
				}
				return true
			})
		}
	}
}
