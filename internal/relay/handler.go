package relay

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/dcolony/internal/constants"
	"github.com/udisondev/dcolony/internal/model"
	"github.com/udisondev/dcolony/internal/protocol"
	"github.com/udisondev/dcolony/internal/relay/clientpackets"
	"github.com/udisondev/dcolony/internal/relay/serverpackets"
)

// Handler dispatches decoded lobby and battle commands.
type Handler struct {
	rooms   *RoomManager
	clients *ClientManager
	pool    *BytePool

	battlePingInterval time.Duration
	battlePingTimeout  time.Duration
}

// NewHandler creates the command dispatcher.
func NewHandler(rooms *RoomManager, clients *ClientManager, pool *BytePool, pingInterval, pingTimeout time.Duration) *Handler {
	return &Handler{
		rooms:              rooms,
		clients:            clients,
		pool:               pool,
		battlePingInterval: pingInterval,
		battlePingTimeout:  pingTimeout,
	}
}

// HandleFrame splits a frame body into commands and dispatches each one.
// Malformed input is logged and dropped; inbound bytes never kill the
// connection.
func (h *Handler) HandleFrame(client *Client, body []byte) {
	for len(body) > 0 {
		cmd, rest, err := protocol.NextCommand(body)
		if err != nil {
			// No later command boundary can be recovered, dump and move on.
			slog.Warn("unknown command, skipping rest of frame",
				"opcode", fmt.Sprintf("0x%02X", cmd.Opcode),
				"data", fmt.Sprintf("% x", cmd.Data),
				"client", client.IP())
			return
		}
		h.handleCommand(client, cmd)
		body = rest
	}
}

func (h *Handler) handleCommand(client *Client, cmd protocol.Command) {
	switch cmd.Opcode {
	case constants.OpcodePlayerName:
		h.handlePlayerName(client, cmd.Data)
	case constants.OpcodePlayerChat:
		h.handlePlayerChat(client, cmd.Data)
	case constants.OpcodePlayerRace:
		h.handlePlayerRace(client, cmd.Data)
	case constants.OpcodePlayerColor:
		h.handlePlayerColor(client, cmd.Data)
	case constants.OpcodePlayerTeam:
		h.handlePlayerTeam(client, cmd.Data)
	case constants.OpcodePlayerReady:
		h.handlePlayerReady(client, cmd.Data)
	case constants.OpcodeBeginBattle:
		h.handleBeginBattle(client, cmd.Data)
	case constants.OpcodeBattlePing1:
		h.handleBattlePing(client, cmd.Data)
	case constants.OpcodeBattlePing2:
		slog.Debug("battle_ping2",
			"client", client.IP(),
			"data", fmt.Sprintf("% x", cmd.Data))
	case constants.OpcodeRoomParam:
		// Clients bounce snapshot room_param bytes back; nothing to answer.
		slog.Debug("room_param echo", "client", client.IP())
	case constants.OpcodePing:
		slog.Debug("ping", "client", client.IP())
	case constants.OpcodeInitialPacket, constants.OpcodePlayerType,
		constants.OpcodePlayerInit, constants.OpcodePlayerTeam2:
		// Server-to-client commands echoed back by some client builds.
		slog.Debug("ignoring echoed server command",
			"command", protocol.CommandName(cmd.Opcode),
			"client", client.IP())
	default:
		if cmd.Opcode >= constants.RelayOpcodeMin && cmd.Opcode <= constants.RelayOpcodeMax {
			h.handleRelay(client, cmd.Opcode, cmd.Data)
			return
		}
		slog.Warn("unhandled command",
			"opcode", fmt.Sprintf("0x%02X", cmd.Opcode),
			"client", client.IP())
	}
}

// handlePlayerName stores the sanitized name and broadcasts the
// renormalized form to everyone in the room, sender included.
func (h *Handler) handlePlayerName(client *Client, data []byte) {
	pkt, err := clientpackets.ParsePlayerName(data)
	if err != nil {
		slog.Warn("dropping malformed player_name", "client", client.IP(), "error", err)
		return
	}
	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}

	name := model.SanitizeName(pkt.Name)
	if err := room.SetName(pkt.Ordinal, name); err != nil {
		slog.Warn("dropping player_name", "client", client.IP(), "error", err)
		return
	}

	buf := h.pool.Get(constants.DefaultFrameBufSize)
	n := serverpackets.PlayerName(buf, pkt.Ordinal, name)
	h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
	h.pool.Put(buf)

	slog.Debug("player renamed", "room", room.ID(), "slot", pkt.Ordinal, "name", name)
}

func (h *Handler) handlePlayerChat(client *Client, data []byte) {
	pkt, err := clientpackets.ParsePlayerChat(data)
	if err != nil {
		slog.Warn("dropping malformed player_chat", "client", client.IP(), "error", err)
		return
	}
	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}

	text := model.SanitizeChat(pkt.Text)
	buf := h.pool.Get(constants.DefaultFrameBufSize)
	n := serverpackets.PlayerChat(buf, text)
	h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
	h.pool.Put(buf)
}

func (h *Handler) handlePlayerRace(client *Client, data []byte) {
	pkt, err := clientpackets.ParsePlayerRace(data)
	if err != nil {
		slog.Warn("dropping malformed player_race", "client", client.IP(), "error", err)
		return
	}
	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}
	if err := room.SetRace(pkt.Ordinal, pkt.Race); err != nil {
		slog.Warn("dropping player_race", "client", client.IP(), "error", err)
		return
	}

	var buf [3]byte
	n := serverpackets.PlayerRace(buf[:], pkt.Race, pkt.Ordinal)
	h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
}

func (h *Handler) handlePlayerColor(client *Client, data []byte) {
	pkt, err := clientpackets.ParsePlayerColor(data)
	if err != nil {
		slog.Warn("dropping malformed player_color", "client", client.IP(), "error", err)
		return
	}
	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}
	if err := room.SetColor(pkt.Ordinal, pkt.Color); err != nil {
		slog.Warn("dropping player_color", "client", client.IP(), "error", err)
		return
	}

	var buf [3]byte
	n := serverpackets.PlayerColor(buf[:], pkt.Color, pkt.Ordinal)
	h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
}

func (h *Handler) handlePlayerTeam(client *Client, data []byte) {
	pkt, err := clientpackets.ParsePlayerTeam(data)
	if err != nil {
		slog.Warn("dropping malformed player_team", "client", client.IP(), "error", err)
		return
	}
	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}
	if err := room.SetTeam(pkt.Ordinal, pkt.Team); err != nil {
		slog.Warn("dropping player_team", "client", client.IP(), "error", err)
		return
	}

	var buf [3]byte
	n := serverpackets.PlayerTeam(buf[:], pkt.Team, pkt.Ordinal)
	h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
}

// handlePlayerReady marks the sender's own slot ready regardless of the
// ordinal byte in the payload. Once every occupied human slot is ready the
// AI slot follows with its own broadcast.
func (h *Handler) handlePlayerReady(client *Client, data []byte) {
	pkt, err := clientpackets.ParsePlayerReady(data)
	if err != nil {
		slog.Warn("dropping malformed player_ready", "client", client.IP(), "error", err)
		return
	}
	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}

	idx, aiReadied, err := room.SetReady(client.ID())
	if err != nil {
		slog.Warn("dropping player_ready", "client", client.IP(), "error", err)
		return
	}

	var buf [3]byte
	n := serverpackets.PlayerReady(buf[:], model.ReadyByteForBattle, idx)
	h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)

	if aiReadied {
		n = serverpackets.PlayerReady(buf[:], model.ReadyByteForBattle, model.AISlot)
		h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
	}

	slog.Debug("player ready", "room", room.ID(), "slot", idx, "toggle", pkt.Ready)
}

// handleBeginBattle flags the sender, launches the room once every joined
// client has flagged, and starts the sender's ping stream.
func (h *Handler) handleBeginBattle(client *Client, data []byte) {
	if err := clientpackets.ParseBeginBattle(data); err != nil {
		slog.Warn("dropping begin_battle", "client", client.IP(), "error", err)
		return
	}

	// The counter snapshot happens before any responses below advance it;
	// the ping payload base depends on it.
	pinger := newBattlePinger(client, h.battlePingInterval, h.battlePingTimeout)
	client.MarkBattleInitiated()

	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}

	launched := room.BeginBattle(func(id uint32) bool {
		c := h.clients.Get(id)
		return c != nil && c.BattleInitiated()
	})
	if launched {
		var buf [5]byte
		n := serverpackets.GameSpeed(buf[:], constants.GameSpeedDefault)
		h.clients.BroadcastTo(room.ClientIDs(), buf[:n], 0)
		slog.Info("battle started", "room", room.ID(), "clients", room.ClientCount())
	}

	if client.StartPinger(pinger) {
		slog.Debug("battle ping stream started", "client", client.IP())
	}
}

func (h *Handler) handleBattlePing(client *Client, data []byte) {
	pkt, err := clientpackets.ParseBattlePing(data)
	if err != nil {
		slog.Warn("dropping malformed battle_ping1", "client", client.IP(), "error", err)
		return
	}
	p := client.Pinger()
	if p == nil {
		slog.Debug("battle_ping1 before battle start", "client", client.IP(), "seq", pkt.Seq)
		return
	}
	p.Echo()
}

// handleRelay forwards an in-battle command to every other client in the
// room. unit_move loses its trailing NUL before rebroadcast.
func (h *Handler) handleRelay(client *Client, opcode byte, data []byte) {
	if opcode == constants.OpcodeUnitMove {
		if n := len(data); n > 0 && data[n-1] == 0x00 {
			data = data[:n-1]
		}
	}
	room := h.rooms.Get(client.Room())
	if room == nil {
		return
	}

	buf := h.pool.Get(1 + len(data))
	n := serverpackets.Relay(buf, opcode, data)
	h.clients.BroadcastTo(room.ClientIDs(), buf[:n], client.ID())
	h.pool.Put(buf)

	slog.Debug("relayed",
		"command", protocol.CommandName(opcode),
		"room", room.ID(),
		"bytes", n)
}
