package server

import (
	"github.com/quadris-game/netcode/internal/analytics"
	"github.com/quadris-game/netcode/internal/logger"
	"github.com/quadris-game/netcode/internal/metrics"
	"github.com/quadris-game/netcode/internal/protocol"
)

// roomState tracks where a room is in its lifecycle.
type roomState int

const (
	roomLobby roomState = iota
	roomActive
)

// slot is one seat of a room.
type slot struct {
	kind     protocol.SlotKind
	clientID protocol.ClientID
	playerID protocol.PlayerID
	name     string
}

func (s slot) occupied() bool {
	return s.kind == protocol.SlotHuman || s.kind == protocol.SlotAI
}

// Room is the server-side session aggregate: a fixed set of slots, the
// connected clients, and the handlers that turn inbound commands into
// broadcasts. Rooms are owned by the server's Run loop and are never touched
// from anywhere else.
type Room struct {
	ID     protocol.RoomID
	Name   string
	Public bool

	srv     *Server
	slots   []slot
	clients map[protocol.ClientID]*clientConn
	order   []protocol.ClientID // join order, for stable Connections lists
	paused  bool
	state   roomState

	// OnSlotsChanged lets the hosting process mirror the slot table into its
	// own UI. Called after every handled message, network effect or not.
	OnSlotsChanged func([]protocol.SlotInfo)
}

func newRoom(srv *Server, name string, public bool, slotCount int) *Room {
	return &Room{
		ID:      protocol.NewRoomID(),
		Name:    name,
		Public:  public,
		srv:     srv,
		slots:   make([]slot, slotCount),
		clients: make(map[protocol.ClientID]*clientConn),
	}
}

func (r *Room) addClient(conn *clientConn) {
	if _, ok := r.clients[conn.id]; ok {
		return
	}
	r.clients[conn.id] = conn
	r.order = append(r.order, conn.id)
}

// removeClient drops the client and opens any slots it owned.
func (r *Room) removeClient(clientID protocol.ClientID) {
	if _, ok := r.clients[clientID]; !ok {
		return
	}
	delete(r.clients, clientID)
	for i := range r.order {
		if r.order[i] == clientID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for i := range r.slots {
		if r.slots[i].clientID == clientID {
			r.slots[i] = slot{}
		}
	}
}

func (r *Room) empty() bool      { return len(r.clients) == 0 }
func (r *Room) clientCount() int { return len(r.clients) }

func (r *Room) connections() []*clientConn {
	conns := make([]*clientConn, 0, len(r.clients))
	for _, id := range r.order {
		if conn, ok := r.clients[id]; ok {
			conns = append(conns, conn)
		}
	}
	return conns
}

// receive dispatches one inbound message from a room member. Unknown or
// out-of-place messages are dropped; nothing here is fatal.
func (r *Room) receive(sender *clientConn, msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.PlayerSlot:
		r.handlePlayerSlot(sender, m)
	case *protocol.GameCommand:
		r.paused = m.Pause
		r.broadcast(m, "")
	case *protocol.StartGame:
		r.handleStartGame(sender)
	case *protocol.BoardMove:
		r.relayBoard(sender, m, m.PlayerID)
	case *protocol.BoardNextBlock:
		r.relayBoard(sender, m, m.PlayerID)
	case *protocol.BoardExternalSquares:
		r.relayBoard(sender, m, m.PlayerID)
	case *protocol.RequestGameRestart:
		current, next := protocol.DrawBlockPair(r.srv.rng)
		r.state = roomActive
		r.broadcast(&protocol.RequestGameRestart{Current: current, Next: next}, "")
		r.srv.emit(analytics.GameRestartedEvent(string(r.ID), string(sender.id)))
	case *protocol.GameRestart:
		r.state = roomActive
		r.broadcast(&protocol.GameRestart{
			Current:        m.Current,
			Next:           m.Next,
			SourceClientID: sender.id,
		}, "")
		r.srv.emit(analytics.GameRestartedEvent(string(r.ID), string(sender.id)))
	case *protocol.RemoveClient:
		r.handleRemoveClient(m.ClientID)
	default:
		metrics.DroppedMessages.WithLabelValues("unhandled_kind").Inc()
		logger.Debug("room dropping message", map[string]interface{}{
			"roomId": string(r.ID),
			"kind":   msg.Kind().String(),
		})
	}
	r.notifySlots()
}

// handlePlayerSlot honors the change only when the slot is open or already
// owned by the sender. Anything else leaves the table untouched.
func (r *Room) handlePlayerSlot(sender *clientConn, m *protocol.PlayerSlot) {
	if m.Index < 0 || m.Index >= len(r.slots) {
		metrics.DroppedMessages.WithLabelValues("slot_out_of_range").Inc()
		return
	}
	current := r.slots[m.Index]
	allowed := current.kind == protocol.SlotOpen ||
		(current.occupied() && current.clientID == sender.id)
	if !allowed {
		metrics.DroppedMessages.WithLabelValues("slot_not_owned").Inc()
		return
	}

	switch m.Slot {
	case protocol.SlotOpen, protocol.SlotClosed:
		r.slots[m.Index] = slot{kind: m.Slot}
	case protocol.SlotHuman, protocol.SlotAI:
		playerID := current.playerID
		if current.clientID != sender.id || playerID == "" {
			playerID = protocol.NewPlayerID()
		}
		r.slots[m.Index] = slot{
			kind:     m.Slot,
			clientID: sender.id,
			playerID: playerID,
			name:     m.Name,
		}
	default:
		metrics.DroppedMessages.WithLabelValues("slot_bad_kind").Inc()
		return
	}
	r.broadcastLobby()
}

// handleStartGame announces one game with a single shared block pair so every
// client starts all boards from the same point in the piece sequence.
func (r *Room) handleStartGame(sender *clientConn) {
	if r.state == roomActive {
		metrics.DroppedMessages.WithLabelValues("already_active").Inc()
		return
	}
	current, next := protocol.DrawBlockPair(r.srv.rng)
	players := make([]protocol.GamePlayer, 0, len(r.slots))
	for _, sl := range r.slots {
		if sl.kind != protocol.SlotHuman && sl.kind != protocol.SlotAI {
			continue
		}
		players = append(players, protocol.GamePlayer{
			ClientID: sl.clientID,
			PlayerID: sl.playerID,
			Name:     sl.name,
			AI:       sl.kind == protocol.SlotAI,
			Current:  current,
			Next:     next,
		})
	}
	if len(players) == 0 {
		metrics.DroppedMessages.WithLabelValues("start_without_players").Inc()
		return
	}
	r.state = roomActive
	r.broadcast(&protocol.CreateGame{
		Width:   protocol.BoardWidth,
		Height:  protocol.BoardHeight,
		Players: players,
	}, "")
	r.srv.emit(analytics.GameStartedEvent(string(r.ID), len(players)))
	logger.Info("game started", map[string]interface{}{
		"roomId":  string(r.ID),
		"players": len(players),
	})
}

// relayBoard forwards per-board traffic to everyone except the sender, which
// already applied the change locally before sending it.
func (r *Room) relayBoard(sender *clientConn, msg protocol.Message, playerID protocol.PlayerID) {
	if r.state != roomActive {
		metrics.DroppedMessages.WithLabelValues("room_not_active").Inc()
		return
	}
	if !r.ownsPlayer(sender.id, playerID) {
		metrics.DroppedMessages.WithLabelValues("unknown_player").Inc()
		logger.Debug("board message for unknown player", map[string]interface{}{
			"roomId":   string(r.ID),
			"playerId": string(playerID),
		})
		return
	}
	r.broadcast(msg, sender.id)
}

func (r *Room) ownsPlayer(clientID protocol.ClientID, playerID protocol.PlayerID) bool {
	for _, sl := range r.slots {
		if sl.playerID == playerID && sl.clientID == clientID {
			return true
		}
	}
	return false
}

// handleRemoveClient kicks the target out of the room. Remaining clients get
// a RemoveClient broadcast; the target itself gets a LeaveGameRoom naming it.
func (r *Room) handleRemoveClient(target protocol.ClientID) {
	conn, ok := r.clients[target]
	if !ok {
		metrics.DroppedMessages.WithLabelValues("remove_unknown_client").Inc()
		return
	}
	r.removeClient(target)
	delete(r.srv.clientRooms, target)
	r.srv.sendTo(conn, &protocol.LeaveGameRoom{RoomID: r.ID, ClientID: target})
	r.broadcast(&protocol.RemoveClient{ClientID: target}, "")
	r.broadcastLobby()
	r.broadcastConnections()
	r.srv.emit(analytics.ClientEvent(analytics.EventClientLeft, string(r.ID), string(target)))
	if r.empty() {
		r.srv.destroyRoom(r)
	}
}

// broadcast sends msg to every connected client, skipping except when set.
func (r *Room) broadcast(msg protocol.Message, except protocol.ClientID) {
	for _, conn := range r.connections() {
		if conn.id == except {
			continue
		}
		r.srv.sendTo(conn, msg)
	}
}

func (r *Room) broadcastLobby() {
	r.broadcast(&protocol.GameLooby{Slots: r.slotTable()}, "")
}

func (r *Room) broadcastConnections() {
	ids := make([]protocol.ClientID, len(r.order))
	copy(ids, r.order)
	r.broadcast(&protocol.Connections{ClientIDs: ids}, "")
}

func (r *Room) slotTable() []protocol.SlotInfo {
	table := make([]protocol.SlotInfo, len(r.slots))
	for i, sl := range r.slots {
		table[i] = protocol.SlotInfo{
			Kind:     sl.kind,
			ClientID: sl.clientID,
			PlayerID: sl.playerID,
			Name:     sl.name,
		}
	}
	return table
}

func (r *Room) notifySlots() {
	if r.OnSlotsChanged != nil {
		r.OnSlotsChanged(r.slotTable())
	}
}
