// Package server implements the multiplayer session core: it accepts message
// channels, assigns client identities, routes inbound messages to rooms, and
// owns every room's state. All state is confined to the Run loop goroutine;
// per-connection goroutines only move bytes in and out.
package server

import (
	"math/rand"
	"time"

	"github.com/quadris-game/netcode/internal/analytics"
	"github.com/quadris-game/netcode/internal/config"
	"github.com/quadris-game/netcode/internal/logger"
	"github.com/quadris-game/netcode/internal/metrics"
	"github.com/quadris-game/netcode/internal/protocol"
	"github.com/quadris-game/netcode/internal/transport"
)

const sendQueueDepth = 256

// Options configures a Server.
type Options struct {
	SlotsPerRoom  int
	DestroyPolicy config.RoomDestroyPolicy
	Producer      *analytics.Producer // optional, may be nil
	Seed          int64               // block draw seed, 0 means time-based
}

// Server is the session core. Create with New, drive with Run, feed with
// Accept, shut down with Stop.
type Server struct {
	opts   Options
	events chan event
	quit   chan struct{}
	done   chan struct{}
	rng    *rand.Rand

	// Owned by the Run goroutine.
	clients     map[protocol.ClientID]*clientConn
	rooms       map[protocol.RoomID]*Room
	clientRooms map[protocol.ClientID]protocol.RoomID
}

// clientConn pairs a registered connection with its outbound queue. The write
// loop drains the queue so a slow client never stalls the Run loop.
type clientConn struct {
	id      protocol.ClientID
	channel transport.MessageChannel
	send    chan []byte
}

func (c *clientConn) writeLoop() {
	for body := range c.send {
		if err := c.channel.Send(body); err != nil {
			// The receive loop observes the same failure and reports the
			// disconnect; here we just stop writing.
			return
		}
	}
}

type event interface{}

type registerEvent struct {
	conn *clientConn
}

type inboundEvent struct {
	clientID protocol.ClientID
	msg      protocol.Message
}

type disconnectEvent struct {
	clientID protocol.ClientID
}

type listRoomsQuery struct {
	reply chan []protocol.RoomInfo
}

func New(opts Options) *Server {
	if opts.SlotsPerRoom <= 0 {
		opts.SlotsPerRoom = 4
	}
	if opts.DestroyPolicy == "" {
		opts.DestroyPolicy = config.DestroyOnLastDisconnect
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Server{
		opts:        opts,
		events:      make(chan event, 256),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		rng:         rand.New(rand.NewSource(seed)),
		clients:     make(map[protocol.ClientID]*clientConn),
		rooms:       make(map[protocol.RoomID]*Room),
		clientRooms: make(map[protocol.ClientID]protocol.RoomID),
	}
}

// Accept registers a new connection, assigns it a ClientID, and starts its
// receive loop. The client is not in any room yet.
func (s *Server) Accept(ch transport.MessageChannel) protocol.ClientID {
	conn := &clientConn{
		id:      protocol.NewClientID(),
		channel: ch,
		send:    make(chan []byte, sendQueueDepth),
	}
	s.post(registerEvent{conn: conn})
	go conn.writeLoop()
	go s.receiveLoop(conn)
	return conn.id
}

// Serve accepts channels from l until the listener or the server is closed.
func (s *Server) Serve(l *transport.Listener) {
	for {
		ch, err := l.Accept()
		if err != nil {
			select {
			case <-s.quit:
			default:
				logger.Warn("accept failed", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		s.Accept(ch)
	}
}

// Run processes events until Stop is called. All room and registry mutation
// happens here, so handling of one message is atomic with respect to every
// other message.
func (s *Server) Run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			s.shutdownClients()
			return
		case ev := <-s.events:
			s.handleEvent(ev)
		}
	}
}

// Stop signals the Run loop to exit after the event in flight completes and
// waits for it. Receive loops exit as their channels close.
func (s *Server) Stop() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
	<-s.done
}

// ListRooms returns the public rooms for the lobby browser. Safe to call from
// any goroutine.
func (s *Server) ListRooms() []protocol.RoomInfo {
	q := listRoomsQuery{reply: make(chan []protocol.RoomInfo, 1)}
	select {
	case s.events <- q:
		return <-q.reply
	case <-s.quit:
		return nil
	}
}

func (s *Server) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.quit:
	}
}

func (s *Server) receiveLoop(conn *clientConn) {
	for {
		body, err := conn.channel.Receive()
		if err != nil {
			s.post(disconnectEvent{clientID: conn.id})
			return
		}
		if len(body) == 0 {
			// Keepalive frame.
			continue
		}
		msg, err := protocol.Decode(body)
		if err != nil {
			metrics.DecodeErrors.Inc()
			logger.Warn("dropping undecodable message", map[string]interface{}{
				"clientId": string(conn.id),
				"error":    err.Error(),
			})
			continue
		}
		s.post(inboundEvent{clientID: conn.id, msg: msg})
	}
}

func (s *Server) handleEvent(ev event) {
	switch e := ev.(type) {
	case registerEvent:
		s.clients[e.conn.id] = e.conn
		metrics.ConnectedClients.Set(float64(len(s.clients)))
		// A fresh client gets the room browser state right away.
		s.sendTo(e.conn, &protocol.GameRoomList{Rooms: s.roomList()})
	case inboundEvent:
		s.handleInbound(e.clientID, e.msg)
	case disconnectEvent:
		s.handleDisconnect(e.clientID)
	case listRoomsQuery:
		e.reply <- s.roomList()
	}
}

func (s *Server) handleInbound(clientID protocol.ClientID, msg protocol.Message) {
	conn, ok := s.clients[clientID]
	if !ok {
		return
	}
	metrics.MessagesReceived.WithLabelValues(msg.Kind().String()).Inc()

	switch m := msg.(type) {
	case *protocol.CreateGameRoom:
		s.handleCreateRoom(conn, m)
	case *protocol.JoinGameRoom:
		s.handleJoinRoom(conn, m)
	case *protocol.LeaveGameRoom:
		s.handleLeaveRoom(conn)
	case *protocol.ListGameRooms:
		s.sendTo(conn, &protocol.GameRoomList{Rooms: s.roomList()})
	default:
		roomID, ok := s.clientRooms[clientID]
		if !ok {
			metrics.DroppedMessages.WithLabelValues("no_room").Inc()
			logger.Debug("message from client outside any room", map[string]interface{}{
				"clientId": string(clientID),
				"kind":     msg.Kind().String(),
			})
			return
		}
		room, ok := s.rooms[roomID]
		if !ok {
			metrics.DroppedMessages.WithLabelValues("stale_room").Inc()
			return
		}
		room.receive(conn, msg)
	}
}

func (s *Server) handleCreateRoom(conn *clientConn, m *protocol.CreateGameRoom) {
	if _, inRoom := s.clientRooms[conn.id]; inRoom {
		metrics.DroppedMessages.WithLabelValues("already_in_room").Inc()
		return
	}
	room := newRoom(s, m.Name, m.Public, s.opts.SlotsPerRoom)
	s.rooms[room.ID] = room
	s.clientRooms[conn.id] = room.ID
	room.addClient(conn)
	metrics.ActiveRooms.Set(float64(len(s.rooms)))

	s.sendTo(conn, &protocol.GameRoomCreated{
		RoomID:   room.ID,
		ClientID: conn.id,
		Slots:    room.slotTable(),
	})
	room.broadcastConnections()
	s.pushRoomList()
	s.emit(analytics.RoomCreatedEvent(string(room.ID), room.Name, room.Public))
	logger.Info("room created", map[string]interface{}{
		"roomId": string(room.ID),
		"name":   room.Name,
	})
}

func (s *Server) handleJoinRoom(conn *clientConn, m *protocol.JoinGameRoom) {
	if _, inRoom := s.clientRooms[conn.id]; inRoom {
		s.sendTo(conn, &protocol.FailedToConnect{})
		return
	}
	room, ok := s.rooms[m.RoomID]
	if !ok {
		s.sendTo(conn, &protocol.FailedToConnect{})
		return
	}
	s.clientRooms[conn.id] = room.ID
	room.addClient(conn)

	s.sendTo(conn, &protocol.GameRoomJoined{
		RoomID:   room.ID,
		ClientID: conn.id,
		Slots:    room.slotTable(),
	})
	if room.paused {
		// Late joiners see the same pause state as everyone else.
		s.sendTo(conn, &protocol.GameCommand{Pause: true})
	}
	room.broadcastLobby()
	room.broadcastConnections()
	s.pushRoomList()
	s.emit(analytics.ClientEvent(analytics.EventClientJoined, string(room.ID), string(conn.id)))
}

func (s *Server) handleLeaveRoom(conn *clientConn) {
	roomID, ok := s.clientRooms[conn.id]
	if !ok {
		return
	}
	room := s.rooms[roomID]
	delete(s.clientRooms, conn.id)
	if room == nil {
		return
	}
	room.removeClient(conn.id)
	// The leaver is out of the room already, so the broadcast below misses
	// it; confirm the leave directly or the client never detaches.
	s.sendTo(conn, &protocol.LeaveGameRoom{RoomID: room.ID, ClientID: conn.id})
	room.broadcast(&protocol.LeaveGameRoom{RoomID: room.ID, ClientID: conn.id}, "")
	room.broadcastLobby()
	room.broadcastConnections()
	s.emit(analytics.ClientEvent(analytics.EventClientLeft, string(room.ID), string(conn.id)))
	if room.empty() {
		s.destroyRoom(room)
	} else {
		s.pushRoomList()
	}
}

func (s *Server) handleDisconnect(clientID protocol.ClientID) {
	conn, ok := s.clients[clientID]
	if !ok {
		return
	}
	delete(s.clients, clientID)
	close(conn.send)
	conn.channel.Close()
	metrics.ConnectedClients.Set(float64(len(s.clients)))

	roomID, inRoom := s.clientRooms[clientID]
	if !inRoom {
		return
	}
	delete(s.clientRooms, clientID)
	room := s.rooms[roomID]
	if room == nil {
		return
	}
	room.removeClient(clientID)
	s.emit(analytics.ClientEvent(analytics.EventClientLeft, string(room.ID), string(clientID)))

	if room.empty() || s.opts.DestroyPolicy == config.DestroyOnAnyDisconnect {
		s.destroyRoom(room)
		return
	}
	room.broadcast(&protocol.ClientDisconnected{ClientID: clientID}, "")
	room.broadcastLobby()
	room.broadcastConnections()
	s.pushRoomList()
}

// destroyRoom unregisters the room and detaches any clients still in it. The
// detached clients learn about it through a LeaveGameRoom naming themselves.
func (s *Server) destroyRoom(room *Room) {
	for _, conn := range room.connections() {
		delete(s.clientRooms, conn.id)
		s.sendTo(conn, &protocol.LeaveGameRoom{RoomID: room.ID, ClientID: conn.id})
	}
	delete(s.rooms, room.ID)
	metrics.ActiveRooms.Set(float64(len(s.rooms)))
	s.pushRoomList()
	s.emit(analytics.RoomClosedEvent(string(room.ID)))
	logger.Info("room closed", map[string]interface{}{"roomId": string(room.ID)})
}

func (s *Server) roomList() []protocol.RoomInfo {
	rooms := make([]protocol.RoomInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		if !room.Public {
			continue
		}
		rooms = append(rooms, protocol.RoomInfo{
			RoomID:         room.ID,
			Name:           room.Name,
			PlayerCount:    room.clientCount(),
			MaxPlayerCount: len(room.slots),
		})
	}
	return rooms
}

// pushRoomList refreshes the room browser of every client not in a room.
func (s *Server) pushRoomList() {
	list := &protocol.GameRoomList{Rooms: s.roomList()}
	for id, conn := range s.clients {
		if _, inRoom := s.clientRooms[id]; inRoom {
			continue
		}
		s.sendTo(conn, list)
	}
}

// sendTo serializes msg and queues it for one client. Queue overflow means
// the client is hopelessly behind; the message is dropped and the disconnect
// surfaces through its channel eventually.
func (s *Server) sendTo(conn *clientConn, msg protocol.Message) {
	body, err := protocol.Encode(msg)
	if err != nil {
		logger.Error("encode failed", map[string]interface{}{"kind": msg.Kind().String(), "error": err.Error()})
		return
	}
	select {
	case conn.send <- body:
		metrics.MessagesSent.WithLabelValues(msg.Kind().String()).Inc()
	default:
		metrics.DroppedMessages.WithLabelValues("send_queue_full").Inc()
	}
}

func (s *Server) shutdownClients() {
	for id, conn := range s.clients {
		close(conn.send)
		conn.channel.Close()
		delete(s.clients, id)
	}
	metrics.ConnectedClients.Set(0)
}

func (s *Server) emit(ev analytics.SessionEvent) {
	if s.opts.Producer == nil {
		return
	}
	if err := s.opts.Producer.SendEvent(ev); err != nil {
		logger.Warn("analytics event failed", map[string]interface{}{"type": ev.Type, "error": err.Error()})
	}
}
