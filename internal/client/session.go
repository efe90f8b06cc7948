// Package client implements the session a game process keeps with the
// server: one message channel, a mirror of the room's slot table, and the
// replicated players of the active game. The UI and the rules engine hang off
// it through the Events and BoardEngine interfaces.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/quadris-game/netcode/internal/logger"
	"github.com/quadris-game/netcode/internal/protocol"
	"github.com/quadris-game/netcode/internal/transport"
)

// ErrNotConnected is returned by outbound calls while no channel is up.
var ErrNotConnected = errors.New("client: not connected")

// phase is where the receive loop is in the protocol sequence.
type phase int

const (
	phasePreRoom phase = iota
	phaseLobby
	phaseActive
)

// Events is the callback surface toward the UI layer. Callbacks run on the
// session's receive goroutine; implementations should hand work off rather
// than block. Embed NopEvents to implement only what you need.
type Events interface {
	OnRoomJoined(roomID protocol.RoomID, clientID protocol.ClientID, slots []protocol.SlotInfo)
	OnRoomLeft(roomID protocol.RoomID)
	OnLobbyChanged(slots []protocol.SlotInfo)
	OnConnections(clientIDs []protocol.ClientID)
	OnRoomList(rooms []protocol.RoomInfo)
	OnJoinFailed()
	OnGameCreated(width, height int, players []*ReplicatedPlayer)
	OnPauseChanged(paused bool)
	OnGameRestarted(current, next protocol.BlockType)
	OnPlayerRemoved(clientID protocol.ClientID)
	OnClientDisconnected(clientID protocol.ClientID)
	OnDisconnected()
}

// NopEvents implements Events with no-ops.
type NopEvents struct{}

func (NopEvents) OnRoomJoined(protocol.RoomID, protocol.ClientID, []protocol.SlotInfo) {}
func (NopEvents) OnRoomLeft(protocol.RoomID)                                           {}
func (NopEvents) OnLobbyChanged([]protocol.SlotInfo)                                   {}
func (NopEvents) OnConnections([]protocol.ClientID)                                    {}
func (NopEvents) OnRoomList([]protocol.RoomInfo)                                       {}
func (NopEvents) OnJoinFailed()                                                        {}
func (NopEvents) OnGameCreated(int, int, []*ReplicatedPlayer)                          {}
func (NopEvents) OnPauseChanged(bool)                                                  {}
func (NopEvents) OnGameRestarted(protocol.BlockType, protocol.BlockType)               {}
func (NopEvents) OnPlayerRemoved(protocol.ClientID)                                    {}
func (NopEvents) OnClientDisconnected(protocol.ClientID)                               {}
func (NopEvents) OnDisconnected()                                                      {}

// Connector supplies a channel to the server, dialing or redialing as needed.
// *transport.Dialer satisfies it.
type Connector interface {
	Connect(ctx context.Context) (transport.MessageChannel, error)
}

// Session owns one connection to the server and the local mirror of the room
// it is in. One Run loop per Session; command methods may be called from any
// goroutine.
type Session struct {
	connector Connector
	events    Events
	newEngine EngineFactory

	mu       sync.Mutex
	channel  transport.MessageChannel
	phase    phase
	clientID protocol.ClientID
	roomID   protocol.RoomID
	slots    []protocol.SlotInfo
	paused   bool
	replicas map[protocol.PlayerID]*ReplicatedPlayer
}

func NewSession(connector Connector, events Events, factory EngineFactory) *Session {
	if events == nil {
		events = NopEvents{}
	}
	return &Session{
		connector: connector,
		events:    events,
		newEngine: factory,
		replicas:  make(map[protocol.PlayerID]*ReplicatedPlayer),
	}
}

// Run connects and processes inbound messages until ctx is cancelled. A
// channel failure does not destroy session state: the loop redials and
// re-enters the pre-room phase, rejoining the old room when one was set.
func (s *Session) Run(ctx context.Context) error {
	for {
		ch, err := s.connector.Connect(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.channel = ch
		s.phase = phasePreRoom
		rejoin := s.roomID
		s.mu.Unlock()

		if rejoin != "" {
			// Resume the previous room if the server still has it.
			s.send(&protocol.JoinGameRoom{RoomID: rejoin})
		}

		s.receiveAll(ch)
		s.mu.Lock()
		s.channel = nil
		s.mu.Unlock()
		if ctx.Err() != nil {
			return nil
		}
		s.events.OnDisconnected()
	}
}

// Close tears down the current channel, which unblocks Run.
func (s *Session) Close() {
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()
	if ch != nil {
		ch.Close()
	}
}

func (s *Session) receiveAll(ch transport.MessageChannel) {
	for {
		body, err := ch.Receive()
		if err != nil {
			return
		}
		if len(body) == 0 {
			continue
		}
		msg, err := protocol.Decode(body)
		if err != nil {
			logger.Warn("client dropping undecodable message", map[string]interface{}{"error": err.Error()})
			continue
		}
		s.handle(msg)
	}
}

// ClientID returns the identity the server assigned on the last join.
func (s *Session) ClientID() protocol.ClientID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// RoomID returns the room the session is in, or empty.
func (s *Session) RoomID() protocol.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// Paused returns the room's pause state as last broadcast.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Slots returns a copy of the mirrored slot table.
func (s *Session) Slots() []protocol.SlotInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.SlotInfo(nil), s.slots...)
}

// Replicas returns the players of the active game.
func (s *Session) Replicas() []*ReplicatedPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ReplicatedPlayer, 0, len(s.replicas))
	for _, p := range s.replicas {
		out = append(out, p)
	}
	return out
}

// Commands toward the server.

func (s *Session) CreateRoom(name string, public bool) error {
	return s.send(&protocol.CreateGameRoom{Name: name, Public: public})
}

func (s *Session) JoinRoom(roomID protocol.RoomID) error {
	return s.send(&protocol.JoinGameRoom{RoomID: roomID})
}

func (s *Session) LeaveRoom() error {
	s.mu.Lock()
	roomID := s.roomID
	s.mu.Unlock()
	if roomID == "" {
		return nil
	}
	return s.send(&protocol.LeaveGameRoom{RoomID: roomID})
}

func (s *Session) ListRooms() error {
	return s.send(&protocol.ListGameRooms{})
}

func (s *Session) SetSlot(index int, kind protocol.SlotKind, name string) error {
	return s.send(&protocol.PlayerSlot{Index: index, Slot: kind, Name: name})
}

func (s *Session) SetPaused(paused bool) error {
	return s.send(&protocol.GameCommand{Pause: paused})
}

func (s *Session) StartGame() error {
	return s.send(&protocol.StartGame{})
}

// RequestRestart asks the server to draw a fresh pair and restart the room.
func (s *Session) RequestRestart() error {
	return s.send(&protocol.RequestGameRestart{})
}

// Restart restarts the room from a pair this client drew. Local replicas are
// restarted immediately; the broadcast echo is suppressed by sender identity.
func (s *Session) Restart(current, next protocol.BlockType) error {
	s.restartReplicas(current, next)
	return s.send(&protocol.GameRestart{Current: current, Next: next})
}

func (s *Session) RemoveClient(clientID protocol.ClientID) error {
	return s.send(&protocol.RemoveClient{ClientID: clientID})
}

// SendMove relays a move a local board already applied. This is the only
// origin of outbound per-move traffic.
func (s *Session) SendMove(playerID protocol.PlayerID, move protocol.Move) error {
	return s.send(&protocol.BoardMove{PlayerID: playerID, Move: move})
}

func (s *Session) SendNextBlock(playerID protocol.PlayerID, block protocol.BlockType) error {
	return s.send(&protocol.BoardNextBlock{PlayerID: playerID, Block: block})
}

func (s *Session) SendExternalSquares(playerID protocol.PlayerID, squares []protocol.BlockType) error {
	return s.send(&protocol.BoardExternalSquares{PlayerID: playerID, Squares: squares})
}

func (s *Session) send(msg protocol.Message) error {
	s.mu.Lock()
	ch := s.channel
	s.mu.Unlock()
	if ch == nil {
		return ErrNotConnected
	}
	body, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return ch.Send(body)
}

// handle applies one inbound broadcast according to the current phase.
// Messages that do not belong to the phase are dropped, not fatal.
func (s *Session) handle(msg protocol.Message) {
	// Room browser updates arrive in any phase.
	if list, ok := msg.(*protocol.GameRoomList); ok {
		s.events.OnRoomList(list.Rooms)
		return
	}

	s.mu.Lock()
	current := s.phase
	s.mu.Unlock()

	switch current {
	case phasePreRoom:
		s.handlePreRoom(msg)
	case phaseLobby:
		s.handleLobby(msg)
	case phaseActive:
		s.handleActive(msg)
	}
}

func (s *Session) handlePreRoom(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.GameRoomCreated:
		s.enterRoom(m.RoomID, m.ClientID, m.Slots)
	case *protocol.GameRoomJoined:
		s.enterRoom(m.RoomID, m.ClientID, m.Slots)
	case *protocol.FailedToConnect:
		s.mu.Lock()
		s.roomID = ""
		s.mu.Unlock()
		s.events.OnJoinFailed()
	default:
		logger.Debug("pre-room phase dropping message", map[string]interface{}{"kind": msg.Kind().String()})
	}
}

func (s *Session) enterRoom(roomID protocol.RoomID, clientID protocol.ClientID, slots []protocol.SlotInfo) {
	s.mu.Lock()
	s.roomID = roomID
	s.clientID = clientID
	s.slots = append([]protocol.SlotInfo(nil), slots...)
	s.phase = phaseLobby
	s.mu.Unlock()
	s.events.OnRoomJoined(roomID, clientID, slots)
}

func (s *Session) handleLobby(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.GameLooby:
		s.mu.Lock()
		s.slots = append([]protocol.SlotInfo(nil), m.Slots...)
		s.mu.Unlock()
		s.events.OnLobbyChanged(m.Slots)
	case *protocol.Connections:
		s.events.OnConnections(m.ClientIDs)
	case *protocol.LeaveGameRoom:
		s.handleLeave(m)
	case *protocol.GameCommand:
		s.setPaused(m.Pause)
	case *protocol.CreateGame:
		s.handleCreateGame(m)
	default:
		logger.Debug("lobby phase dropping message", map[string]interface{}{"kind": msg.Kind().String()})
	}
}

// handleCreateGame builds one replica per announced player and moves to the
// active phase.
func (s *Session) handleCreateGame(m *protocol.CreateGame) {
	s.mu.Lock()
	own := s.clientID
	s.replicas = make(map[protocol.PlayerID]*ReplicatedPlayer, len(m.Players))
	players := make([]*ReplicatedPlayer, 0, len(m.Players))
	for _, gp := range m.Players {
		kind := ReplicaRemote
		if gp.ClientID == own {
			kind = ReplicaLocal
		}
		if gp.AI && kind != ReplicaLocal {
			kind = ReplicaAI
		}
		p := &ReplicatedPlayer{
			PlayerID: gp.PlayerID,
			ClientID: gp.ClientID,
			Name:     gp.Name,
			Kind:     kind,
		}
		if s.newEngine != nil {
			p.Engine = s.newEngine(gp, kind == ReplicaLocal)
		}
		s.replicas[gp.PlayerID] = p
		players = append(players, p)
	}
	s.phase = phaseActive
	s.mu.Unlock()
	s.events.OnGameCreated(m.Width, m.Height, players)
}

func (s *Session) handleActive(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.GameCommand:
		s.setPaused(m.Pause)
	case *protocol.GameLooby:
		s.mu.Lock()
		s.slots = append([]protocol.SlotInfo(nil), m.Slots...)
		s.mu.Unlock()
		s.events.OnLobbyChanged(m.Slots)
	case *protocol.Connections:
		s.events.OnConnections(m.ClientIDs)
	case *protocol.RequestGameRestart:
		s.restartReplicas(m.Current, m.Next)
		if s.isAuthority() {
			// One client confirms the restart so late joiners and the server
			// agree on the pair; everyone else just applies it.
			s.send(&protocol.GameRestart{Current: m.Current, Next: m.Next})
		}
		s.events.OnGameRestarted(m.Current, m.Next)
	case *protocol.GameRestart:
		if m.SourceClientID == s.ClientID() {
			// Own echo; the boards were already restarted when we sent it.
			return
		}
		s.restartReplicas(m.Current, m.Next)
		s.events.OnGameRestarted(m.Current, m.Next)
	case *protocol.BoardMove:
		if p := s.remoteReplica(m.PlayerID); p != nil && p.Engine != nil {
			p.Engine.ApplyMove(m.Move)
		}
	case *protocol.BoardNextBlock:
		if p := s.remoteReplica(m.PlayerID); p != nil && p.Engine != nil {
			p.Engine.SetNextBlock(m.Block)
		}
	case *protocol.BoardExternalSquares:
		if p := s.remoteReplica(m.PlayerID); p != nil && p.Engine != nil {
			p.Engine.AddExternalSquares(m.Squares)
		}
	case *protocol.RemoveClient:
		s.dropClientReplicas(m.ClientID)
		s.events.OnPlayerRemoved(m.ClientID)
	case *protocol.ClientDisconnected:
		s.dropClientReplicas(m.ClientID)
		s.events.OnClientDisconnected(m.ClientID)
	case *protocol.LeaveGameRoom:
		s.handleLeave(m)
	default:
		logger.Debug("active phase dropping message", map[string]interface{}{"kind": msg.Kind().String()})
	}
}

func (s *Session) handleLeave(m *protocol.LeaveGameRoom) {
	if m.ClientID == s.ClientID() || m.ClientID == "" {
		// We left, were kicked, or the room was destroyed.
		s.mu.Lock()
		roomID := s.roomID
		s.roomID = ""
		s.slots = nil
		s.replicas = make(map[protocol.PlayerID]*ReplicatedPlayer)
		s.phase = phasePreRoom
		s.mu.Unlock()
		s.events.OnRoomLeft(roomID)
		return
	}
	s.dropClientReplicas(m.ClientID)
	s.events.OnClientDisconnected(m.ClientID)
}

func (s *Session) setPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
	s.events.OnPauseChanged(paused)
}

// remoteReplica resolves playerID for inbound board traffic. Local replicas
// are authoritative for themselves and must never be mutated from the
// network, so they resolve to nil here.
func (s *Session) remoteReplica(playerID protocol.PlayerID) *ReplicatedPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.replicas[playerID]
	if !ok {
		logger.Debug("board message for unknown replica", map[string]interface{}{"playerId": string(playerID)})
		return nil
	}
	if p.Local() {
		return nil
	}
	return p
}

func (s *Session) restartReplicas(current, next protocol.BlockType) {
	s.mu.Lock()
	replicas := make([]*ReplicatedPlayer, 0, len(s.replicas))
	for _, p := range s.replicas {
		p.GameOver = false
		replicas = append(replicas, p)
	}
	s.mu.Unlock()
	for _, p := range replicas {
		if p.Engine != nil {
			p.Engine.Restart(current, next)
		}
	}
}

// dropClientReplicas marks every replica of the given client game over and
// forgets it.
func (s *Session) dropClientReplicas(clientID protocol.ClientID) {
	s.mu.Lock()
	var dropped []*ReplicatedPlayer
	for id, p := range s.replicas {
		if p.ClientID == clientID {
			p.GameOver = true
			dropped = append(dropped, p)
			delete(s.replicas, id)
		}
	}
	s.mu.Unlock()
	for _, p := range dropped {
		if p.Engine != nil {
			p.Engine.SetGameOver()
		}
	}
}

// isAuthority reports whether this client owns the first occupied slot, which
// is the one that answers room-wide restart requests.
func (s *Session) isAuthority() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.Occupied() {
			return sl.ClientID == s.clientID
		}
	}
	return false
}
