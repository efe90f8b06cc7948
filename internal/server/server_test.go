package server

import (
	"testing"
	"time"

	"github.com/quadris-game/netcode/internal/config"
	"github.com/quadris-game/netcode/internal/protocol"
	"github.com/quadris-game/netcode/internal/transport"
)

func startServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s := New(opts)
	go s.Run()
	t.Cleanup(s.Stop)
	return s
}

// connect attaches a pipe-backed client and returns the test's end of it.
func connect(t *testing.T, s *Server) (transport.MessageChannel, protocol.ClientID) {
	t.Helper()
	local, remote := transport.Pipe()
	id := s.Accept(remote)
	t.Cleanup(func() { local.Close() })
	return local, id
}

func sendMsg(t *testing.T, ch transport.MessageChannel, msg protocol.Message) {
	t.Helper()
	body, err := protocol.Encode(msg)
	if err != nil {
		t.Fatalf("encode %s: %v", msg.Kind(), err)
	}
	if err := ch.Send(body); err != nil {
		t.Fatalf("send %s: %v", msg.Kind(), err)
	}
}

// waitMatch receives until a message of type T satisfying match arrives,
// skipping everything else. A nil match accepts the first T. Fails the test
// after two seconds.
func waitMatch[T protocol.Message](t *testing.T, ch transport.MessageChannel, match func(T) bool) T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	bodies := make(chan []byte, 1)
	fail := make(chan error, 1)
	for {
		go func() {
			body, err := ch.Receive()
			if err != nil {
				fail <- err
				return
			}
			bodies <- body
		}()
		select {
		case err := <-fail:
			t.Fatalf("channel failed while waiting: %v", err)
		case body := <-bodies:
			msg, err := protocol.Decode(body)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if m, ok := msg.(T); ok && (match == nil || match(m)) {
				return m
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func waitFor[T protocol.Message](t *testing.T, ch transport.MessageChannel) T {
	t.Helper()
	return waitMatch[T](t, ch, nil)
}

// createRoom runs the create handshake and returns the room ID.
func createRoom(t *testing.T, ch transport.MessageChannel, name string) protocol.RoomID {
	t.Helper()
	sendMsg(t, ch, &protocol.CreateGameRoom{Name: name, Public: true})
	created := waitFor[*protocol.GameRoomCreated](t, ch)
	return created.RoomID
}

func joinRoom(t *testing.T, ch transport.MessageChannel, roomID protocol.RoomID) {
	t.Helper()
	sendMsg(t, ch, &protocol.JoinGameRoom{RoomID: roomID})
	waitFor[*protocol.GameRoomJoined](t, ch)
}

func TestCreateAndJoinRoomScenario(t *testing.T) {
	s := startServer(t, Options{})
	chA, idA := connect(t, s)
	chB, idB := connect(t, s)

	sendMsg(t, chA, &protocol.CreateGameRoom{Name: "Alpha", Public: true})
	created := waitFor[*protocol.GameRoomCreated](t, chA)
	if created.ClientID != idA {
		t.Fatalf("created.ClientID = %s, want %s", created.ClientID, idA)
	}
	if len(created.Slots) != 4 {
		t.Fatalf("slot count = %d, want 4", len(created.Slots))
	}
	for i, sl := range created.Slots {
		if sl.Kind != protocol.SlotOpen {
			t.Fatalf("slot %d = %s, want open", i, sl.Kind)
		}
	}

	sendMsg(t, chB, &protocol.JoinGameRoom{RoomID: created.RoomID})
	joined := waitFor[*protocol.GameRoomJoined](t, chB)
	if joined.RoomID != created.RoomID {
		t.Fatalf("joined.RoomID = %s, want %s", joined.RoomID, created.RoomID)
	}
	if joined.ClientID != idB {
		t.Fatalf("joined.ClientID = %s, want %s", joined.ClientID, idB)
	}

	for _, ch := range []transport.MessageChannel{chA, chB} {
		looby := waitFor[*protocol.GameLooby](t, ch)
		if len(looby.Slots) != 4 {
			t.Fatalf("lobby slot count = %d, want 4", len(looby.Slots))
		}
		for i, sl := range looby.Slots {
			if sl.Kind != protocol.SlotOpen {
				t.Fatalf("lobby slot %d = %s, want open", i, sl.Kind)
			}
		}
		conns := waitFor[*protocol.Connections](t, ch)
		if len(conns.ClientIDs) != 2 {
			t.Fatalf("connections = %v, want both clients", conns.ClientIDs)
		}
	}
}

func TestSlotOwnershipInvariant(t *testing.T) {
	s := startServer(t, Options{})
	chA, idA := connect(t, s)
	chB, idB := connect(t, s)

	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	sendMsg(t, chA, &protocol.PlayerSlot{Index: 0, Slot: protocol.SlotHuman, Name: "Alice"})
	looby := waitMatch(t, chB, func(m *protocol.GameLooby) bool {
		return m.Slots[0].Kind == protocol.SlotHuman
	})
	if looby.Slots[0].ClientID != idA || looby.Slots[0].Name != "Alice" {
		t.Fatalf("slot 0 = %+v, want Alice owned by %s", looby.Slots[0], idA)
	}

	// B tries to steal slot 0: rejected silently. B then takes slot 1, and
	// the lobby broadcast carrying that change must show slot 0 untouched.
	sendMsg(t, chB, &protocol.PlayerSlot{Index: 0, Slot: protocol.SlotHuman, Name: "Mallory"})
	sendMsg(t, chB, &protocol.PlayerSlot{Index: 1, Slot: protocol.SlotHuman, Name: "Bob"})
	looby = waitMatch(t, chA, func(m *protocol.GameLooby) bool {
		return m.Slots[1].Kind == protocol.SlotHuman
	})
	if looby.Slots[0].Name != "Alice" || looby.Slots[0].ClientID != idA {
		t.Fatalf("slot 0 was stolen: %+v", looby.Slots[0])
	}
	if looby.Slots[1].ClientID != idB || looby.Slots[1].Name != "Bob" {
		t.Fatalf("slot 1 = %+v, want Bob owned by %s", looby.Slots[1], idB)
	}

	// Owner reconfigures its own slot.
	sendMsg(t, chA, &protocol.PlayerSlot{Index: 0, Slot: protocol.SlotAI, Name: "Robo"})
	looby = waitMatch(t, chB, func(m *protocol.GameLooby) bool {
		return m.Slots[0].Kind == protocol.SlotAI
	})
	if looby.Slots[0].Name != "Robo" || looby.Slots[0].ClientID != idA {
		t.Fatalf("owner could not reconfigure slot: %+v", looby.Slots[0])
	}

	// Out-of-range index changes nothing and is not fatal.
	sendMsg(t, chA, &protocol.PlayerSlot{Index: 7, Slot: protocol.SlotHuman, Name: "Ghost"})
	sendMsg(t, chA, &protocol.GameCommand{Pause: true})
	waitFor[*protocol.GameCommand](t, chB)
}

func TestClosedSlotStaysClosed(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	sendMsg(t, chA, &protocol.PlayerSlot{Index: 2, Slot: protocol.SlotClosed})
	waitMatch(t, chB, func(m *protocol.GameLooby) bool {
		return m.Slots[2].Kind == protocol.SlotClosed
	})

	// Nobody can sit down on a closed slot, not even the client that
	// closed it.
	sendMsg(t, chB, &protocol.PlayerSlot{Index: 2, Slot: protocol.SlotHuman, Name: "Bob"})
	sendMsg(t, chA, &protocol.PlayerSlot{Index: 2, Slot: protocol.SlotHuman, Name: "Alice"})
	sendMsg(t, chA, &protocol.PlayerSlot{Index: 0, Slot: protocol.SlotHuman, Name: "Alice"})
	looby := waitMatch(t, chB, func(m *protocol.GameLooby) bool {
		return m.Slots[0].Kind == protocol.SlotHuman
	})
	if looby.Slots[2].Kind != protocol.SlotClosed {
		t.Fatalf("closed slot was reopened: %+v", looby.Slots[2])
	}
}

// startTwoPlayerGame seats Alice (A, slot 0) and Bob (B, slot 1), waits for
// both claims to land, then starts the game from A.
func startTwoPlayerGame(t *testing.T, chA, chB transport.MessageChannel) (*protocol.CreateGame, *protocol.CreateGame) {
	t.Helper()
	sendMsg(t, chA, &protocol.PlayerSlot{Index: 0, Slot: protocol.SlotHuman, Name: "Alice"})
	sendMsg(t, chB, &protocol.PlayerSlot{Index: 1, Slot: protocol.SlotHuman, Name: "Bob"})
	waitMatch(t, chA, func(m *protocol.GameLooby) bool {
		return m.Slots[0].Kind == protocol.SlotHuman && m.Slots[1].Kind == protocol.SlotHuman
	})
	sendMsg(t, chA, &protocol.StartGame{})
	gameA := waitFor[*protocol.CreateGame](t, chA)
	gameB := waitFor[*protocol.CreateGame](t, chB)
	return gameA, gameB
}

func TestStartGameSharesOneBlockPair(t *testing.T) {
	s := startServer(t, Options{Seed: 7})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	gameA, gameB := startTwoPlayerGame(t, chA, chB)
	if gameA.Width != protocol.BoardWidth || gameA.Height != protocol.BoardHeight {
		t.Fatalf("board = %dx%d, want %dx%d", gameA.Width, gameA.Height, protocol.BoardWidth, protocol.BoardHeight)
	}
	if len(gameA.Players) != 2 || len(gameB.Players) != 2 {
		t.Fatalf("player counts = %d/%d, want 2/2", len(gameA.Players), len(gameB.Players))
	}

	current, next := gameA.Players[0].Current, gameA.Players[0].Next
	if !current.Drawable() || !next.Drawable() {
		t.Fatalf("drawn pair (%d,%d) not drawable", current, next)
	}
	for _, game := range []*protocol.CreateGame{gameA, gameB} {
		for _, p := range game.Players {
			if p.Current != current || p.Next != next {
				t.Fatalf("player %s pair (%d,%d), want shared (%d,%d)",
					p.Name, p.Current, p.Next, current, next)
			}
		}
	}
}

func TestBoardMoveNotEchoedToSender(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	gameA, _ := startTwoPlayerGame(t, chA, chB)
	var alice protocol.PlayerID
	for _, p := range gameA.Players {
		if p.Name == "Alice" {
			alice = p.PlayerID
		}
	}

	sendMsg(t, chA, &protocol.BoardMove{PlayerID: alice, Move: protocol.MoveLeft})
	move := waitFor[*protocol.BoardMove](t, chB)
	if move.PlayerID != alice || move.Move != protocol.MoveLeft {
		t.Fatalf("relayed move = %+v", move)
	}

	// The pause command follows the move from the same sender, so if the
	// move had been echoed back it would arrive before the pause.
	sendMsg(t, chA, &protocol.GameCommand{Pause: true})
	assertPauseWithoutMove(t, chA)
}

func TestBoardMoveForUnknownPlayerDropped(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)
	startTwoPlayerGame(t, chA, chB)

	sendMsg(t, chA, &protocol.BoardMove{PlayerID: "no-such-player", Move: protocol.MoveLeft})
	sendMsg(t, chA, &protocol.GameCommand{Pause: true})
	assertPauseWithoutMove(t, chB)
}

// assertPauseWithoutMove reads until the pause broadcast arrives and fails if
// a BoardMove shows up first.
func assertPauseWithoutMove(t *testing.T, ch transport.MessageChannel) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		done := make(chan []byte, 1)
		go func() {
			body, err := ch.Receive()
			if err != nil {
				return
			}
			done <- body
		}()
		select {
		case body := <-done:
			msg, err := protocol.Decode(body)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, isMove := msg.(*protocol.BoardMove); isMove {
				t.Fatal("BoardMove arrived where it should have been dropped")
			}
			if _, isPause := msg.(*protocol.GameCommand); isPause {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for pause broadcast")
		}
	}
}

func TestGameRestartTaggedWithSender(t *testing.T) {
	s := startServer(t, Options{})
	chA, idA := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)
	startTwoPlayerGame(t, chA, chB)

	sendMsg(t, chA, &protocol.GameRestart{Current: protocol.BlockS, Next: protocol.BlockZ})
	restartB := waitFor[*protocol.GameRestart](t, chB)
	if restartB.SourceClientID != idA {
		t.Fatalf("SourceClientID = %s, want %s", restartB.SourceClientID, idA)
	}
	if restartB.Current != protocol.BlockS || restartB.Next != protocol.BlockZ {
		t.Fatalf("pair = (%d,%d), want the sender-supplied one", restartB.Current, restartB.Next)
	}
	// The originator receives its own echo too; suppression happens on the
	// client by sender identity.
	restartA := waitFor[*protocol.GameRestart](t, chA)
	if restartA.SourceClientID != idA {
		t.Fatalf("echo SourceClientID = %s, want %s", restartA.SourceClientID, idA)
	}
}

func TestRequestGameRestartDrawsFreshPair(t *testing.T) {
	s := startServer(t, Options{Seed: 11})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)
	startTwoPlayerGame(t, chA, chB)

	sendMsg(t, chB, &protocol.RequestGameRestart{})
	reqA := waitFor[*protocol.RequestGameRestart](t, chA)
	reqB := waitFor[*protocol.RequestGameRestart](t, chB)
	if !reqA.Current.Drawable() || !reqA.Next.Drawable() {
		t.Fatalf("server pair (%d,%d) not drawable", reqA.Current, reqA.Next)
	}
	if reqA.Current != reqB.Current || reqA.Next != reqB.Next {
		t.Fatal("restart pair differs between clients")
	}
}

func TestRemoveClientKicksTarget(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, idB := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	sendMsg(t, chA, &protocol.RemoveClient{ClientID: idB})
	removed := waitFor[*protocol.RemoveClient](t, chA)
	if removed.ClientID != idB {
		t.Fatalf("RemoveClient.ClientID = %s, want %s", removed.ClientID, idB)
	}
	left := waitFor[*protocol.LeaveGameRoom](t, chB)
	if left.ClientID != idB || left.RoomID != roomID {
		t.Fatalf("target got %+v, want its own leave notice", left)
	}
}

func TestLeaveRoomBroadcast(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, idB := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	sendMsg(t, chB, &protocol.LeaveGameRoom{})
	left := waitFor[*protocol.LeaveGameRoom](t, chA)
	if left.ClientID != idB || left.RoomID != roomID {
		t.Fatalf("leave broadcast = %+v, want %s leaving %s", left, idB, roomID)
	}
}

func TestLeaveRoomConfirmedToLeaver(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, idB := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	sendMsg(t, chB, &protocol.LeaveGameRoom{})
	left := waitFor[*protocol.LeaveGameRoom](t, chB)
	if left.ClientID != idB || left.RoomID != roomID {
		t.Fatalf("leaver got %+v, want its own leave confirmation", left)
	}

	// Detached, the leaver can join again.
	sendMsg(t, chB, &protocol.JoinGameRoom{RoomID: roomID})
	waitFor[*protocol.GameRoomJoined](t, chB)
}

func TestBoardRelayOnlyWhileGameActive(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	sendMsg(t, chA, &protocol.PlayerSlot{Index: 0, Slot: protocol.SlotHuman, Name: "Alice"})
	looby := waitMatch(t, chA, func(m *protocol.GameLooby) bool {
		return m.Slots[0].Kind == protocol.SlotHuman
	})
	alice := looby.Slots[0].PlayerID

	// No game has started, so board traffic goes nowhere.
	sendMsg(t, chA, &protocol.BoardMove{PlayerID: alice, Move: protocol.MoveLeft})
	sendMsg(t, chA, &protocol.GameCommand{Pause: true})
	assertPauseWithoutMove(t, chB)
}

func TestBoardRelayContinuesAfterRestart(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	gameA, _ := startTwoPlayerGame(t, chA, chB)
	var alice protocol.PlayerID
	for _, p := range gameA.Players {
		if p.Name == "Alice" {
			alice = p.PlayerID
		}
	}

	sendMsg(t, chA, &protocol.GameRestart{Current: protocol.BlockS, Next: protocol.BlockZ})
	waitFor[*protocol.GameRestart](t, chB)

	// A restart begins a new game; it does not send the room back to a
	// board-silent lobby.
	sendMsg(t, chA, &protocol.BoardMove{PlayerID: alice, Move: protocol.MoveLeft})
	move := waitFor[*protocol.BoardMove](t, chB)
	if move.PlayerID != alice {
		t.Fatalf("relayed move = %+v", move)
	}
}

func TestStartGameIgnoredWhileActive(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)
	startTwoPlayerGame(t, chA, chB)

	sendMsg(t, chA, &protocol.StartGame{})
	sendMsg(t, chA, &protocol.GameCommand{Pause: true})
	deadline := time.After(2 * time.Second)
	for {
		done := make(chan []byte, 1)
		go func() {
			body, err := chB.Receive()
			if err != nil {
				return
			}
			done <- body
		}()
		select {
		case body := <-done:
			msg, err := protocol.Decode(body)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, isCreate := msg.(*protocol.CreateGame); isCreate {
				t.Fatal("second StartGame announced another game")
			}
			if _, isPause := msg.(*protocol.GameCommand); isPause {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for pause broadcast")
		}
	}
}

func TestPauseStateReplayedToLateJoiner(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")

	sendMsg(t, chA, &protocol.GameCommand{Pause: true})
	waitFor[*protocol.GameCommand](t, chA)

	chB, _ := connect(t, s)
	joinRoom(t, chB, roomID)
	cmd := waitFor[*protocol.GameCommand](t, chB)
	if !cmd.Pause {
		t.Fatalf("late joiner got pause = %v, want true", cmd.Pause)
	}
}

func TestRoomDestroyedOnLastDisconnect(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")

	chA.Close()
	waitForRoomCount(t, s, 0)

	chB, _ := connect(t, s)
	sendMsg(t, chB, &protocol.JoinGameRoom{RoomID: roomID})
	waitFor[*protocol.FailedToConnect](t, chB)
}

func TestRoomSurvivesNonLastDisconnect(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, idB := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	chB.Close()
	gone := waitFor[*protocol.ClientDisconnected](t, chA)
	if gone.ClientID != idB {
		t.Fatalf("ClientDisconnected.ClientID = %s, want %s", gone.ClientID, idB)
	}

	// The room still accepts joins.
	chC, _ := connect(t, s)
	sendMsg(t, chC, &protocol.JoinGameRoom{RoomID: roomID})
	waitFor[*protocol.GameRoomJoined](t, chC)
}

func TestDestroyOnAnyDisconnectPolicy(t *testing.T) {
	s := startServer(t, Options{DestroyPolicy: config.DestroyOnAnyDisconnect})
	chA, _ := connect(t, s)
	chB, idB := connect(t, s)
	roomID := createRoom(t, chA, "Alpha")
	joinRoom(t, chB, roomID)

	chA.Close()
	// The surviving client is detached from the now-dead room.
	left := waitFor[*protocol.LeaveGameRoom](t, chB)
	if left.ClientID != idB {
		t.Fatalf("detach notice ClientID = %s, want %s", left.ClientID, idB)
	}
	waitForRoomCount(t, s, 0)

	sendMsg(t, chB, &protocol.JoinGameRoom{RoomID: roomID})
	waitFor[*protocol.FailedToConnect](t, chB)
}

func TestRoomListPushedToLobbyClients(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)

	roomID := createRoom(t, chA, "Alpha")
	// B is not in a room, so the create pushes a refreshed browser list. The
	// register-time list may arrive first and be empty.
	list := waitMatch(t, chB, func(m *protocol.GameRoomList) bool {
		return len(m.Rooms) > 0
	})
	if list.Rooms[0].RoomID != roomID || list.Rooms[0].Name != "Alpha" {
		t.Fatalf("room info = %+v", list.Rooms[0])
	}
	if list.Rooms[0].PlayerCount != 1 || list.Rooms[0].MaxPlayerCount != 4 {
		t.Fatalf("room counts = %+v", list.Rooms[0])
	}
}

func TestListGameRoomsQuery(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	createRoom(t, chA, "Alpha")

	chB, _ := connect(t, s)
	sendMsg(t, chB, &protocol.ListGameRooms{})
	list := waitMatch(t, chB, func(m *protocol.GameRoomList) bool {
		return len(m.Rooms) > 0
	})
	if list.Rooms[0].Name != "Alpha" {
		t.Fatalf("listed room = %+v", list.Rooms[0])
	}
}

func TestPrivateRoomHiddenFromList(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	sendMsg(t, chA, &protocol.CreateGameRoom{Name: "Secret", Public: false})
	waitFor[*protocol.GameRoomCreated](t, chA)

	if rooms := s.ListRooms(); len(rooms) != 0 {
		t.Fatalf("private room leaked into the list: %+v", rooms)
	}
}

func TestJoinWhileAlreadyInRoomFails(t *testing.T) {
	s := startServer(t, Options{})
	chA, _ := connect(t, s)
	chB, _ := connect(t, s)
	roomA := createRoom(t, chA, "Alpha")
	createRoom(t, chB, "Beta")

	sendMsg(t, chB, &protocol.JoinGameRoom{RoomID: roomA})
	waitFor[*protocol.FailedToConnect](t, chB)
}

func waitForRoomCount(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.ListRooms()) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room count never reached %d", want)
}
