package protocol

// Kind is the first body byte of every non-empty wire message and selects the
// concrete payload type.
type Kind uint8

// Client -> server kinds.
const (
	KindCreateGameRoom Kind = iota + 1
	KindJoinGameRoom
	KindLeaveGameRoom
	KindPlayerSlot
	KindGameCommand
	KindStartGame
	KindBoardMove
	KindBoardNextBlock
	KindBoardExternalSquares
	KindGameRestart
	KindRequestGameRestart
	KindRemoveClient
	KindListGameRooms
)

// Server -> client kinds.
const (
	KindGameRoomCreated Kind = iota + 20
	KindGameRoomJoined
	KindGameLooby
	KindConnections
	KindCreateGame
	KindClientDisconnected
	KindGameRoomList
	KindFailedToConnect
)

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var kindNames = map[Kind]string{
	KindCreateGameRoom:       "createGameRoom",
	KindJoinGameRoom:         "joinGameRoom",
	KindLeaveGameRoom:        "leaveGameRoom",
	KindPlayerSlot:           "playerSlot",
	KindGameCommand:          "gameCommand",
	KindStartGame:            "startGame",
	KindBoardMove:            "boardMove",
	KindBoardNextBlock:       "boardNextBlock",
	KindBoardExternalSquares: "boardExternalSquares",
	KindGameRestart:          "gameRestart",
	KindRequestGameRestart:   "requestGameRestart",
	KindRemoveClient:         "removeClient",
	KindListGameRooms:        "listGameRooms",
	KindGameRoomCreated:      "gameRoomCreated",
	KindGameRoomJoined:       "gameRoomJoined",
	KindGameLooby:            "gameLooby",
	KindConnections:          "connections",
	KindCreateGame:           "createGame",
	KindClientDisconnected:   "clientDisconnected",
	KindGameRoomList:         "gameRoomList",
	KindFailedToConnect:      "failedToConnect",
}

// Message is the closed union of everything that goes over a channel.
type Message interface {
	Kind() Kind
}

// SlotInfo is the wire form of one room seat.
type SlotInfo struct {
	Kind     SlotKind `json:"kind"`
	ClientID ClientID `json:"clientId,omitempty"`
	PlayerID PlayerID `json:"playerId,omitempty"`
	Name     string   `json:"name,omitempty"`
}

// Occupied reports whether the slot is bound to a player.
func (s SlotInfo) Occupied() bool { return s.Kind == SlotHuman || s.Kind == SlotAI }

// RoomInfo is one entry of a GameRoomList.
type RoomInfo struct {
	RoomID         RoomID `json:"roomId"`
	Name           string `json:"name"`
	PlayerCount    int    `json:"playerCount"`
	MaxPlayerCount int    `json:"maxPlayerCount"`
}

// GamePlayer is one board announced by CreateGame.
type GamePlayer struct {
	ClientID ClientID  `json:"clientId"`
	PlayerID PlayerID  `json:"playerId"`
	Name     string    `json:"name"`
	AI       bool      `json:"ai,omitempty"`
	Level    int       `json:"level"`
	Points   int       `json:"points"`
	Current  BlockType `json:"current"`
	Next     BlockType `json:"next"`
}

// Client -> server messages.

type CreateGameRoom struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

type JoinGameRoom struct {
	RoomID RoomID `json:"roomId"`
}

// LeaveGameRoom is sent by a client to leave and broadcast by the server so
// the remaining clients learn who left. ClientID is set on the way down only.
type LeaveGameRoom struct {
	RoomID   RoomID   `json:"roomId"`
	ClientID ClientID `json:"clientId,omitempty"`
}

type PlayerSlot struct {
	Index int      `json:"index"`
	Slot  SlotKind `json:"kind"`
	Name  string   `json:"name,omitempty"`
}

// GameCommand flows both ways; the server re-broadcasts it to the whole room.
type GameCommand struct {
	Pause bool `json:"pause"`
}

type StartGame struct{}

type BoardMove struct {
	PlayerID PlayerID `json:"playerId"`
	Move     Move     `json:"move"`
}

type BoardNextBlock struct {
	PlayerID PlayerID  `json:"playerId"`
	Block    BlockType `json:"block"`
}

// BoardExternalSquares carries penalty rows pushed onto a board from outside,
// as a row-major run of block types.
type BoardExternalSquares struct {
	PlayerID PlayerID    `json:"playerId"`
	Squares  []BlockType `json:"squares"`
}

// GameRestart carries the piece pair the restarted boards start from.
// SourceClientID is filled in by the server on the way down so the originator
// can ignore its own echo.
type GameRestart struct {
	Current        BlockType `json:"current"`
	Next           BlockType `json:"next"`
	SourceClientID ClientID  `json:"sourceClientId,omitempty"`
}

// RequestGameRestart asks the server to draw a fresh pair and restart
// everyone. The pair is empty on the way up.
type RequestGameRestart struct {
	Current BlockType `json:"current,omitempty"`
	Next    BlockType `json:"next,omitempty"`
}

// RemoveClient kicks a client out of the room. On the way down it names the
// client that was removed.
type RemoveClient struct {
	ClientID ClientID `json:"clientId"`
}

type ListGameRooms struct{}

// Server -> client messages.

type GameRoomCreated struct {
	RoomID   RoomID     `json:"roomId"`
	ClientID ClientID   `json:"clientId"`
	Slots    []SlotInfo `json:"slots"`
}

type GameRoomJoined struct {
	RoomID   RoomID     `json:"roomId"`
	ClientID ClientID   `json:"clientId"`
	Slots    []SlotInfo `json:"slots"`
}

// GameLooby is the full slot table broadcast after every lobby change. The
// name, misspelling included, is the historical wire name and stays for
// compatibility with existing clients.
type GameLooby struct {
	Slots []SlotInfo `json:"slots"`
}

type Connections struct {
	ClientIDs []ClientID `json:"clientIds"`
}

type CreateGame struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Players []GamePlayer `json:"players"`
}

type ClientDisconnected struct {
	ClientID ClientID `json:"clientId"`
}

type GameRoomList struct {
	Rooms []RoomInfo `json:"rooms"`
}

type FailedToConnect struct{}

func (CreateGameRoom) Kind() Kind       { return KindCreateGameRoom }
func (JoinGameRoom) Kind() Kind         { return KindJoinGameRoom }
func (LeaveGameRoom) Kind() Kind        { return KindLeaveGameRoom }
func (PlayerSlot) Kind() Kind           { return KindPlayerSlot }
func (GameCommand) Kind() Kind          { return KindGameCommand }
func (StartGame) Kind() Kind            { return KindStartGame }
func (BoardMove) Kind() Kind            { return KindBoardMove }
func (BoardNextBlock) Kind() Kind       { return KindBoardNextBlock }
func (BoardExternalSquares) Kind() Kind { return KindBoardExternalSquares }
func (GameRestart) Kind() Kind          { return KindGameRestart }
func (RequestGameRestart) Kind() Kind   { return KindRequestGameRestart }
func (RemoveClient) Kind() Kind         { return KindRemoveClient }
func (ListGameRooms) Kind() Kind        { return KindListGameRooms }
func (GameRoomCreated) Kind() Kind      { return KindGameRoomCreated }
func (GameRoomJoined) Kind() Kind       { return KindGameRoomJoined }
func (GameLooby) Kind() Kind            { return KindGameLooby }
func (Connections) Kind() Kind          { return KindConnections }
func (CreateGame) Kind() Kind           { return KindCreateGame }
func (ClientDisconnected) Kind() Kind   { return KindClientDisconnected }
func (GameRoomList) Kind() Kind         { return KindGameRoomList }
func (FailedToConnect) Kind() Kind      { return KindFailedToConnect }
