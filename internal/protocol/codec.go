package protocol

import (
	"encoding/json"
	"fmt"
)

// Body layout: one kind byte followed by the JSON encoding of the concrete
// message. A zero-length body is a keepalive and never reaches the codec.

// Encode serializes m into a wire body.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode: nil message")
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}
	body := make([]byte, 0, 1+len(payload))
	body = append(body, byte(m.Kind()))
	return append(body, payload...), nil
}

// Decode parses a wire body back into its concrete message. Unknown kinds and
// malformed payloads are errors the caller is expected to log and drop; they
// must not tear the channel down.
func Decode(body []byte) (Message, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("decode: empty body")
	}
	kind := Kind(body[0])
	payload := body[1:]

	var m Message
	switch kind {
	case KindCreateGameRoom:
		m = &CreateGameRoom{}
	case KindJoinGameRoom:
		m = &JoinGameRoom{}
	case KindLeaveGameRoom:
		m = &LeaveGameRoom{}
	case KindPlayerSlot:
		m = &PlayerSlot{}
	case KindGameCommand:
		m = &GameCommand{}
	case KindStartGame:
		m = &StartGame{}
	case KindBoardMove:
		m = &BoardMove{}
	case KindBoardNextBlock:
		m = &BoardNextBlock{}
	case KindBoardExternalSquares:
		m = &BoardExternalSquares{}
	case KindGameRestart:
		m = &GameRestart{}
	case KindRequestGameRestart:
		m = &RequestGameRestart{}
	case KindRemoveClient:
		m = &RemoveClient{}
	case KindListGameRooms:
		m = &ListGameRooms{}
	case KindGameRoomCreated:
		m = &GameRoomCreated{}
	case KindGameRoomJoined:
		m = &GameRoomJoined{}
	case KindGameLooby:
		m = &GameLooby{}
	case KindConnections:
		m = &Connections{}
	case KindCreateGame:
		m = &CreateGame{}
	case KindClientDisconnected:
		m = &ClientDisconnected{}
	case KindGameRoomList:
		m = &GameRoomList{}
	case KindFailedToConnect:
		m = &FailedToConnect{}
	default:
		return nil, fmt.Errorf("decode: unknown kind %d", kind)
	}

	// A bare kind byte is a complete message for payload-free kinds.
	if len(payload) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return m, nil
}
