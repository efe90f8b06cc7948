package protocol

import "github.com/google/uuid"

// ClientID identifies one connection to the server. Assigned server-side on
// accept and opaque to everyone else.
type ClientID string

// RoomID identifies a game room for join/leave and routing.
type RoomID string

// PlayerID identifies one board within a room, independent of which client
// drives it (a client may own several slots).
type PlayerID string

func NewClientID() ClientID { return ClientID(uuid.NewString()) }
func NewRoomID() RoomID     { return RoomID(uuid.NewString()) }
func NewPlayerID() PlayerID { return PlayerID(uuid.NewString()) }
