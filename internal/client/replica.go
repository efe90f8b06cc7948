package client

import "github.com/quadris-game/netcode/internal/protocol"

// BoardEngine is the game-engine collaborator behind one replica. The session
// layer never inspects board contents; it only forwards events across this
// boundary.
type BoardEngine interface {
	ApplyMove(move protocol.Move)
	SetNextBlock(block protocol.BlockType)
	AddExternalSquares(squares []protocol.BlockType)
	Restart(current, next protocol.BlockType)
	SetGameOver()
}

// EngineFactory builds the engine for one announced player. local tells the
// factory whether this process drives the board or merely mirrors it.
type EngineFactory func(player protocol.GamePlayer, local bool) BoardEngine

// ReplicaKind says who is authoritative for a board.
type ReplicaKind int

const (
	// ReplicaLocal boards are driven by this process; inbound broadcasts
	// never mutate them.
	ReplicaLocal ReplicaKind = iota
	// ReplicaRemote boards mirror another client's play.
	ReplicaRemote
	// ReplicaAI boards mirror an AI driven elsewhere.
	ReplicaAI
)

// ReplicatedPlayer is the client-side mirror of one player in the active game.
type ReplicatedPlayer struct {
	PlayerID protocol.PlayerID
	ClientID protocol.ClientID
	Name     string
	Kind     ReplicaKind
	Engine   BoardEngine
	GameOver bool
}

// Local reports whether this process is authoritative for the board.
func (p *ReplicatedPlayer) Local() bool { return p.Kind == ReplicaLocal }
