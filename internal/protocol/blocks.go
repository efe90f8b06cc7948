package protocol

import "math/rand"

// Board dimensions every room plays on.
const (
	BoardWidth  = 10
	BoardHeight = 24
)

// BlockType is the single-byte piece encoding used on the wire. The local
// rules engine may represent pieces however it likes; this is the exchange
// format.
type BlockType uint8

const (
	BlockEmpty BlockType = iota
	BlockI
	BlockO
	BlockT
	BlockS
	BlockZ
	BlockJ
	BlockL
	BlockWall
)

// PieceCount is the number of drawable piece shapes (BlockI..BlockL).
const PieceCount = 7

// Valid reports whether b is one of the nine wire values.
func (b BlockType) Valid() bool { return b <= BlockWall }

// Drawable reports whether b is a piece a player can actually receive.
func (b BlockType) Drawable() bool { return b >= BlockI && b <= BlockL }

// DrawBlock returns a random drawable piece from rng.
func DrawBlock(rng *rand.Rand) BlockType {
	return BlockI + BlockType(rng.Intn(PieceCount))
}

// DrawBlockPair returns a (current, next) pair from a single source so every
// client seeded with it starts from the same point in the piece sequence.
func DrawBlockPair(rng *rand.Rand) (current, next BlockType) {
	return DrawBlock(rng), DrawBlock(rng)
}

// Move is one board action. The values are opaque to the session layer, which
// only relays them; they are named here so callers on both ends agree.
type Move uint8

const (
	MoveLeft Move = iota
	MoveRight
	MoveRotateCW
	MoveRotateCCW
	MoveSoftDrop
	MoveHardDrop
	MoveFall
)

// SlotKind is the requested state of a room seat.
type SlotKind uint8

const (
	SlotOpen SlotKind = iota
	SlotClosed
	SlotHuman
	SlotAI
)

func (k SlotKind) String() string {
	switch k {
	case SlotOpen:
		return "open"
	case SlotClosed:
		return "closed"
	case SlotHuman:
		return "human"
	case SlotAI:
		return "ai"
	}
	return "unknown"
}
