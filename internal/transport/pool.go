package transport

import (
	"sync"

	"github.com/quadris-game/netcode/internal/protocol"
)

// Frame buffers are pooled so the per-message cost of framing is an append,
// not an allocation. Acquire never blocks; when the pool is empty a fresh
// buffer is handed out.

var framePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, protocol.FrameHeaderSize+512)
		return &b
	},
}

// AcquireFrameBuffer returns an empty buffer with some capacity.
func AcquireFrameBuffer() *[]byte {
	return framePool.Get().(*[]byte)
}

// ReleaseFrameBuffer returns a buffer to the pool. Oversized buffers are
// dropped so one giant body does not pin memory forever.
func ReleaseFrameBuffer(b *[]byte) {
	if b == nil || cap(*b) > protocol.FrameHeaderSize+protocol.MaxBodySize {
		return
	}
	*b = (*b)[:0]
	framePool.Put(b)
}
