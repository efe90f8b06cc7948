package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wire frame: [uint16 big-endian body length][body]. A zero-length body is a
// valid frame (keepalive).
const (
	// FrameHeaderSize is the length prefix size in bytes.
	FrameHeaderSize = 2
	// MaxBodySize is the largest body a frame can carry.
	MaxBodySize = 65535
)

// ErrBodyTooLarge is returned when a body exceeds MaxBodySize.
var ErrBodyTooLarge = fmt.Errorf("wire: body exceeds %d bytes", MaxBodySize)

// WriteFrame writes one length-prefixed frame to w.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxBodySize {
		return ErrBodyTooLarge
	}
	var header [FrameHeaderSize]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return err
		}
	}
	return nil
}

// AppendFrame appends one frame to dst and returns the extended slice. Used
// with pooled buffers so a send is a single Write.
func AppendFrame(dst, body []byte) ([]byte, error) {
	if len(body) > MaxBodySize {
		return dst, ErrBodyTooLarge
	}
	var header [FrameHeaderSize]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(body)))
	dst = append(dst, header[:]...)
	return append(dst, body...), nil
}

// ReadFrame reads exactly one frame from r and returns its body, which may be
// empty. It blocks until the full body announced by the prefix has arrived,
// so a caller never observes a partial message.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(header[:])
	if n == 0 {
		return nil, nil
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
