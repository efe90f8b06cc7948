package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	bodies := [][]byte{
		nil,
		{},
		{0x01},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 1024),
		bytes.Repeat([]byte{0xCD}, MaxBodySize),
	}
	for _, body := range bodies {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, body); err != nil {
			t.Fatalf("WriteFrame(%d bytes): %v", len(body), err)
		}
		if got := buf.Len(); got != FrameHeaderSize+len(body) {
			t.Fatalf("frame length = %d, want %d", got, FrameHeaderSize+len(body))
		}
		out, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d bytes): %v", len(body), err)
		}
		if !bytes.Equal(out, body) {
			t.Fatalf("round trip mismatch: sent %d bytes, got %d", len(body), len(out))
		}
	}
}

func TestFrameZeroLengthBodyIsValid(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil); err != nil {
		t.Fatalf("WriteFrame(nil): %v", err)
	}
	body, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if len(body) != 0 {
		t.Fatalf("expected empty body, got %d bytes", len(body))
	}
}

func TestFrameRejectsOversizeBody(t *testing.T) {
	var buf bytes.Buffer
	body := make([]byte, MaxBodySize+1)
	if err := WriteFrame(&buf, body); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("WriteFrame oversize: got %v, want ErrBodyTooLarge", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("oversize write left %d bytes in buffer", buf.Len())
	}
	if _, err := AppendFrame(nil, body); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("AppendFrame oversize: got %v, want ErrBodyTooLarge", err)
	}
}

func TestReadFrameTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("truncate me")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	short := buf.Bytes()[:buf.Len()-3]
	if _, err := ReadFrame(bytes.NewReader(short)); err == nil {
		t.Fatal("expected error reading truncated frame")
	}
}

func TestAppendFrameMatchesWriteFrame(t *testing.T) {
	body := []byte("same bytes either way")
	var buf bytes.Buffer
	if err := WriteFrame(&buf, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	appended, err := AppendFrame(nil, body)
	if err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), appended) {
		t.Fatal("AppendFrame and WriteFrame produced different frames")
	}
}
