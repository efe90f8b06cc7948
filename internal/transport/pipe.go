package transport

import "sync"

// pipeQueue is one direction of an in-process channel pair.
type pipeQueue struct {
	messages  chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newPipeQueue(depth int) *pipeQueue {
	return &pipeQueue{
		messages: make(chan []byte, depth),
		closed:   make(chan struct{}),
	}
}

func (q *pipeQueue) close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// pipeChannel is one end of a Pipe.
type pipeChannel struct {
	out *pipeQueue
	in  *pipeQueue
}

// Pipe returns two connected in-process channels. Bodies sent on one end are
// received on the other, in order. Useful for tests and for hosting a server
// and client in the same process without a socket.
func Pipe() (MessageChannel, MessageChannel) {
	a := newPipeQueue(256)
	b := newPipeQueue(256)
	return &pipeChannel{out: a, in: b}, &pipeChannel{out: b, in: a}
}

func (c *pipeChannel) Send(body []byte) error {
	// Checked before enqueueing: in a combined select a ready buffer and a
	// closed channel race, and a send after close must never win.
	select {
	case <-c.out.closed:
		return ErrChannelClosed
	case <-c.in.closed:
		return ErrChannelClosed
	default:
	}
	// Copy so the caller may reuse its buffer immediately, pooled or not.
	cp := append([]byte(nil), body...)
	select {
	case <-c.out.closed:
		return ErrChannelClosed
	case <-c.in.closed:
		return ErrChannelClosed
	case c.out.messages <- cp:
		return nil
	}
}

func (c *pipeChannel) Receive() ([]byte, error) {
	select {
	case body := <-c.in.messages:
		return body, nil
	case <-c.in.closed:
		// Drain what was sent before the close.
		select {
		case body := <-c.in.messages:
			return body, nil
		default:
			return nil, ErrChannelClosed
		}
	}
}

func (c *pipeChannel) Close() error {
	c.out.close()
	c.in.close()
	return nil
}
