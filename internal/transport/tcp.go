package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quadris-game/netcode/internal/protocol"
)

const (
	// DialBackoff is the fixed delay between connect attempts.
	DialBackoff = 3 * time.Second
	// keepaliveInterval is how long a dialed channel stays silent before an
	// empty frame is written to keep middleboxes from dropping it.
	keepaliveInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// tcpChannel frames message bodies over one net.Conn. Sends hold a mutex so
// frames from concurrent callers never interleave; receives are expected from
// a single reader goroutine.
type tcpChannel struct {
	conn net.Conn

	wmu      sync.Mutex
	lastSend time.Time

	closeOnce sync.Once
	closed    chan struct{}
}

func newTCPChannel(conn net.Conn, keepalive bool) *tcpChannel {
	c := &tcpChannel{
		conn:     conn,
		lastSend: time.Now(),
		closed:   make(chan struct{}),
	}
	if keepalive {
		go c.keepaliveLoop()
	}
	return c
}

func (c *tcpChannel) Send(body []byte) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}

	buf := AcquireFrameBuffer()
	defer ReleaseFrameBuffer(buf)
	frame, err := protocol.AppendFrame((*buf)[:0], body)
	if err != nil {
		return err
	}
	*buf = frame

	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := c.conn.Write(frame); err != nil {
		c.shutdown()
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	c.lastSend = time.Now()
	return nil
}

func (c *tcpChannel) Receive() ([]byte, error) {
	body, err := protocol.ReadFrame(c.conn)
	if err != nil {
		c.shutdown()
		return nil, fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	return body, nil
}

func (c *tcpChannel) Close() error {
	c.shutdown()
	return nil
}

func (c *tcpChannel) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (c *tcpChannel) keepaliveLoop() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.wmu.Lock()
			idle := time.Since(c.lastSend) >= keepaliveInterval
			c.wmu.Unlock()
			if !idle {
				continue
			}
			if err := c.Send(nil); err != nil {
				return
			}
		}
	}
}

// Listener accepts framed TCP channels for the server core.
type Listener struct {
	ln net.Listener
}

func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks for the next connection and wraps it in a MessageChannel.
func (l *Listener) Accept() (MessageChannel, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return newTCPChannel(conn, false), nil
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }
func (l *Listener) Close() error   { return l.ln.Close() }

// Dialer connects a client to the server, retrying with a fixed backoff until
// the context is cancelled. A fresh channel is returned per established
// connection; when it dies the caller dials again.
type Dialer struct {
	Addr    string
	Backoff time.Duration
}

func (d *Dialer) backoff() time.Duration {
	if d.Backoff > 0 {
		return d.Backoff
	}
	return DialBackoff
}

// Connect dials until it succeeds or ctx is done.
func (d *Dialer) Connect(ctx context.Context) (MessageChannel, error) {
	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "tcp", d.Addr)
		if err == nil {
			return newTCPChannel(conn, true), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.backoff()):
		}
	}
}

// IsClosed reports whether err means the channel is gone rather than a
// message-level problem.
func IsClosed(err error) bool {
	return errors.Is(err, ErrChannelClosed)
}
