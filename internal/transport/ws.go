package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// wsChannel adapts a websocket connection to a MessageChannel. The websocket
// layer already preserves message boundaries, so bodies travel as binary
// messages without the TCP length prefix.
type wsChannel struct {
	conn *websocket.Conn

	wmu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWebsocketChannel wraps an upgraded connection. The ping/pong keepalive
// runs from here on; callers only Send, Receive and Close.
func NewWebsocketChannel(conn *websocket.Conn) MessageChannel {
	c := &wsChannel{
		conn:   conn,
		closed: make(chan struct{}),
	}
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	go c.pingLoop()
	return c
}

func (c *wsChannel) Send(body []byte) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, body); err != nil {
		c.shutdown()
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	return nil
}

func (c *wsChannel) Receive() ([]byte, error) {
	for {
		msgType, body, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown()
			return nil, fmt.Errorf("%w: %v", ErrChannelClosed, err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		return body, nil
	}
}

func (c *wsChannel) Close() error {
	c.shutdown()
	return nil
}

func (c *wsChannel) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
}

func (c *wsChannel) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.wmu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.wmu.Unlock()
			if err != nil {
				c.shutdown()
				return
			}
		}
	}
}
