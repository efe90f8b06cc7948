// Package transport provides message channels: ordered, framed byte-message
// pipes between a client session and the server core. Implementations exist
// for TCP, websocket, and in-process pairs.
package transport

import "errors"

// ErrChannelClosed is returned by Send and Receive once a channel is closed,
// whether locally or by the peer. Check with errors.Is.
var ErrChannelClosed = errors.New("transport: channel closed")

// MessageChannel carries whole message bodies in order. Send never blocks on
// the peer consuming; Receive blocks until one complete body has arrived or
// the channel is closed. An empty body is a valid message (keepalive).
type MessageChannel interface {
	Send(body []byte) error
	Receive() ([]byte, error)
	Close() error
}
