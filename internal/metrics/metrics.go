// Package metrics exposes the server's Prometheus collectors. Everything is
// registered on the default registry and served by the HTTP API's /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quadris"

var (
	// MessagesReceived counts decoded inbound messages by kind.
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_received_total",
		Help:      "Inbound protocol messages by kind",
	}, []string{"kind"})

	// MessagesSent counts outbound messages by kind, broadcasts counted once
	// per recipient.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Outbound protocol messages by kind",
	}, []string{"kind"})

	// DecodeErrors counts bodies that failed to decode and were dropped.
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "decode_errors_total",
		Help:      "Inbound bodies dropped because they failed to decode",
	})

	// DroppedMessages counts messages discarded by routing or room rules.
	DroppedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_messages_total",
		Help:      "Messages discarded without effect, by reason",
	}, []string{"reason"})

	// ActiveRooms tracks the number of live rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_rooms",
		Help:      "Rooms currently registered on the server",
	})

	// ConnectedClients tracks registered client connections.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connected_clients",
		Help:      "Client connections currently registered on the server",
	})
)
