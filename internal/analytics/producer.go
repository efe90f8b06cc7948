package analytics

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
)

// SessionEvent records one multiplayer session lifecycle change.
type SessionEvent struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	RoomID    string                 `json:"roomId"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventType constants
const (
	EventRoomCreated   = "room_created"
	EventRoomClosed    = "room_closed"
	EventClientJoined  = "client_joined"
	EventClientLeft    = "client_left"
	EventGameStarted   = "game_started"
	EventGameRestarted = "game_restarted"
)

// Producer handles sending events to Kafka
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &Producer{
		producer: producer,
		topic:    topic,
	}, nil
}

// SendEvent sends a session event to Kafka
func (p *Producer) SendEvent(event SessionEvent) error {
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.RoomID),
		Value: sarama.StringEncoder(payload),
	}

	_, _, err = p.producer.SendMessage(msg)
	return err
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.producer.Close()
}

// Helper constructors for the event types the server emits.

func RoomCreatedEvent(roomID, name string, public bool) SessionEvent {
	return SessionEvent{
		Type:   EventRoomCreated,
		RoomID: roomID,
		Data: map[string]interface{}{
			"name":   name,
			"public": public,
		},
	}
}

func RoomClosedEvent(roomID string) SessionEvent {
	return SessionEvent{Type: EventRoomClosed, RoomID: roomID}
}

func ClientEvent(eventType, roomID, clientID string) SessionEvent {
	return SessionEvent{
		Type:   eventType,
		RoomID: roomID,
		Data: map[string]interface{}{
			"clientId": clientID,
		},
	}
}

func GameStartedEvent(roomID string, playerCount int) SessionEvent {
	return SessionEvent{
		Type:   EventGameStarted,
		RoomID: roomID,
		Data: map[string]interface{}{
			"playerCount": playerCount,
		},
	}
}

func GameRestartedEvent(roomID, sourceClientID string) SessionEvent {
	return SessionEvent{
		Type:   EventGameRestarted,
		RoomID: roomID,
		Data: map[string]interface{}{
			"sourceClientId": sourceClientID,
		},
	}
}
