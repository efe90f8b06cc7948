package config

import (
	"os"
	"strconv"
	"strings"
)

// RoomDestroyPolicy decides when a room dies relative to disconnects.
type RoomDestroyPolicy string

const (
	// DestroyOnLastDisconnect keeps a room alive until its last connected
	// client is gone.
	DestroyOnLastDisconnect RoomDestroyPolicy = "last-disconnect"
	// DestroyOnAnyDisconnect tears the room down as soon as any connected
	// client drops.
	DestroyOnAnyDisconnect RoomDestroyPolicy = "any-disconnect"
)

type Config struct {
	Server   ServerConfig
	Game     GameConfig
	Kafka    KafkaConfig
	Security SecurityConfig
}

type ServerConfig struct {
	TCPAddr  string
	HTTPAddr string
}

type GameConfig struct {
	SlotsPerRoom  int
	DestroyPolicy RoomDestroyPolicy
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type SecurityConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			TCPAddr:  getEnv("TCP_ADDR", ":4180"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Game: GameConfig{
			SlotsPerRoom:  getEnvInt("SLOTS_PER_ROOM", 4),
			DestroyPolicy: RoomDestroyPolicy(getEnv("ROOM_DESTROY_POLICY", string(DestroyOnLastDisconnect))),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "session-events"),
		},
		Security: SecurityConfig{
			AllowedOrigins: splitNonEmpty(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}
	if cfg.Game.DestroyPolicy != DestroyOnAnyDisconnect {
		cfg.Game.DestroyPolicy = DestroyOnLastDisconnect
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
