package config

import (
	"time"
)

type WebSocketConfig struct {
	Path             string        `yaml:"path"`
	ReadBufferSize   int           `yaml:"read_buffer_size"`
	WriteBufferSize  int           `yaml:"write_buffer_size"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PongTimeout      time.Duration `yaml:"pong_timeout"`
	MaxSubscriptions int           `yaml:"max_subscriptions"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

func loadWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		Path:             getEnv("WEBSOCKET_PATH", "/ws"),
		ReadBufferSize:   getEnvAsInt("WEBSOCKET_READ_BUFFER_SIZE", 1024),
		WriteBufferSize:  getEnvAsInt("WEBSOCKET_WRITE_BUFFER_SIZE", 1024),
		HandshakeTimeout: getEnvAsDuration("WEBSOCKET_HANDSHAKE_TIMEOUT", 10*time.Second),
		PongTimeout:      getEnvAsDuration("WEBSOCKET_PONG_TIMEOUT", 60*time.Second),
		MaxSubscriptions: getEnvAsInt("WEBSOCKET_MAX_SUBSCRIPTIONS", 8),
		AllowedOrigins:   getEnvAsSlice("WEBSOCKET_ALLOWED_ORIGINS", []string{"*"}),
	}
}
