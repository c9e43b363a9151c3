package config

import (
	"fmt"
	"time"
)

type WebSocketConfig struct {
	ReadBufferSize    int           `yaml:"read_buffer_size"`
	WriteBufferSize   int           `yaml:"write_buffer_size"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	PingInterval      time.Duration `yaml:"ping_interval"`
	PongTimeout       time.Duration `yaml:"pong_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	MaxMessageSize    int64         `yaml:"max_message_size"`
	SendBufferSize    int           `yaml:"send_buffer_size"`
	PublishRate       float64       `yaml:"publish_rate"`
	PublishBurst      int           `yaml:"publish_burst"`
	EnableCompression bool          `yaml:"enable_compression"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
}

func loadWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{
		ReadBufferSize:    getEnvAsInt("WEBSOCKET_READ_BUFFER_SIZE", 1024),
		WriteBufferSize:   getEnvAsInt("WEBSOCKET_WRITE_BUFFER_SIZE", 1024),
		HandshakeTimeout:  getEnvAsDuration("WEBSOCKET_HANDSHAKE_TIMEOUT", 10*time.Second),
		PingInterval:      getEnvAsDuration("WEBSOCKET_PING_INTERVAL", 54*time.Second),
		PongTimeout:       getEnvAsDuration("WEBSOCKET_PONG_TIMEOUT", 60*time.Second),
		WriteTimeout:      getEnvAsDuration("WEBSOCKET_WRITE_TIMEOUT", 10*time.Second),
		MaxMessageSize:    int64(getEnvAsInt("WEBSOCKET_MAX_MESSAGE_SIZE", 4096)),
		SendBufferSize:    getEnvAsInt("WEBSOCKET_SEND_BUFFER_SIZE", 256),
		PublishRate:       getEnvAsFloat64("WEBSOCKET_PUBLISH_RATE", 5),
		PublishBurst:      getEnvAsInt("WEBSOCKET_PUBLISH_BURST", 10),
		EnableCompression: getEnvAsBool("WEBSOCKET_ENABLE_COMPRESSION", false),
		AllowedOrigins:    getEnvAsSlice("WEBSOCKET_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func (c *WebSocketConfig) validate() error {
	if c.PingInterval >= c.PongTimeout {
		return fmt.Errorf("WEBSOCKET_PING_INTERVAL (%s) must be shorter than WEBSOCKET_PONG_TIMEOUT (%s)", c.PingInterval, c.PongTimeout)
	}
	if c.PublishRate <= 0 || c.PublishBurst <= 0 {
		return fmt.Errorf("websocket publish rate and burst must be positive")
	}
	if c.SendBufferSize <= 0 {
		return fmt.Errorf("WEBSOCKET_SEND_BUFFER_SIZE must be positive")
	}
	return nil
}
