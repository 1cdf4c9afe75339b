package config

import (
	"time"

	"github.com/serverdeck/serverdeck-go/internal/stream"
)

// Config is the root configuration for the ServerDeck client tooling.
type Config struct {
	Agent    AgentConfig    `yaml:"agent"`
	Terminal StreamConfig   `yaml:"terminal"`
	Stats    StreamConfig   `yaml:"stats"`
	Recorder RecorderConfig `yaml:"recorder"`
	Database DBConfig       `yaml:"database"`
}

// AgentConfig holds the agent endpoint and credentials.
type AgentConfig struct {
	Origin    string        `yaml:"origin"`     // http(s) origin of the agent, e.g. https://deck01.example.com
	APIPrefix string        `yaml:"api_prefix"` // empty means the default /api
	APIKey    string        `yaml:"api_key"`
	Token     string        `yaml:"token"` // session token, used only when api_key is unset
	Timeout   time.Duration `yaml:"timeout"`
}

// StreamConfig holds reconnect tuning for one stream kind.
type StreamConfig struct {
	DisableReconnect bool          `yaml:"disable_reconnect"`
	MaxAttempts      uint          `yaml:"max_attempts"`
	BaseDelay        time.Duration `yaml:"base_delay"`
	MaxDelay         time.Duration `yaml:"max_delay"` // zero leaves the backoff uncapped
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// Policy converts the section into a stream reconnect policy.
func (s StreamConfig) Policy() stream.ReconnectPolicy {
	return stream.ReconnectPolicy{
		AutoReconnect: !s.DisableReconnect,
		MaxAttempts:   s.MaxAttempts,
		BaseDelay:     s.BaseDelay,
		MaxDelay:      s.MaxDelay,
	}
}

// RecorderConfig holds snapshot recorder batching settings.
type RecorderConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds the Postgres connection for snapshot archiving.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
