package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAgentTimeout = 30 * time.Second

	DefaultTerminalMaxAttempts = 5
	DefaultStatsMaxAttempts    = 10
	DefaultBaseDelay           = 1 * time.Second
	DefaultStatsMaxDelay       = 30 * time.Second
	DefaultHandshakeTimeout    = 10 * time.Second

	DefaultBatchSize     = 100
	DefaultFlushInterval = 1 * time.Second
	DefaultBufferSize    = 1000

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2
)

func (c *Config) applyDefaults() {
	if c.Agent.Timeout == 0 {
		c.Agent.Timeout = DefaultAgentTimeout
	}

	// Terminal backoff stays uncapped; an interactive session should keep
	// trying with long pauses rather than hammer a capped interval.
	applyStreamDefaults(&c.Terminal, DefaultTerminalMaxAttempts, 0)
	applyStreamDefaults(&c.Stats, DefaultStatsMaxAttempts, DefaultStatsMaxDelay)

	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultBufferSize
	}

	applyDBDefaults(&c.Database)
}

func applyStreamDefaults(s *StreamConfig, maxAttempts uint, maxDelay time.Duration) {
	if s.MaxAttempts == 0 {
		s.MaxAttempts = maxAttempts
	}
	if s.BaseDelay == 0 {
		s.BaseDelay = DefaultBaseDelay
	}
	if s.MaxDelay == 0 {
		s.MaxDelay = maxDelay
	}
	if s.HandshakeTimeout == 0 {
		s.HandshakeTimeout = DefaultHandshakeTimeout
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
