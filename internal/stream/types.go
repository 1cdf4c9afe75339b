package stream

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected   = errors.New("not connected")
	ErrBadResizeFrame = errors.New("malformed resize frame")

	errURLRequired = errors.New("stream url is required")
)

// ReconnectPolicy controls automatic reconnection. It is immutable once a
// Manager is constructed.
type ReconnectPolicy struct {
	AutoReconnect bool          // reconnect on drops and failed handshakes
	MaxAttempts   uint          // consecutive failures tolerated before giving up
	BaseDelay     time.Duration // delay before the first retry
	MaxDelay      time.Duration // backoff cap; 0 means uncapped
}

// DefaultTerminalPolicy returns the reconnect defaults for terminal streams.
func DefaultTerminalPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		AutoReconnect: true,
		MaxAttempts:   5,
		BaseDelay:     time.Second,
	}
}

// DefaultStatsPolicy returns the reconnect defaults for stats streams.
func DefaultStatsPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		AutoReconnect: true,
		MaxAttempts:   10,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
	}
}

// Delay returns the backoff before reconnect attempt n (1-based):
// min(BaseDelay * 2^(n-1), MaxDelay). No jitter is applied, so retry timing
// stays deterministic.
func (p ReconnectPolicy) Delay(attempt uint) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := attempt - 1
	if shift > 31 { // past this the doubling only overflows
		shift = 31
	}
	d := p.BaseDelay << shift
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// EventKind discriminates Manager events.
type EventKind int

const (
	// EventOpen fires on the first successful connection.
	EventOpen EventKind = iota
	// EventData carries one normalized terminal payload.
	EventData
	// EventStats carries one metrics snapshot document.
	EventStats
	// EventClose fires when the manager reaches the closed state.
	EventClose
	// EventError reports a failure that did not necessarily end the stream.
	EventError
	// EventReconnecting fires before each scheduled retry.
	EventReconnecting
	// EventReconnected fires on a successful open that recovered a drop.
	EventReconnected
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventData:
		return "data"
	case EventStats:
		return "stats"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	case EventReconnecting:
		return "reconnecting"
	case EventReconnected:
		return "reconnected"
	default:
		return "unknown"
	}
}

// Event is the payload delivered to listeners. Kind selects which of the
// remaining fields are meaningful.
type Event struct {
	Kind     EventKind
	Text     string          // EventData: UTF-8 terminal payload
	Snapshot json.RawMessage // EventStats: one snapshot document
	Reason   string          // EventClose
	Err      error           // EventError
	Attempt  uint            // EventReconnecting: 1-based attempt number
}

// Config configures a Manager.
type Config struct {
	// URL is the full WebSocket URL including credentials, usually produced
	// by an endpoint.Builder.
	URL string

	// Policy controls reconnection. The zero value selects the stream's
	// default policy.
	Policy ReconnectPolicy

	// HandshakeTimeout bounds the WebSocket handshake. Defaults to 10s.
	HandshakeTimeout time.Duration

	// WriteTimeout is the write deadline for outbound frames. Defaults to 5s.
	WriteTimeout time.Duration
}

// Default transport timeouts.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
)

func (c *Config) applyDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}
