package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/serverdeck/serverdeck-go/internal/emitter"
)

// Conn is the subset of *websocket.Conn the Manager uses.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens one WebSocket connection. Tests substitute scripted or
// failing transports through it.
type Dialer interface {
	DialContext(ctx context.Context, url string, header http.Header) (Conn, error)
}

type wsDialer struct {
	handshakeTimeout time.Duration
}

func (d wsDialer) DialContext(ctx context.Context, rawURL string, header http.Header) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Manager owns the lifecycle of exactly one WebSocket at a time: it dials,
// watches the socket, reconnects with exponential backoff, and emits
// lifecycle and payload events. TerminalStream and StatsStream specialize it
// through the handleMessage and onOpen hooks.
//
// Transport failures never propagate out of public methods; they surface as
// error, close, and reconnecting events.
type Manager struct {
	cfg    Config
	id     string
	logger *slog.Logger
	dialer Dialer
	events *emitter.Emitter[EventKind, Event]

	// handleMessage decodes one inbound frame. Set by the specialization.
	handleMessage func(messageType int, data []byte)
	// onOpen runs after every successful open, before the open/reconnected
	// event is emitted.
	onOpen func()

	mu    sync.Mutex
	st    machineState
	conn  Conn
	timer *time.Timer
	ctx   context.Context

	writeMu sync.Mutex // serialises socket writes
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDialer sets a custom transport dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dialer = d
		}
	}
}

// NewManager creates a Manager for the given URL. It fails only on malformed
// arguments; connectivity problems are reported through events after Connect.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.URL == "" {
		return nil, errURLRequired
	}
	cfg.applyDefaults()

	m := &Manager{
		cfg:    cfg,
		id:     uuid.NewString(),
		logger: slog.Default(),
		st:     machineState{Phase: StateConnecting},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dialer == nil {
		m.dialer = wsDialer{handshakeTimeout: cfg.HandshakeTimeout}
	}
	m.events = emitter.New[EventKind, Event](m.logger)

	return m, nil
}

// ID returns the manager's stream identifier, used for log correlation.
func (m *Manager) ID() string { return m.id }

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Phase
}

// On registers a listener for events of kind k.
func (m *Manager) On(k EventKind, fn func(Event)) emitter.Subscription[EventKind] {
	return m.events.On(k, fn)
}

// Once registers a listener that fires for at most one event of kind k.
func (m *Manager) Once(k EventKind, fn func(Event)) emitter.Subscription[EventKind] {
	return m.events.Once(k, fn)
}

// Off removes a listener registered with On or Once.
func (m *Manager) Off(sub emitter.Subscription[EventKind]) {
	m.events.Off(sub)
}

// Connect starts the first connection attempt and returns immediately;
// progress is reported through events. Calling Connect more than once is a
// no-op. The context bounds handshakes for the life of the manager.
func (m *Manager) Connect(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	if m.ctx != nil {
		m.mu.Unlock()
		return
	}
	m.ctx = ctx
	m.st.Phase = StateConnecting
	m.mu.Unlock()

	go m.dial()
}

// Close tears down the socket, cancels any pending reconnect timer, and
// leaves the manager closed. It is idempotent: the second call is a no-op.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.st.Phase == StateClosed || m.st.Phase == StateClosing {
		m.mu.Unlock()
		return nil
	}
	m.st.ManualClose = true
	m.st.Phase = StateClosing
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		m.writeMu.Lock()
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		m.writeMu.Unlock()
		conn.Close()
	}

	m.mu.Lock()
	m.st.Phase = StateClosed
	m.mu.Unlock()

	m.logger.Info("stream closed", "stream", m.id)
	m.events.Emit(EventClose, Event{Kind: EventClose, Reason: "closed by client"})
	return nil
}

// Reconnect starts a fresh connection cycle after the manager has closed,
// either explicitly or by exhausting its retry budget. It reports whether a
// cycle was started; in any state other than closed or closing it does
// nothing.
func (m *Manager) Reconnect() bool {
	m.mu.Lock()
	var d directive
	m.st, d = reconnectRequested(m.st)
	m.mu.Unlock()

	if !d.Dial {
		return false
	}
	m.logger.Info("reconnect requested", "stream", m.id)
	go m.dial()
	return true
}

// dial performs one connection attempt.
func (m *Manager) dial() {
	m.mu.Lock()
	if m.st.ManualClose || m.st.Phase != StateConnecting {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	conn, err := m.dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		m.logger.Warn("handshake failed", "stream", m.id, "error", err)
		m.lost(err, "handshake failed")
		return
	}

	m.mu.Lock()
	if m.st.ManualClose {
		// Close raced the handshake; drop the fresh socket.
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	var d directive
	m.st, d = openSucceeded(m.st)
	m.mu.Unlock()

	if m.onOpen != nil {
		m.onOpen()
	}
	m.logger.Info("stream connected", "stream", m.id)
	m.emitAll(d.Events)

	// Start reading only after the open event so a socket that drops
	// immediately cannot emit reconnecting ahead of open.
	go m.readPump(conn)
}

// readPump reads frames until the socket fails, then hands the error to the
// reconnect logic. A pump whose socket was already replaced stays silent.
func (m *Manager) readPump(conn Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			stale := m.conn != conn
			m.mu.Unlock()
			if stale {
				return
			}
			m.lost(err, "connection lost")
			return
		}

		if m.handleMessage != nil {
			m.handleMessage(messageType, data)
		}
	}
}

// lost handles a failed handshake or a dropped socket: it either schedules a
// retry or transitions to closed. The reconnecting event is emitted before
// the timer is armed so it always precedes the attempt it announces.
func (m *Manager) lost(cause error, reason string) {
	m.mu.Lock()
	if m.st.Phase == StateClosed || m.st.Phase == StateClosing {
		m.mu.Unlock()
		return
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	var d directive
	m.st, d = connectionLost(m.st, m.cfg.Policy, cause, reason)
	m.mu.Unlock()

	m.emitAll(d.Events)

	if d.RetryIn > 0 {
		m.mu.Lock()
		if m.st.Phase == StateReconnecting && !m.st.ManualClose {
			m.logger.Info("reconnect scheduled",
				"stream", m.id,
				"attempt", m.st.Attempts,
				"delay", d.RetryIn,
			)
			m.timer = time.AfterFunc(d.RetryIn, m.retry)
		}
		m.mu.Unlock()
	}
}

// retry runs when the backoff timer fires.
func (m *Manager) retry() {
	m.mu.Lock()
	m.timer = nil
	var d directive
	m.st, d = retryFired(m.st)
	m.mu.Unlock()

	if d.Dial {
		m.dial()
	}
}

// send writes one frame while the socket is open.
func (m *Manager) send(messageType int, data []byte) error {
	m.mu.Lock()
	conn := m.conn
	open := m.st.Phase == StateOpen
	m.mu.Unlock()

	if !open || conn == nil {
		return ErrNotConnected
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	return conn.WriteMessage(messageType, data)
}

func (m *Manager) emitAll(events []Event) {
	for _, ev := range events {
		m.events.Emit(ev.Kind, ev)
	}
}

func (m *Manager) emitEvent(ev Event) {
	m.events.Emit(ev.Kind, ev)
}

func (m *Manager) emitError(err error) {
	m.events.Emit(EventError, Event{Kind: EventError, Err: err})
}
