package stream

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// TerminalStream is a Manager specialization for interactive terminal
// sessions: raw-text frames in both directions plus the binary resize
// command. Inbound binary and text frames are both normalized to data events
// so callers never branch on transport framing.
type TerminalStream struct {
	*Manager

	sizeMu   sync.Mutex
	lastSize *TerminalSize
}

// NewTerminalStream creates a terminal stream for the given URL. size may be
// nil; a size supplied here or via Resize before the first open is cached and
// sent once the connection is up. A zero cfg.Policy selects
// DefaultTerminalPolicy.
func NewTerminalStream(cfg Config, size *TerminalSize, opts ...Option) (*TerminalStream, error) {
	if cfg.Policy == (ReconnectPolicy{}) {
		cfg.Policy = DefaultTerminalPolicy()
	}

	mgr, err := NewManager(cfg, opts...)
	if err != nil {
		return nil, err
	}

	t := &TerminalStream{Manager: mgr}
	if size != nil {
		s := *size
		t.lastSize = &s
	}
	mgr.handleMessage = t.decode
	mgr.onOpen = t.replaySize
	return t, nil
}

// Write sends raw keystrokes as one binary frame with no opcode prefix.
func (t *TerminalStream) Write(data string) error {
	return t.send(websocket.BinaryMessage, []byte(data))
}

// Resize records the geometry and, while the socket is open, sends the
// resize frame. Before the first open the size is only cached; replaySize
// transmits it once the connection is up.
func (t *TerminalStream) Resize(cols, rows uint16) error {
	size := TerminalSize{Cols: cols, Rows: rows}
	t.sizeMu.Lock()
	t.lastSize = &size
	t.sizeMu.Unlock()

	err := t.send(websocket.BinaryMessage, EncodeResize(size))
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

// Size returns the last geometry supplied, or false if none was.
func (t *TerminalStream) Size() (TerminalSize, bool) {
	t.sizeMu.Lock()
	defer t.sizeMu.Unlock()
	if t.lastSize == nil {
		return TerminalSize{}, false
	}
	return *t.lastSize, true
}

// decode normalizes inbound frames into data events.
func (t *TerminalStream) decode(messageType int, data []byte) {
	switch messageType {
	case websocket.TextMessage, websocket.BinaryMessage:
		t.emitEvent(Event{Kind: EventData, Text: string(data)})
	}
}

// replaySize retransmits the cached geometry after every successful open so
// the remote PTY never keeps a stale size across reconnects.
func (t *TerminalStream) replaySize() {
	t.sizeMu.Lock()
	size := t.lastSize
	t.sizeMu.Unlock()
	if size == nil {
		return
	}

	if err := t.send(websocket.BinaryMessage, EncodeResize(*size)); err != nil {
		t.logger.Warn("resize replay failed", "stream", t.ID(), "error", err)
	}
}
