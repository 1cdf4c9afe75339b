package stream

import (
	"encoding/json"
	"fmt"
)

// StatsStream is a read-only Manager specialization delivering system
// metrics snapshots. Each inbound frame is one JSON document; nothing is
// ever written to this channel.
type StatsStream struct {
	*Manager
}

// NewStatsStream creates a stats stream for the given URL. A zero cfg.Policy
// selects DefaultStatsPolicy.
func NewStatsStream(cfg Config, opts ...Option) (*StatsStream, error) {
	if cfg.Policy == (ReconnectPolicy{}) {
		cfg.Policy = DefaultStatsPolicy()
	}

	mgr, err := NewManager(cfg, opts...)
	if err != nil {
		return nil, err
	}

	s := &StatsStream{Manager: mgr}
	mgr.handleMessage = s.decode
	return s, nil
}

// decode validates one snapshot document. A malformed message emits an error
// event for that message only and leaves the connection open.
func (s *StatsStream) decode(messageType int, data []byte) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		s.logger.Warn("malformed stats snapshot", "stream", s.ID(), "error", err)
		s.emitError(fmt.Errorf("decode snapshot: %w", err))
		return
	}

	snapshot := make(json.RawMessage, len(data))
	copy(snapshot, data)
	s.emitEvent(Event{Kind: EventStats, Snapshot: snapshot})
}
