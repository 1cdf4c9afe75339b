package recorder

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/serverdeck/serverdeck-go/internal/config"
)

func testConfig() config.RecorderConfig {
	return config.RecorderConfig{
		BatchSize:     10,
		FlushInterval: 50 * time.Millisecond,
		BufferSize:    100,
	}
}

func TestRecord_QueuesRow(t *testing.T) {
	r := New(testConfig(), nil, nil)
	streamID := uuid.NewString()
	snapshot := json.RawMessage(`{"cpu":{"usage":12.5}}`)

	if !r.Record(streamID, snapshot) {
		t.Fatal("Record returned false")
	}
	if r.input.len() != 1 {
		t.Fatalf("queue len = %d, want 1", r.input.len())
	}

	row, ok := r.input.tryPop()
	if !ok {
		t.Fatal("queued row missing")
	}
	if _, err := uuid.Parse(row.ID); err != nil {
		t.Errorf("row ID %q is not a UUID: %v", row.ID, err)
	}
	if row.StreamID != streamID {
		t.Errorf("StreamID = %q, want %q", row.StreamID, streamID)
	}
	if string(row.Payload) != string(snapshot) {
		t.Errorf("Payload = %s, want %s", row.Payload, snapshot)
	}
	if row.ReceivedAt.Location() != time.UTC {
		t.Errorf("ReceivedAt location = %v, want UTC", row.ReceivedAt.Location())
	}
	if time.Since(row.ReceivedAt) > time.Minute {
		t.Errorf("ReceivedAt = %v, not recent", row.ReceivedAt)
	}
}

func TestRecord_CopiesPayload(t *testing.T) {
	r := New(testConfig(), nil, nil)
	snapshot := json.RawMessage(`{"cpu":1}`)

	r.Record(uuid.NewString(), snapshot)
	snapshot[1] = 'X' // caller may reuse its buffer

	row, _ := r.input.tryPop()
	if string(row.Payload) != `{"cpu":1}` {
		t.Errorf("Payload = %s, want the original bytes", row.Payload)
	}
}

func TestRecord_DropsWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.BufferSize = 2
	r := New(cfg, nil, nil)

	if !r.Record("s", json.RawMessage(`{}`)) {
		t.Fatal("first Record returned false")
	}
	if !r.Record("s", json.RawMessage(`{}`)) {
		t.Fatal("second Record returned false")
	}
	if r.Record("s", json.RawMessage(`{}`)) {
		t.Error("Record over capacity should return false")
	}
	if got := r.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestRecorder_StartStopWithoutWork(t *testing.T) {
	r := New(testConfig(), nil, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestAppend_AccumulatesBelowBatchSize(t *testing.T) {
	r := New(testConfig(), nil, nil)

	for i := 0; i < 3; i++ {
		r.append(snapshotRow{ID: uuid.NewString(), Payload: []byte(`{}`)})
	}

	r.batchMu.Lock()
	got := len(r.batch)
	r.batchMu.Unlock()
	if got != 3 {
		t.Errorf("batch len = %d, want 3", got)
	}
}
