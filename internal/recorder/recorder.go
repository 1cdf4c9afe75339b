package recorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serverdeck/serverdeck-go/internal/config"
)

// snapshotRow is one stats_snapshots table row.
type snapshotRow struct {
	ID         string // UUID
	StreamID   string // UUID of the stream the snapshot arrived on
	ReceivedAt time.Time
	Payload    []byte // raw JSON document
}

// Metrics counts recorder activity.
type Metrics struct {
	Inserts    int64
	Duplicates int64
	Errors     int64
	Flushes    int64
	Dropped    int64
}

// Recorder archives stats snapshots into Postgres in batches. Snapshots are
// queued by Record and written by a consumer goroutine, so a slow database
// never blocks the stream's read loop.
type Recorder struct {
	cfg    config.RecorderConfig
	logger *slog.Logger

	input *queue[snapshotRow]
	db    *pgxpool.Pool

	batch       []snapshotRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// New creates a Recorder writing to the given pool.
func New(cfg config.RecorderConfig, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  newQueue[snapshotRow](cfg.BufferSize),
		batch:  make([]snapshotRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming queued snapshots and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder and flushes what remains.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping recorder")

	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}
	r.input.close()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	// Drain anything still queued, then flush with a fresh context since
	// the run context is already cancelled.
	if remaining := r.input.drain(0); len(remaining) > 0 {
		r.batchMu.Lock()
		r.batch = append(r.batch, remaining...)
		r.batchMu.Unlock()
	}
	r.flush(context.Background())

	return nil
}

// Record queues one snapshot for archiving. It reports false when the queue
// is at capacity and the snapshot was dropped.
func (r *Recorder) Record(streamID string, snapshot json.RawMessage) bool {
	if r.input.len() >= r.cfg.BufferSize {
		r.batchMu.Lock()
		r.metrics.Dropped++
		r.batchMu.Unlock()
		r.logger.Warn("snapshot dropped, queue full", "stream", streamID)
		return false
	}

	payload := make([]byte, len(snapshot))
	copy(payload, snapshot)

	return r.input.push(snapshotRow{
		ID:         uuid.NewString(),
		StreamID:   streamID,
		ReceivedAt: time.Now().UTC(),
		Payload:    payload,
	})
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// consumeLoop reads from the input queue and accumulates batches.
func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
			row, ok := r.input.tryPop()
			if !ok {
				select {
				case <-r.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}
			r.append(row)
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush(r.ctx)
		}
	}
}

func (r *Recorder) append(row snapshotRow) {
	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush(r.ctx)
	}
}

// flush writes the current batch to the database.
func (r *Recorder) flush(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of the current batch
	batch := r.batch
	r.batch = make([]snapshotRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	duplicates, err := r.batchInsert(ctx, batch)
	if err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch) - duplicates)
	r.metrics.Duplicates += int64(duplicates)
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed snapshots",
		"count", len(batch),
		"duplicates", duplicates,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (r *Recorder) batchInsert(ctx context.Context, rows []snapshotRow) (duplicates int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO stats_snapshots (id, stream_id, received_at, payload)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, row.ID, row.StreamID, row.ReceivedAt, row.Payload)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			duplicates++
		}
	}

	return duplicates, nil
}
