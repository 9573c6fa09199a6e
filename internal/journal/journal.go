package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onenight/partyclient/internal/config"
	"github.com/onenight/partyclient/internal/connection"
)

// WriterConfig configures batching.
type WriterConfig struct {
	BatchSize     int           // Frames per store write
	FlushInterval time.Duration // Max time a frame waits in memory
	BufferSize    int           // Initial buffer capacity
	MaxBufferSize int           // Oldest frames are dropped beyond this
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     config.DefaultBatchSize,
		FlushInterval: config.DefaultFlushInterval,
		BufferSize:    config.DefaultBufferSize,
		MaxBufferSize: config.DefaultMaxBufferSize,
	}
}

// WriterConfigFrom maps the journal config section.
func WriterConfigFrom(cfg config.JournalConfig) WriterConfig {
	return WriterConfig{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		BufferSize:    cfg.BufferSize,
		MaxBufferSize: cfg.MaxBufferSize,
	}
}

// Stats contains journal statistics.
type Stats struct {
	Recorded int64 // Frames accepted by Record
	Written  int64 // Frames persisted
	Dropped  int64 // Frames evicted from a full buffer or recorded after Stop
	Flushes  int64 // Successful store writes
	Errors   int64 // Failed store writes
}

// Journal records frames into a buffer and writes them to a Store in
// batches from a background goroutine. It implements connection.Recorder.
type Journal struct {
	cfg    WriterConfig
	logger *slog.Logger
	store  Store

	buf *Buffer[connection.Frame]

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

var _ connection.Recorder = (*Journal)(nil)

// New creates a Journal writing to store.
func New(cfg WriterConfig, store Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = config.DefaultFlushInterval
	}

	return &Journal{
		cfg:    cfg,
		logger: logger.With("component", "journal"),
		store:  store,
		buf:    NewBuffer[connection.Frame](cfg.BufferSize, cfg.MaxBufferSize),
	}
}

// Record queues f without blocking.
func (j *Journal) Record(f connection.Frame) {
	if !j.buf.Push(f) {
		j.statsMu.Lock()
		j.stats.Dropped++
		j.statsMu.Unlock()
		return
	}

	j.statsMu.Lock()
	j.stats.Recorded++
	j.statsMu.Unlock()
}

// Start begins writing buffered frames to the store.
func (j *Journal) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)

	j.wg.Add(1)
	go j.writeLoop()

	j.logger.Info("journal started",
		"batch_size", j.cfg.BatchSize,
		"flush_interval", j.cfg.FlushInterval,
	)
	return nil
}

// Stop stops the writer and flushes whatever is still buffered using ctx.
func (j *Journal) Stop(ctx context.Context) error {
	j.logger.Info("stopping journal")

	j.buf.Close()
	if j.cancel != nil {
		j.cancel()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		j.logger.Warn("journal stop timed out")
		return ctx.Err()
	}

	// Final flush
	j.flushAll(ctx)

	j.logger.Info("journal stopped", "written", j.Stats().Written)
	return nil
}

// Stats returns current statistics.
func (j *Journal) Stats() Stats {
	dropped := j.buf.Stats().Dropped

	j.statsMu.Lock()
	defer j.statsMu.Unlock()

	stats := j.stats
	stats.Dropped += dropped
	return stats
}

// writeLoop flushes full batches as they fill and partial ones on the
// ticker.
func (j *Journal) writeLoop() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-j.buf.Ready():
			for j.buf.Len() >= j.cfg.BatchSize {
				j.flush(j.ctx, j.buf.Drain(j.cfg.BatchSize))
			}
		case <-ticker.C:
			j.flushAll(j.ctx)
		}
	}
}

func (j *Journal) flushAll(ctx context.Context) {
	for {
		batch := j.buf.Drain(j.cfg.BatchSize)
		if len(batch) == 0 {
			return
		}
		j.flush(ctx, batch)
	}
}

// flush writes one batch. A failed batch is counted and discarded.
func (j *Journal) flush(ctx context.Context, batch []connection.Frame) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()

	if err := j.store.WriteFrames(ctx, batch); err != nil {
		j.logger.Error("journal write failed", "error", err, "count", len(batch))
		j.statsMu.Lock()
		j.stats.Errors++
		j.statsMu.Unlock()
		return
	}

	j.statsMu.Lock()
	j.stats.Written += int64(len(batch))
	j.stats.Flushes++
	j.statsMu.Unlock()

	j.logger.Debug("flushed frames",
		"count", len(batch),
		"duration", time.Since(start),
	)
}
