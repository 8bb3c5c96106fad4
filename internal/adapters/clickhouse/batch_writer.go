package clickhouse

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

const flushTimeout = 30 * time.Second

// FlushFunc writes one batch of records
type FlushFunc[T any] func(ctx context.Context, batch []T) error

// BatchWriter buffers records and writes them in batches,
// on size, on a timer and on Close
type BatchWriter[T any] struct {
	buffer      []T
	bufferMu    sync.Mutex
	flushMu     sync.Mutex
	maxBatch    int
	flushTicker *time.Ticker
	flushFunc   FlushFunc[T]
	firstErr    error
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewBatchWriter creates new batch writer
func NewBatchWriter[T any](maxBatch int, maxWait time.Duration, flushFunc FlushFunc[T]) *BatchWriter[T] {
	if maxBatch < 1 {
		maxBatch = 1
	}

	bw := &BatchWriter[T]{
		buffer:      make([]T, 0, maxBatch),
		maxBatch:    maxBatch,
		flushTicker: time.NewTicker(maxWait),
		flushFunc:   flushFunc,
		done:        make(chan struct{}),
	}

	bw.wg.Add(1)
	go bw.autoFlush()

	return bw
}

// Add adds records to buffer
func (bw *BatchWriter[T]) Add(records ...T) {
	bw.bufferMu.Lock()
	bw.buffer = append(bw.buffer, records...)
	shouldFlush := len(bw.buffer) >= bw.maxBatch
	bw.bufferMu.Unlock()

	if shouldFlush {
		bw.flush()
	}
}

// autoFlush flushes buffer periodically
func (bw *BatchWriter[T]) autoFlush() {
	defer bw.wg.Done()

	for {
		select {
		case <-bw.flushTicker.C:
			bw.flush()
		case <-bw.done:
			return
		}
	}
}

// flush writes buffered records
func (bw *BatchWriter[T]) flush() {
	bw.flushMu.Lock()
	defer bw.flushMu.Unlock()

	bw.bufferMu.Lock()
	if len(bw.buffer) == 0 {
		bw.bufferMu.Unlock()
		return
	}

	toWrite := make([]T, len(bw.buffer))
	copy(toWrite, bw.buffer)
	bw.buffer = bw.buffer[:0]
	bw.bufferMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := bw.flushFunc(ctx, toWrite); err != nil {
		logger.Error("failed to flush batch to ClickHouse",
			zap.Int("records", len(toWrite)),
			zap.Error(err),
		)
		if bw.firstErr == nil {
			bw.firstErr = err
		}
		return
	}

	logger.Debug("flushed batch to ClickHouse",
		zap.Int("records", len(toWrite)),
	)
}

// Close stops the writer, flushes remaining data and
// returns the first flush error
func (bw *BatchWriter[T]) Close() error {
	bw.flushTicker.Stop()
	close(bw.done)
	bw.wg.Wait()

	bw.flush()

	bw.flushMu.Lock()
	defer bw.flushMu.Unlock()
	return bw.firstErr
}

// NewAlignedPairWriter creates batch writer storing aligned pairs of one run
func NewAlignedPairWriter(repo *Repository, runID uuid.UUID, maxBatch int, maxWait time.Duration) *BatchWriter[models.AlignedPair] {
	return NewBatchWriter(maxBatch, maxWait, func(ctx context.Context, batch []models.AlignedPair) error {
		return repo.SaveAlignedPairs(ctx, runID, batch)
	})
}
