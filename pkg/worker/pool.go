package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/sentiment-lab/pkg/logger"
)

// Pool runs indexed jobs with bounded concurrency
type Pool struct {
	name  string
	limit int
}

// NewPool creates pool running at most limit jobs at once
func NewPool(name string, limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{name: name, limit: limit}
}

// Limit returns the concurrency bound
func (p *Pool) Limit() int {
	return p.limit
}

// Run calls fn for every index in [0, n). The first error cancels the context
// passed to the remaining jobs and stops dispatching; it is returned as is.
// Cancellation of ctx also stops dispatching and returns ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	dispatched := 0
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
		dispatched++
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	logger.Debug("worker pool finished",
		zap.String("pool", p.name),
		zap.Int("jobs", n),
		zap.Int("dispatched", dispatched),
		zap.Int("limit", p.limit),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)

	return err
}
