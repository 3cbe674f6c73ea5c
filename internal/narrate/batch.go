package narrate

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"txnarrator/internal/metrics"
	"txnarrator/internal/model"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 10

// LogDecoder decodes a single log.
type LogDecoder interface {
	Decode(ctx context.Context, log model.RawLog) (Result, error)
}

// BatchOptions tunes DecodeAll.
type BatchOptions struct {
	Concurrency int
	// Timeout bounds the whole batch. Zero defers to the context deadline.
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// DecodeAll decodes logs on a bounded worker pool. The result slice always
// has len(logs) entries and out[i] belongs to logs[i]. Per-log failures
// never abort the batch. Logs still running when the batch deadline passes
// are reported as StatusTimedOut and their contexts are cancelled.
func DecodeAll(ctx context.Context, dec LogDecoder, logs []model.RawLog, opts BatchOptions) []Result {
	out := make([]Result, len(logs))
	if len(logs) == 0 {
		return out
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}

	batchCtx, cancel := context.WithCancel(ctx)
	if opts.Timeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	start := time.Now()
	var (
		mu     sync.Mutex
		done   = make([]bool, len(logs))
		closed bool
	)
	pool := pond.NewPool(workers, pond.WithContext(batchCtx))
	for i, log := range logs {
		pool.Submit(func() {
			res, err := dec.Decode(batchCtx, log)
			if err != nil && res.Status == "" {
				res = Result{Status: StatusInvalid, Err: err}
			}
			mu.Lock()
			defer mu.Unlock()
			if closed || batchCtx.Err() != nil {
				return
			}
			out[i] = res
			done[i] = true
		})
	}

	stopped := pool.Stop()
	select {
	case <-stopped.Done():
	case <-batchCtx.Done():
	}

	mu.Lock()
	closed = true
	pending := 0
	for i := range out {
		if !done[i] {
			out[i] = Result{Status: StatusTimedOut, Err: batchCtx.Err()}
			pending++
		}
	}
	mu.Unlock()

	if pending > 0 {
		logger.Warn("batch deadline reached",
			zap.Int("logs", len(logs)),
			zap.Int("abandoned", pending),
			zap.Error(batchCtx.Err()),
		)
	}
	opts.Metrics.BatchObserved(time.Since(start))
	return out
}

// DecodeAllText is DecodeAll reduced to sentences.
func DecodeAllText(ctx context.Context, dec LogDecoder, logs []model.RawLog, opts BatchOptions) []string {
	results := DecodeAll(ctx, dec, logs, opts)
	out := make([]string, len(results))
	for i, res := range results {
		out[i] = res.Text
	}
	return out
}
