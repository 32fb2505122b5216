package mailqueue

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	batchSize   int
	claimTTL    time.Duration
	concurrency int
	sendTimeout time.Duration
	messageTag  string
	logger      *slog.Logger
	now         func() time.Time
}

// WithBatchSize sets how many items one ProcessQueue call claims
func WithBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithClaimTTL sets how long claimed items stay reserved for this worker.
// Claims older than the TTL are swept back to pending by the next run.
func WithClaimTTL(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.claimTTL = d
		}
	}
}

// WithConcurrency sets how many items of a batch are delivered at once.
// The default of 1 delivers strictly in FIFO order.
func WithConcurrency(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithSendTimeout bounds each transport call
func WithSendTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.sendTimeout = d
		}
	}
}

// WithMessageTag sets the provider tag attached to every message.
// By default the template name is used.
func WithMessageTag(tag string) WorkerOption {
	return func(o *workerOptions) {
		o.messageTag = tag
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkerClock overrides the time source used for the stale claim sweep.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(o *workerOptions) {
		if now != nil {
			o.now = now
		}
	}
}
