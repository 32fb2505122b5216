package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailqueue/pkg/httpserver"
	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
)

// Processor drains one batch of the queue. *mailqueue.Worker implements it.
type Processor interface {
	ProcessQueue(ctx context.Context) (mailqueue.Report, error)
}

// Enqueuer accepts new delivery requests. *mailqueue.Enqueuer implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, req mailqueue.Request) (uuid.UUID, error)
}

// Locker keeps trigger invocations from overlapping. *redis.Lock implements it.
// When acquired is false another invocation holds the lock.
type Locker interface {
	TryLock(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

// Option configures the router. Routes whose dependency is not supplied are
// not mounted.
type Option func(*options)

type options struct {
	processor    Processor
	enqueuer     Enqueuer
	reader       mailqueue.ReaderRepository
	templates    []string
	locker       Locker
	checks       []httpserver.Check
	readyTimeout time.Duration
	maxBodyBytes int64
	logger       *slog.Logger
}

// WithProcessor mounts the trigger endpoint.
func WithProcessor(p Processor) Option {
	return func(o *options) { o.processor = p }
}

// WithEnqueuer mounts POST /v1/messages.
func WithEnqueuer(e Enqueuer) Option {
	return func(o *options) { o.enqueuer = e }
}

// WithReader mounts the read-only admin routes.
func WithReader(r mailqueue.ReaderRepository) Option {
	return func(o *options) { o.reader = r }
}

// WithTemplates lists the registered template names served by GET /v1/templates.
func WithTemplates(names ...string) Option {
	return func(o *options) { o.templates = append(o.templates, names...) }
}

// WithLocker guards the trigger with a lock.
func WithLocker(l Locker) Option {
	return func(o *options) { o.locker = l }
}

// WithReadinessChecks adds dependencies probed by /health/ready.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(o *options) { o.checks = append(o.checks, checks...) }
}

// WithConfig applies the timeouts and limits from cfg.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		if cfg.ReadyTimeout > 0 {
			o.readyTimeout = cfg.ReadyTimeout
		}
		if cfg.MaxBodyBytes > 0 {
			o.maxBodyBytes = cfg.MaxBodyBytes
		}
	}
}

// WithLogger sets the logger for request and error logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
