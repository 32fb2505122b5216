package mailqueue

import (
	"log/slog"
	"time"
)

// EnqueuerOption is a functional option for configuring an Enqueuer
type EnqueuerOption func(*enqueuerOptions)

type enqueuerOptions struct {
	defaultMaxAttempts int
	knownTemplates     []string
	logger             *slog.Logger
	now                func() time.Time
}

// WithDefaultMaxAttempts sets MaxAttempts for requests that leave it at zero.
// Values outside 1..MaxAllowedAttempts are ignored.
func WithDefaultMaxAttempts(n int) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if n > 0 && n <= MaxAllowedAttempts {
			o.defaultMaxAttempts = n
		}
	}
}

// WithTemplateCheck rejects requests naming a template outside names.
// Without it unknown templates are accepted and fail at delivery time.
func WithTemplateCheck(names ...string) EnqueuerOption {
	return func(o *enqueuerOptions) {
		o.knownTemplates = append(o.knownTemplates, names...)
	}
}

// WithEnqueuerLogger sets the logger for the enqueuer
func WithEnqueuerLogger(logger *slog.Logger) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEnqueuerClock overrides the time source for CreatedAt.
func WithEnqueuerClock(now func() time.Time) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if now != nil {
			o.now = now
		}
	}
}
