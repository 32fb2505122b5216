package mailqueue

import (
	"fmt"
	"time"
)

// Storage backends selectable with QUEUE_STORAGE.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds the configuration for the mail queue
type Config struct {
	Storage            string        `env:"QUEUE_STORAGE" envDefault:"postgres"` // postgres or memory
	BatchSize          int           `env:"QUEUE_BATCH_SIZE" envDefault:"10"`
	Concurrency        int           `env:"QUEUE_CONCURRENCY" envDefault:"1"`
	ClaimTTL           time.Duration `env:"QUEUE_CLAIM_TTL" envDefault:"5m"`
	DefaultMaxAttempts int           `env:"QUEUE_DEFAULT_MAX_ATTEMPTS" envDefault:"3"`
	MessageTag         string        `env:"QUEUE_MESSAGE_TAG"`
	StrictTemplates    bool          `env:"QUEUE_STRICT_TEMPLATES" envDefault:"false"` // reject unknown templates at enqueue
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.Storage != StoragePostgres && c.Storage != StorageMemory:
		return fmt.Errorf("%w: QUEUE_STORAGE must be %q or %q, got %q", ErrInvalidConfig, StoragePostgres, StorageMemory, c.Storage)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: QUEUE_BATCH_SIZE must be positive", ErrInvalidConfig)
	case c.Concurrency < 1:
		return fmt.Errorf("%w: QUEUE_CONCURRENCY must be positive", ErrInvalidConfig)
	case c.ClaimTTL <= 0:
		return fmt.Errorf("%w: QUEUE_CLAIM_TTL must be positive", ErrInvalidConfig)
	case c.DefaultMaxAttempts < 1 || c.DefaultMaxAttempts > MaxAllowedAttempts:
		return fmt.Errorf("%w: QUEUE_DEFAULT_MAX_ATTEMPTS must be between 1 and %d", ErrInvalidConfig, MaxAllowedAttempts)
	}
	return nil
}

// WorkerOptions translates the config into worker options.
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithBatchSize(c.BatchSize),
		WithConcurrency(c.Concurrency),
		WithClaimTTL(c.ClaimTTL),
		WithMessageTag(c.MessageTag),
	}
}

// EnqueuerOptions translates the config into enqueuer options.
// templateNames is only used when StrictTemplates is set.
func (c Config) EnqueuerOptions(templateNames ...string) []EnqueuerOption {
	opts := []EnqueuerOption{WithDefaultMaxAttempts(c.DefaultMaxAttempts)}
	if c.StrictTemplates {
		opts = append(opts, WithTemplateCheck(templateNames...))
	}
	return opts
}
