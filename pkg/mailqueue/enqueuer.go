package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailqueue/pkg/logger"
	"github.com/dmitrymomot/mailqueue/pkg/validator"
)

// Request is what a producer submits to have an email delivered.
type Request struct {
	To          string    `json:"to" yaml:"to"`
	Subject     string    `json:"subject" yaml:"subject"`
	Template    string    `json:"template" yaml:"template"`
	Variables   Variables `json:"variables,omitempty" yaml:"variables,omitempty"`
	MaxAttempts int       `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"` // zero means the enqueuer default
}

// Enqueuer validates requests and stores them as pending items
type Enqueuer struct {
	repo               EnqueuerRepository
	defaultMaxAttempts int
	knownTemplates     []string
	logger             *slog.Logger
	now                func() time.Time
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &enqueuerOptions{
		defaultMaxAttempts: DefaultMaxAttempts,
		logger:             slog.Default(),
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		repo:               repo,
		defaultMaxAttempts: options.defaultMaxAttempts,
		knownTemplates:     options.knownTemplates,
		logger:             options.logger,
		now:                options.now,
	}, nil
}

// Enqueue stores req as a pending item and returns its id.
// Delivery happens later, when a worker processes the queue.
func (e *Enqueuer) Enqueue(ctx context.Context, req Request) (uuid.UUID, error) {
	if err := e.validate(req); err != nil {
		return uuid.Nil, errors.Join(ErrInvalidRequest, err)
	}

	item := e.buildItem(req)
	if err := e.repo.InsertItem(ctx, item); err != nil {
		return uuid.Nil, errors.Join(ErrInsertItem, fmt.Errorf("template %q: %w", item.Template, err))
	}

	e.logger.DebugContext(ctx, "email enqueued",
		logger.Component("enqueuer"),
		logger.ItemID(item.ID),
		logger.Template(item.Template),
		logger.Recipient(item.To))

	return item.ID, nil
}

// TryEnqueue is Enqueue for callers whose own operation must not fail
// because a notification could not be queued. Failures are logged and
// reported only through ok.
func (e *Enqueuer) TryEnqueue(ctx context.Context, req Request) (id uuid.UUID, ok bool) {
	id, err := e.Enqueue(ctx, req)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to enqueue email",
			logger.Component("enqueuer"),
			logger.Template(req.Template),
			logger.Recipient(req.To),
			logger.Error(err))
		return uuid.Nil, false
	}
	return id, true
}

func (e *Enqueuer) validate(req Request) error {
	template := strings.TrimSpace(req.Template)
	return validator.Apply(
		validator.RequiredString("to", req.To),
		validator.RequiredString("template", template),
		validator.RangeNum("max_attempts", req.MaxAttempts, 0, MaxAllowedAttempts),
		validator.NoError("variables", req.Variables.Validate()),
		validator.When(len(e.knownTemplates) > 0 && template != "",
			validator.InList("template", req.Template, e.knownTemplates, "template not found: "+req.Template)),
	)
}

func (e *Enqueuer) buildItem(req Request) *Item {
	maxAttempts := req.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = e.defaultMaxAttempts
	}

	return &Item{
		ID:          uuid.New(),
		To:          strings.TrimSpace(req.To),
		Subject:     req.Subject,
		Template:    req.Template,
		Variables:   req.Variables.Clone(),
		Status:      StatusPending,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		CreatedAt:   e.now().UTC(),
	}
}
