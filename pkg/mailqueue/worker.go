package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mailqueue/pkg/email"
	"github.com/dmitrymomot/mailqueue/pkg/logger"
	"github.com/dmitrymomot/mailqueue/pkg/sanitizer"
	"github.com/dmitrymomot/mailqueue/pkg/templates"
)

// Renderer resolves a template name into message content.
// *templates.Registry implements it.
type Renderer interface {
	Render(ctx context.Context, name string, vars templates.Vars) (templates.Content, error)
}

// Worker drains the queue one batch per ProcessQueue call.
// It never schedules itself; an external trigger decides when to run.
type Worker struct {
	repo     WorkerRepository
	renderer Renderer
	sender   email.EmailSender
	workerID uuid.UUID

	batchSize   int
	claimTTL    time.Duration
	concurrency int
	messageTag  string
	logger      *slog.Logger
	now         func() time.Time
}

// NewWorker creates a new delivery worker
func NewWorker(repo WorkerRepository, renderer Renderer, sender email.EmailSender, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	if renderer == nil {
		return nil, ErrRendererNil
	}
	if sender == nil {
		return nil, ErrSenderNil
	}

	options := &workerOptions{
		batchSize:   DefaultBatchSize,
		claimTTL:    5 * time.Minute,
		concurrency: 1,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.sendTimeout > 0 {
		sender = email.WithTimeout(sender, options.sendTimeout)
	}

	return &Worker{
		repo:        repo,
		renderer:    renderer,
		sender:      sender,
		workerID:    uuid.New(),
		batchSize:   options.batchSize,
		claimTTL:    options.claimTTL,
		concurrency: options.concurrency,
		messageTag:  options.messageTag,
		logger:      options.logger,
		now:         options.now,
	}, nil
}

// ID returns the identifier this worker claims items under.
func (w *Worker) ID() uuid.UUID {
	return w.workerID
}

// MaxErrorLength bounds the failure message stored on an item, in runes.
const MaxErrorLength = 2000

var cleanErrorMessage = sanitizer.Compose(
	sanitizer.RemoveControlChars,
	strings.TrimSpace,
	sanitizer.MaxLength(MaxErrorLength),
)

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeRetried
	outcomeFailed
)

// ProcessQueue claims one batch of eligible items and delivers each of them.
//
// Delivery failures are recorded on the item and never returned. The
// returned error is non-nil only when the store could not hand out the batch
// (ErrFetchBatch) or could not record an outcome (ErrRecordOutcome). In the
// latter case no further items are dispatched and every claimed item that
// was not settled goes back to pending.
func (w *Worker) ProcessQueue(ctx context.Context) (Report, error) {
	var report Report
	start := time.Now()

	expired, err := w.repo.ReleaseExpiredClaims(ctx, w.now())
	if err != nil {
		return report, errors.Join(ErrFetchBatch, fmt.Errorf("release expired claims: %w", err))
	}
	report.Expired = expired
	if expired > 0 {
		w.logger.WarnContext(ctx, "returned stale claims to pending",
			logger.Component("worker"),
			logger.WorkerID(w.workerID),
			slog.Int("count", expired))
	}

	batch, err := w.repo.ClaimBatch(ctx, w.workerID, w.batchSize, w.claimTTL)
	if err != nil {
		return report, errors.Join(ErrFetchBatch, err)
	}
	report.Claimed = len(batch)
	if len(batch) == 0 {
		w.logger.DebugContext(ctx, "queue is empty",
			logger.Component("worker"),
			logger.WorkerID(w.workerID))
		return report, nil
	}

	var (
		mu      sync.Mutex
		settled = make(map[uuid.UUID]bool, len(batch))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, item := range batch {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A failed sibling may have stopped the batch while this item waited for a slot.
			if gctx.Err() != nil {
				return nil
			}
			res, err := w.processItem(ctx, item)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			switch res {
			case outcomeSent:
				report.Sent++
			case outcomeRetried:
				report.Retried++
			case outcomeFailed:
				report.Failed++
			default:
				return nil
			}
			settled[item.ID] = true
			return nil
		})
	}
	runErr := g.Wait()

	var pending []uuid.UUID
	for _, item := range batch {
		if !settled[item.ID] {
			pending = append(pending, item.ID)
		}
	}

	var releaseErr error
	if len(pending) > 0 {
		released, err := w.repo.ReleaseClaims(context.WithoutCancel(ctx), w.workerID, pending)
		report.Released = released
		if err != nil {
			releaseErr = errors.Join(ErrReleaseClaims, err)
		}
	}

	attrs := []any{
		logger.Component("worker"),
		logger.WorkerID(w.workerID),
		slog.Int("claimed", report.Claimed),
		slog.Int("sent", report.Sent),
		slog.Int("retried", report.Retried),
		slog.Int("failed", report.Failed),
		slog.Int("released", report.Released),
		logger.Duration(time.Since(start)),
	}

	switch {
	case runErr != nil:
		err := errors.Join(ErrRecordOutcome, runErr, releaseErr)
		w.logger.ErrorContext(ctx, "batch aborted", append(attrs, logger.Error(err))...)
		return report, err
	case ctx.Err() != nil && (report.Released > 0 || releaseErr != nil):
		err := errors.Join(ctx.Err(), releaseErr)
		w.logger.WarnContext(ctx, "batch interrupted", append(attrs, logger.Error(err))...)
		return report, err
	case releaseErr != nil:
		w.logger.ErrorContext(ctx, "failed to release claims", append(attrs, logger.Error(releaseErr))...)
		return report, releaseErr
	}

	w.logger.InfoContext(ctx, "batch processed", attrs...)
	return report, nil
}

// processItem delivers one item and records the outcome.
// Only store errors are returned.
func (w *Worker) processItem(ctx context.Context, item *Item) (outcome, error) {
	start := time.Now()

	deliveryErr := w.deliver(ctx, item)
	if deliveryErr != nil && ctx.Err() != nil {
		// The invocation was cancelled mid-send; the claim is released without spending an attempt.
		return outcomeSkipped, nil
	}

	// The provider already answered; the outcome must be stored even if the caller went away.
	rctx := context.WithoutCancel(ctx)

	if deliveryErr == nil {
		if err := w.repo.MarkSent(rctx, w.workerID, item.ID); err != nil {
			if errors.Is(err, ErrClaimLost) {
				w.claimLost(ctx, item, err)
				return outcomeSkipped, nil
			}
			return outcomeSkipped, fmt.Errorf("mark item %s sent: %w", item.ID, err)
		}
		w.logger.InfoContext(ctx, "email sent",
			logger.Component("worker"),
			logger.ItemID(item.ID),
			logger.Template(item.Template),
			logger.Recipient(item.To),
			logger.Duration(time.Since(start)))
		return outcomeSent, nil
	}

	updated, err := w.repo.MarkAttemptFailed(rctx, w.workerID, item.ID, cleanErrorMessage(deliveryErr.Error()))
	if err != nil {
		if errors.Is(err, ErrClaimLost) {
			w.claimLost(ctx, item, err)
			return outcomeSkipped, nil
		}
		return outcomeSkipped, fmt.Errorf("record failed attempt of item %s: %w", item.ID, err)
	}

	attrs := []any{
		logger.Component("worker"),
		logger.ItemID(item.ID),
		logger.Template(item.Template),
		logger.Recipient(item.To),
		logger.Attempts(updated.Attempts, updated.MaxAttempts),
		logger.Duration(time.Since(start)),
		logger.Error(deliveryErr),
	}
	if updated.Status == StatusFailed {
		w.logger.ErrorContext(ctx, "email delivery failed permanently", attrs...)
		return outcomeFailed, nil
	}
	w.logger.WarnContext(ctx, "email delivery failed, will retry", attrs...)
	return outcomeRetried, nil
}

// claimLost logs an item whose claim expired and was taken over while it was
// being delivered. The new owner records the outcome.
func (w *Worker) claimLost(ctx context.Context, item *Item, err error) {
	w.logger.WarnContext(ctx, "claim expired during delivery",
		logger.Component("worker"),
		logger.WorkerID(w.workerID),
		logger.ItemID(item.ID),
		logger.Template(item.Template),
		logger.Error(err))
}

// deliver renders and sends one item. Panics in the renderer or transport
// are turned into delivery errors.
func (w *Worker) deliver(ctx context.Context, item *Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during delivery: %v", r)
		}
	}()

	content, err := w.renderer.Render(ctx, item.Template, templates.Vars(item.Variables))
	if err != nil {
		return err
	}

	subject := item.Subject
	if strings.TrimSpace(content.Subject) != "" {
		subject = content.Subject
	}
	subject = sanitizer.PreventHeaderInjection(subject)

	tag := w.messageTag
	if tag == "" {
		tag = item.Template
	}

	return w.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   item.To,
		Subject:  subject,
		BodyHTML: content.HTML,
		BodyText: content.Text,
		Tag:      tag,
	})
}
