package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Repository for testing and local development
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Item
	order []uuid.UUID // insertion order, breaks CreatedAt ties
	now   func() time.Time

	// failNext makes the next matching operation fail; used to simulate store outages.
	failNext map[string]error
}

// MemoryOption configures a MemoryStorage
type MemoryOption func(*MemoryStorage)

// WithClock overrides the time source used for SentAt and claim expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(ms *MemoryStorage) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage(opts ...MemoryOption) *MemoryStorage {
	ms := &MemoryStorage{
		items:    make(map[uuid.UUID]*Item),
		now:      time.Now,
		failNext: make(map[string]error),
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// FailNext makes the next call of the named operation return err.
// Operation names match the method names, e.g. "MarkSent".
func (ms *MemoryStorage) FailNext(op string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failNext[op] = err
}

func (ms *MemoryStorage) injected(op string) error {
	if err, ok := ms.failNext[op]; ok {
		delete(ms.failNext, op)
		return err
	}
	return nil
}

// InsertItem implements EnqueuerRepository
func (ms *MemoryStorage) InsertItem(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.injected("InsertItem"); err != nil {
		return err
	}
	if _, exists := ms.items[item.ID]; exists {
		return fmt.Errorf("item with ID %s already exists", item.ID)
	}

	ms.items[item.ID] = item.clone()
	ms.order = append(ms.order, item.ID)
	return nil
}

// eligible returns pending items with attempts left in FIFO order.
// Caller must hold the lock.
func (ms *MemoryStorage) eligible(limit int) []*Item {
	var out []*Item
	for _, id := range ms.order {
		if it := ms.items[id]; it.Eligible() {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b *Item) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FetchEligibleBatch implements WorkerRepository
func (ms *MemoryStorage) FetchEligibleBatch(ctx context.Context, limit int) ([]*Item, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.injected("FetchEligibleBatch"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	batch := ms.eligible(limit)
	out := make([]*Item, 0, len(batch))
	for _, it := range batch {
		out = append(out, it.clone())
	}
	return out, nil
}

// ClaimBatch implements WorkerRepository
func (ms *MemoryStorage) ClaimBatch(ctx context.Context, workerID uuid.UUID, limit int, ttl time.Duration) ([]*Item, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.injected("ClaimBatch"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	until := ms.now().Add(ttl)
	batch := ms.eligible(limit)
	out := make([]*Item, 0, len(batch))
	for _, it := range batch {
		owner := workerID
		deadline := until
		it.Status = StatusProcessing
		it.ClaimedBy = &owner
		it.ClaimedUntil = &deadline
		out = append(out, it.clone())
	}
	return out, nil
}

// MarkSent implements WorkerRepository
func (ms *MemoryStorage) MarkSent(ctx context.Context, workerID, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.injected("MarkSent"); err != nil {
		return err
	}

	it, exists := ms.items[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	switch it.Status {
	case StatusSent:
		return nil
	case StatusFailed:
		return fmt.Errorf("%w: %s", ErrItemTerminal, id)
	}
	if !it.heldBy(workerID) {
		return fmt.Errorf("%w: %s", ErrClaimLost, id)
	}

	now := ms.now()
	it.Status = StatusSent
	it.SentAt = &now
	it.ClaimedBy = nil
	it.ClaimedUntil = nil
	return nil
}

// MarkAttemptFailed implements WorkerRepository
func (ms *MemoryStorage) MarkAttemptFailed(ctx context.Context, workerID, id uuid.UUID, errMsg string) (*Item, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.injected("MarkAttemptFailed"); err != nil {
		return nil, err
	}

	it, exists := ms.items[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if it.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrItemTerminal, id)
	}
	if !it.heldBy(workerID) {
		return nil, fmt.Errorf("%w: %s", ErrClaimLost, id)
	}

	if it.Attempts < it.MaxAttempts {
		it.Attempts++
	}
	msg := errMsg
	it.Error = &msg
	it.ClaimedBy = nil
	it.ClaimedUntil = nil

	if it.Attempts >= it.MaxAttempts {
		it.Status = StatusFailed
	} else {
		it.Status = StatusPending
	}

	return it.clone(), nil
}

// ReleaseClaims implements WorkerRepository
func (ms *MemoryStorage) ReleaseClaims(ctx context.Context, workerID uuid.UUID, ids []uuid.UUID) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.injected("ReleaseClaims"); err != nil {
		return 0, err
	}

	released := 0
	for _, id := range ids {
		it, exists := ms.items[id]
		if !exists || it.Status != StatusProcessing || !it.heldBy(workerID) {
			continue
		}
		it.Status = StatusPending
		it.ClaimedBy = nil
		it.ClaimedUntil = nil
		released++
	}
	return released, nil
}

// ReleaseExpiredClaims implements WorkerRepository
func (ms *MemoryStorage) ReleaseExpiredClaims(ctx context.Context, now time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.injected("ReleaseExpiredClaims"); err != nil {
		return 0, err
	}

	released := 0
	for _, id := range ms.order {
		it := ms.items[id]
		if it.Status != StatusProcessing || it.ClaimedUntil == nil || !it.ClaimedUntil.Before(now) {
			continue
		}
		it.Status = StatusPending
		it.ClaimedBy = nil
		it.ClaimedUntil = nil
		released++
	}
	return released, nil
}

// GetItem implements ReaderRepository
func (ms *MemoryStorage) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	it, exists := ms.items[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return it.clone(), nil
}

// ListItems implements ReaderRepository. Newest items come first.
func (ms *MemoryStorage) ListItems(ctx context.Context, filter ListFilter) ([]*Item, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var matched []*Item
	for i := len(ms.order) - 1; i >= 0; i-- {
		it := ms.items[ms.order[i]]
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		matched = append(matched, it)
	}
	slices.SortStableFunc(matched, func(a, b *Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []*Item{}, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]*Item, 0, len(matched))
	for _, it := range matched {
		out = append(out, it.clone())
	}
	return out, nil
}

// CountByStatus implements ReaderRepository
func (ms *MemoryStorage) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	counts := map[Status]int{
		StatusPending:    0,
		StatusProcessing: 0,
		StatusSent:       0,
		StatusFailed:     0,
	}
	for _, it := range ms.items {
		counts[it.Status]++
	}
	return counts, nil
}
