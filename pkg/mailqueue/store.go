package mailqueue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository defines the interface for item creation
type EnqueuerRepository interface {
	InsertItem(ctx context.Context, item *Item) error
}

// WorkerRepository defines the operations the delivery worker relies on.
// Implementations must apply every mutation atomically per item.
type WorkerRepository interface {
	// FetchEligibleBatch returns up to limit pending items with attempts left,
	// oldest first. It does not change state.
	FetchEligibleBatch(ctx context.Context, limit int) ([]*Item, error)

	// ClaimBatch selects like FetchEligibleBatch and atomically moves the
	// selected items to processing, owned by workerID until now+ttl.
	ClaimBatch(ctx context.Context, workerID uuid.UUID, limit int, ttl time.Duration) ([]*Item, error)

	// MarkSent moves the item to sent and stamps SentAt.
	// Calling it on an already sent item is a no-op. The item must be pending
	// or claimed by workerID, otherwise ErrClaimLost is returned.
	MarkSent(ctx context.Context, workerID, id uuid.UUID) error

	// MarkAttemptFailed increments Attempts, records the message and fails the
	// item once Attempts reaches MaxAttempts. Returns the updated item.
	// Ownership is checked like in MarkSent.
	MarkAttemptFailed(ctx context.Context, workerID, id uuid.UUID, errMsg string) (*Item, error)

	// ReleaseClaims returns the given items claimed by workerID to pending untouched.
	// Items claimed by anyone else are left alone.
	ReleaseClaims(ctx context.Context, workerID uuid.UUID, ids []uuid.UUID) (int, error)

	// ReleaseExpiredClaims returns processing items whose claim ended before now to pending.
	ReleaseExpiredClaims(ctx context.Context, now time.Time) (int, error)
}

// ListFilter narrows ListItems. Zero Status means any status.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// ReaderRepository is the read-only view used by the admin surface.
type ReaderRepository interface {
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, filter ListFilter) ([]*Item, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// Repository is implemented by complete storage backends.
type Repository interface {
	EnqueuerRepository
	WorkerRepository
	ReaderRepository
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Normalize applies defaults and bounds to the filter.
func (f ListFilter) Normalize() (ListFilter, error) {
	if f.Status != "" && !f.Status.Valid() {
		return f, ErrInvalidStatus
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}
