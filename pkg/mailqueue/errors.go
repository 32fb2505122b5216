package mailqueue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrRendererNil is returned when a worker is created without a template renderer
	ErrRendererNil = errors.New("renderer cannot be nil")

	// ErrSenderNil is returned when a worker is created without a transport
	ErrSenderNil = errors.New("email sender cannot be nil")

	// ErrInvalidRequest is returned when an enqueue request fails validation
	ErrInvalidRequest = errors.New("invalid enqueue request")

	// ErrInsertItem is returned when the store rejects a new item
	ErrInsertItem = errors.New("failed to insert queue item")

	// ErrItemNotFound is returned when no item exists for the given id
	ErrItemNotFound = errors.New("queue item not found")

	// ErrItemTerminal is returned when a mutation targets a sent or failed item
	ErrItemTerminal = errors.New("queue item is in a terminal state")

	// ErrClaimLost is returned when an item is claimed by a different worker
	ErrClaimLost = errors.New("queue item is claimed by another worker")

	// ErrFetchBatch is returned when the worker cannot claim a batch
	ErrFetchBatch = errors.New("failed to fetch eligible batch")

	// ErrRecordOutcome is returned when a delivery outcome cannot be persisted
	ErrRecordOutcome = errors.New("failed to record delivery outcome")

	// ErrReleaseClaims is returned when claimed items cannot be returned to pending
	ErrReleaseClaims = errors.New("failed to release claimed items")

	// ErrInvalidConfig is returned when the queue configuration is out of range
	ErrInvalidConfig = errors.New("invalid mail queue configuration")

	// ErrInvalidStatus is returned when a listing filter names an unknown status
	ErrInvalidStatus = errors.New("invalid queue item status")
)
