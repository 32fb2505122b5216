package mailqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxAttempts is used when a request does not set MaxAttempts.
	DefaultMaxAttempts = 3

	// MaxAllowedAttempts caps MaxAttempts so a broken item cannot retry forever.
	MaxAllowedAttempts = 10

	// DefaultBatchSize bounds how many items a single ProcessQueue call claims.
	DefaultBatchSize = 10
)

// Status represents the lifecycle state of a queue item
type Status string

const (
	StatusPending Status = "pending"
	// StatusProcessing marks an item claimed by a running worker.
	// Only the store sets it; it falls back to pending or moves to a terminal state.
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSent, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions can happen from s.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Variables are the template inputs of an item.
// Values are limited to scalars: strings, booleans and numbers.
type Variables map[string]any

// Validate returns an error naming the first key holding a non-scalar value.
func (v Variables) Validate() error {
	for key, val := range v {
		if !isScalar(val) {
			return fmt.Errorf("variable %q has unsupported type %T", key, val)
		}
	}
	return nil
}

// Clone returns a shallow copy; scalar values make it a full copy.
func (v Variables) Clone() Variables {
	if v == nil {
		return nil
	}
	out := make(Variables, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// Item is one email delivery request.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	To           string     `json:"to"`
	Subject      string     `json:"subject"`
	Template     string     `json:"template"`
	Variables    Variables  `json:"variables,omitempty"`
	Status       Status     `json:"status"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	Error        *string    `json:"error,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ClaimedBy    *uuid.UUID `json:"-"`
	ClaimedUntil *time.Time `json:"-"`
}

// Eligible reports whether the item may be picked up by a worker.
func (i *Item) Eligible() bool {
	return i.Status == StatusPending && i.Attempts < i.MaxAttempts
}

// heldBy reports whether workerID may settle the item: it is either
// unclaimed or claimed by that worker.
func (i *Item) heldBy(workerID uuid.UUID) bool {
	switch i.Status {
	case StatusPending:
		return true
	case StatusProcessing:
		return i.ClaimedBy != nil && *i.ClaimedBy == workerID
	}
	return false
}

// LastError returns the most recent failure message or an empty string.
func (i *Item) LastError() string {
	if i.Error == nil {
		return ""
	}
	return *i.Error
}

// clone copies the item including pointer fields so callers cannot mutate stored state.
func (i *Item) clone() *Item {
	c := *i
	c.Variables = i.Variables.Clone()
	if i.Error != nil {
		e := *i.Error
		c.Error = &e
	}
	if i.SentAt != nil {
		t := *i.SentAt
		c.SentAt = &t
	}
	if i.ClaimedBy != nil {
		id := *i.ClaimedBy
		c.ClaimedBy = &id
	}
	if i.ClaimedUntil != nil {
		t := *i.ClaimedUntil
		c.ClaimedUntil = &t
	}
	return &c
}

// Report summarises one ProcessQueue invocation.
type Report struct {
	Expired  int `json:"expired"`  // stale claims returned to pending before claiming
	Claimed  int `json:"claimed"`  // items taken into this batch
	Sent     int `json:"sent"`     // delivered
	Retried  int `json:"retried"`  // failed, still pending
	Failed   int `json:"failed"`   // failed, attempts exhausted
	Released int `json:"released"` // claimed but returned to pending undelivered
}
