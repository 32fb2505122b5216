// Package mailqueue implements a durable, at-least-once email delivery queue.
//
// Producers submit a Request through an Enqueuer; it is stored as a pending
// Item. A Worker, invoked by an external trigger, claims a bounded batch of
// eligible items in FIFO order, renders each one through a Renderer, hands the
// result to an email.EmailSender and records the outcome.
//
// # Lifecycle
//
//	pending ──claim──▶ processing ──sent──▶ sent
//	   ▲                   │
//	   └──retry / release──┤
//	                       └──attempts exhausted──▶ failed
//
// A failed delivery increments Attempts and keeps the message in Error. Once
// Attempts reaches MaxAttempts the item becomes failed. Success never counts
// as an attempt. sent and failed are terminal.
//
// Claims carry an expiry. Each ProcessQueue call first returns claims whose
// expiry has passed to pending, so a crashed invocation delays its items
// instead of losing them.
//
// # Storage
//
// Storage is abstracted through the EnqueuerRepository, WorkerRepository and
// ReaderRepository interfaces. MemoryStorage serves tests and local
// development; the pgstore subpackage is the PostgreSQL implementation.
//
// # Usage
//
//	store := mailqueue.NewMemoryStorage()
//	enq, _ := mailqueue.NewEnqueuer(store)
//	id, err := enq.Enqueue(ctx, mailqueue.Request{
//	    To:        "jane@example.com",
//	    Subject:   "Welcome",
//	    Template:  templates.RegistrationReceived,
//	    Variables: mailqueue.Variables{"name": "Jane"},
//	})
//
//	worker, _ := mailqueue.NewWorker(store, templates.Builtin(), sender)
//	report, err := worker.ProcessQueue(ctx)
//
// Callers that enqueue as a side effect of another operation should use
// TryEnqueue, which logs failures instead of returning them.
//
// # Error Handling
//
// Per-item delivery errors are recorded on the item and never returned.
// ProcessQueue returns an error only for store failures, wrapping
// ErrFetchBatch, ErrRecordOutcome or ErrReleaseClaims. Enqueue returns
// ErrInvalidRequest joined with validator.ValidationErrors, or ErrInsertItem.
package mailqueue
