// Package pgstore is the PostgreSQL implementation of mailqueue.Repository.
//
// Batches are claimed with FOR UPDATE SKIP LOCKED, so overlapping workers
// never receive the same row, and every outcome is recorded with a single
// UPDATE statement.
package pgstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
	"github.com/dmitrymomot/mailqueue/pkg/pg"
)

// heldBy matches rows the worker bound to $2 may settle.
const heldBy = `(status = 'pending' OR (status = 'processing' AND claimed_by = $2))`

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements mailqueue.Repository on top of PostgreSQL.
type Store struct {
	db  DB
	now func() time.Time
}

var _ mailqueue.Repository = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source for sent_at and claim deadlines.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store over db.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const itemColumns = `id, seq, recipient, subject, template, variables, status, attempts,
	max_attempts, last_error, sent_at, created_at, claimed_by, claimed_until`

// scannedItem carries seq alongside the item; RETURNING gives no order guarantee.
type scannedItem struct {
	item *mailqueue.Item
	seq  int64
}

func scanItem(row pgx.CollectableRow) (scannedItem, error) {
	var (
		it     mailqueue.Item
		seq    int64
		vars   []byte
		status string
	)
	err := row.Scan(
		&it.ID, &seq, &it.To, &it.Subject, &it.Template, &vars, &status, &it.Attempts,
		&it.MaxAttempts, &it.Error, &it.SentAt, &it.CreatedAt, &it.ClaimedBy, &it.ClaimedUntil,
	)
	if err != nil {
		return scannedItem{}, err
	}
	it.Status = mailqueue.Status(status)
	if it.Variables, err = decodeVariables(vars); err != nil {
		return scannedItem{}, fmt.Errorf("decode variables of item %s: %w", it.ID, err)
	}
	return scannedItem{item: &it, seq: seq}, nil
}

func (s *Store) queryItems(ctx context.Context, sql string, args ...any) ([]scannedItem, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanItem)
}

func fifo(rows []scannedItem) []*mailqueue.Item {
	slices.SortFunc(rows, func(a, b scannedItem) int {
		if c := a.item.CreatedAt.Compare(b.item.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]*mailqueue.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.item)
	}
	return out
}

// InsertItem implements mailqueue.EnqueuerRepository.
func (s *Store) InsertItem(ctx context.Context, item *mailqueue.Item) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}
	vars, err := encodeVariables(item.Variables)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO mail_queue (id, recipient, subject, template, variables, status, attempts, max_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID.String(), item.To, item.Subject, item.Template, vars,
		string(item.Status), item.Attempts, item.MaxAttempts, item.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("item with ID %s already exists: %w", item.ID, err)
		}
		return err
	}
	return nil
}

// FetchEligibleBatch implements mailqueue.WorkerRepository.
func (s *Store) FetchEligibleBatch(ctx context.Context, limit int) ([]*mailqueue.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.queryItems(ctx, `
		SELECT `+itemColumns+`
		FROM mail_queue
		WHERE status = 'pending' AND attempts < max_attempts
		ORDER BY created_at, seq
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return fifo(rows), nil
}

// ClaimBatch implements mailqueue.WorkerRepository.
func (s *Store) ClaimBatch(ctx context.Context, workerID uuid.UUID, limit int, ttl time.Duration) ([]*mailqueue.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.queryItems(ctx, `
		WITH next AS (
			SELECT id
			FROM mail_queue
			WHERE status = 'pending' AND attempts < max_attempts
			ORDER BY created_at, seq
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE mail_queue q
		SET status = 'processing', claimed_by = $2, claimed_until = $3
		FROM next
		WHERE q.id = next.id
		RETURNING `+qualified("q"), limit, workerID.String(), s.now().Add(ttl))
	if err != nil {
		return nil, err
	}
	return fifo(rows), nil
}

// MarkSent implements mailqueue.WorkerRepository.
func (s *Store) MarkSent(ctx context.Context, workerID, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE mail_queue
		SET status = 'sent', sent_at = $3, claimed_by = NULL, claimed_until = NULL
		WHERE id = $1 AND `+heldBy, id.String(), workerID.String(), s.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	status, err := s.status(ctx, id)
	if err != nil {
		return err
	}
	switch status {
	case mailqueue.StatusSent:
		return nil
	case mailqueue.StatusProcessing:
		return fmt.Errorf("%w: %s", mailqueue.ErrClaimLost, id)
	}
	return fmt.Errorf("%w: %s", mailqueue.ErrItemTerminal, id)
}

// MarkAttemptFailed implements mailqueue.WorkerRepository.
// The increment and the terminal check happen in one statement.
func (s *Store) MarkAttemptFailed(ctx context.Context, workerID, id uuid.UUID, errMsg string) (*mailqueue.Item, error) {
	rows, err := s.queryItems(ctx, `
		UPDATE mail_queue
		SET attempts = LEAST(attempts + 1, max_attempts),
			last_error = $3,
			status = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
			claimed_by = NULL,
			claimed_until = NULL
		WHERE id = $1 AND `+heldBy+`
		RETURNING `+itemColumns, id.String(), workerID.String(), errMsg)
	if err != nil {
		return nil, err
	}
	if len(rows) == 1 {
		return rows[0].item, nil
	}

	status, err := s.status(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == mailqueue.StatusProcessing {
		return nil, fmt.Errorf("%w: %s", mailqueue.ErrClaimLost, id)
	}
	return nil, fmt.Errorf("%w: %s", mailqueue.ErrItemTerminal, id)
}

// ReleaseClaims implements mailqueue.WorkerRepository.
func (s *Store) ReleaseClaims(ctx context.Context, workerID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE mail_queue
		SET status = 'pending', claimed_by = NULL, claimed_until = NULL
		WHERE id = ANY($1::uuid[]) AND status = 'processing' AND claimed_by = $2`,
		strIDs, workerID.String())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ReleaseExpiredClaims implements mailqueue.WorkerRepository.
func (s *Store) ReleaseExpiredClaims(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE mail_queue
		SET status = 'pending', claimed_by = NULL, claimed_until = NULL
		WHERE status = 'processing' AND claimed_until < $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// GetItem implements mailqueue.ReaderRepository.
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*mailqueue.Item, error) {
	rows, err := s.queryItems(ctx, `SELECT `+itemColumns+` FROM mail_queue WHERE id = $1`, id.String())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", mailqueue.ErrItemNotFound, id)
	}
	return rows[0].item, nil
}

// ListItems implements mailqueue.ReaderRepository. Newest items come first.
func (s *Store) ListItems(ctx context.Context, filter mailqueue.ListFilter) ([]*mailqueue.Item, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}

	rows, err := s.queryItems(ctx, `
		SELECT `+itemColumns+`
		FROM mail_queue
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3`,
		string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	out := make([]*mailqueue.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.item)
	}
	return out, nil
}

// CountByStatus implements mailqueue.ReaderRepository.
func (s *Store) CountByStatus(ctx context.Context) (map[mailqueue.Status]int, error) {
	rows, err := s.db.Query(ctx, `SELECT status, count(*) FROM mail_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[mailqueue.Status]int{
		mailqueue.StatusPending:    0,
		mailqueue.StatusProcessing: 0,
		mailqueue.StatusSent:       0,
		mailqueue.StatusFailed:     0,
	}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[mailqueue.Status(status)] = int(n)
	}
	return counts, rows.Err()
}

func (s *Store) status(ctx context.Context, id uuid.UUID) (mailqueue.Status, error) {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM mail_queue WHERE id = $1`, id.String()).Scan(&status)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return "", fmt.Errorf("%w: %s", mailqueue.ErrItemNotFound, id)
		}
		return "", err
	}
	return mailqueue.Status(status), nil
}

func qualified(alias string) string {
	return alias + `.id, ` + alias + `.seq, ` + alias + `.recipient, ` + alias + `.subject, ` +
		alias + `.template, ` + alias + `.variables, ` + alias + `.status, ` + alias + `.attempts, ` +
		alias + `.max_attempts, ` + alias + `.last_error, ` + alias + `.sent_at, ` + alias + `.created_at, ` +
		alias + `.claimed_by, ` + alias + `.claimed_until`
}

func encodeVariables(vars mailqueue.Variables) ([]byte, error) {
	if vars == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("encode variables: %w", err)
	}
	return data, nil
}

// decodeVariables keeps numbers as json.Number so integers survive the round trip.
func decodeVariables(data []byte) (mailqueue.Variables, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var vars mailqueue.Variables
	if err := dec.Decode(&vars); err != nil {
		return nil, err
	}
	if len(vars) == 0 {
		return nil, nil
	}
	return vars, nil
}
