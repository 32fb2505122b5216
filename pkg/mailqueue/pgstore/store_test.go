package pgstore_test

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
	"github.com/dmitrymomot/mailqueue/pkg/mailqueue/pgstore"
	"github.com/dmitrymomot/mailqueue/pkg/pg"
)

// setupPool connects to TEST_PG_CONN_URL, applies migrations and empties the queue table.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connURL := os.Getenv("TEST_PG_CONN_URL")
	if connURL == "" {
		t.Skip("TEST_PG_CONN_URL is not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: connURL,
		MaxOpenConns:     10,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		MigrationsTable:  "mailqueue_test_migrations",
	}
	pool, err := pg.Connect(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, nil))
	_, err = pool.Exec(ctx, "TRUNCATE mail_queue")
	require.NoError(t, err)
	return pool
}

func insert(t *testing.T, store *pgstore.Store, createdAt time.Time, maxAttempts int) *mailqueue.Item {
	t.Helper()

	it := &mailqueue.Item{
		ID:          uuid.New(),
		To:          "user@example.com",
		Subject:     "Hello",
		Template:    "welcome",
		Variables:   mailqueue.Variables{"name": "Jane", "count": 3, "vip": true},
		Status:      mailqueue.StatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   createdAt,
	}
	require.NoError(t, store.InsertItem(context.Background(), it))
	return it
}

func TestStore(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)

	t.Run("insert and get round trip", func(t *testing.T) {
		store := pgstore.New(pool)
		it := insert(t, store, base, 3)

		got, err := store.GetItem(ctx, it.ID)
		require.NoError(t, err)
		assert.Equal(t, it.ID, got.ID)
		assert.Equal(t, "user@example.com", got.To)
		assert.Equal(t, mailqueue.StatusPending, got.Status)
		assert.Equal(t, 3, got.MaxAttempts)
		assert.True(t, base.Equal(got.CreatedAt))
		assert.Equal(t, "Jane", got.Variables["name"])
		assert.Equal(t, json.Number("3"), got.Variables["count"])
		assert.Equal(t, true, got.Variables["vip"])
		assert.Nil(t, got.Error)
		assert.Nil(t, got.SentAt)

		assert.Error(t, store.InsertItem(ctx, it), "duplicate id")

		_, err = store.GetItem(ctx, uuid.New())
		assert.ErrorIs(t, err, mailqueue.ErrItemNotFound)
	})

	t.Run("claim is FIFO and exclusive", func(t *testing.T) {
		_, err := pool.Exec(ctx, "TRUNCATE mail_queue")
		require.NoError(t, err)
		store := pgstore.New(pool)

		newest := insert(t, store, base.Add(2*time.Minute), 3)
		oldest := insert(t, store, base, 3)
		middle := insert(t, store, base.Add(time.Minute), 3)

		fetched, err := store.FetchEligibleBatch(ctx, 10)
		require.NoError(t, err)
		require.Len(t, fetched, 3)
		assert.Equal(t, []uuid.UUID{oldest.ID, middle.ID, newest.ID},
			[]uuid.UUID{fetched[0].ID, fetched[1].ID, fetched[2].ID})

		owner := uuid.New()
		claimed, err := store.ClaimBatch(ctx, owner, 2, time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 2)
		assert.Equal(t, oldest.ID, claimed[0].ID)
		assert.Equal(t, middle.ID, claimed[1].ID)
		assert.Equal(t, mailqueue.StatusProcessing, claimed[0].Status)
		require.NotNil(t, claimed[0].ClaimedBy)

		rest, err := store.ClaimBatch(ctx, uuid.New(), 10, time.Minute)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, newest.ID, rest[0].ID)

		n, err := store.ReleaseClaims(ctx, uuid.New(), []uuid.UUID{oldest.ID})
		require.NoError(t, err)
		assert.Zero(t, n, "claims of another worker are left alone")

		n, err = store.ReleaseClaims(ctx, owner, []uuid.UUID{oldest.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.ReleaseExpiredClaims(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("concurrent claims never overlap", func(t *testing.T) {
		_, err := pool.Exec(ctx, "TRUNCATE mail_queue")
		require.NoError(t, err)
		store := pgstore.New(pool)
		for i := range 40 {
			insert(t, store, base.Add(time.Duration(i)*time.Second), 3)
		}

		var (
			mu   sync.Mutex
			seen = make(map[uuid.UUID]int)
			wg   sync.WaitGroup
		)
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				batch, err := store.ClaimBatch(ctx, uuid.New(), 10, time.Minute)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				for _, it := range batch {
					seen[it.ID]++
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, 40)
		for id, n := range seen {
			assert.Equal(t, 1, n, "item %s claimed %d times", id, n)
		}
	})

	t.Run("taken over claims cannot be settled by the old owner", func(t *testing.T) {
		_, err := pool.Exec(ctx, "TRUNCATE mail_queue")
		require.NoError(t, err)
		now := base
		store := pgstore.New(pool, pgstore.WithClock(func() time.Time { return now }))
		it := insert(t, store, base, 3)

		w1, w2 := uuid.New(), uuid.New()
		_, err = store.ClaimBatch(ctx, w1, 10, time.Minute)
		require.NoError(t, err)
		n, err := store.ReleaseExpiredClaims(ctx, base.Add(2*time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, n)
		now = base.Add(2 * time.Minute)
		claimed, err := store.ClaimBatch(ctx, w2, 10, time.Minute)
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		n, err = store.ReleaseClaims(ctx, w1, []uuid.UUID{it.ID})
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.ErrorIs(t, store.MarkSent(ctx, w1, it.ID), mailqueue.ErrClaimLost)
		_, err = store.MarkAttemptFailed(ctx, w1, it.ID, "late")
		assert.ErrorIs(t, err, mailqueue.ErrClaimLost)

		got, err := store.GetItem(ctx, it.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusProcessing, got.Status)
		require.NotNil(t, got.ClaimedBy)
		assert.Equal(t, w2, *got.ClaimedBy)

		require.NoError(t, store.MarkSent(ctx, w2, it.ID))
	})

	t.Run("outcomes follow the state machine", func(t *testing.T) {
		_, err := pool.Exec(ctx, "TRUNCATE mail_queue")
		require.NoError(t, err)
		store := pgstore.New(pool)

		retry := insert(t, store, base, 2)
		updated, err := store.MarkAttemptFailed(ctx, uuid.Nil, retry.ID, "first")
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Attempts)
		assert.Equal(t, mailqueue.StatusPending, updated.Status)

		updated, err = store.MarkAttemptFailed(ctx, uuid.Nil, retry.ID, "second")
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Attempts)
		assert.Equal(t, mailqueue.StatusFailed, updated.Status)
		assert.Equal(t, "second", updated.LastError())

		_, err = store.MarkAttemptFailed(ctx, uuid.Nil, retry.ID, "third")
		assert.ErrorIs(t, err, mailqueue.ErrItemTerminal)
		assert.ErrorIs(t, store.MarkSent(ctx, uuid.Nil, retry.ID), mailqueue.ErrItemTerminal)

		sent := insert(t, store, base, 3)
		require.NoError(t, store.MarkSent(ctx, uuid.Nil, sent.ID))
		require.NoError(t, store.MarkSent(ctx, uuid.Nil, sent.ID), "idempotent")
		got, err := store.GetItem(ctx, sent.ID)
		require.NoError(t, err)
		assert.Equal(t, mailqueue.StatusSent, got.Status)
		assert.NotNil(t, got.SentAt)

		assert.ErrorIs(t, store.MarkSent(ctx, uuid.Nil, uuid.New()), mailqueue.ErrItemNotFound)

		counts, err := store.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, counts[mailqueue.StatusFailed])
		assert.Equal(t, 1, counts[mailqueue.StatusSent])
		assert.Equal(t, 0, counts[mailqueue.StatusPending])

		list, err := store.ListItems(ctx, mailqueue.ListFilter{Status: mailqueue.StatusSent})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, sent.ID, list[0].ID)
	})
}
