package pg

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type queryStart struct {
	sql   string
	start time.Time
}

type queryStartKey struct{}

// QueryTracer logs each statement with its duration. Failed statements are
// logged at error level. It is safe for concurrent use.
type QueryTracer struct {
	log Logger
}

// NewQueryTracer creates a pgx.QueryTracer writing to log.
func NewQueryTracer(log Logger) *QueryTracer {
	return &QueryTracer{log: log}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, start: time.Now()})
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	sql := strings.Join(strings.Fields(qs.sql), " ")
	elapsed := time.Since(qs.start)
	if data.Err != nil {
		t.log.ErrorContext(ctx, "query failed", "sql", sql, "duration", elapsed, "error", data.Err)
		return
	}
	t.log.DebugContext(ctx, "query", "sql", sql, "duration", elapsed, "rows", data.CommandTag.RowsAffected())
}
