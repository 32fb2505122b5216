package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailqueue/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger.New(logger.WithOutput(&buf)).Info("queue processed")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "queue processed", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText)).Info("queue processed")
		assert.Contains(t, buf.String(), `msg="queue processed"`)
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger.New(logger.WithOutput(&buf), logger.WithAttr(logger.Component("worker"))).Info("claimed")
		assert.Equal(t, "worker", decodeLine(t, &buf)["component"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { logger.New(logger.WithFormat(logger.Format("xml"))) })
	})
}

type ctxKey struct{}

func requestIDFromContext(ctx context.Context) (slog.Attr, bool) {
	id, _ := ctx.Value(ctxKey{}).(string)
	return logger.RequestID(id), id != ""
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	t.Run("adds attribute when present", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(requestIDFromContext, nil))

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
		log.With(logger.Component("api")).InfoContext(ctx, "http request")

		entry := decodeLine(t, &buf)
		assert.Equal(t, "req-42", entry["request_id"])
		assert.Equal(t, "api", entry["component"])
	})

	t.Run("skips empty attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		always := func(context.Context) (slog.Attr, bool) { return logger.RequestID(""), true }
		logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(always)).
			InfoContext(context.Background(), "no request")

		assert.NotContains(t, decodeLine(t, &buf), "request_id")
	})

	t.Run("groups keep extractors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(requestIDFromContext))
		ctx := context.WithValue(context.Background(), ctxKey{}, "req-7")
		log.WithGroup("delivery").InfoContext(ctx, "sent", slog.Int("attempt", 1))

		delivery, ok := decodeLine(t, &buf)["delivery"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "req-7", delivery["request_id"])
		assert.EqualValues(t, 1, delivery["attempt"])
	})
}
