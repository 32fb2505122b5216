package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/mailqueue/pkg/logger"
)

// process runs exactly one ProcessQueue call. The report is returned even
// when the run ends with a store error so the caller sees partial progress.
func (a *api) process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if a.locker != nil {
		release, acquired, err := a.locker.TryLock(ctx)
		if err != nil {
			a.log.ErrorContext(ctx, "queue lock unavailable", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, ErrorDetail{
				Code:    codeLockUnavailable,
				Message: "could not acquire the processing lock",
			})
			return
		}
		if !acquired {
			writeError(w, http.StatusConflict, ErrorDetail{
				Code:    codeBusy,
				Message: "queue processing is already running",
			})
			return
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				a.log.WarnContext(ctx, "failed to release queue lock", logger.Error(err))
			}
		}()
	}

	start := time.Now()
	report, err := a.processor.ProcessQueue(ctx)
	elapsed := time.Since(start)
	meta := map[string]any{"duration_ms": elapsed.Milliseconds()}

	if err != nil {
		a.log.ErrorContext(ctx, "queue processing failed",
			logger.Error(err),
			slog.Any("report", report),
			logger.Duration(elapsed),
		)
		writeJSON(w, http.StatusInternalServerError, Envelope{
			Data:  report,
			Meta:  meta,
			Error: &ErrorDetail{Code: codeProcessFailed, Message: "queue processing stopped on a storage error"},
		})
		return
	}

	a.log.InfoContext(ctx, "queue processed",
		slog.Int("claimed", report.Claimed),
		slog.Int("sent", report.Sent),
		slog.Int("retried", report.Retried),
		slog.Int("failed", report.Failed),
		logger.Duration(elapsed),
	)
	writeData(w, http.StatusOK, report, meta)
}
