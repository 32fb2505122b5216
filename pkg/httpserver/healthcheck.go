package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/mailqueue/pkg/logger"
)

// Check is a named dependency verified by the readiness probe,
// e.g. {"postgres", pg.Healthcheck(pool)}.
type Check struct {
	Name  string
	Probe func(context.Context) error
}

const (
	statusAlive    = "alive"
	statusReady    = "ready"
	statusNotReady = "not_ready"
	checkOK        = "ok"
	checkFailed    = "failed"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler reports that the process is up. It never touches dependencies.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, healthResponse{Status: statusAlive})
	}
}

// ReadinessHandler runs every check with the request context bounded by
// timeout. It responds 200 when all checks pass and 503 otherwise; the body
// lists each check's outcome. Failures are logged, not exposed.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		resp := healthResponse{Status: statusReady, Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component(c.Name),
					logger.Error(err),
				)
				resp.Checks[c.Name] = checkFailed
				resp.Status = statusNotReady
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = checkOK
		}
		writeHealth(w, code, resp)
	}
}

func writeHealth(w http.ResponseWriter, code int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
