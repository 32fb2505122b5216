package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/mailqueue/pkg/logger"
)

// Envelope is the body of every /v1 response.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any, meta map[string]any) {
	writeJSON(w, status, Envelope{Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, status int, detail ErrorDetail) {
	writeJSON(w, status, Envelope{Error: &detail})
}

// writeServerError logs err and answers with a generic message so store
// internals never reach the client.
func writeServerError(w http.ResponseWriter, r *http.Request, log *slog.Logger, code, msg string, err error) {
	log.ErrorContext(r.Context(), msg,
		logger.Error(err),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	writeError(w, http.StatusInternalServerError, ErrorDetail{Code: code, Message: msg})
}
