package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/mailqueue/pkg/httpserver"
	"github.com/dmitrymomot/mailqueue/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20

type api struct {
	options
	log *slog.Logger
}

// NewRouter builds the HTTP surface of the queue:
//
//	GET  /health/live
//	GET  /health/ready
//	GET  /v1/queue/process   trigger (POST accepted too)
//	GET  /v1/queue/stats
//	POST /v1/messages
//	GET  /v1/messages
//	GET  /v1/messages/{id}
//	GET  /v1/templates
//
// Every /v1 route requires the bearer token.
func NewRouter(token string, opts ...Option) (http.Handler, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	o := options{
		readyTimeout: 3 * time.Second,
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	a := &api{options: o, log: o.logger.With(logger.Component("api"))}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorDetail{Code: codeNotFound, Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorDetail{Code: codeMethodNotAllowed, Message: "method not allowed"})
	})

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(a.log, a.readyTimeout, a.checks...))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(bearerAuth(token))
		v1.Use(middleware.NoCache)

		if a.processor != nil {
			v1.Get("/queue/process", a.process)
			v1.Post("/queue/process", a.process)
		}
		if a.enqueuer != nil {
			v1.Post("/messages", a.enqueue)
		}
		if a.reader != nil {
			v1.Get("/messages", a.listMessages)
			v1.Get("/messages/{id}", a.getMessage)
			v1.Get("/queue/stats", a.stats)
		}
		v1.Get("/templates", a.listTemplates)
	})

	return r, nil
}
