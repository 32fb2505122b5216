// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts, health probes and structured logging via slog.
//
// Server.Run blocks until the context is cancelled, SIGINT/SIGTERM arrives or
// Shutdown is called, then drains in-flight requests within the configured
// shutdown timeout. Construction goes through New or NewFromConfig with
// Option helpers such as WithAddr, WithShutdownTimeout and WithLogger.
//
// LivenessHandler and ReadinessHandler serve JSON probe responses; readiness
// takes named Check values (Postgres, Redis) and answers 503 when any fails.
//
// # Usage
//
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, 2*time.Second,
//		httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)},
//	))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// # Errors
//
// Run wraps listen errors with ErrStart (plus ErrAlreadyRunning on a second
// call); Shutdown wraps underlying errors with ErrShutdown.
package httpserver
