// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver: connection pooling with retries, embedded goose migrations,
// health checks, query tracing and error classification helpers.
//
// # Architecture
//
//   • Config – populated from environment variables via
//     github.com/caarlos0/env. It controls pool limits, health-check cadence,
//     the migrations table and query logging.
//
//   • Connect – opens a *pgxpool.Pool based on Config, retrying with growing
//     waits until the database becomes available or ctx is done.
//
//   • Migrate / Rollback / Version – run goose migrations from an fs.FS
//     (usually an embed.FS) against the same pool.
//
//   • QueryTracer – a pgx.QueryTracer that logs statements through slog.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg, slog.Default())
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, slog.Default()); err != nil {
//	    return err
//	}
//
//	ready := pg.Healthcheck(pool)
//
// # Error Handling
//
// IsNotFoundError and IsDuplicateKeyError classify errors returned by pgx
// without callers touching *pgconn.PgError directly.
package pg
