package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mailqueue/pkg/api"
	"github.com/dmitrymomot/mailqueue/pkg/config"
	"github.com/dmitrymomot/mailqueue/pkg/email"
	"github.com/dmitrymomot/mailqueue/pkg/logger"
	"github.com/dmitrymomot/mailqueue/pkg/mailqueue"
	"github.com/dmitrymomot/mailqueue/pkg/mailqueue/pgstore"
	"github.com/dmitrymomot/mailqueue/pkg/pg"
	"github.com/dmitrymomot/mailqueue/pkg/templates"
)

// app holds the dependencies shared by every command.
type app struct {
	log      *slog.Logger
	queue    mailqueue.Config
	store    mailqueue.Repository
	pool     *pgxpool.Pool // nil with memory storage
	pgCfg    pg.Config
	registry *templates.Registry
}

func newApp(g *Globals) (*app, error) {
	if len(g.EnvFiles) > 0 {
		if err := config.LoadEnv(g.EnvFiles...); err != nil {
			return nil, err
		}
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return nil, err
	}
	log, err := logger.FromConfig(logCfg, logger.WithContextExtractors(api.RequestIDExtractor()))
	if err != nil {
		return nil, err
	}

	var queueCfg mailqueue.Config
	if err := config.Load(&queueCfg); err != nil {
		return nil, err
	}

	return &app{
		log:      log,
		queue:    queueCfg,
		registry: templates.Builtin(),
	}, nil
}

// openStore connects the configured storage backend. With migrate set the
// schema is brought up to date first.
func (a *app) openStore(ctx context.Context, migrate bool) error {
	switch a.queue.Storage {
	case mailqueue.StorageMemory:
		a.log.WarnContext(ctx, "using in-memory storage, queued emails are lost on restart")
		a.store = mailqueue.NewMemoryStorage()
		return nil
	case mailqueue.StoragePostgres:
	default:
		return fmt.Errorf("%w: unknown storage %q", mailqueue.ErrInvalidConfig, a.queue.Storage)
	}

	pool, err := a.connectPostgres(ctx)
	if err != nil {
		return err
	}
	if migrate {
		if err := pg.Migrate(ctx, pool, pgstore.Migrations(), a.pgCfg, a.log); err != nil {
			pool.Close()
			return err
		}
	}
	a.pool = pool
	a.store = pgstore.New(pool)
	return nil
}

func (a *app) connectPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	if err := config.Load(&a.pgCfg); err != nil {
		return nil, err
	}
	return pg.Connect(ctx, a.pgCfg, a.log.With(logger.Component("pg")))
}

// requirePersistent rejects memory storage for commands that exit right away.
func (a *app) requirePersistent(command string) error {
	if a.queue.Storage == mailqueue.StorageMemory {
		return fmt.Errorf("%w: %s needs QUEUE_STORAGE=%s", mailqueue.ErrInvalidConfig, command, mailqueue.StoragePostgres)
	}
	return nil
}

func (a *app) newWorker() (*mailqueue.Worker, error) {
	var emailCfg email.Config
	if err := config.Load(&emailCfg); err != nil {
		return nil, err
	}
	sender, err := email.NewSender(emailCfg)
	if err != nil {
		return nil, err
	}

	opts := append(a.queue.WorkerOptions(), mailqueue.WithWorkerLogger(a.log.With(logger.Component("worker"))))
	return mailqueue.NewWorker(a.store, a.registry, sender, opts...)
}

func (a *app) newEnqueuer() (*mailqueue.Enqueuer, error) {
	opts := append(a.queue.EnqueuerOptions(a.registry.Names()...), mailqueue.WithEnqueuerLogger(a.log.With(logger.Component("enqueuer"))))
	return mailqueue.NewEnqueuer(a.store, opts...)
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
