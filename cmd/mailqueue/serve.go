package main

import (
	"github.com/dmitrymomot/mailqueue/pkg/api"
	"github.com/dmitrymomot/mailqueue/pkg/config"
	"github.com/dmitrymomot/mailqueue/pkg/httpserver"
	"github.com/dmitrymomot/mailqueue/pkg/logger"
	"github.com/dmitrymomot/mailqueue/pkg/pg"
	"github.com/dmitrymomot/mailqueue/pkg/redis"
)

type ServeCmd struct {
	Migrate bool `default:"true" negatable:"" help:"Apply pending migrations on start (postgres storage)."`
}

func (cmd *ServeCmd) Run(g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	if err := a.openStore(g.ctx, cmd.Migrate); err != nil {
		return err
	}
	defer a.Close()

	var (
		apiCfg    api.Config
		serverCfg httpserver.Config
		redisCfg  redis.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&apiCfg) },
		func() error { return config.Load(&serverCfg) },
		func() error { return config.Load(&redisCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	worker, err := a.newWorker()
	if err != nil {
		return err
	}
	enqueuer, err := a.newEnqueuer()
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithConfig(apiCfg),
		api.WithProcessor(worker),
		api.WithEnqueuer(enqueuer),
		api.WithReader(a.store),
		api.WithTemplates(a.registry.Names()...),
		api.WithLogger(a.log),
	}
	if a.pool != nil {
		opts = append(opts, api.WithReadinessChecks(httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(a.pool)}))
	}
	if redisCfg.Enabled() {
		client, err := redis.Connect(g.ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		opts = append(opts,
			api.WithLocker(redis.NewLock(client, redisCfg.LockKey, redisCfg.LockTTL)),
			api.WithReadinessChecks(httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)}),
		)
	} else {
		a.log.InfoContext(g.ctx, "REDIS_URL not set, trigger runs are not locked")
	}

	handler, err := api.NewRouter(apiCfg.TriggerToken, opts...)
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(a.log))
	a.log.InfoContext(g.ctx, "mailqueue started",
		logger.WorkerID(worker.ID()),
		logger.Component("serve"),
	)
	return srv.Run(g.ctx, handler)
}
