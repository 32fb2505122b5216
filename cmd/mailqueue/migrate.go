package main

import (
	"fmt"

	"github.com/dmitrymomot/mailqueue/pkg/mailqueue/pgstore"
	"github.com/dmitrymomot/mailqueue/pkg/pg"
)

type MigrateCmd struct {
	Up      MigrateUpCmd      `cmd:"" default:"1" help:"Apply pending migrations."`
	Down    MigrateDownCmd    `cmd:"" help:"Revert the most recent migration."`
	Version MigrateVersionCmd `cmd:"" help:"Print the current schema version."`
}

type MigrateUpCmd struct{}

func (cmd *MigrateUpCmd) Run(g *Globals) error {
	return withPostgres(g, func(a *app) error {
		return pg.Migrate(g.ctx, a.pool, pgstore.Migrations(), a.pgCfg, a.log)
	})
}

type MigrateDownCmd struct{}

func (cmd *MigrateDownCmd) Run(g *Globals) error {
	return withPostgres(g, func(a *app) error {
		return pg.Rollback(g.ctx, a.pool, pgstore.Migrations(), a.pgCfg, a.log)
	})
}

type MigrateVersionCmd struct{}

func (cmd *MigrateVersionCmd) Run(g *Globals) error {
	return withPostgres(g, func(a *app) error {
		v, err := pg.Version(g.ctx, a.pool, pgstore.Migrations(), a.pgCfg, a.log)
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	})
}

// withPostgres connects regardless of QUEUE_STORAGE; migrations only apply to Postgres.
func withPostgres(g *Globals, fn func(*app) error) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	pool, err := a.connectPostgres(g.ctx)
	if err != nil {
		return err
	}
	a.pool = pool
	defer a.Close()
	return fn(a)
}
