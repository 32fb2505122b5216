package main

import (
	"log/slog"

	"github.com/dmitrymomot/mailqueue/pkg/logger"
)

// ProcessCmd drains one batch, the cron-friendly equivalent of the trigger
// endpoint. A storage error makes the process exit non-zero.
type ProcessCmd struct{}

func (cmd *ProcessCmd) Run(g *Globals) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	if err := a.requirePersistent("process"); err != nil {
		return err
	}
	if err := a.openStore(g.ctx, false); err != nil {
		return err
	}
	defer a.Close()

	worker, err := a.newWorker()
	if err != nil {
		return err
	}

	report, err := worker.ProcessQueue(g.ctx)
	a.log.InfoContext(g.ctx, "queue run finished",
		logger.WorkerID(worker.ID()),
		slog.Int("expired", report.Expired),
		slog.Int("claimed", report.Claimed),
		slog.Int("sent", report.Sent),
		slog.Int("retried", report.Retried),
		slog.Int("failed", report.Failed),
		slog.Int("released", report.Released),
	)
	return err
}
