// Command mailqueue runs the email queue: the HTTP API with the trigger
// endpoint, one-shot processing for cron, schema migrations and manual
// enqueueing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type Globals struct {
	EnvFiles []string `name:"env-file" type:"existingfile" help:"Env files to load before reading configuration. Later files win."`

	ctx context.Context
}

type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API and trigger endpoint."`
	Process ProcessCmd `cmd:"" help:"Process one batch of the queue and exit."`
	Migrate MigrateCmd `cmd:"" help:"Manage the PostgreSQL schema."`
	Enqueue EnqueueCmd `cmd:"" help:"Enqueue one email described by a YAML or JSON file."`
}

func main() {
	cli := new(CLI)
	kctx := kong.Parse(cli,
		kong.Name("mailqueue"),
		kong.Description("Durable email delivery queue"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	cli.Globals.ctx = ctx

	if err := kctx.Run(&cli.Globals); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
