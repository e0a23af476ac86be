// Package app provides the ask server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/sentinel-ask/cmd/ask/app/options"
	asksvc "github.com/kart-io/sentinel-ask/internal/ask"
	"github.com/kart-io/sentinel-ask/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `Sentinel Ask

Answers natural-language questions over a small embedded corpus.

For each question the server:
  - embeds it with the configured embedding provider
  - ranks the corpus by cosine similarity
  - sends the best records as context to the chat provider
  - returns the answer as {"resposta": "..."}`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(asksvc.Name),
		app.WithShortDescription("Corpus-grounded question answering server"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
