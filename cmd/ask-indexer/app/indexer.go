// Package app provides the corpus builder application.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/sentinel-ask/cmd/ask-indexer/app/options"
	asksvc "github.com/kart-io/sentinel-ask/internal/ask"
	"github.com/kart-io/sentinel-ask/pkg/infra/app"
)

const commandDesc = `Sentinel Ask corpus builder

Embeds a list of documents and writes the JSON corpus read by the ask server.
Documents come from --indexer.documents-file (one per line) or, when it is
empty, from the built-in sample documents.`

// NewApp creates and returns the corpus builder App.
func NewApp() *app.App {
	opts := options.NewIndexerOptions()
	return app.NewApp(
		app.WithName(asksvc.IndexerName),
		app.WithEnvPrefix(app.EnvPrefix(asksvc.Name)),
		app.WithShortDescription("Build the Sentinel Ask corpus"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(func() error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.Config().RunIndexer(ctx)
		}),
	)
}
