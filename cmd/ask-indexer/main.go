// Package main is the entry point for the corpus builder.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/sentinel-ask/cmd/ask-indexer/app"
)

func main() {
	app.NewApp().Run()
}
