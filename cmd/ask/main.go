// Package main is the entry point for the Sentinel Ask server.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/sentinel-ask/cmd/ask/app"
)

func main() {
	app.NewApp().Run()
}
