// tripplan estimates and adapts trip budgets.
//
// Usage:
//
//	tripplan plan --from "São Paulo" --to Manaus --start 2025-11-10 --end 2025-11-16 --ceiling 5000
//	tripplan serve --port 8080
//	tripplan geocode Manaus
//	tripplan ratecard push --file card.yaml --store postgres --activate
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitError         = 1
	exitCeilingNotMet = 2
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "tripplan",
		Usage:   "Trip budget estimation and adaptation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration",
				EnvVars: []string{"TRIP_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "log-pretty",
				Usage: "Human-readable console logs",
			},
		},

		Commands: []*cli.Command{
			planCommand(),
			serveCommand(),
			geocodeCommand(),
			rateCardCommand(),
		},
	}
}
