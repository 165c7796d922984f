package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"trip-planner/api"
	"trip-planner/decision/costmodel"
	"trip-planner/decision/planner"
)

// =============================================================================
// PLAN COMMAND
// =============================================================================

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Estimate a trip and adapt it to a budget ceiling",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Origin city", Required: true},
			&cli.StringFlag{Name: "to", Usage: "Destination city", Required: true},
			&cli.StringFlag{Name: "start", Usage: "First day (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "end", Usage: "Last day (YYYY-MM-DD)", Required: true},
			&cli.IntFlag{Name: "travelers", Aliases: []string{"n"}, Value: 1, Usage: "Number of travelers"},
			&cli.StringFlag{Name: "profile", Aliases: []string{"p"}, Value: "balanced", Usage: "Spending profile (economic, balanced, premium)"},
			&cli.StringSliceFlag{Name: "theme", Aliases: []string{"t"}, Usage: "Interest theme (repeatable)"},
			&cli.StringFlag{Name: "ceiling", Usage: "Budget ceiling for the whole group"},
			&cli.StringFlag{Name: "currency", Value: planner.DefaultCurrency, Usage: "Currency label"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "table", Usage: "Output format (table, json, markdown)"},
			&cli.BoolFlag{Name: "offline", Usage: "Use the built-in city catalog only"},
			&cli.DurationFlag{Name: "timeout", Value: 2 * time.Minute, Usage: "Overall deadline"},
		},
		Action: runPlan,
	}
}

func parsePlanFlags(c *cli.Context) (planner.TripRequest, error) {
	start, err := time.Parse("2006-01-02", c.String("start"))
	if err != nil {
		return planner.TripRequest{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.String("end"))
	if err != nil {
		return planner.TripRequest{}, fmt.Errorf("invalid --end: %w", err)
	}
	profile, err := costmodel.ParseProfile(c.String("profile"))
	if err != nil {
		return planner.TripRequest{}, err
	}
	req := planner.TripRequest{
		Origin:      c.String("from"),
		Destination: c.String("to"),
		StartDate:   start,
		EndDate:     end,
		Travelers:   c.Int("travelers"),
		Profile:     profile,
		Themes:      c.StringSlice("theme"),
		Currency:    c.String("currency"),
	}
	if s := c.String("ceiling"); s != "" {
		ceiling, err := decimal.NewFromString(s)
		if err != nil {
			return planner.TripRequest{}, fmt.Errorf("invalid --ceiling: %w", err)
		}
		req.Ceiling = &ceiling
	}
	return req, nil
}

func runPlan(c *cli.Context) error {
	req, err := parsePlanFlags(c)
	if err != nil {
		return err
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("offline") {
		cfg.Geocoder.Online = false
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.planner.Plan(ctx, req)
	if err != nil {
		return err
	}

	out := c.App.Writer
	switch c.String("format") {
	case "json":
		err = outputJSON(out, res)
	case "markdown":
		err = outputMarkdown(out, res)
	default:
		err = outputTable(out, res)
	}
	if err != nil {
		return err
	}
	if !res.CeilingMet {
		return cli.Exit("", exitCeilingNotMet)
	}
	return nil
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "Listen port"},
			&cli.StringSliceFlag{Name: "cors-origins", Usage: "Allowed CORS origins"},
			&cli.StringFlag{Name: "api-key", Usage: "Require X-API-Key on /api/v1"},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if c.IsSet("cors-origins") {
				cfg.Server.CORSOrigins = c.StringSlice("cors-origins")
			}
			if c.IsSet("api-key") {
				cfg.Server.APIKey = c.String("api-key")
			}

			a, err := buildApp(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			info := api.Info{
				Currency:         planner.DefaultCurrency,
				OnlineGeocoding:  cfg.Geocoder.Online,
				NarrativeEnabled: cfg.NarrativeEnabled(),
				RateCardSource:   cfg.RateCard.Source,
			}
			if info.NarrativeEnabled {
				info.NarrativeModel = cfg.Narrative.Model
			}
			if a.snapshot != nil {
				info.RateCardVersion = a.snapshot.Version
			}

			server := api.NewServer(cfg.Server, api.Deps{
				Planner:  a.planner,
				Geocoder: a.geocoder,
				Store:    a.store,
				Info:     info,
				Logger:   logger,
			})
			return server.StartWithGracefulShutdown()
		},
	}
}

// =============================================================================
// GEOCODE COMMAND
// =============================================================================

func geocodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "geocode",
		Usage:     "Resolve a place name to coordinates",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "offline", Usage: "Use the built-in city catalog only"},
		},
		Action: func(c *cli.Context) error {
			name := c.Args().First()
			if name == "" {
				return cli.Exit("a place name is required", exitError)
			}
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("offline") {
				cfg.Geocoder.Online = false
			}
			pt, err := newGeocoder(cfg, logger).Resolve(c.Context, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s\t%.4f, %.4f\t(%s)\n", pt.Label, pt.Lat, pt.Lon, pt.Source)
			return nil
		},
	}
}
