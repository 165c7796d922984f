package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"trip-planner/config"
	"trip-planner/db"
	"trip-planner/db/clickhouse"
	"trip-planner/db/postgres"
	"trip-planner/decision/costmodel"
	"trip-planner/decision/distance"
	"trip-planner/decision/geocode"
	"trip-planner/decision/narrative"
	"trip-planner/decision/planner"
	"trip-planner/pkg/platform"
)

// loadConfig reads --config and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-pretty") {
		cfg.LogPretty = c.Bool("log-pretty")
	}
	return cfg, platform.InitLogger(cfg.LogLevel, cfg.LogPretty), nil
}

// openStore connects to the named rate card backend and creates its table.
func openStore(ctx context.Context, cfg *config.Config, kind string) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch kind {
	case config.RateCardClickHouse:
		store, err = clickhouse.NewStore(&cfg.ClickHouse)
	case config.RateCardPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, errors.New("postgres.dsn (or DATABASE_URL) is required")
		}
		store, err = postgres.NewStore(cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("%q is not a rate card store (use clickhouse or postgres)", kind)
	}
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// rateCard resolves the configured pricing table. The returned store is nil
// for builtin and file sources; the caller closes it otherwise.
func rateCard(ctx context.Context, cfg *config.Config) (costmodel.RateCard, *db.Snapshot, db.Store, error) {
	switch cfg.RateCard.Source {
	case config.RateCardBuiltin:
		return cfg.RateCard.Card, nil, nil, nil
	case config.RateCardFile:
		card, err := config.LoadRateCardFile(cfg.RateCard.Path)
		return card, nil, nil, err
	}

	store, err := openStore(ctx, cfg, cfg.RateCard.Source)
	if err != nil {
		return costmodel.RateCard{}, nil, nil, err
	}
	card, snap, err := db.LoadActiveRateCard(ctx, store, cfg.RateCard.Alias)
	if err != nil {
		store.Close()
		return costmodel.RateCard{}, nil, nil, err
	}
	return card, snap, store, nil
}

func newGeocoder(cfg *config.Config, logger zerolog.Logger) geocode.Geocoder {
	var online geocode.Geocoder
	if cfg.Geocoder.Online {
		online = geocode.NewNominatim(cfg.Geocoder.Nominatim(), logger)
	}
	return geocode.NewChain(logger, online, geocode.NewCatalog())
}

func newGenerator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) narrative.Generator {
	if !cfg.NarrativeEnabled() {
		logger.Debug().Msg("narrative generator disabled, using fallback text")
		return nil
	}
	gen, err := narrative.NewGemini(ctx, narrative.GeminiConfig{
		APIKey: cfg.Narrative.APIKey,
		Model:  cfg.Narrative.Model,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("narrative generator unavailable, using fallback text")
		return nil
	}
	return gen
}

// app is the wired pipeline shared by plan and serve.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	geocoder geocode.Geocoder
	planner  *planner.Planner
	store    db.Store
	snapshot *db.Snapshot
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	card, snap, store, err := rateCard(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load rate card: %w", err)
	}
	model, err := costmodel.NewModel(card)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	geo := newGeocoder(cfg, logger)
	gen := newGenerator(ctx, cfg, logger)
	p, err := planner.New(planner.Deps{
		Geocoder:  geo,
		Estimator: distance.NewEstimator(cfg.Distance),
		Model:     model,
		Enricher:  narrative.NewEnricher(gen, cfg.Narrative.Config, logger),
		Logger:    logger,
	})
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	if snap != nil {
		logger.Info().Str("alias", snap.Alias).Str("version", snap.Version).Msg("rate card loaded from store")
	}
	return &app{cfg: cfg, logger: logger, geocoder: geo, planner: p, store: store, snapshot: snap}, nil
}
