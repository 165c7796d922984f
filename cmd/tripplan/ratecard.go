package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"trip-planner/config"
)

// =============================================================================
// RATECARD COMMAND
// =============================================================================

func rateCardCommand() *cli.Command {
	storeFlag := &cli.StringFlag{
		Name:  "store",
		Usage: "Snapshot store (clickhouse, postgres); defaults to rate_card.source",
	}
	aliasFlag := &cli.StringFlag{
		Name:  "alias",
		Usage: "Snapshot series name; defaults to rate_card.alias",
	}

	return &cli.Command{
		Name:  "ratecard",
		Usage: "Inspect and manage rate card snapshots",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the rate card the planner would use",
				Action: runRateCardShow,
			},
			{
				Name:  "push",
				Usage: "Store a rate card file as a new snapshot",
				Flags: []cli.Flag{
					storeFlag,
					aliasFlag,
					&cli.StringFlag{Name: "file", Usage: "YAML rate card", Required: true},
					&cli.BoolFlag{Name: "activate", Usage: "Make the snapshot active"},
				},
				Action: runRateCardPush,
			},
			{
				Name:      "activate",
				Usage:     "Make a stored snapshot the active one",
				ArgsUsage: "<snapshot-id>",
				Flags:     []cli.Flag{storeFlag},
				Action:    runRateCardActivate,
			},
			{
				Name:   "list",
				Usage:  "List snapshots for an alias",
				Flags:  []cli.Flag{storeFlag, aliasFlag},
				Action: runRateCardList,
			},
		},
	}
}

func storeKind(c *cli.Context, cfg *config.Config) string {
	if c.IsSet("store") {
		return c.String("store")
	}
	return cfg.RateCard.Source
}

func alias(c *cli.Context, cfg *config.Config) string {
	if c.IsSet("alias") {
		return c.String("alias")
	}
	return cfg.RateCard.Alias
}

func runRateCardShow(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	card, snap, store, err := rateCard(c.Context, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if snap != nil {
		fmt.Fprintf(c.App.Writer, "# snapshot %s (%s, version %s)\n", snap.ID, snap.Alias, snap.Version)
	} else {
		fmt.Fprintf(c.App.Writer, "# source: %s\n", cfg.RateCard.Source)
	}
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(card)
}

func runRateCardPush(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	card, err := config.LoadRateCardFile(c.String("file"))
	if err != nil {
		return err
	}
	store, err := openStore(c.Context, cfg, storeKind(c, cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	snap, created, err := store.SaveSnapshot(c.Context, alias(c, cfg), c.String("file"), card)
	if err != nil {
		return err
	}
	if created {
		logger.Info().Str("id", snap.ID.String()).Str("hash", snap.Hash[:16]).Msg("snapshot stored")
	} else {
		logger.Info().Str("id", snap.ID.String()).Msg("identical snapshot already stored")
	}

	if c.Bool("activate") {
		if err := store.ActivateSnapshot(c.Context, snap.ID); err != nil {
			return err
		}
		logger.Info().Str("id", snap.ID.String()).Msg("snapshot activated")
	}
	fmt.Fprintln(c.App.Writer, snap.ID)
	return nil
}

func runRateCardActivate(c *cli.Context) error {
	id, err := uuid.Parse(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid snapshot id: %v", err), exitError)
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := openStore(c.Context, cfg, storeKind(c, cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ActivateSnapshot(c.Context, id); err != nil {
		return err
	}
	logger.Info().Str("id", id.String()).Msg("snapshot activated")
	return nil
}

func runRateCardList(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := openStore(c.Context, cfg, storeKind(c, cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.ListSnapshots(c.Context, alias(c, cfg))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tACTIVE\tHASH\tSOURCE")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\t%s\n", s.ID, s.Version, s.IsActive, s.Hash[:12], s.Source)
	}
	return tw.Flush()
}

