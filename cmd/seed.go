package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/graph-directory/directory-cli/internal/business"
	"github.com/graph-directory/directory-cli/internal/ingest"
	"github.com/graph-directory/directory-cli/internal/ingest/source"
	"github.com/graph-directory/directory-cli/internal/model"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo/seed leads through the full pipeline",
	Long:  "A harness around the applicator: reads a YAML fixture, applies every lead under a run bracket, and prints the outcome. Re-running with the same fixture updates instead of duplicating.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		leads, err := source.LoadSeedFile(seedFile)
		if err != nil {
			return err
		}

		pool, err := dbPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		// Seeding is idempotent only against a current schema.
		if err := ingest.Migrate(ctx, pool); err != nil {
			return err
		}

		params, err := json.Marshal(map[string]any{"file": seedFile})
		if err != nil {
			return eris.Wrap(err, "seed: encode run params")
		}

		businesses := business.NewPostgresStore(pool)
		matcher := ingest.NewMatcher(businesses, cfg.Ingest.Thresholds)
		applicator := ingest.NewApplicator(ingest.NewPostgresStore(pool), businesses, matcher, cfg.Ingest)
		runner := ingest.NewRunner(ingest.NewRunLog(pool), applicator, cfg.Ingest.RatePerSec)

		instanceKey := "seed-" + time.Now().UTC().Format("20060102T150405Z")
		runID, stats, err := runner.Run(ctx, model.SourceSeed, instanceKey, "seed", params, leads)
		if err != nil {
			return err
		}

		fmt.Printf("Seed run %s: %d created, %d updated, %d suggested, %d skipped, %d failed\n",
			runID, stats.Created, stats.Updated, stats.Suggested, stats.Skipped, stats.Failed)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed fixture")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}
