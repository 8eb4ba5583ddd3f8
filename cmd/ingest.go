package main

import (
	"context"
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

var (
	ingestSource      string
	ingestFile        string
	ingestInstanceKey string
	ingestCreatedBy   string
	ingestLimit       int
	ingestDryRun      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Normalize and apply a batch of leads under a run bracket",
	Long: `Load leads from a file, normalize and validate them, then apply each one:
match against the registry, create new drafts, auto-update high-confidence
draft matches, or file suggestions for review. Every lead leaves a raw-lead
and evidence audit trail regardless of outcome.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		src := model.Source(ingestSource)
		leads, err := loadLeads(src, ingestFile)
		if err != nil {
			return err
		}
		if ingestLimit > 0 && len(leads) > ingestLimit {
			leads = leads[:ingestLimit]
		}

		pool, err := dbPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		businesses := business.NewPostgresStore(pool)
		matcher := ingest.NewMatcher(businesses, cfg.Ingest.Thresholds)

		if ingestDryRun {
			return dryRunMatch(ctx, matcher, leads)
		}

		instanceKey := ingestInstanceKey
		if instanceKey == "" {
			instanceKey = ingestSource + "-" + time.Now().UTC().Format("20060102T150405Z")
		}

		params, err := json.Marshal(map[string]any{
			"file":  ingestFile,
			"limit": ingestLimit,
		})
		if err != nil {
			return eris.Wrap(err, "ingest: encode run params")
		}

		applicator := ingest.NewApplicator(ingest.NewPostgresStore(pool), businesses, matcher, cfg.Ingest)
		runner := ingest.NewRunner(ingest.NewRunLog(pool), applicator, cfg.Ingest.RatePerSec)

		runID, stats, err := runner.Run(ctx, src, instanceKey, ingestCreatedBy, params, leads)
		if err != nil {
			return err
		}

		fmt.Printf("Run %s: %d leads — %d created, %d updated, %d suggested, %d skipped, %d failed\n",
			runID, stats.Leads, stats.Created, stats.Updated, stats.Suggested, stats.Skipped, stats.Failed)
		return nil
	},
}

func loadLeads(src model.Source, path string) ([]*model.NormalizedLead, error) {
	switch src {
	case model.SourceSeed:
		return source.LoadSeedFile(path)
	case model.SourceGooglePlaces, model.SourceDataForSEOSerpMaps, model.SourceDataForSEOBusinessListings:
		return source.LoadPlacesFile(path, src)
	default:
		return nil, eris.Errorf("ingest: unknown source %q", src)
	}
}

func dryRunMatch(ctx context.Context, matcher *ingest.Matcher, leads []*model.NormalizedLead) error {
	for _, lead := range leads {
		res, err := matcher.Match(ctx, lead)
		if err != nil {
			return err
		}
		target := res.BusinessID
		if target == "" {
			target = "(new)"
		}
		fmt.Printf("%-40s %-12s %.2f %s\n", lead.Name, res.Strategy, res.Confidence, target)
	}
	fmt.Printf("Dry run: %d leads matched, nothing written\n", len(leads))
	return nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "lead source: seed, dataforseo_serp_maps, dataforseo_business_listings, google_places")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to the lead file (YAML for seed, JSON otherwise)")
	ingestCmd.Flags().StringVar(&ingestInstanceKey, "instance-key", "", "disambiguates concurrent runs per source (default source+timestamp)")
	ingestCmd.Flags().StringVar(&ingestCreatedBy, "created-by", "cli", "identity recorded on the run")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "apply at most N leads (0 = all)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "match only, write nothing")
	_ = ingestCmd.MarkFlagRequired("source")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}
