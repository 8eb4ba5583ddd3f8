package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/graph-directory/directory-cli/internal/ingest"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect ingestion run history",
	Long:  "Commands for listing and viewing ingestion runs and their aggregate stats.",
}

// -- runs list --

var runsListLimit int

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingestion runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		pool, err := dbPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		runs, err := ingest.NewRunLog(pool).List(ctx, runsListLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tINSTANCE\tSTATUS\tSTARTED\tLEADS\tCREATED\tUPDATED\tSUGGESTED\tSKIPPED\tFAILED")
		for _, run := range runs {
			leads, created, updated, suggested, skipped, failed := 0, 0, 0, 0, 0, 0
			if run.Stats != nil {
				leads, created, updated = run.Stats.Leads, run.Stats.Created, run.Stats.Updated
				suggested, skipped, failed = run.Stats.Suggested, run.Stats.Skipped, run.Stats.Failed
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
				run.ID, run.Source, run.InstanceKey, run.Status,
				run.StartedAt.Format(time.RFC3339),
				leads, created, updated, suggested, skipped, failed)
		}
		return w.Flush()
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one ingestion run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		pool, err := dbPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		run, err := ingest.NewRunLog(pool).Get(ctx, args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return eris.Errorf("runs: no run %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runsListCmd.Flags().IntVar(&runsListLimit, "limit", 25, "show at most N runs (0 = all)")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
