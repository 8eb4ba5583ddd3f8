package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/graph-directory/directory-cli/internal/business"
	"github.com/graph-directory/directory-cli/internal/review"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Review suggested updates",
	Long:  "List pending suggestions and approve or reject them. Approval patches the target business; both transitions are terminal.",
}

// -- suggestions list --

var suggestionsListLimit int

var suggestionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending suggestions",
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

		gate := review.NewGate(review.NewPostgresStore(pool), business.NewPostgresStore(pool))
		pending, err := gate.ListPending(ctx, suggestionsListLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBUSINESS\tFIELD\tCURRENT\tSUGGESTED\tCONFIDENCE\tCREATED")
		for _, s := range pending {
			current := ""
			if s.CurrentValue != nil {
				current = *s.CurrentValue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
				s.ID, s.BusinessID, s.FieldName, current, s.SuggestedValue,
				s.Confidence, s.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

// -- suggestions approve / reject --

var reviewedBy string

var suggestionsApproveCmd = &cobra.Command{
	Use:   "approve <suggestion-id>",
	Short: "Approve a pending suggestion and patch the business",
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

		gate := review.NewGate(review.NewPostgresStore(pool), business.NewPostgresStore(pool))
		if err := gate.Approve(ctx, args[0], reviewedBy); err != nil {
			return err
		}
		fmt.Printf("Approved %s\n", args[0])
		return nil
	},
}

var suggestionsRejectCmd = &cobra.Command{
	Use:   "reject <suggestion-id>",
	Short: "Reject a pending suggestion",
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

		gate := review.NewGate(review.NewPostgresStore(pool), business.NewPostgresStore(pool))
		if err := gate.Reject(ctx, args[0], reviewedBy); err != nil {
			return err
		}
		fmt.Printf("Rejected %s\n", args[0])
		return nil
	},
}

func init() {
	suggestionsListCmd.Flags().IntVar(&suggestionsListLimit, "limit", 50, "show at most N suggestions (0 = all)")
	suggestionsApproveCmd.Flags().StringVar(&reviewedBy, "by", "cli", "reviewer identity stamped on the suggestion")
	suggestionsRejectCmd.Flags().StringVar(&reviewedBy, "by", "cli", "reviewer identity stamped on the suggestion")
	suggestionsCmd.AddCommand(suggestionsListCmd)
	suggestionsCmd.AddCommand(suggestionsApproveCmd)
	suggestionsCmd.AddCommand(suggestionsRejectCmd)
	rootCmd.AddCommand(suggestionsCmd)
}
