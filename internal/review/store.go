// Package review implements the admin approve/reject state machine for
// suggested updates.
package review

import (
	"context"

	"github.com/graph-directory/directory-cli/internal/model"
)

// Store is the suggestion persistence surface the gate drives.
type Store interface {
	// Get fetches one suggestion by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*model.SuggestedUpdate, error)

	// List returns suggestions with the given status, newest first,
	// up to limit (0 = all).
	List(ctx context.Context, status model.ReviewStatus, limit int) ([]model.SuggestedUpdate, error)

	// MarkReviewed transitions a pending suggestion to approved or
	// rejected, stamping reviewer and time. Returns ErrAlreadyReviewed if
	// the suggestion is no longer pending, so a lost race never overwrites
	// the first reviewer's verdict.
	MarkReviewed(ctx context.Context, id string, status model.ReviewStatus, reviewer string) error
}
