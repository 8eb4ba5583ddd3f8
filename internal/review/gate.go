package review

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/graph-directory/directory-cli/internal/business"
	"github.com/graph-directory/directory-cli/internal/model"
)

// Domain errors surfaced to the admin caller, distinct from storage errors.
var (
	ErrAlreadyReviewed = eris.New("review: suggestion already reviewed")
	ErrFieldNotAllowed = eris.New("review: field not allowed for one-click approval")
	ErrTargetNotDraft  = eris.New("review: target business is not a draft")
	ErrNotFound        = eris.New("review: suggestion not found")
)

// approvableFields is the tight v1 allowlist for one-click approval. Name
// and license fields are deliberately excluded.
var approvableFields = map[string]bool{
	"phone":          true,
	"email":          true,
	"website":        true,
	"street_address": true,
	"description":    true,
}

// Gate drives the pending -> approved | rejected state machine. Transitions
// are terminal: a reviewed suggestion is immutable.
type Gate struct {
	suggestions Store
	businesses  business.Store
	log         *zap.Logger
}

// NewGate creates a Gate.
func NewGate(suggestions Store, businesses business.Store) *Gate {
	return &Gate{
		suggestions: suggestions,
		businesses:  businesses,
		log:         zap.L().With(zap.String("component", "review.gate")),
	}
}

// ListPending returns suggestions awaiting review.
func (g *Gate) ListPending(ctx context.Context, limit int) ([]model.SuggestedUpdate, error) {
	return g.suggestions.List(ctx, model.ReviewPending, limit)
}

// Reject marks a pending suggestion rejected.
func (g *Gate) Reject(ctx context.Context, id, reviewer string) error {
	sug, err := g.suggestions.Get(ctx, id)
	if err != nil {
		return err
	}
	if sug == nil {
		return eris.Wrapf(ErrNotFound, "%s", id)
	}
	if sug.Status != model.ReviewPending {
		return ErrAlreadyReviewed
	}
	return g.suggestions.MarkReviewed(ctx, id, model.ReviewRejected, reviewer)
}

// Approve applies a pending suggestion's field patch to its target business
// and marks it approved. Only allowlisted fields are approvable, and only
// draft businesses may be patched: a suggestion against a record that has
// moved past draft is auto-rejected rather than left pending, so stale
// suggestions never linger.
func (g *Gate) Approve(ctx context.Context, id, reviewer string) error {
	sug, err := g.suggestions.Get(ctx, id)
	if err != nil {
		return err
	}
	if sug == nil {
		return eris.Wrapf(ErrNotFound, "%s", id)
	}
	if sug.Status != model.ReviewPending {
		return ErrAlreadyReviewed
	}
	if !approvableFields[sug.FieldName] {
		return eris.Wrapf(ErrFieldNotAllowed, "%s", sug.FieldName)
	}

	target, err := g.businesses.Get(ctx, sug.BusinessID)
	if err != nil {
		return err
	}
	if target == nil {
		return eris.Errorf("review: target business %s not found", sug.BusinessID)
	}
	if target.Status != model.LifecycleDraft {
		if err := g.suggestions.MarkReviewed(ctx, id, model.ReviewRejected, reviewer); err != nil {
			return err
		}
		return eris.Wrapf(ErrTargetNotDraft, "business %s is %s", target.ID, target.Status)
	}

	if err := g.businesses.UpdateFields(ctx, target.ID, map[string]any{sug.FieldName: sug.SuggestedValue}); err != nil {
		return eris.Wrapf(err, "review: apply suggestion %s", id)
	}

	// The business write is the side effect that matters. If the audit mark
	// fails the mutation stays in place and the divergence is only logged.
	if err := g.suggestions.MarkReviewed(ctx, id, model.ReviewApproved, reviewer); err != nil {
		g.log.Error("business updated but approval mark failed; audit record diverges",
			zap.String("suggestion_id", id),
			zap.String("business_id", target.ID),
			zap.String("field", sug.FieldName),
			zap.Error(err))
	}
	return nil
}
