package ingest

import (
	"context"

	"github.com/graph-directory/directory-cli/internal/model"
)

// Store is the audit-trail surface the applicator writes through: raw leads,
// their evidence rows, the authoritative match decision, and generated
// suggestions. Reads exist for the admin surface only.
type Store interface {
	// InsertRawLead persists the immutable audit record for one payload and
	// returns its ID. The business back-link is set later via
	// SetRawLeadBusiness once the lead is matched or a record created.
	InsertRawLead(ctx context.Context, runID string, lead *model.NormalizedLead) (string, error)

	// SetRawLeadBusiness fills the write-once business back-link.
	SetRawLeadBusiness(ctx context.Context, rawLeadID, businessID string) error

	// InsertEvidence bulk-appends claim rows owned by a raw lead.
	InsertEvidence(ctx context.Context, rawLeadID string, claims []model.EvidenceClaim) (int64, error)

	// InsertMatch records the authoritative match decision for a raw lead.
	InsertMatch(ctx context.Context, rawLeadID string, businessID *string, strategy model.MatchStrategy, score float64) error

	// InsertSuggestions files pending single-field patches for review.
	InsertSuggestions(ctx context.Context, suggestions []model.SuggestedUpdate) (int, error)

	// GetRawLead fetches one raw lead by ID. Returns (nil, nil) when absent.
	GetRawLead(ctx context.Context, id string) (*model.RawLead, error)

	// ListEvidence returns a raw lead's evidence rows in observation order.
	ListEvidence(ctx context.Context, rawLeadID string) ([]model.LeadEvidence, error)

	// GetMatch returns the match recorded for a raw lead, or (nil, nil).
	GetMatch(ctx context.Context, rawLeadID string) (*model.LeadMatch, error)
}
