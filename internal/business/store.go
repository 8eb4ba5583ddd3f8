package business

import "context"

// Store defines the registry operations the ingestion core needs. The full
// directory application owns more of this surface (views, public queries);
// only the contract used by matching, application and review lives here.
type Store interface {
	// Get fetches a business by ID. Returns (nil, nil) when absent.
	Get(ctx context.Context, id string) (*Record, error)

	// Keyed point lookups for the matcher tiers. Each returns the business
	// ID or "" when no row matches.
	FindIDByExternalID(ctx context.Context, externalID string) (string, error)
	FindIDByDomain(ctx context.Context, domain string) (string, error)
	FindIDByPhone(ctx context.Context, normalizedPhone string) (string, error)
	SearchIDByNameSuburb(ctx context.Context, name, suburb string) (string, error)

	// CreateSubmission atomically creates the business row and its
	// service/area junction rows, returning the new ID.
	CreateSubmission(ctx context.Context, sub *Submission) (string, error)

	// UpdateFields applies a narrow field patch. Callers are responsible
	// for restricting keys to an allowlist; derived columns
	// (normalized_phone, website_domain) are refreshed automatically.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}
