package ingest

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/graph-directory/directory-cli/internal/db"
	"github.com/graph-directory/directory-cli/internal/model"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InsertRawLead persists the audit record for one payload.
func (s *PostgresStore) InsertRawLead(ctx context.Context, runID string, lead *model.NormalizedLead) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`INSERT INTO raw_leads (ingestion_run_id, source, source_url, source_external_id, payload, payload_hash, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		runID, string(lead.Source), nilIfEmpty(lead.SourceURL), nilIfEmpty(lead.SourceExternalID),
		lead.RawPayload, lead.PayloadHash, lead.FetchedAt,
	).Scan(&id)
	if err != nil {
		return "", eris.Wrap(err, "ingest: insert raw lead")
	}
	return id, nil
}

// SetRawLeadBusiness fills the write-once business back-link.
func (s *PostgresStore) SetRawLeadBusiness(ctx context.Context, rawLeadID, businessID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE raw_leads SET business_id = $1 WHERE id = $2`,
		businessID, rawLeadID,
	)
	if err != nil {
		return eris.Wrapf(err, "ingest: link raw lead %s", rawLeadID)
	}
	return nil
}

var evidenceColumns = []string{"raw_lead_id", "claim_type", "claim_value", "confidence", "provenance", "observed_at"}

// InsertEvidence bulk-appends claim rows via COPY. One lead may carry many
// claims, so this goes through the COPY protocol rather than row-at-a-time
// inserts.
func (s *PostgresStore) InsertEvidence(ctx context.Context, rawLeadID string, claims []model.EvidenceClaim) (int64, error) {
	rows := make([][]any, 0, len(claims))
	for _, c := range claims {
		rows = append(rows, []any{
			rawLeadID, string(c.Type), c.Value, c.Confidence, c.Provenance, c.ObservedAt,
		})
	}
	n, err := db.CopyFrom(ctx, s.pool, "lead_evidence", evidenceColumns, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: insert evidence for %s", rawLeadID)
	}
	return n, nil
}

// InsertMatch records the authoritative match decision for a raw lead.
func (s *PostgresStore) InsertMatch(ctx context.Context, rawLeadID string, businessID *string, strategy model.MatchStrategy, score float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lead_matches (raw_lead_id, business_id, match_score, match_strategy)
		 VALUES ($1, $2, $3, $4)`,
		rawLeadID, businessID, score, string(strategy),
	)
	if err != nil {
		return eris.Wrapf(err, "ingest: insert match for %s", rawLeadID)
	}
	return nil
}

// InsertSuggestions files pending single-field patches for review.
func (s *PostgresStore) InsertSuggestions(ctx context.Context, suggestions []model.SuggestedUpdate) (int, error) {
	for _, sug := range suggestions {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO suggested_updates (business_id, raw_lead_id, field_name, current_value, suggested_value, confidence, status)
			 VALUES ($1, $2, $3, $4, $5, $6, 'pending')`,
			sug.BusinessID, sug.RawLeadID, sug.FieldName, sug.CurrentValue, sug.SuggestedValue, sug.Confidence,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "ingest: insert suggestion %s.%s", sug.BusinessID, sug.FieldName)
		}
	}
	return len(suggestions), nil
}

// GetRawLead fetches one raw lead by ID.
func (s *PostgresStore) GetRawLead(ctx context.Context, id string) (*model.RawLead, error) {
	var l model.RawLead
	var source string
	var sourceURL, sourceExternalID, businessID *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, ingestion_run_id, source, source_url, source_external_id, payload, payload_hash, fetched_at, business_id
		 FROM raw_leads WHERE id = $1`, id,
	).Scan(&l.ID, &l.IngestionRunID, &source, &sourceURL, &sourceExternalID,
		&l.Payload, &l.PayloadHash, &l.FetchedAt, &businessID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ingest: get raw lead %s", id)
	}
	l.Source = model.Source(source)
	if sourceURL != nil {
		l.SourceURL = *sourceURL
	}
	if sourceExternalID != nil {
		l.SourceExternalID = *sourceExternalID
	}
	l.BusinessID = businessID
	return &l, nil
}

// ListEvidence returns a raw lead's evidence rows in observation order.
func (s *PostgresStore) ListEvidence(ctx context.Context, rawLeadID string) ([]model.LeadEvidence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, raw_lead_id, claim_type, claim_value, confidence, provenance, observed_at
		 FROM lead_evidence WHERE raw_lead_id = $1 ORDER BY observed_at, claim_type`,
		rawLeadID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: list evidence for %s", rawLeadID)
	}
	defer rows.Close()

	var out []model.LeadEvidence
	for rows.Next() {
		var e model.LeadEvidence
		var claimType string
		if err := rows.Scan(&e.ID, &e.RawLeadID, &claimType, &e.ClaimValue, &e.Confidence, &e.Provenance, &e.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "ingest: scan evidence row")
		}
		e.ClaimType = model.ClaimType(claimType)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetMatch returns the match recorded for a raw lead.
func (s *PostgresStore) GetMatch(ctx context.Context, rawLeadID string) (*model.LeadMatch, error) {
	var m model.LeadMatch
	var strategy string
	err := s.pool.QueryRow(ctx,
		`SELECT id, raw_lead_id, business_id, match_score, match_strategy, created_at
		 FROM lead_matches WHERE raw_lead_id = $1
		 ORDER BY created_at DESC LIMIT 1`, rawLeadID,
	).Scan(&m.ID, &m.RawLeadID, &m.BusinessID, &m.MatchScore, &strategy, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ingest: get match for %s", rawLeadID)
	}
	m.MatchStrategy = model.MatchStrategy(strategy)
	return &m, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
