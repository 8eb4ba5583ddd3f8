package review

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

const suggestionColumns = `id, business_id, raw_lead_id, field_name, current_value,
	suggested_value, confidence, status, created_at, reviewed_at, reviewed_by`

// Get fetches one suggestion by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*model.SuggestedUpdate, error) {
	var sug model.SuggestedUpdate
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT `+suggestionColumns+` FROM suggested_updates WHERE id = $1`, id,
	).Scan(&sug.ID, &sug.BusinessID, &sug.RawLeadID, &sug.FieldName, &sug.CurrentValue,
		&sug.SuggestedValue, &sug.Confidence, &status, &sug.CreatedAt, &sug.ReviewedAt, &sug.ReviewedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "review: get suggestion %s", id)
	}
	sug.Status = model.ReviewStatus(status)
	return &sug, nil
}

// List returns suggestions with the given status, newest first.
func (s *PostgresStore) List(ctx context.Context, status model.ReviewStatus, limit int) ([]model.SuggestedUpdate, error) {
	sql := `SELECT ` + suggestionColumns + ` FROM suggested_updates WHERE status = $1 ORDER BY created_at DESC`
	args := []any{string(status)}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "review: list suggestions")
	}
	defer rows.Close()

	var out []model.SuggestedUpdate
	for rows.Next() {
		var sug model.SuggestedUpdate
		var st string
		if err := rows.Scan(&sug.ID, &sug.BusinessID, &sug.RawLeadID, &sug.FieldName, &sug.CurrentValue,
			&sug.SuggestedValue, &sug.Confidence, &st, &sug.CreatedAt, &sug.ReviewedAt, &sug.ReviewedBy); err != nil {
			return nil, eris.Wrap(err, "review: scan suggestion")
		}
		sug.Status = model.ReviewStatus(st)
		out = append(out, sug)
	}
	return out, rows.Err()
}

// MarkReviewed transitions a pending suggestion to its terminal status.
// The status guard in the WHERE clause makes the transition race-safe: the
// first reviewer wins, later attempts see ErrAlreadyReviewed.
func (s *PostgresStore) MarkReviewed(ctx context.Context, id string, status model.ReviewStatus, reviewer string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE suggested_updates
		 SET status = $1, reviewed_at = now(), reviewed_by = $2
		 WHERE id = $3 AND status = 'pending'`,
		string(status), reviewer, id,
	)
	if err != nil {
		return eris.Wrapf(err, "review: mark suggestion %s %s", id, status)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}
