package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graph-directory/directory-cli/internal/model"
)

func newMockAuditStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresStore(mock)
}

func TestInsertRawLead(t *testing.T) {
	mock, store := newMockAuditStore(t)
	fetched := time.Now()
	mock.ExpectQuery("INSERT INTO raw_leads").
		WithArgs("run1", "google_places", nil, "G123", json.RawMessage(`{"name":"Apex"}`), "hash1", fetched).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("rl1"))

	id, err := store.InsertRawLead(context.Background(), "run1", &model.NormalizedLead{
		Source:           model.SourceGooglePlaces,
		SourceExternalID: "G123",
		RawPayload:       []byte(`{"name":"Apex"}`),
		PayloadHash:      "hash1",
		FetchedAt:        fetched,
	})
	require.NoError(t, err)
	assert.Equal(t, "rl1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRawLeadBusiness(t *testing.T) {
	mock, store := newMockAuditStore(t)
	mock.ExpectExec("UPDATE raw_leads SET business_id").
		WithArgs("b1", "rl1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetRawLeadBusiness(context.Background(), "rl1", "b1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEvidence_UsesCopy(t *testing.T) {
	mock, store := newMockAuditStore(t)
	mock.ExpectCopyFrom(pgx.Identifier{"lead_evidence"}, evidenceColumns).
		WillReturnResult(2)

	observed := time.Now()
	n, err := store.InsertEvidence(context.Background(), "rl1", []model.EvidenceClaim{
		{Type: model.ClaimName, Value: "Apex Plumbing", Confidence: 0.9, Provenance: "serp", ObservedAt: observed},
		{Type: model.ClaimPhone, Value: "0412 345 678", Confidence: 0.8, Provenance: "serp", ObservedAt: observed},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEvidence_EmptyIsNoop(t *testing.T) {
	mock, store := newMockAuditStore(t)

	n, err := store.InsertEvidence(context.Background(), "rl1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMatch_NullBusiness(t *testing.T) {
	mock, store := newMockAuditStore(t)
	mock.ExpectExec("INSERT INTO lead_matches").
		WithArgs("rl1", (*string)(nil), 0.0, "none").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.InsertMatch(context.Background(), "rl1", nil, model.MatchNone, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSuggestions(t *testing.T) {
	mock, store := newMockAuditStore(t)
	current := "https://old.example"
	mock.ExpectExec("INSERT INTO suggested_updates").
		WithArgs("b1", "rl1", "website", &current, "https://apex.com.au", 0.85).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO suggested_updates").
		WithArgs("b1", "rl1", "description", (*string)(nil), "Licensed plumber", 0.85).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := store.InsertSuggestions(context.Background(), []model.SuggestedUpdate{
		{BusinessID: "b1", RawLeadID: "rl1", FieldName: "website", CurrentValue: &current, SuggestedValue: "https://apex.com.au", Confidence: 0.85},
		{BusinessID: "b1", RawLeadID: "rl1", FieldName: "description", SuggestedValue: "Licensed plumber", Confidence: 0.85},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRawLead(t *testing.T) {
	mock, store := newMockAuditStore(t)
	fetched := time.Now()
	businessID := "b1"
	mock.ExpectQuery("SELECT .+ FROM raw_leads WHERE id =").
		WithArgs("rl1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "ingestion_run_id", "source", "source_url", "source_external_id",
			"payload", "payload_hash", "fetched_at", "business_id",
		}).AddRow("rl1", "run1", "seed", nil, ptr("G123"), []byte(`{}`), "hash1", fetched, &businessID))

	l, err := store.GetRawLead(context.Background(), "rl1")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, model.SourceSeed, l.Source)
	assert.Empty(t, l.SourceURL)
	assert.Equal(t, "G123", l.SourceExternalID)
	require.NotNil(t, l.BusinessID)
	assert.Equal(t, "b1", *l.BusinessID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRawLead_Absent(t *testing.T) {
	mock, store := newMockAuditStore(t)
	mock.ExpectQuery("SELECT .+ FROM raw_leads WHERE id =").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	l, err := store.GetRawLead(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEvidence(t *testing.T) {
	mock, store := newMockAuditStore(t)
	observed := time.Now()
	mock.ExpectQuery("SELECT .+ FROM lead_evidence WHERE raw_lead_id =").
		WithArgs("rl1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "raw_lead_id", "claim_type", "claim_value", "confidence", "provenance", "observed_at",
		}).
			AddRow("e1", "rl1", "name", "Apex Plumbing", 0.9, "serp", observed).
			AddRow("e2", "rl1", "phone", "0412 345 678", 0.8, "serp", observed))

	claims, err := store.ListEvidence(context.Background(), "rl1")
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, model.ClaimName, claims[0].ClaimType)
	assert.Equal(t, model.ClaimPhone, claims[1].ClaimType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMatch(t *testing.T) {
	mock, store := newMockAuditStore(t)
	businessID := "b1"
	mock.ExpectQuery("SELECT .+ FROM lead_matches WHERE raw_lead_id =").
		WithArgs("rl1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "raw_lead_id", "business_id", "match_score", "match_strategy", "created_at",
		}).AddRow("m1", "rl1", &businessID, 0.95, "domain", time.Now()))

	m, err := store.GetMatch(context.Background(), "rl1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, model.MatchDomain, m.MatchStrategy)
	assert.InDelta(t, 0.95, m.MatchScore, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr[T any](v T) *T { return &v }
