package review

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graph-directory/directory-cli/internal/model"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresStore(mock)
}

func suggestionRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "business_id", "raw_lead_id", "field_name", "current_value",
		"suggested_value", "confidence", "status", "created_at", "reviewed_at", "reviewed_by",
	})
}

func TestStoreGet(t *testing.T) {
	mock, store := newMockStore(t)
	current := "https://old.example"
	mock.ExpectQuery("SELECT .+ FROM suggested_updates WHERE id =").
		WithArgs("s1").
		WillReturnRows(suggestionRows().
			AddRow("s1", "b1", "rl1", "website", &current,
				"https://apex.com.au", 0.85, "pending", time.Now(), nil, nil))

	sug, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, sug)
	assert.Equal(t, model.ReviewPending, sug.Status)
	assert.Equal(t, "website", sug.FieldName)
	require.NotNil(t, sug.CurrentValue)
	assert.Equal(t, "https://old.example", *sug.CurrentValue)
	assert.Nil(t, sug.ReviewedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGet_Absent(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectQuery("SELECT .+ FROM suggested_updates WHERE id =").
		WithArgs("missing").
		WillReturnRows(suggestionRows())

	sug, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, sug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreList_Pending(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectQuery("SELECT .+ FROM suggested_updates WHERE status = .+ ORDER BY created_at DESC LIMIT").
		WithArgs("pending", 25).
		WillReturnRows(suggestionRows().
			AddRow("s2", "b1", "rl2", "phone", nil, "+61412345678", 0.85, "pending", time.Now(), nil, nil).
			AddRow("s1", "b1", "rl1", "website", nil, "https://apex.com.au", 0.85, "pending", time.Now(), nil, nil))

	out, err := store.List(context.Background(), model.ReviewPending, 25)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "s2", out[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMarkReviewed_GuardsPending(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectExec(`UPDATE suggested_updates\s+SET status = .+ WHERE id = .+ AND status = 'pending'`).
		WithArgs("approved", "admin", "s1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.MarkReviewed(context.Background(), "s1", model.ReviewApproved, "admin"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMarkReviewed_AlreadyReviewed(t *testing.T) {
	mock, store := newMockStore(t)
	mock.ExpectExec("UPDATE suggested_updates").
		WithArgs("rejected", "admin", "s1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.MarkReviewed(context.Background(), "s1", model.ReviewRejected, "admin")
	assert.True(t, eris.Is(err, ErrAlreadyReviewed))
	assert.NoError(t, mock.ExpectationsWereMet())
}
