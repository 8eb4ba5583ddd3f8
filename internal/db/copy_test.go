package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "lead_evidence", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"lead_evidence"}, []string{"claim_type", "claim_value"}).WillReturnResult(3)

	rows := [][]any{{"name", "Apex Plumbing"}, {"phone", "+61412345678"}, {"rating", "4.7"}}
	n, err := CopyFrom(context.Background(), mock, "lead_evidence", []string{"claim_type", "claim_value"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"lead_evidence"}, []string{"claim_type"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"name"}}
	_, err = CopyFrom(context.Background(), mock, "lead_evidence", []string{"claim_type"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO lead_evidence")
	assert.NoError(t, mock.ExpectationsWereMet())
}
