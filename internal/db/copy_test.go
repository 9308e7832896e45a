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

var _ Pool = (pgxmock.PgxPoolIface)(nil)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "run_classes", []string{"run_id", "class_id"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"run_classes"}, []string{"run_id", "class_id"}).WillReturnResult(3)

	rows := [][]any{{"r1", 10}, {"r1", 30}, {"r1", 50}}
	n, err := CopyFrom(context.Background(), mock, "run_classes", []string{"run_id", "class_id"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"run_classes"}, []string{"run_id"}).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "run_classes", []string{"run_id"}, [][]any{{"r1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO run_classes")
	assert.NoError(t, mock.ExpectationsWereMet())
}
