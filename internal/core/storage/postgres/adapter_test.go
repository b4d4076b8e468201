package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/winestats/internal/core/storage"
)

func newTestAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(queryArtifactsTableExists)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectPrepare(regexp.QuoteMeta(queryGetArtifact))
	mock.ExpectPrepare(regexp.QuoteMeta(queryPutArtifact))

	adapter, err := NewAdapter(db)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return adapter, mock
}

func TestAdapter_Get(t *testing.T) {
	tests := []struct {
		name       string
		mockResult func(mock sqlmock.Sqlmock)
		assertions func(t *testing.T, body []byte, err error)
	}{
		{
			name: "found returns body",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryGetArtifact)).
					WithArgs("high_quality_average.json").
					WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow([]byte(`{"high_average_quality":7.5}`)))
			},
			assertions: func(t *testing.T, body []byte, err error) {
				require.NoError(t, err)
				require.JSONEq(t, `{"high_average_quality":7.5}`, string(body))
			},
		},
		{
			name: "no rows maps to ErrNotFound",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryGetArtifact)).
					WithArgs("high_quality_average.json").
					WillReturnRows(sqlmock.NewRows([]string{"body"}))
			},
			assertions: func(t *testing.T, body []byte, err error) {
				require.ErrorIs(t, err, storage.ErrNotFound)
				require.Nil(t, body)
			},
		},
		{
			name: "query error is wrapped",
			mockResult: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(queryGetArtifact)).
					WithArgs("high_quality_average.json").
					WillReturnError(errors.New("connection reset"))
			},
			assertions: func(t *testing.T, body []byte, err error) {
				require.Error(t, err)
				require.NotErrorIs(t, err, storage.ErrNotFound)
				require.Contains(t, err.Error(), "connection reset")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock := newTestAdapter(t)
			tc.mockResult(mock)

			body, err := adapter.Get(context.Background(), "high_quality_average.json")
			tc.assertions(t, body, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_Put(t *testing.T) {
	adapter, mock := newTestAdapter(t)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	adapter.nowFn = func() time.Time { return now }

	mock.ExpectExec(regexp.QuoteMeta(queryPutArtifact)).
		WithArgs("low_quality_average.json", []byte(`{"low_average_quality":2.5}`), storage.ContentTypeJSON, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Put(context.Background(), "low_quality_average.json", []byte(`{"low_average_quality":2.5}`), storage.ContentTypeJSON)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewAdapter_MissingTableFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryArtifactsTableExists)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = NewAdapter(db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you run migrations")
}

func TestAdapter_CloseJoinsErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(queryArtifactsTableExists)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectPrepare(regexp.QuoteMeta(queryGetArtifact)).WillBeClosed()
	mock.ExpectPrepare(regexp.QuoteMeta(queryPutArtifact)).WillBeClosed()
	mock.ExpectClose().WillReturnError(errors.New("db close failed"))

	adapter, err := NewAdapter(db)
	require.NoError(t, err)

	err = adapter.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "db close failed")
	require.NoError(t, mock.ExpectationsWereMet())
}
