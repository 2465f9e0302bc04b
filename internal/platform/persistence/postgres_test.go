package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*PostgresDB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresDBFromPool(logger, mock), mock
}

func TestPostgresDB_Pool(t *testing.T) {
	db, mock := newTestDB(t)
	defer mock.Close()

	assert.Equal(t, mock, db.Pool(), "Pool() should return the wrapped pool")
}

func TestPostgresDB_ExecuteTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newTestDB(t)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE register_balances").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := db.ExecuteTx(context.Background(), func(tx pgx.Tx) error {
			_, err := tx.Exec(context.Background(), "UPDATE register_balances SET investment = 1")
			return err
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newTestDB(t)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.ExecuteTx(context.Background(), func(pgx.Tx) error { return boom })

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newTestDB(t)
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("no connection"))

		err := db.ExecuteTx(context.Background(), func(pgx.Tx) error { return nil })

		assert.ErrorContains(t, err, "failed to begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and re-panics", func(t *testing.T) {
		db, mock := newTestDB(t)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = db.ExecuteTx(context.Background(), func(pgx.Tx) error { panic("bad") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
