package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockPostgresKV(t *testing.T) (sqlmock.Sqlmock, *PostgresKV, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	kv := NewPostgresKV(db)
	kv.now = func() time.Time { return now }
	return mock, kv, now
}

func TestPostgresKV_Get(t *testing.T) {
	mock, kv, now := setupMockPostgresKV(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT value FROM cxr_kv`).
		WithArgs("cxr:session:a", now).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"session_id":"a"}`))
	v, err := kv.Get(ctx, "cxr:session:a")
	require.NoError(t, err)
	assert.Equal(t, `{"session_id":"a"}`, v)

	mock.ExpectQuery(`SELECT value FROM cxr_kv`).
		WithArgs("cxr:session:gone", now).
		WillReturnError(sql.ErrNoRows)
	_, err = kv.Get(ctx, "cxr:session:gone")
	assert.ErrorIs(t, err, ErrMiss)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT value FROM cxr_kv`).
		WithArgs("cxr:session:b", now).
		WillReturnError(boom)
	_, err = kv.Get(ctx, "cxr:session:b")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMiss)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_SetUpsertsWithExpiry(t *testing.T) {
	mock, kv, now := setupMockPostgresKV(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO cxr_kv .* ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("cxr:session:a", "v1", now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, kv.Set(ctx, "cxr:session:a", "v1", time.Hour))

	mock.ExpectExec(`INSERT INTO cxr_kv`).
		WithArgs("forever", "v2", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, kv.Set(ctx, "forever", "v2", 0))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_DeleteAndPurge(t *testing.T) {
	mock, kv, now := setupMockPostgresKV(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM cxr_kv WHERE key = \$1`).
		WithArgs("cxr:session:a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, kv.Delete(ctx, "cxr:session:a"))

	mock.ExpectExec(`DELETE FROM cxr_kv WHERE expires_at IS NOT NULL`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := kv.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_ScanKeys(t *testing.T) {
	mock, kv, now := setupMockPostgresKV(t)

	mock.ExpectQuery(`SELECT key FROM cxr_kv WHERE key LIKE`).
		WithArgs(`cxr:session:%`, now).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("cxr:session:a").AddRow("cxr:session:b"))

	keys, err := kv.ScanKeys(context.Background(), "cxr:session:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"cxr:session:a", "cxr:session:b"}, keys)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_EnsureSchema(t *testing.T) {
	mock, kv, _ := setupMockPostgresKV(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS cxr_kv`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, kv.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobToLike(t *testing.T) {
	assert.Equal(t, `cxr:session:%`, globToLike("cxr:session:*"))
	assert.Equal(t, `a\_b\%c_`, globToLike("a_b%c?"))
	assert.Equal(t, `x\\y`, globToLike(`x\y`))
}

func TestPostgresOptions_DSN(t *testing.T) {
	opts := PostgresOptions{Host: "db", Port: 5432, User: "cxr", Password: "pw", Database: "cxr", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=cxr password=pw dbname=cxr sslmode=disable", opts.DSN())
}
