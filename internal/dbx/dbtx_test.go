package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openRegistry returns a private in-memory database with a files table.
func openRegistry(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE files (fid TEXT PRIMARY KEY, file_size INTEGER NOT NULL)`)
	require.NoError(t, err)
	return db
}

func registered(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&n))
	return n
}

func register(ctx context.Context, tx DBTX, fid string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO files (fid, file_size) VALUES (?, 1)`, fid)
	return err
}

func TestWithTx_CommitsEveryStatement(t *testing.T) {
	db := openRegistry(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := register(ctx, tx, "f1"); err != nil {
			return err
		}
		return register(ctx, tx, "f2")
	})
	require.NoError(t, err)
	require.Equal(t, 2, registered(t, db))
}

func TestWithTx_RollsBackWhenALaterStatementFails(t *testing.T) {
	db := openRegistry(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, register(ctx, tx, "f1"))
		return register(ctx, tx, "f1")
	})
	require.Error(t, err, "duplicate fid violates the primary key")
	require.Equal(t, 0, registered(t, db), "the first insert is discarded too")
}

func TestWithTx_RollsBackOnCallbackError(t *testing.T) {
	db := openRegistry(t)
	sentinel := errors.New("message 1 failed")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, register(ctx, tx, "f1"))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 0, registered(t, db))
}

func TestWithTx_RollsBackAndRepanics(t *testing.T) {
	db := openRegistry(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, registered(t, db))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, register(ctx, tx, "f1"))
		panic("apply crashed")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := openRegistry(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}

func TestRequireAffected(t *testing.T) {
	require.NoError(t, RequireAffected(sqlmock.NewResult(0, 1), 1))
	require.ErrorIs(t, RequireAffected(sqlmock.NewResult(0, 0), 1), common.ErrorNotFound)
	require.ErrorContains(t, RequireAffected(sqlmock.NewResult(0, 3), 1), "unexpected rows affected: 3")
	require.ErrorContains(t, RequireAffected(sqlmock.NewErrorResult(errors.New("boom")), 1), "boom")
}

func TestRequireAffected_RealUpdate(t *testing.T) {
	db := openRegistry(t)
	require.NoError(t, register(context.Background(), db, "f1"))

	res, err := db.Exec(`UPDATE files SET file_size = 2 WHERE fid = ?`, "f1")
	require.NoError(t, err)
	require.NoError(t, RequireAffected(res, 1))

	res, err = db.Exec(`UPDATE files SET file_size = 2 WHERE fid = ?`, "missing")
	require.NoError(t, err)
	require.ErrorIs(t, RequireAffected(res, 1), common.ErrorNotFound)
}
