package nodes

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

const (
	upsertQ = `(?s)^INSERT\s+INTO\s+nodes\b.*ON\s+CONFLICT\s*\(owner,\s*path\)\s*DO\s+UPDATE\s+SET\b.*updated_at\s*=\s*EXCLUDED\.updated_at\s*$`
	getQ    = `(?s)^SELECT\s+owner,.*FROM\s+nodes\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+path\s*=\s*\$2\s*$`
	deleteQ = `^DELETE\s+FROM\s+nodes\s+WHERE\s+owner\s*=\s*\$1\s+AND\s+path\s*=\s*\$2$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleNode() *models.Node {
	return &models.Node{
		Owner:     "atl1owner",
		Path:      "home/jklf1abc",
		NodeType:  "file",
		Contents:  `{"fid":"jklf1abc"}`,
		TxHash:    "ABCD",
		UpdatedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestUpsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n := sampleNode()
	mock.ExpectExec(upsertQ).
		WithArgs(n.Owner, n.Path, n.NodeType, n.Contents, n.TxHash, n.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(upsertQ).WillReturnError(errors.New("db down"))

	err := repo.Upsert(context.Background(), sampleNode())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n := sampleNode()
	rows := sqlmock.NewRows([]string{"owner", "path", "node_type", "contents", "tx_hash", "updated_at"}).
		AddRow(n.Owner, n.Path, n.NodeType, n.Contents, n.TxHash, n.UpdatedAt)
	mock.ExpectQuery(getQ).WithArgs(n.Owner, n.Path).WillReturnRows(rows)

	got, err := repo.Get(context.Background(), n.Owner, n.Path)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Contents != n.Contents || got.NodeType != "file" {
		t.Fatalf("unexpected node: %+v", got)
	}

	mock.ExpectQuery(getQ).WithArgs(n.Owner, "nope").WillReturnError(sql.ErrNoRows)
	if _, err := repo.Get(context.Background(), n.Owner, "nope"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).WithArgs("o", "p").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), "o", "p"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(deleteQ).WithArgs("o", "missing").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), "o", "missing"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
