// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/atlaskeeper/internal/dbx"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/migrations"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/txs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Files returns a files.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

// Nodes returns a nodes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Nodes(db dbx.DBTX) nodes.Repository {
	return nodes.NewPostgresRepository(db)
}

// Txs returns a txs.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Txs(db dbx.DBTX) txs.Repository {
	return txs.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
