package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/atlaskeeper/internal/dbx"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresRepositoryManager struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func (m *PostgresRepositoryManager) bind(conn dbx.DBTX) Repos {
	return Repos{
		Files: m.repos.Files(conn),
		Nodes: m.repos.Nodes(conn),
		Txs:   m.repos.Txs(conn),
	}
}

func (m *PostgresRepositoryManager) View(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return fn(ctx, m.bind(m.db))
}

func (m *PostgresRepositoryManager) Atomic(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, m.bind(tx))
	})
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager opens dsn with the pgx driver and migrates
// the schema.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m, err := newPostgresRepositoryManager(ctx, conn, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		conn.Close()
		return nil, err
	}
	return m, nil
}

func newPostgresRepositoryManager(ctx context.Context, conn *sql.DB, repos repomanager.RepositoryManager) (*PostgresRepositoryManager, error) {
	if err := repos.RunMigrations(ctx, conn); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return &PostgresRepositoryManager{db: conn, repos: repos}, nil
}
