package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/dbx"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, node *models.Node) error {

	query :=
		`INSERT INTO nodes (owner, path, node_type, contents, tx_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner, path)
		DO UPDATE SET
			node_type = EXCLUDED.node_type,
			contents = EXCLUDED.contents,
			tx_hash = EXCLUDED.tx_hash,
			updated_at = EXCLUDED.updated_at
		`

	_, err := r.db.ExecContext(ctx, query, node.Owner, node.Path, node.NodeType, node.Contents, node.TxHash, node.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, owner, path string) (*models.Node, error) {
	query :=
		`SELECT owner, path, node_type, contents, tx_hash, updated_at FROM nodes
		WHERE owner = $1 AND path = $2
		`

	n := &models.Node{}
	err := r.db.QueryRowContext(ctx, query, owner, path).Scan(&n.Owner, &n.Path, &n.NodeType, &n.Contents, &n.TxHash, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, owner, path string) error {
	query := `DELETE FROM nodes WHERE owner = $1 AND path = $2`

	res, err := r.db.ExecContext(ctx, query, owner, path)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RequireAffected(res, 1)
}
