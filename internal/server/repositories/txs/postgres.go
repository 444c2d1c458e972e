package txs

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

func (r *PostgresRepository) Save(ctx context.Context, tx *models.Tx) error {

	query :=
		`INSERT INTO txs (hash, code, raw_log, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash) DO NOTHING
		RETURNING height
		`

	err := r.db.QueryRowContext(ctx, query, tx.Hash, int64(tx.Code), tx.RawLog, tx.CreatedAt).Scan(&tx.Height)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByHash(ctx context.Context, hash string) (*models.Tx, error) {
	query :=
		`SELECT hash, height, code, raw_log, created_at FROM txs
		WHERE hash = $1
		`

	var (
		tx   models.Tx
		code int64
	)
	err := r.db.QueryRowContext(ctx, query, hash).Scan(&tx.Hash, &tx.Height, &code, &tx.RawLog, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	tx.Code = uint32(code)
	return &tx, nil
}
