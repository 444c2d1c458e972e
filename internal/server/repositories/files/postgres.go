package files

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

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {

	query :=
		`INSERT INTO files (fid, creator, merkle, file_size, replicas, subscription, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (fid) DO NOTHING
		`

	res, err := r.db.ExecContext(ctx, query, file.FID, file.Creator, file.Merkle, file.FileSize,
		file.Replicas, file.Subscription, file.TxHash, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorAlreadyExists
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) GetByFID(ctx context.Context, fid string) (*models.File, error) {
	query :=
		`SELECT fid, creator, merkle, file_size, replicas, subscription, tx_hash, created_at, uploaded FROM files
		WHERE fid = $1
		`

	f := &models.File{}
	err := r.db.QueryRowContext(ctx, query, fid).Scan(&f.FID, &f.Creator, &f.Merkle, &f.FileSize,
		&f.Replicas, &f.Subscription, &f.TxHash, &f.CreatedAt, &f.Uploaded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return f, nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, fid string) error {

	query := `UPDATE files SET uploaded = true WHERE fid = $1`
	res, err := r.db.ExecContext(ctx, query, fid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return dbx.RequireAffected(res, 1)
}
