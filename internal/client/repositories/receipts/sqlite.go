package receipts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/models"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `id, fid, name, path, owner, merkle_root, size, encrypted, tx_hash, uploaded_at`

func (r *SQLiteRepository) Save(ctx context.Context, rc *models.Receipt) error {

	query := `INSERT INTO receipts (` + columns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(fid) DO UPDATE SET
				id = excluded.id,
				name = excluded.name,
				path = excluded.path,
				owner = excluded.owner,
				merkle_root = excluded.merkle_root,
				size = excluded.size,
				encrypted = excluded.encrypted,
				tx_hash = excluded.tx_hash,
				uploaded_at = excluded.uploaded_at
	`
	_, err := r.db.ExecContext(ctx, query, rc.ID, rc.FID, rc.Name, rc.Path, rc.Owner, rc.MerkleRoot,
		rc.Size, rc.Encrypted, rc.TxHash, rc.UploadedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(s scanner) (*models.Receipt, error) {
	rc := &models.Receipt{}
	var uploadedAt int64
	err := s.Scan(&rc.ID, &rc.FID, &rc.Name, &rc.Path, &rc.Owner, &rc.MerkleRoot,
		&rc.Size, &rc.Encrypted, &rc.TxHash, &uploadedAt)
	if err != nil {
		return nil, err
	}
	rc.UploadedAt = time.UnixMilli(uploadedAt).UTC()
	return rc, nil
}

func (r *SQLiteRepository) GetByFID(ctx context.Context, fid string) (*models.Receipt, error) {

	query := `SELECT ` + columns + ` FROM receipts WHERE fid = ?`
	rc, err := scanReceipt(r.db.QueryRowContext(ctx, query, fid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	return rc, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Receipt, error) {

	query := `SELECT ` + columns + ` FROM receipts ORDER BY uploaded_at DESC, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting receipts: %w", err)
	}
	defer rows.Close()

	var result []*models.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
