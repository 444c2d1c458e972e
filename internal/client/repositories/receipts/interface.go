package receipts

import (
	"context"

	"github.com/dmitrijs2005/atlaskeeper/internal/client/models"
)

// Repository stores upload receipts.
type Repository interface {
	// Save inserts r, or replaces the receipt with the same FID.
	Save(ctx context.Context, r *models.Receipt) error

	// GetByFID returns common.ErrorNotFound when no receipt exists.
	GetByFID(ctx context.Context, fid string) (*models.Receipt, error)

	// List returns all receipts, newest first.
	List(ctx context.Context) ([]*models.Receipt, error)
}
