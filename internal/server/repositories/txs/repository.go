// Package txs records transaction outcomes. Heights are assigned in
// insertion order starting at 1.
package txs

import (
	"context"

	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

type Repository interface {
	// Save stores tx and fills in its height. A hash that is already
	// recorded yields common.ErrorAlreadyExists.
	Save(ctx context.Context, tx *models.Tx) error
	GetByHash(ctx context.Context, hash string) (*models.Tx, error)
}
