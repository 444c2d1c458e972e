package txs

import (
	"context"
	"maps"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

type MemoryRepository struct {
	items  map[string]models.Tx
	height int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.Tx)}
}

func (r *MemoryRepository) Clone() *MemoryRepository {
	return &MemoryRepository{items: maps.Clone(r.items), height: r.height}
}

func (r *MemoryRepository) Save(_ context.Context, tx *models.Tx) error {
	if _, ok := r.items[tx.Hash]; ok {
		return common.ErrorAlreadyExists
	}
	r.height++
	tx.Height = r.height
	r.items[tx.Hash] = *tx
	return nil
}

func (r *MemoryRepository) GetByHash(_ context.Context, hash string) (*models.Tx, error) {
	tx, ok := r.items[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &tx, nil
}
