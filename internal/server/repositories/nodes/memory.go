package nodes

import (
	"context"
	"maps"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

type key struct{ owner, path string }

// MemoryRepository is the map-backed tree used when the node runs without
// a database. Callers serialize access.
type MemoryRepository struct {
	items map[key]models.Node
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[key]models.Node)}
}

func (r *MemoryRepository) Clone() *MemoryRepository {
	return &MemoryRepository{items: maps.Clone(r.items)}
}

func (r *MemoryRepository) Upsert(_ context.Context, node *models.Node) error {
	r.items[key{node.Owner, node.Path}] = *node
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, owner, path string) (*models.Node, error) {
	n, ok := r.items[key{owner, path}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &n, nil
}

func (r *MemoryRepository) Delete(_ context.Context, owner, path string) error {
	k := key{owner, path}
	if _, ok := r.items[k]; !ok {
		return common.ErrorNotFound
	}
	delete(r.items, k)
	return nil
}
