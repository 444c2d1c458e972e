package files

import (
	"context"
	"maps"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

// MemoryRepository keeps registrations in a map. It is not safe for
// concurrent use; callers serialize access.
type MemoryRepository struct {
	items map[string]models.File
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.File)}
}

// Clone returns an independent copy for copy-on-write transactions.
func (r *MemoryRepository) Clone() *MemoryRepository {
	return &MemoryRepository{items: maps.Clone(r.items)}
}

func (r *MemoryRepository) Create(_ context.Context, file *models.File) error {
	if _, ok := r.items[file.FID]; ok {
		return common.ErrorAlreadyExists
	}
	r.items[file.FID] = *file
	return nil
}

func (r *MemoryRepository) GetByFID(_ context.Context, fid string) (*models.File, error) {
	f, ok := r.items[fid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r *MemoryRepository) MarkUploaded(_ context.Context, fid string) error {
	f, ok := r.items[fid]
	if !ok {
		return common.ErrorNotFound
	}
	f.Uploaded = true
	r.items[fid] = f
	return nil
}
