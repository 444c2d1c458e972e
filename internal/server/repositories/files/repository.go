// Package files stores storage registrations made by MsgPostFile.
package files

import (
	"context"

	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrorAlreadyExists when the fid is taken.
	Create(ctx context.Context, file *models.File) error
	GetByFID(ctx context.Context, fid string) (*models.File, error)
	MarkUploaded(ctx context.Context, fid string) error
}
