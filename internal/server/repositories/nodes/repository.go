// Package nodes stores the per-owner file tree written by MsgPostNode and
// MsgDeleteNode.
package nodes

import (
	"context"

	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
)

type Repository interface {
	// Upsert creates the node or replaces the one at the same owner and path.
	Upsert(ctx context.Context, node *models.Node) error
	Get(ctx context.Context, owner, path string) (*models.Node, error)
	Delete(ctx context.Context, owner, path string) error
}
