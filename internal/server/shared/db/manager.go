// Package db hands the node's services a consistent set of repositories,
// either backed by PostgreSQL or held in memory.
package db

import (
	"context"

	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/txs"
)

// Repos is one consistent view of the registry.
type Repos struct {
	Files files.Repository
	Nodes nodes.Repository
	Txs   txs.Repository
}

type RepositoryManager interface {
	// View runs fn against the current state.
	View(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	// Atomic runs fn in a transaction that commits only when fn returns nil.
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	Close() error
}
