package db

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/repositories/txs"
)

// InMemoryRepositoryManager serializes every call. Atomic works on clones of
// the repositories and swaps them in when fn succeeds.
type InMemoryRepositoryManager struct {
	mu    sync.Mutex
	files *files.MemoryRepository
	nodes *nodes.MemoryRepository
	txs   *txs.MemoryRepository
}

func (m *InMemoryRepositoryManager) View(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, Repos{Files: m.files, Nodes: m.nodes, Txs: m.txs})
}

func (m *InMemoryRepositoryManager) Atomic(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, n, t := m.files.Clone(), m.nodes.Clone(), m.txs.Clone()
	if err := fn(ctx, Repos{Files: f, Nodes: n, Txs: t}); err != nil {
		return err
	}
	m.files, m.nodes, m.txs = f, n, t
	return nil
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{
		files: files.NewMemoryRepository(),
		nodes: nodes.NewMemoryRepository(),
		txs:   txs.NewMemoryRepository(),
	}
}
