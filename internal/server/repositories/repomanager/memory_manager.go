package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/elibrary/internal/server/repositories/accounts"
)

// MemoryRepositoryManager keeps accounts in process memory. Data is lost on
// restart.
type MemoryRepositoryManager struct {
	repo *accounts.MemoryRepository
	txMu sync.Mutex
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: accounts.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Accounts() accounts.Repository {
	return m.repo
}

// WithTx serialises fn against other WithTx calls. Writes made before an
// error are not undone.
func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
