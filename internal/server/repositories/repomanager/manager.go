// Package repomanager owns the account store connection for each supported
// backend and exposes repositories, transactions and schema migrations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/elibrary/internal/server/repositories/accounts"
)

// RepositoryManager vends the account repository for one storage backend.
type RepositoryManager interface {
	Accounts() accounts.Repository
	// WithTx runs fn against a repository whose writes commit together.
	// Backends without transactions run fn directly.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error
	// RunMigrations prepares the backend schema or bucket.
	RunMigrations(ctx context.Context) error
	Close() error
}
