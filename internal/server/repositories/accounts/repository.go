// Package accounts stores account records. Repository is implemented over
// SQL (Postgres, MySQL, SQLite), an S3 bucket and process memory.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/server/models"
	"github.com/google/uuid"
)

// Repository is the account store.
//
// Lookups return common.ErrorNotFound when nothing matches and
// common.ErrInvalidID for an id that is not a UUID. Writes that would give
// an email a second verified account return common.ErrDuplicate.
type Repository interface {
	// Create assigns an id and timestamps and inserts a.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	// Update replaces the stored record with a and refreshes UpdatedAt.
	Update(ctx context.Context, a *models.Account) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	FindVerifiedByEmail(ctx context.Context, email string) (*models.Account, error)
	// ListUnverifiedByEmail returns the unverified records for email,
	// most recent first.
	ListUnverifiedByEmail(ctx context.Context, email string) ([]*models.Account, error)
}

var newID = func() string {
	return uuid.NewString()
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrInvalidID
	}
	return nil
}
