// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/otabek/ijara/internal/model"
)

// ListingRepository stores rental listings.
//
// There is deliberately no server-side filter query: the browse screen
// fetches the full set (newest first) and filters in memory, which keeps
// the facet derivation and the filter predicates in one place and matches
// the data volume this app actually sees.
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)

	// ListAll returns every listing ordered by creation time descending.
	ListAll(ctx context.Context) ([]model.Listing, error)

	// ListByOwner returns the owner's listings, newest first.
	ListByOwner(ctx context.Context, telegramID int64) ([]model.Listing, error)

	// DeleteOwned deletes the listing only if both the id AND the owner
	// match, so a forged id cannot remove somebody else's posting.
	// Returns apperror.ErrNotFound when nothing matched.
	DeleteOwned(ctx context.Context, id string, telegramID int64) error
}

// UserRepository stores the lazily created owner records.
type UserRepository interface {
	// GetByTelegramID returns apperror.ErrNotFound when no record exists —
	// for the submission workflow that outcome is expected, not an error.
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}
