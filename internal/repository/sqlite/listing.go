package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/model"
	"github.com/otabek/ijara/internal/repository"
)

// compile-time check that *ListingRepo implements repository.ListingRepository
var _ repository.ListingRepository = (*ListingRepo)(nil)

// ListingRepo provides listing persistence on a shared connection pool.
// Obtain one from DB.Listings.
type ListingRepo struct {
	conn *sql.DB
}

const listingColumns = `id, telegram_id, city, district, address, rent, deposit,
	floor, rooms, description, phone, roommate, images, created_at`

// Create inserts a new listing. The ID (an xid — 20 URL-safe characters,
// sortable by creation time) and CreatedAt are assigned here and written
// back to the caller's struct through the pointer.
func (r *ListingRepo) Create(ctx context.Context, listing *model.Listing) error {
	listing.ID = xid.New().String()
	listing.CreatedAt = time.Now()

	images, err := json.Marshal(listing.Images)
	if err != nil {
		return fmt.Errorf("sqlite: encoding image urls: %w", err)
	}

	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO houses (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID,
		listing.TelegramID,
		listing.City,
		listing.District,
		listing.Address,
		listing.Rent,
		listing.Deposit,
		listing.Floor,
		listing.Rooms,
		listing.Description,
		listing.Contact.Phone,
		listing.Roommate,
		string(images),
		listing.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating listing: %w", err)
	}

	return nil
}

// GetByID retrieves a single listing. sql.ErrNoRows is translated to the
// domain's NotFound error so the handler can answer 404.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM houses WHERE id = ?`, id)

	listing, err := scanListing(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("listing", id)
		}
		return nil, fmt.Errorf("sqlite: getting listing %s: %w", id, err)
	}
	return listing, nil
}

// ListAll returns every listing, newest first. The id is a creation-time
// sortable xid, so it doubles as a deterministic tiebreak for rows created
// within the same timestamp granule.
func (r *ListingRepo) ListAll(ctx context.Context) ([]model.Listing, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM houses
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing houses: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

// ListByOwner returns the owner's listings, newest first.
func (r *ListingRepo) ListByOwner(ctx context.Context, telegramID int64) ([]model.Listing, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM houses
		 WHERE telegram_id = ?
		 ORDER BY created_at DESC, id DESC`,
		telegramID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing houses for owner %d: %w", telegramID, err)
	}
	defer rows.Close()

	return collectListings(rows)
}

// DeleteOwned removes a listing only when both the id and the owner match.
// A zero rows-affected count means either the listing does not exist or it
// belongs to someone else; both cases answer NotFound, deliberately not
// revealing which.
func (r *ListingRepo) DeleteOwned(ctx context.Context, id string, telegramID int64) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM houses WHERE id = ? AND telegram_id = ?`,
		id, telegramID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting listing %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("listing", id)
	}

	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (*model.Listing, error) {
	var (
		listing model.Listing
		images  string
	)
	err := s.Scan(
		&listing.ID,
		&listing.TelegramID,
		&listing.City,
		&listing.District,
		&listing.Address,
		&listing.Rent,
		&listing.Deposit,
		&listing.Floor,
		&listing.Rooms,
		&listing.Description,
		&listing.Contact.Phone,
		&listing.Roommate,
		&images,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &listing.Images); err != nil {
		return nil, fmt.Errorf("decoding image urls of %s: %w", listing.ID, err)
	}
	return &listing, nil
}

func collectListings(rows *sql.Rows) ([]model.Listing, error) {
	listings := []model.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning listing row: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating listings: %w", err)
	}
	return listings, nil
}
