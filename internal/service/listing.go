// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// The service receives interfaces (repository.ListingRepository,
// storage.ObjectStore), never concrete types, so tests inject in-memory
// fakes and the HTTP layer stays out of business decisions entirely.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rs/xid"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/imagebatch"
	"github.com/otabek/ijara/internal/model"
	"github.com/otabek/ijara/internal/repository"
	"github.com/otabek/ijara/internal/storage"
)

// Owner is the resolved identity submitting or managing listings. The
// handler builds it from the verified session — the service never touches
// tokens or initData.
type Owner struct {
	TelegramID int64
	Username   string
	FullName   string
}

// Filter is the browse screen's filter state. String-typed price bounds
// mirror the inputs: blank means unbounded on that side. City and district
// use "all" (or blank) as the no-filter sentinel.
type Filter struct {
	City         string
	District     string
	MinPrice     string
	MaxPrice     string
	RoommateOnly bool
}

// BrowseResult is the browse screen's data: the filtered listings plus the
// facet values derived from the full fetched set. Facets come from the
// data, not the location catalog — a city with no listings is not a useful
// filter option.
type BrowseResult struct {
	Listings  []model.Listing `json:"listings"`
	Cities    []string        `json:"cities"`
	Districts []string        `json:"districts"`
}

// ListingService orchestrates listing submission, browsing and management.
type ListingService struct {
	listings repository.ListingRepository
	users    repository.UserRepository
	store    storage.ObjectStore
	logger   *slog.Logger
}

func NewListingService(
	listings repository.ListingRepository,
	users repository.UserRepository,
	store storage.ObjectStore,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		listings: listings,
		users:    users,
		store:    store,
		logger:   logger,
	}
}

// Browse fetches all listings (newest first), derives the filter facets
// from the full set and applies the filter in memory. Fetching everything
// and filtering here keeps facet derivation and filtering consistent; at
// this app's data volume that is the right trade.
func (s *ListingService) Browse(ctx context.Context, f Filter) (*BrowseResult, error) {
	all, err := s.listings.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list houses", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing houses: %w", err)
	}

	cities, districts := facets(all)

	return &BrowseResult{
		Listings:  applyFilter(all, f),
		Cities:    cities,
		Districts: districts,
	}, nil
}

// Get retrieves one listing by id. The id must be shaped like an xid —
// anything else is rejected before the database is consulted, so junk
// route parameters never turn into queries.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	if _, err := xid.FromString(id); err != nil {
		return nil, apperror.ValidationFailed("id", fmt.Sprintf("malformed listing id %q", id))
	}
	return s.listings.GetByID(ctx, id)
}

// ListOwned returns the owner's listings for the management screen.
func (s *ListingService) ListOwned(ctx context.Context, telegramID int64) ([]model.Listing, error) {
	listings, err := s.listings.ListByOwner(ctx, telegramID)
	if err != nil {
		s.logger.Error("failed to list owned houses",
			slog.Int64("telegramId", telegramID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing owned houses: %w", err)
	}
	return listings, nil
}

// DeleteOwned removes one of the owner's listings. The repository
// constrains the delete by both id and owner, so a forged id belonging to
// someone else comes back as NotFound.
func (s *ListingService) DeleteOwned(ctx context.Context, id string, telegramID int64) error {
	if _, err := xid.FromString(id); err != nil {
		return apperror.ValidationFailed("id", fmt.Sprintf("malformed listing id %q", id))
	}
	if err := s.listings.DeleteOwned(ctx, id, telegramID); err != nil {
		return err
	}
	s.logger.Info("listing deleted",
		slog.String("id", id),
		slog.Int64("telegramId", telegramID),
	)
	return nil
}

// Submit runs the submission workflow. Stages execute strictly in order
// and the first failure aborts everything after it:
//
//  1. precondition — draft complete and owner resolved; nothing is
//     touched otherwise
//  2. owner lookup — "no user yet" is expected, any other failure aborts
//  3. lazy owner creation
//  4. sequential image upload
//  5. coercion of the string-typed draft into the listing shape
//  6. insert
//
// Images uploaded before a later stage fails stay in the bucket; there is
// deliberately no compensating delete (the orphans are harmless and a
// delete pass can itself fail halfway).
func (s *ListingService) Submit(ctx context.Context, owner Owner, draft model.ListingDraft, images *imagebatch.Batch) (*model.Listing, error) {
	// stage 1: preconditions
	if owner.TelegramID == 0 || !draft.Complete() {
		return nil, apperror.ValidationFailed("", "fill in city, district and address first")
	}

	// stage 2: does the owner's user record exist yet?
	_, err := s.users.GetByTelegramID(ctx, owner.TelegramID)
	switch {
	case err == nil:
		// known owner, move on
	case errors.Is(err, apperror.ErrNotFound):
		// stage 3: first submission — create the record now
		user := &model.User{
			TelegramID: owner.TelegramID,
			Username:   owner.Username,
			FullName:   strings.TrimSpace(owner.FullName),
		}
		if err := s.users.Create(ctx, user); err != nil {
			s.logger.Error("failed to create user",
				slog.Int64("telegramId", owner.TelegramID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("creating user: %w", err)
		}
		s.logger.Info("user created", slog.Int64("telegramId", owner.TelegramID))
	default:
		s.logger.Error("failed to look up user",
			slog.Int64("telegramId", owner.TelegramID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	// stage 4: upload images one by one, in display order
	urls, err := images.Upload(ctx, s.store, owner.TelegramID)
	if err != nil {
		s.logger.Error("image upload failed",
			slog.Int64("telegramId", owner.TelegramID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	// stage 5: coerce the draft into the persisted shape
	listing, err := coerceDraft(owner.TelegramID, draft, urls)
	if err != nil {
		return nil, err
	}

	// stage 6: insert
	if err := s.listings.Create(ctx, listing); err != nil {
		s.logger.Error("failed to create listing",
			slog.Int64("telegramId", owner.TelegramID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating listing: %w", err)
	}

	s.logger.Info("listing created",
		slog.String("id", listing.ID),
		slog.Int64("telegramId", listing.TelegramID),
		slog.String("city", listing.City),
		slog.Int("images", len(listing.Images)),
	)

	return listing, nil
}

// coerceDraft turns the string-typed draft into a model.Listing. Numeric
// fields parse blank as zero; anything else non-numeric is a validation
// error reported by field name, never a silent zero.
func coerceDraft(telegramID int64, draft model.ListingDraft, images []string) (*model.Listing, error) {
	rent, err := parseAmount("rent", draft.Rent)
	if err != nil {
		return nil, err
	}
	deposit, err := parseAmount("deposit", draft.Deposit)
	if err != nil {
		return nil, err
	}
	floor, err := parseCount("floor", draft.Floor)
	if err != nil {
		return nil, err
	}
	rooms, err := parseCount("rooms", draft.Rooms)
	if err != nil {
		return nil, err
	}

	if rent < 0 {
		return nil, apperror.ValidationFailed("rent", "rent cannot be negative")
	}
	if deposit < 0 {
		return nil, apperror.ValidationFailed("deposit", "deposit cannot be negative")
	}
	if rooms < 0 {
		return nil, apperror.ValidationFailed("rooms", "room count cannot be negative")
	}
	if len(images) > imagebatch.Cap {
		return nil, apperror.ValidationFailed("images",
			fmt.Sprintf("at most %d images per listing", imagebatch.Cap))
	}

	return &model.Listing{
		TelegramID:  telegramID,
		City:        strings.TrimSpace(draft.City),
		District:    strings.TrimSpace(draft.District),
		Address:     strings.TrimSpace(draft.Address),
		Rent:        rent,
		Deposit:     deposit,
		Floor:       floor,
		Rooms:       rooms,
		Description: strings.TrimSpace(draft.Description),
		Contact:     model.Contact{Phone: strings.TrimSpace(draft.Phone)},
		Roommate:    draft.Roommate,
		Images:      images,
	}, nil
}

func parseAmount(field, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(field, fmt.Sprintf("%s must be a whole number", field))
	}
	return n, nil
}

func parseCount(field, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperror.ValidationFailed(field, fmt.Sprintf("%s must be a whole number", field))
	}
	return n, nil
}

// facets returns the distinct cities and districts present in the data,
// in first-seen (newest-listing-first) order.
func facets(listings []model.Listing) (cities, districts []string) {
	cities = []string{}
	districts = []string{}
	seenCity := map[string]bool{}
	seenDistrict := map[string]bool{}
	for _, l := range listings {
		if !seenCity[l.City] {
			seenCity[l.City] = true
			cities = append(cities, l.City)
		}
		if !seenDistrict[l.District] {
			seenDistrict[l.District] = true
			districts = append(districts, l.District)
		}
	}
	return cities, districts
}

// applyFilter evaluates every filter as an independent predicate, so the
// result is the same whatever order the filters were set in.
func applyFilter(listings []model.Listing, f Filter) []model.Listing {
	minPrice, hasMin := parseBound(f.MinPrice)
	maxPrice, hasMax := parseBound(f.MaxPrice)
	filterCity := f.City != "" && f.City != "all"
	filterDistrict := f.District != "" && f.District != "all"

	out := []model.Listing{}
	for _, l := range listings {
		if filterCity && l.City != f.City {
			continue
		}
		if filterDistrict && l.District != f.District {
			continue
		}
		if hasMin && l.Rent < minPrice {
			continue
		}
		if hasMax && l.Rent > maxPrice {
			continue
		}
		if f.RoommateOnly && !l.Roommate {
			continue
		}
		out = append(out, l)
	}
	return out
}

// parseBound parses a price bound. Blank or unparseable input leaves that
// side unbounded rather than filtering everything out.
func parseBound(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
