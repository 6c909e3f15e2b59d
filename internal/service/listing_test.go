package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/imagebatch"
	"github.com/otabek/ijara/internal/model"
)

// =========================================================================
// MOCKS
// =========================================================================
//
// Hand-written fakes for the repository and object-store interfaces. They
// count calls so tests can assert not just on results but on which
// backend operations were (or, more importantly, were NOT) attempted.

type mockListingRepo struct {
	listings  []model.Listing
	nextID    int
	listErr   error
	createErr error

	createCalls int
	listCalls   int
}

func (m *mockListingRepo) Create(_ context.Context, listing *model.Listing) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	listing.ID = fmt.Sprintf("c%019d", m.nextID)
	m.listings = append(m.listings, *listing)
	return nil
}

func (m *mockListingRepo) GetByID(_ context.Context, id string) (*model.Listing, error) {
	for _, l := range m.listings {
		if l.ID == id {
			result := l
			return &result, nil
		}
	}
	return nil, apperror.NotFound("listing", id)
}

func (m *mockListingRepo) ListAll(_ context.Context) ([]model.Listing, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]model.Listing{}, m.listings...), nil
}

func (m *mockListingRepo) ListByOwner(_ context.Context, telegramID int64) ([]model.Listing, error) {
	out := []model.Listing{}
	for _, l := range m.listings {
		if l.TelegramID == telegramID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockListingRepo) DeleteOwned(_ context.Context, id string, telegramID int64) error {
	for i, l := range m.listings {
		if l.ID == id && l.TelegramID == telegramID {
			m.listings = append(m.listings[:i], m.listings[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("listing", id)
}

type mockUserRepo struct {
	users     map[int64]*model.User
	getErr    error
	createErr error

	getCalls    int
	createCalls int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User)}
}

func (m *mockUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[telegramID]
	if !ok {
		return nil, apperror.NotFound("user", fmt.Sprintf("%d", telegramID))
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	stored := *user
	m.users[user.TelegramID] = &stored
	return nil
}

type mockStore struct {
	failAt  int // 1-based upload that fails; 0 = never
	uploads int
	keys    []string
}

func (m *mockStore) Upload(_ context.Context, key, _ string, body io.Reader) error {
	m.uploads++
	if m.failAt != 0 && m.uploads == m.failAt {
		return errors.New("bucket unavailable")
	}
	if _, err := io.ReadAll(body); err != nil {
		return err
	}
	m.keys = append(m.keys, key)
	return nil
}

func (m *mockStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// =========================================================================
// HELPERS
// =========================================================================

func newTestService(t *testing.T) (*ListingService, *mockListingRepo, *mockUserRepo, *mockStore) {
	t.Helper()
	listings := &mockListingRepo{}
	users := newMockUserRepo()
	store := &mockStore{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewListingService(listings, users, store, logger)
	return svc, listings, users, store
}

var testOwner = Owner{TelegramID: 42, Username: "otabek", FullName: "Otabek R"}

func completeDraft() model.ListingDraft {
	return model.ListingDraft{
		City:     "Seoul",
		District: "Gangnam",
		Address:  "12-3 Teheran-ro",
		Rent:     "700000",
		Deposit:  "5000000",
		Floor:    "3",
		Rooms:    "2",
		Phone:    "+82 10-1234-5678",
	}
}

func batchOf(names ...string) *imagebatch.Batch {
	var b imagebatch.Batch
	for _, name := range names {
		b.Add(imagebatch.File{Name: name, ContentType: "image/jpeg", Data: []byte(name)})
	}
	return &b
}

func listingWith(id string, owner int64, city, district string, rent int64, roommate bool) model.Listing {
	return model.Listing{
		ID: id, TelegramID: owner, City: city, District: district,
		Address: "addr", Rent: rent, Roommate: roommate,
	}
}

// =========================================================================
// SUBMISSION WORKFLOW
// =========================================================================

func TestSubmit_Success(t *testing.T) {
	svc, listings, users, store := newTestService(t)

	listing, err := svc.Submit(context.Background(), testOwner, completeDraft(), batchOf("a.jpg", "b.jpg"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if listing.ID == "" {
		t.Error("submitted listing has no id")
	}
	if listing.Rent != 700000 || listing.Deposit != 5000000 {
		t.Errorf("coerced amounts = %d/%d, want 700000/5000000", listing.Rent, listing.Deposit)
	}
	if listing.Floor != 3 || listing.Rooms != 2 {
		t.Errorf("coerced floor/rooms = %d/%d, want 3/2", listing.Floor, listing.Rooms)
	}
	if len(listing.Images) != 2 {
		t.Fatalf("got %d image urls, want 2", len(listing.Images))
	}
	if listing.Contact.Phone != "+82 10-1234-5678" {
		t.Errorf("Contact.Phone = %q", listing.Contact.Phone)
	}

	// lazily created owner record
	if users.createCalls != 1 {
		t.Errorf("user create calls = %d, want 1", users.createCalls)
	}
	created := users.users[42]
	if created == nil || created.Username != "otabek" || created.FullName != "Otabek R" {
		t.Errorf("created user = %+v", created)
	}

	if store.uploads != 2 {
		t.Errorf("store uploads = %d, want 2", store.uploads)
	}
	if listings.createCalls != 1 {
		t.Errorf("listing create calls = %d, want 1", listings.createCalls)
	}
}

func TestSubmit_ExistingOwnerNotRecreated(t *testing.T) {
	svc, _, users, _ := newTestService(t)
	users.users[42] = &model.User{TelegramID: 42, Username: "old-name"}

	if _, err := svc.Submit(context.Background(), testOwner, completeDraft(), batchOf()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if users.createCalls != 0 {
		t.Errorf("user create calls = %d, want 0", users.createCalls)
	}
	// the lazy record is never updated afterwards
	if users.users[42].Username != "old-name" {
		t.Errorf("existing user was modified: %+v", users.users[42])
	}
}

// An incomplete draft must not cause a single backend call.
func TestSubmit_IncompleteDraft_NoBackendCalls(t *testing.T) {
	svc, listings, users, store := newTestService(t)

	draft := completeDraft()
	draft.District = ""

	_, err := svc.Submit(context.Background(), testOwner, draft, batchOf("a.jpg"))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}

	if users.getCalls+users.createCalls+store.uploads+listings.createCalls != 0 {
		t.Error("incomplete draft reached the backend")
	}
}

func TestSubmit_UnresolvedOwner_NoBackendCalls(t *testing.T) {
	svc, listings, users, store := newTestService(t)

	_, err := svc.Submit(context.Background(), Owner{}, completeDraft(), batchOf())
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if users.getCalls+store.uploads+listings.createCalls != 0 {
		t.Error("unresolved owner reached the backend")
	}
}

func TestSubmit_UserLookupFailure_Aborts(t *testing.T) {
	svc, listings, users, store := newTestService(t)
	users.getErr = errors.New("database on fire")

	_, err := svc.Submit(context.Background(), testOwner, completeDraft(), batchOf("a.jpg"))
	if err == nil {
		t.Fatal("Submit() should fail when the user lookup fails")
	}
	if store.uploads != 0 {
		t.Error("images were uploaded despite the lookup failure")
	}
	if listings.createCalls != 0 {
		t.Error("listing was inserted despite the lookup failure")
	}
}

func TestSubmit_UserCreateFailure_Aborts(t *testing.T) {
	svc, listings, users, store := newTestService(t)
	users.createErr = errors.New("insert failed")

	_, err := svc.Submit(context.Background(), testOwner, completeDraft(), batchOf("a.jpg"))
	if err == nil {
		t.Fatal("Submit() should fail when user creation fails")
	}
	if store.uploads != 0 || listings.createCalls != 0 {
		t.Error("later stages ran despite user creation failure")
	}
}

// An upload failure prevents record insertion — and uploads already done
// stay where they are (no rollback).
func TestSubmit_UploadFailure_PreventsInsert(t *testing.T) {
	svc, listings, _, store := newTestService(t)
	store.failAt = 2

	_, err := svc.Submit(context.Background(), testOwner, completeDraft(), batchOf("a.jpg", "b.jpg", "c.jpg"))
	if err == nil {
		t.Fatal("Submit() should fail when an upload fails")
	}
	if listings.createCalls != 0 {
		t.Error("listing was inserted despite upload failure")
	}
	if store.uploads != 2 {
		t.Errorf("store saw %d uploads, want 2 (abort after first failure)", store.uploads)
	}
	if len(store.keys) != 1 {
		t.Errorf("stored objects = %d, want 1 orphan from the first upload", len(store.keys))
	}
}

// A non-numeric amount is a reported validation error, not a silent zero.
func TestSubmit_NonNumericRent(t *testing.T) {
	svc, listings, _, _ := newTestService(t)

	draft := completeDraft()
	draft.Rent = "seven hundred"

	_, err := svc.Submit(context.Background(), testOwner, draft, batchOf())
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "rent" {
		t.Errorf("Field = %q, want %q", appErr.Field, "rent")
	}
	if listings.createCalls != 0 {
		t.Error("listing was inserted despite invalid rent")
	}
}

func TestSubmit_BlankNumericFieldsDefaultToZero(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	draft := completeDraft()
	draft.Rent, draft.Deposit, draft.Floor, draft.Rooms = "", "", "", ""

	listing, err := svc.Submit(context.Background(), testOwner, draft, batchOf())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if listing.Rent != 0 || listing.Deposit != 0 || listing.Floor != 0 || listing.Rooms != 0 {
		t.Errorf("blank numerics = %d/%d/%d/%d, want zeros",
			listing.Rent, listing.Deposit, listing.Floor, listing.Rooms)
	}
}

func TestSubmit_NegativeRent(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	draft := completeDraft()
	draft.Rent = "-1000"

	if _, err := svc.Submit(context.Background(), testOwner, draft, batchOf()); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestSubmit_InsertFailure(t *testing.T) {
	svc, listings, _, _ := newTestService(t)
	listings.createErr = errors.New("disk full")

	if _, err := svc.Submit(context.Background(), testOwner, completeDraft(), batchOf()); err == nil {
		t.Fatal("Submit() should surface the insert failure")
	}
}

// =========================================================================
// BROWSE: FACETS AND FILTERS
// =========================================================================

func browseFixture() []model.Listing {
	return []model.Listing{
		listingWith("c1", 1, "Seoul", "Gangnam", 400000, false),
		listingWith("c2", 1, "Seoul", "Mapo", 700000, true),
		listingWith("c3", 2, "Busan", "Haeundae", 1200000, false),
	}
}

func TestBrowse_FacetsFromData(t *testing.T) {
	svc, listings, _, _ := newTestService(t)
	listings.listings = browseFixture()

	result, err := svc.Browse(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Browse() error = %v", err)
	}

	wantCities := []string{"Seoul", "Busan"}
	if len(result.Cities) != 2 || result.Cities[0] != wantCities[0] || result.Cities[1] != wantCities[1] {
		t.Errorf("Cities = %v, want %v", result.Cities, wantCities)
	}
	wantDistricts := []string{"Gangnam", "Mapo", "Haeundae"}
	if len(result.Districts) != 3 {
		t.Fatalf("Districts = %v, want %v", result.Districts, wantDistricts)
	}
	for i, want := range wantDistricts {
		if result.Districts[i] != want {
			t.Errorf("Districts[%d] = %q, want %q", i, result.Districts[i], want)
		}
	}
	if len(result.Listings) != 3 {
		t.Errorf("unfiltered Browse returned %d listings, want 3", len(result.Listings))
	}
}

// Facets come from the full set even when the current filter matches none.
func TestBrowse_FacetsUnaffectedByFilter(t *testing.T) {
	svc, listings, _, _ := newTestService(t)
	listings.listings = browseFixture()

	result, err := svc.Browse(context.Background(), Filter{City: "Busan", District: "Gangnam"})
	if err != nil {
		t.Fatalf("Browse() error = %v", err)
	}
	if len(result.Listings) != 0 {
		t.Errorf("got %d listings, want 0", len(result.Listings))
	}
	if len(result.Cities) != 2 || len(result.Districts) != 3 {
		t.Errorf("facets shrank under filtering: %v %v", result.Cities, result.Districts)
	}
}

func TestApplyFilter_PriceBounds(t *testing.T) {
	// prices 400000 / 700000 / 1200000 with bounds [500000, 1000000]
	got := applyFilter(browseFixture(), Filter{MinPrice: "500000", MaxPrice: "1000000"})
	if len(got) != 1 || got[0].Rent != 700000 {
		t.Errorf("filtered = %v, want exactly the 700000 listing", got)
	}
}

func TestApplyFilter_InclusiveBounds(t *testing.T) {
	got := applyFilter(browseFixture(), Filter{MinPrice: "700000", MaxPrice: "700000"})
	if len(got) != 1 || got[0].Rent != 700000 {
		t.Errorf("bounds are not inclusive: %v", got)
	}
}

func TestApplyFilter_AllSentinel(t *testing.T) {
	for _, sentinel := range []string{"", "all"} {
		got := applyFilter(browseFixture(), Filter{City: sentinel, District: sentinel})
		if len(got) != 3 {
			t.Errorf("sentinel %q filtered listings: got %d, want 3", sentinel, len(got))
		}
	}
}

func TestApplyFilter_RoommateFlag(t *testing.T) {
	got := applyFilter(browseFixture(), Filter{RoommateOnly: true})
	if len(got) != 1 || !got[0].Roommate {
		t.Errorf("roommate filter = %v, want only the roommate listing", got)
	}
}

// Filters are independent predicates: any order of composition gives the
// same result set.
func TestApplyFilter_Commutative(t *testing.T) {
	fixture := browseFixture()

	cityThenPrice := applyFilter(applyFilter(fixture, Filter{City: "Seoul"}), Filter{MinPrice: "500000"})
	priceThenCity := applyFilter(applyFilter(fixture, Filter{MinPrice: "500000"}), Filter{City: "Seoul"})
	combined := applyFilter(fixture, Filter{City: "Seoul", MinPrice: "500000"})

	for _, got := range [][]model.Listing{cityThenPrice, priceThenCity} {
		if len(got) != len(combined) {
			t.Fatalf("filter composition order changed the result: %v vs %v", got, combined)
		}
		for i := range got {
			if got[i].ID != combined[i].ID {
				t.Errorf("result[%d] differs across composition orders", i)
			}
		}
	}
}

func TestApplyFilter_UnparseableBoundIsUnbounded(t *testing.T) {
	got := applyFilter(browseFixture(), Filter{MinPrice: "cheap"})
	if len(got) != 3 {
		t.Errorf("unparseable bound filtered listings: got %d, want 3", len(got))
	}
}

func TestBrowse_RepoFailure(t *testing.T) {
	svc, listings, _, _ := newTestService(t)
	listings.listErr = errors.New("database on fire")

	if _, err := svc.Browse(context.Background(), Filter{}); err == nil {
		t.Fatal("Browse() should surface the fetch failure")
	}
}

// =========================================================================
// DETAIL AND MANAGEMENT
// =========================================================================

func TestGet_MalformedID(t *testing.T) {
	svc, listings, _, _ := newTestService(t)
	listings.listings = browseFixture()

	for _, id := range []string{"", "42", "DROP TABLE houses", "zzzzzzzzzzzzzzzzzzzz"} {
		_, err := svc.Get(context.Background(), id)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Get(%q) error = %v, want ErrValidation", id, err)
		}
	}
}

func TestGet_WellFormedUnknownID(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	// shaped like an xid, but nothing stored under it
	_, err := svc.Get(context.Background(), "c00000000000000000v0")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteOwned_MalformedID(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.DeleteOwned(context.Background(), "not-an-id", 42)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestListOwned(t *testing.T) {
	svc, listings, _, _ := newTestService(t)
	listings.listings = browseFixture()

	mine, err := svc.ListOwned(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListOwned() error = %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d listings, want 2", len(mine))
	}
	for _, l := range mine {
		if l.TelegramID != 1 {
			t.Errorf("ListOwned returned listing of owner %d", l.TelegramID)
		}
	}
}
