// Package handler contains the HTTP handlers for the rental listing app.
//
// Handlers are the glue between HTTP and the service layer: they parse the
// incoming request (query params, JSON or multipart bodies), call the
// service, and translate the result into a JSON response. Business rules
// never live here.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/auth"
	"github.com/otabek/ijara/internal/imagebatch"
	"github.com/otabek/ijara/internal/model"
	"github.com/otabek/ijara/internal/service"
)

// maxUploadBytes bounds how much of a multipart submission is held in
// memory before the rest spills to temp files.
const maxUploadBytes = 32 << 20

// ListingService is the part of the service layer the listing handler
// needs. The concrete *service.ListingService satisfies it; tests swap in
// a mock.
type ListingService interface {
	Browse(ctx context.Context, f service.Filter) (*service.BrowseResult, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	ListOwned(ctx context.Context, telegramID int64) ([]model.Listing, error)
	DeleteOwned(ctx context.Context, id string, telegramID int64) error
	Submit(ctx context.Context, owner service.Owner, draft model.ListingDraft, images *imagebatch.Batch) (*model.Listing, error)
}

// ListingHandler serves the listing API: browsing, detail, draft
// validation, submission and owner management.
type ListingHandler struct {
	service ListingService
	logger  *slog.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{service: service, logger: logger}
}

// HandleBrowse returns the filtered listing feed plus the city/district
// facets derived from the full data set.
//
// HTTP: GET /api/listings?city=Seoul&district=all&min_price=500000&max_price=&roommate=1
func (h *ListingHandler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	result, err := h.service.Browse(r.Context(), filter)
	if err != nil {
		h.logger.Error("browse failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleGet returns a single listing by id.
//
// HTTP: GET /api/listings/{id}
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// ValidateResponse reports whether a draft is submittable and which
// required fields are still blank. The form page polls this endpoint to
// drive the Telegram MainButton state.
type ValidateResponse struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing"`
}

// HandleValidate checks a draft for completeness without touching any
// backend. Only city, district and address are required; everything else
// may stay blank.
//
// HTTP: POST /api/listings/validate
func (h *ListingHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var draft model.ListingDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	missing := []string{}
	for _, field := range []struct{ name, value string }{
		{"city", draft.City},
		{"district", draft.District},
		{"address", draft.Address},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}

	writeJSON(w, http.StatusOK, ValidateResponse{
		Complete: len(missing) == 0,
		Missing:  missing,
	})
}

// HandleCreate accepts a multipart listing submission: the draft fields as
// form values plus up to five photos in the "images" parts. Requires a
// session; the verified identity becomes the listing owner.
//
// HTTP: POST /api/listings
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid session required"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.logger.Warn("invalid multipart body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("", "invalid multipart form"))
		return
	}

	draft := draftFromForm(r)

	batch, err := batchFromForm(r.MultipartForm)
	if err != nil {
		writeError(w, err)
		return
	}

	owner := service.Owner{
		TelegramID: user.ID,
		Username:   user.Username,
		FullName:   user.FullName(),
	}

	listing, err := h.service.Submit(r.Context(), owner, draft, batch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, listing)
}

// HandleMine returns the authenticated user's own listings, newest first.
//
// HTTP: GET /api/my/listings
func (h *ListingHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid session required"))
		return
	}

	listings, err := h.service.ListOwned(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("listing owned failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

// HandleDelete removes one of the authenticated user's listings. A listing
// belonging to someone else answers 404, not 403 — the ownership check is
// part of the lookup, so the endpoint never confirms that a foreign id
// exists.
//
// HTTP: DELETE /api/listings/{id}
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid session required"))
		return
	}

	if err := h.service.DeleteOwned(r.Context(), r.PathValue("id"), user.ID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// filterFromQuery builds a browse filter from URL query parameters.
// Absent params stay blank, which the service treats the same as "all".
func filterFromQuery(r *http.Request) service.Filter {
	q := r.URL.Query()
	roommate := q.Get("roommate")
	return service.Filter{
		City:         q.Get("city"),
		District:     q.Get("district"),
		MinPrice:     q.Get("min_price"),
		MaxPrice:     q.Get("max_price"),
		RoommateOnly: roommate == "1" || roommate == "true" || roommate == "on",
	}
}

// draftFromForm collects the submission fields from a parsed multipart
// form. Values stay as strings — coercion and validation belong to the
// service layer.
func draftFromForm(r *http.Request) model.ListingDraft {
	roommate := r.FormValue("roommate")
	return model.ListingDraft{
		City:        r.FormValue("city"),
		District:    r.FormValue("district"),
		Address:     r.FormValue("address"),
		Rent:        r.FormValue("rent"),
		Deposit:     r.FormValue("deposit"),
		Floor:       r.FormValue("floor"),
		Rooms:       r.FormValue("rooms"),
		Description: r.FormValue("description"),
		Phone:       r.FormValue("phone"),
		Roommate:    roommate == "1" || roommate == "true" || roommate == "on",
	}
}

// batchFromForm reads the uploaded "images" parts into an image batch.
// The batch silently drops anything past its cap, matching the picker UI.
func batchFromForm(form *multipart.Form) (*imagebatch.Batch, error) {
	var batch imagebatch.Batch
	if form == nil {
		return &batch, nil
	}

	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			return nil, apperror.ValidationFailed("images", "unreadable image upload")
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, apperror.ValidationFailed("images", "unreadable image upload")
		}

		batch.Add(imagebatch.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return &batch, nil
}
