package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/carousel"
	"github.com/otabek/ijara/internal/catalog"
	"github.com/otabek/ijara/internal/imagebatch"
)

// PageHandler renders the server-side pages of the mini app: the browse
// feed, the submission form, the profile shell and the listing detail view.
//
// Each page is parsed together with base.html at startup so pages can fill
// the base layout's {{template "content" .}} slot. Pages get their own
// template set because they all define a "content" block — mixing them in
// one set would make the definitions collide.
type PageHandler struct {
	pages   map[string]*template.Template
	service ListingService
	logger  *slog.Logger
}

// NewPageHandler parses the page templates from templateDir.
func NewPageHandler(templateDir string, service ListingService, logger *slog.Logger) (*PageHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "form", "profile", "detail"} {
		tmpl, err := template.ParseFiles(
			filepath.Join(templateDir, "base.html"),
			filepath.Join(templateDir, name+".html"),
		)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &PageHandler{pages: pages, service: service, logger: logger}, nil
}

// HandleIndex serves the browse feed. Filter state arrives as query
// parameters so filtered views are plain links and survive reloads.
//
// HTTP: GET /?city=Seoul&district=all&min_price=&max_price=&roommate=1
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	result, err := h.service.Browse(r.Context(), filter)
	if err != nil {
		h.logger.Error("rendering feed failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.render(w, "index", map[string]interface{}{
		"Title":     "Ijara — Rooms for Rent",
		"Listings":  result.Listings,
		"Cities":    result.Cities,
		"Districts": result.Districts,
		"Filter":    filter,
	})
}

// HandleNew serves the listing submission form. The city select is
// rendered from the static catalog; districts load per city over the
// catalog API.
//
// HTTP: GET /new
func (h *PageHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, "form", map[string]interface{}{
		"Title":    "Ijara — New Listing",
		"Cities":   catalog.Cities(),
		"ImageCap": imagebatch.Cap,
	})
}

// HandleProfile serves the profile shell. The user's own listings are
// loaded client-side from /api/my/listings because they require the
// session cookie.
//
// HTTP: GET /profile
func (h *PageHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	h.render(w, "profile", map[string]interface{}{
		"Title": "Ijara — My Listings",
	})
}

// HandleDetail serves a single listing with its photo carousel. The
// visible photo index comes from the ?img query parameter; prev/next are
// plain links back to this page with a wrapped index, so the carousel
// works without any script.
//
// HTTP: GET /house/{id}?img=1
func (h *PageHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		// Malformed and unknown ids both render as a missing page.
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("rendering detail failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	img, _ := strconv.Atoi(r.URL.Query().Get("img"))
	img = carousel.Clamp(img, len(listing.Images))

	h.render(w, "detail", map[string]interface{}{
		"Title":   "Ijara — " + listing.Address,
		"Listing": listing,
		"Img":     img,
		"PrevImg": carousel.Prev(img, len(listing.Images)),
		"NextImg": carousel.Next(img, len(listing.Images)),
	})
}

func (h *PageHandler) render(w http.ResponseWriter, page string, data map[string]interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
