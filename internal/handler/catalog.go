package handler

import (
	"net/http"

	"github.com/otabek/ijara/internal/catalog"
)

// CatalogHandler serves the static city/district reference data that the
// submission form's cascading selects are built from.
type CatalogHandler struct{}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// DistrictsResponse lists the districts of one city.
type DistrictsResponse struct {
	City      string   `json:"city"`
	Districts []string `json:"districts"`
}

// HandleDistricts returns the districts for a city. An unknown city gets
// an empty list rather than an error — the form just shows no options.
//
// HTTP: GET /api/catalog/districts?city=Seoul
func (h *CatalogHandler) HandleDistricts(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	writeJSON(w, http.StatusOK, DistrictsResponse{
		City:      city,
		Districts: catalog.Districts(city),
	})
}
