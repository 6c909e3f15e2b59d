package model

import "strings"

// ListingDraft mirrors the listing form exactly as the user typed it:
// every numeric field is still a string. Coercion to the persisted Listing
// shape happens in the submission workflow, so a non-numeric rent is
// reported as a validation error instead of silently becoming zero.
//
// A draft lives only for the duration of one submission attempt — it is
// never persisted.
type ListingDraft struct {
	City        string `json:"city"`
	District    string `json:"district"`
	Address     string `json:"address"`
	Rent        string `json:"rent"`
	Deposit     string `json:"deposit"`
	Floor       string `json:"floor"`
	Rooms       string `json:"rooms"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Roommate    bool   `json:"roommate"`
}

// Complete reports whether the draft can be submitted. City, district and
// address are the only gating fields — numeric fields may be left blank and
// default to zero at coercion time. This single predicate drives the
// Mini-App main button's enabled state.
func (d ListingDraft) Complete() bool {
	return strings.TrimSpace(d.City) != "" &&
		strings.TrimSpace(d.District) != "" &&
		strings.TrimSpace(d.Address) != ""
}
