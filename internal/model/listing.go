// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Contact holds how to reach the listing's owner. Grouping the channels in
// one struct keeps the API shape stable when more of them (e.g. a Telegram
// handle) are added later.
type Contact struct {
	Phone string `json:"phone"`
}

// Listing is a single rental posting.
//
// ID is a server-generated xid: 20 URL-safe characters, sortable by creation
// time. TelegramID is the owner's numeric Telegram user id — it comes from
// the host runtime and never changes after insert, and delete is always
// constrained by both ID and TelegramID so one user cannot remove another's
// posting.
//
// Images holds at most imagebatch.Cap publicly resolvable URLs, in the order
// the owner arranged them.
type Listing struct {
	ID          string    `json:"id"`
	TelegramID  int64     `json:"telegramId"`
	City        string    `json:"city"`
	District    string    `json:"district"`
	Address     string    `json:"address"`
	Rent        int64     `json:"rent"`    // monthly rent, whole currency units
	Deposit     int64     `json:"deposit"` // up-front deposit
	Floor       int       `json:"floor"`
	Rooms       int       `json:"rooms"`
	Description string    `json:"description,omitempty"`
	Contact     Contact   `json:"contact"`
	Roommate    bool      `json:"roommate"` // owner is looking for a roommate
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}
