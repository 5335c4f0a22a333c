package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a ticketed occurrence owned by a venue.
//
// TotalPasses never changes after creation. RemainingPasses only moves through
// the purchase path (conditional decrement and its compensation).
type Event struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	VenueText       string          `json:"venue"`
	Performer       string          `json:"performer"`
	VenueID         string          `json:"venueId"`
	TotalPasses     int             `json:"totalPasses"`
	RemainingPasses int             `json:"remainingPasses"`
	PassPrice       decimal.Decimal `json:"passPrice"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	Created         time.Time       `json:"created"`
	Updated         time.Time       `json:"updated"`
}

// SoldPasses is the inventory delta. It is lossy (ignores price history) and
// only used as a fallback when the order ledger cannot be read.
func (e Event) SoldPasses() int {
	sold := e.TotalPasses - e.RemainingPasses
	if sold < 0 {
		return 0
	}
	return sold
}

func (e Event) SoldOut() bool {
	return e.RemainingPasses <= 0
}

// EventDraft is the input for creating an event.
type EventDraft struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	Time        string           `json:"time"`
	VenueText   string           `json:"venue"`
	Performer   string           `json:"performer"`
	Passes      int              `json:"numberOfPasses"`
	PassPrice   *decimal.Decimal `json:"passPrice"`
}

// Price returns the draft's pass price, zero when unset.
func (d EventDraft) Price() decimal.Decimal {
	if d.PassPrice == nil {
		return decimal.Zero
	}
	return *d.PassPrice
}

// EventFields holds the descriptive fields of an event that may be edited.
// Nil pointers are left untouched. Pass counts are not editable.
type EventFields struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Time        *string          `json:"time,omitempty"`
	VenueText   *string          `json:"venue,omitempty"`
	Performer   *string          `json:"performer,omitempty"`
	PassPrice   *decimal.Decimal `json:"passPrice,omitempty"`
}

func (f EventFields) IsEmpty() bool {
	return f.Name == nil && f.Description == nil && f.Date == nil && f.Time == nil &&
		f.VenueText == nil && f.Performer == nil && f.PassPrice == nil
}
