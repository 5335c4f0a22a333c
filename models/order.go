package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an immutable record of a completed purchase. UnitPrice and
// TotalAmount are frozen at purchase time.
type Order struct {
	ID           string          `json:"id"`
	EventID      string          `json:"eventId"`
	EventName    string          `json:"eventName"`
	UserID       string          `json:"userId"`
	BuyerName    string          `json:"buyerName"`
	BuyerContact string          `json:"buyerContact"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TicketCode   string          `json:"ticketCode"`
	Created      time.Time       `json:"created"`
}

// Reservation is what a successful conditional decrement reports back.
type Reservation struct {
	EventID   string
	EventName string
	UnitPrice decimal.Decimal
	Remaining int
}

// Receipt is returned to the buyer after a successful purchase.
type Receipt struct {
	OrderID         string          `json:"orderId"`
	EventID         string          `json:"eventId"`
	Quantity        int             `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	RemainingPasses int             `json:"remainingPasses"`
	TicketCode      string          `json:"ticketCode"`
}

// EventSales is the ledger aggregate for one event.
type EventSales struct {
	TicketsSold int             `json:"ticketsSold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// EventAnalytics is the dashboard view of an event's sales.
type EventAnalytics struct {
	EventID         string          `json:"eventId"`
	EventName       string          `json:"eventName"`
	TicketsSold     int             `json:"ticketsSold"`
	Revenue         decimal.Decimal `json:"revenue"`
	TotalPasses     int             `json:"totalPasses"`
	RemainingPasses int             `json:"remainingPasses"`
	SoldPercentage  float64         `json:"soldPercentage"`
	Degraded        bool            `json:"degraded"` // true when derived from pass counts instead of orders
}
