package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

type eventReader interface {
	GetEvent(ctx context.Context, id string) (models.Event, error)
	ListEventsByVenue(ctx context.Context, venueID string) ([]models.Event, error)
}

// AnalyticsService derives sales figures from the order ledger. It never
// writes.
type AnalyticsService struct {
	events eventReader
	ledger OrderLedger
	guard  *StoreGuard
}

func NewAnalyticsService(events eventReader, ledger OrderLedger, guard *StoreGuard) *AnalyticsService {
	return &AnalyticsService{events: events, ledger: ledger, guard: guard}
}

// ForEvent returns analytics for one event to its owning venue or a superadmin.
func (s *AnalyticsService) ForEvent(ctx context.Context, caller models.Identity, eventID string) (models.EventAnalytics, error) {
	if caller.ID == "" {
		return models.EventAnalytics{}, status.ErrUnauthorized
	}

	event, err := guarded(ctx, s.guard, "load event", func(ctx context.Context) (models.Event, error) {
		return s.events.GetEvent(ctx, eventID)
	})
	if err != nil {
		return models.EventAnalytics{}, err
	}
	if !AuthorizeOwnership(caller, event.VenueID) {
		return models.EventAnalytics{}, status.ErrForbidden
	}

	return s.analyze(ctx, event), nil
}

// ForVenue returns analytics for every event of a venue.
func (s *AnalyticsService) ForVenue(ctx context.Context, caller models.Identity, venueID string) ([]models.EventAnalytics, error) {
	if caller.ID == "" {
		return nil, status.ErrUnauthorized
	}
	if !AuthorizeOwnership(caller, venueID) {
		return nil, status.ErrForbidden
	}

	events, err := guarded(ctx, s.guard, "list venue events", func(ctx context.Context) ([]models.Event, error) {
		return s.events.ListEventsByVenue(ctx, venueID)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.EventAnalytics, 0, len(events))
	for _, event := range events {
		out = append(out, s.analyze(ctx, event))
	}
	return out, nil
}

// analyze sums the ledger. When the ledger cannot be read it falls back to
// the pass count delta at the current price and marks the result degraded.
func (s *AnalyticsService) analyze(ctx context.Context, event models.Event) models.EventAnalytics {
	result := models.EventAnalytics{
		EventID:         event.ID,
		EventName:       event.Name,
		TotalPasses:     event.TotalPasses,
		RemainingPasses: event.RemainingPasses,
	}

	sales, err := guarded(ctx, s.guard, "aggregate orders", func(ctx context.Context) (models.EventSales, error) {
		return s.ledger.AggregateForEvent(ctx, event.ID)
	})
	if err != nil {
		slog.Warn("Order ledger unavailable, using pass count fallback",
			"event_id", event.ID,
			"error", err,
		)
		sold := event.SoldPasses()
		sales = models.EventSales{
			TicketsSold: sold,
			Revenue:     event.PassPrice.Mul(decimal.NewFromInt(int64(sold))),
		}
		result.Degraded = true
	}

	result.TicketsSold = sales.TicketsSold
	result.Revenue = sales.Revenue
	result.SoldPercentage = soldPercentage(sales.TicketsSold, event.TotalPasses)
	return result
}

func soldPercentage(sold, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(int64(sold)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		Float64()
	return pct
}
