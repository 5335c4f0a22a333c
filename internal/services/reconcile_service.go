package services

import (
	"context"
	"sort"

	"ticket-marketplace/models"
)

// InventoryDrift is an event whose pass counts disagree with its orders.
// Drift is positive when passes are missing (sold but not recorded).
type InventoryDrift struct {
	EventID         string `json:"eventId"`
	EventName       string `json:"eventName"`
	TotalPasses     int    `json:"totalPasses"`
	RemainingPasses int    `json:"remainingPasses"`
	LedgerSold      int    `json:"ledgerSold"`
	Drift           int    `json:"drift"`
}

type eventLister interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
}

// ReconcileService compares every event's pass counts with the ledger. It
// only reports; repairs are made by hand.
type ReconcileService struct {
	events eventLister
	ledger OrderLedger
	guard  *StoreGuard
}

func NewReconcileService(events eventLister, ledger OrderLedger, guard *StoreGuard) *ReconcileService {
	return &ReconcileService{events: events, ledger: ledger, guard: guard}
}

func (s *ReconcileService) Report(ctx context.Context) ([]InventoryDrift, error) {
	events, err := guarded(ctx, s.guard, "list events", func(ctx context.Context) ([]models.Event, error) {
		return s.events.ListEvents(ctx)
	})
	if err != nil {
		return nil, err
	}

	sold, err := guarded(ctx, s.guard, "sum orders", func(ctx context.Context) (map[string]int, error) {
		return s.ledger.SoldByEvent(ctx)
	})
	if err != nil {
		return nil, err
	}

	var drifts []InventoryDrift
	for _, event := range events {
		ledgerSold := sold[event.ID]
		drift := event.TotalPasses - event.RemainingPasses - ledgerSold
		if drift == 0 {
			continue
		}
		drifts = append(drifts, InventoryDrift{
			EventID:         event.ID,
			EventName:       event.Name,
			TotalPasses:     event.TotalPasses,
			RemainingPasses: event.RemainingPasses,
			LedgerSold:      ledgerSold,
			Drift:           drift,
		})
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].EventID < drifts[j].EventID })
	return drifts, nil
}
