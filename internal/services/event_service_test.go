package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

func setupTestEventService() (*EventService, *fakeEventStore, *fakeLedger) {
	events := newFakeEventStore()
	ledger := &fakeLedger{}
	return NewEventService(events, ledger, testGuard()), events, ledger
}

func priceOf(s string) *decimal.Decimal {
	price := decimal.RequireFromString(s)
	return &price
}

func validDraft() models.EventDraft {
	return models.EventDraft{
		Name:        " Jazz Night ",
		Description: "An evening of standards.",
		Date:        "2026-11-20",
		Time:        "20:30",
		VenueText:   "Main hall",
		Performer:   "The Quartet",
		Passes:      150,
		PassPrice:   priceOf("25.50"),
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	service, _, _ := setupTestEventService()

	event, err := service.CreateEvent(context.Background(), venue, validDraft())

	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", event.Name)
	assert.Equal(t, "venue1", event.VenueID)
	assert.Equal(t, 150, event.TotalPasses)
	assert.Equal(t, 150, event.RemainingPasses)
	assert.Equal(t, "25.50", event.PassPrice.StringFixed(2))
}

func TestEventService_CreateEventRejections(t *testing.T) {
	service, _, _ := setupTestEventService()

	_, err := service.CreateEvent(context.Background(), buyer, validDraft())
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = service.CreateEvent(context.Background(), admin, validDraft())
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = service.CreateEvent(context.Background(), models.Identity{}, validDraft())
	assert.ErrorIs(t, err, status.ErrUnauthorized)

	tests := []struct {
		name   string
		mutate func(*models.EventDraft)
		field  string
	}{
		{"no name", func(d *models.EventDraft) { d.Name = "  " }, "name"},
		{"bad date", func(d *models.EventDraft) { d.Date = "20/11/2026" }, "date"},
		{"bad time", func(d *models.EventDraft) { d.Time = "8pm" }, "time"},
		{"missing time", func(d *models.EventDraft) { d.Time = "" }, "time"},
		{"missing description", func(d *models.EventDraft) { d.Description = " " }, "description"},
		{"long description", func(d *models.EventDraft) { d.Description = strings.Repeat("a", 1001) }, "description"},
		{"missing performer", func(d *models.EventDraft) { d.Performer = "" }, "performer"},
		{"missing venue", func(d *models.EventDraft) { d.VenueText = "" }, "venue"},
		{"zero passes", func(d *models.EventDraft) { d.Passes = 0 }, "numberOfPasses"},
		{"negative passes", func(d *models.EventDraft) { d.Passes = -5 }, "numberOfPasses"},
		{"too many passes", func(d *models.EventDraft) { d.Passes = 500000 }, "numberOfPasses"},
		{"missing price", func(d *models.EventDraft) { d.PassPrice = nil }, "passPrice"},
		{"negative price", func(d *models.EventDraft) { d.PassPrice = priceOf("-1") }, "passPrice"},
		{"fractional cents", func(d *models.EventDraft) { d.PassPrice = priceOf("1.005") }, "passPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)

			_, err := service.CreateEvent(context.Background(), venue, draft)

			var verr *status.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestEventService_FreeEventsAllowed(t *testing.T) {
	service, _, _ := setupTestEventService()
	draft := validDraft()
	draft.PassPrice = priceOf("0")

	event, err := service.CreateEvent(context.Background(), venue, draft)

	require.NoError(t, err)
	assert.True(t, event.PassPrice.IsZero())
}

func TestEventService_UpdateEvent(t *testing.T) {
	service, events, _ := setupTestEventService()
	event := newEvent(events, 10, 10, "5")

	name := "Renamed"
	price := decimal.RequireFromString("7.25")
	updated, err := service.UpdateEvent(context.Background(), venue, event.ID, models.EventFields{Name: &name, PassPrice: &price})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "7.25", updated.PassPrice.StringFixed(2))

	other := models.Identity{ID: "venue2", Kind: models.KindVenue}
	_, err = service.UpdateEvent(context.Background(), other, event.ID, models.EventFields{Name: &name})
	assert.ErrorIs(t, err, status.ErrForbidden)

	adminName := "Moderated"
	updated, err = service.UpdateEvent(context.Background(), admin, event.ID, models.EventFields{Name: &adminName})
	require.NoError(t, err)
	assert.Equal(t, "Moderated", updated.Name)

	_, err = service.UpdateEvent(context.Background(), venue, event.ID, models.EventFields{})
	assert.ErrorIs(t, err, status.ErrValidation)

	blank := " "
	_, err = service.UpdateEvent(context.Background(), venue, event.ID, models.EventFields{Performer: &blank})
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = service.UpdateEvent(context.Background(), buyer, event.ID, models.EventFields{Name: &name})
	assert.ErrorIs(t, err, status.ErrForbidden)

	_, err = service.UpdateEvent(context.Background(), venue, "missing", models.EventFields{Name: &name})
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}

func TestEventService_DeleteEvent(t *testing.T) {
	service, events, _ := setupTestEventService()
	event := newEvent(events, 10, 10, "5")

	other := models.Identity{ID: "venue2", Kind: models.KindVenue}
	assert.ErrorIs(t, service.DeleteEvent(context.Background(), other, event.ID), status.ErrForbidden)

	require.NoError(t, service.DeleteEvent(context.Background(), venue, event.ID))

	_, err := service.GetEvent(context.Background(), event.ID)
	assert.ErrorIs(t, err, status.ErrEventNotFound)
}

func TestEventService_SetImage(t *testing.T) {
	service, events, _ := setupTestEventService()
	event := newEvent(events, 10, 10, "5")

	file, err := filesystem.NewFileFromBytes([]byte("\x89PNG\r\n\x1a\n"), "poster.png")
	require.NoError(t, err)

	updated, err := service.SetImage(context.Background(), venue, event.ID, file)
	require.NoError(t, err)
	assert.Contains(t, updated.ImageURL, event.ID)

	_, err = service.SetImage(context.Background(), venue, event.ID, nil)
	assert.ErrorIs(t, err, status.ErrValidation)

	file.Size = maxImageSize + 1
	_, err = service.SetImage(context.Background(), venue, event.ID, file)
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = service.SetImage(context.Background(), admin, event.ID, file)
	assert.ErrorIs(t, err, status.ErrForbidden)
}

func TestEventService_ListOrders(t *testing.T) {
	service, events, ledger := setupTestEventService()
	event := newEvent(events, 10, 10, "5")
	ledger.orders = append(ledger.orders,
		models.Order{ID: "o1", EventID: event.ID, Quantity: 1},
		models.Order{ID: "o2", EventID: "other", Quantity: 2},
	)

	orders, err := service.ListOrders(context.Background(), venue, event.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)

	_, err = service.ListOrders(context.Background(), admin, event.ID)
	assert.NoError(t, err)

	_, err = service.ListOrders(context.Background(), buyer, event.ID)
	assert.ErrorIs(t, err, status.ErrForbidden)
}

func TestEventService_Listing(t *testing.T) {
	service, events, _ := setupTestEventService()
	newEvent(events, 10, 10, "5")
	events.add(models.Event{Name: "Elsewhere", VenueID: "venue2", TotalPasses: 3, RemainingPasses: 3})

	all, err := service.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := service.ListVenueEvents(context.Background(), "venue2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Elsewhere", mine[0].Name)
}
