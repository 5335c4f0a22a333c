package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

type eventService interface {
	CreateEvent(ctx context.Context, caller models.Identity, draft models.EventDraft) (models.Event, error)
	UpdateEvent(ctx context.Context, caller models.Identity, id string, fields models.EventFields) (models.Event, error)
	DeleteEvent(ctx context.Context, caller models.Identity, id string) error
	SetImage(ctx context.Context, caller models.Identity, id string, file *filesystem.File) (models.Event, error)
	GetEvent(ctx context.Context, id string) (models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListVenueEvents(ctx context.Context, venueID string) ([]models.Event, error)
	ListOrders(ctx context.Context, caller models.Identity, eventID string) ([]models.Order, error)
}

type analyticsService interface {
	ForEvent(ctx context.Context, caller models.Identity, eventID string) (models.EventAnalytics, error)
	ForVenue(ctx context.Context, caller models.Identity, venueID string) ([]models.EventAnalytics, error)
}

type EventHandler struct {
	events    eventService
	analytics analyticsService
	accounts  accountService
	verifier  Verifier
}

func NewEventHandler(events eventService, analytics analyticsService, accounts accountService, verifier Verifier) *EventHandler {
	return &EventHandler{events: events, analytics: analytics, accounts: accounts, verifier: verifier}
}

// List - All events, newest first
func (h *EventHandler) List(e *core.RequestEvent) error {
	events, err := h.events.ListEvents(e.Request.Context())
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"events": events})
}

func (h *EventHandler) Get(e *core.RequestEvent) error {
	event, err := h.events.GetEvent(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var draft models.EventDraft
	if err := bind(e, &draft); err != nil {
		return fail(e, err)
	}

	event, err := h.events.CreateEvent(e.Request.Context(), caller, draft)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusCreated, event)
}

func (h *EventHandler) Update(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var fields models.EventFields
	if err := bind(e, &fields); err != nil {
		return fail(e, err)
	}

	event, err := h.events.UpdateEvent(e.Request.Context(), caller, e.Request.PathValue("id"), fields)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *EventHandler) Delete(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	if err := h.events.DeleteEvent(e.Request.Context(), caller, e.Request.PathValue("id")); err != nil {
		return fail(e, err)
	}
	return e.NoContent(http.StatusNoContent)
}

// UploadImage - Attach the performer image from the multipart "image" field
func (h *EventHandler) UploadImage(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var file *filesystem.File
	files, err := e.FindUploadedFiles("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		return fail(e, status.NewValidationError("image", "must be sent as multipart/form-data"))
	}
	if len(files) > 0 {
		file = files[0]
	}

	event, err := h.events.SetImage(e.Request.Context(), caller, e.Request.PathValue("id"), file)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, event)
}

func (h *EventHandler) Analytics(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	result, err := h.analytics.ForEvent(e.Request.Context(), caller, e.Request.PathValue("id"))
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, result)
}

// Orders - Buyers of an event, as JSON or with ?format=csv as a download
func (h *EventHandler) Orders(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	eventID := e.Request.PathValue("id")
	orders, err := h.events.ListOrders(e.Request.Context(), caller, eventID)
	if err != nil {
		return fail(e, err)
	}

	if e.Request.URL.Query().Get("format") != "csv" {
		return e.JSON(http.StatusOK, map[string]any{"orders": orders})
	}

	e.Response.Header().Set("Content-Type", "text/csv; charset=utf-8")
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="orders-%s.csv"`, eventID))
	e.Response.WriteHeader(http.StatusOK)
	return services.WriteOrdersCSV(e.Response, orders)
}

func (h *EventHandler) VenueEvents(e *core.RequestEvent) error {
	events, err := h.events.ListVenueEvents(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"events": events})
}

func (h *EventHandler) VenueContact(e *core.RequestEvent) error {
	contact, err := h.accounts.VenueContact(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, contact)
}

// MyVenueAnalytics - Analytics for every event of the signed-in venue
func (h *EventHandler) MyVenueAnalytics(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	results, err := h.analytics.ForVenue(e.Request.Context(), caller, caller.ID)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"events": results})
}
