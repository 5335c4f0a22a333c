package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/models"
)

type adminService interface {
	ListAccounts(ctx context.Context, caller models.Identity, kind models.IdentityKind) ([]models.Account, error)
	ListEvents(ctx context.Context, caller models.Identity) ([]models.Event, error)
	DeleteAccount(ctx context.Context, caller models.Identity, kind models.IdentityKind, id string) error
	DeleteEvent(ctx context.Context, caller models.Identity, id string) error
	ListFeedback(ctx context.Context, caller models.Identity, kind models.IdentityKind) ([]models.Feedback, error)
	RespondFeedback(ctx context.Context, caller models.Identity, id string, resp services.FeedbackResponse) (models.Feedback, error)
}

// AdminHandler serves the superadmin console.
type AdminHandler struct {
	admin    adminService
	verifier Verifier
}

func NewAdminHandler(admin adminService, verifier Verifier) *AdminHandler {
	return &AdminHandler{admin: admin, verifier: verifier}
}

func (h *AdminHandler) ListUsers(e *core.RequestEvent) error {
	return h.listAccounts(e, models.KindUser)
}

func (h *AdminHandler) ListVenues(e *core.RequestEvent) error {
	return h.listAccounts(e, models.KindVenue)
}

func (h *AdminHandler) listAccounts(e *core.RequestEvent, kind models.IdentityKind) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	accounts, err := h.admin.ListAccounts(e.Request.Context(), caller, kind)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *AdminHandler) ListEvents(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	events, err := h.admin.ListEvents(e.Request.Context(), caller)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"events": events})
}

func (h *AdminHandler) DeleteUser(e *core.RequestEvent) error {
	return h.deleteAccount(e, models.KindUser)
}

func (h *AdminHandler) DeleteVenue(e *core.RequestEvent) error {
	return h.deleteAccount(e, models.KindVenue)
}

func (h *AdminHandler) deleteAccount(e *core.RequestEvent, kind models.IdentityKind) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	if err := h.admin.DeleteAccount(e.Request.Context(), caller, kind, e.Request.PathValue("id")); err != nil {
		return fail(e, err)
	}
	return e.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) DeleteEvent(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	if err := h.admin.DeleteEvent(e.Request.Context(), caller, e.Request.PathValue("id")); err != nil {
		return fail(e, err)
	}
	return e.NoContent(http.StatusNoContent)
}

// ListFeedback - All feedback, filtered with ?kind=user|venue
func (h *AdminHandler) ListFeedback(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	kind := models.IdentityKind(e.Request.URL.Query().Get("kind"))
	items, err := h.admin.ListFeedback(e.Request.Context(), caller, kind)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"feedback": items})
}

func (h *AdminHandler) RespondFeedback(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var resp services.FeedbackResponse
	if err := bind(e, &resp); err != nil {
		return fail(e, err)
	}

	item, err := h.admin.RespondFeedback(e.Request.Context(), caller, e.Request.PathValue("id"), resp)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, item)
}
