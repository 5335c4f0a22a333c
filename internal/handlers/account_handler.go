package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/models"
)

// AccountHandler serves the signed-in user's or venue's own account.
type AccountHandler struct {
	accounts accountService
	verifier Verifier
}

func NewAccountHandler(accounts accountService, verifier Verifier) *AccountHandler {
	return &AccountHandler{accounts: accounts, verifier: verifier}
}

func (h *AccountHandler) UpdateProfile(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var fields models.AccountFields
	if err := bind(e, &fields); err != nil {
		return fail(e, err)
	}

	account, err := h.accounts.UpdateProfile(e.Request.Context(), caller, fields)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, account)
}

func (h *AccountHandler) ChangePassword(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var req services.ChangePasswordRequest
	if err := bind(e, &req); err != nil {
		return fail(e, err)
	}

	if err := h.accounts.ChangePassword(e.Request.Context(), caller, req); err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]string{"message": "Password updated"})
}

// Delete - Remove the caller's account; a venue's events go with it
func (h *AccountHandler) Delete(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	if err := h.accounts.DeleteAccount(e.Request.Context(), caller); err != nil {
		return fail(e, err)
	}
	return e.NoContent(http.StatusNoContent)
}
