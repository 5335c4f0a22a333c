package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/models"
)

type authService interface {
	Verifier
	Login(ctx context.Context, creds services.Credentials) (models.Session, error)
	AdminLogin(creds services.AdminCredentials) (models.Session, error)
}

type accountService interface {
	Signup(ctx context.Context, kind models.IdentityKind, req services.SignupRequest) (services.AuthResult, error)
	Profile(ctx context.Context, caller models.Identity) (models.Account, error)
	UpdateProfile(ctx context.Context, caller models.Identity, fields models.AccountFields) (models.Account, error)
	ChangePassword(ctx context.Context, caller models.Identity, req services.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, caller models.Identity) error
	VenueContact(ctx context.Context, venueID string) (models.VenueContact, error)
}

type AuthHandler struct {
	access   authService
	accounts accountService
}

func NewAuthHandler(access authService, accounts accountService) *AuthHandler {
	return &AuthHandler{access: access, accounts: accounts}
}

// Login - Sign in a user or venue
func (h *AuthHandler) Login(e *core.RequestEvent) error {
	var creds services.Credentials
	if err := bind(e, &creds); err != nil {
		return fail(e, err)
	}

	session, err := h.access.Login(e.Request.Context(), creds)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, session)
}

// AdminLogin - Sign in the superadmin
func (h *AuthHandler) AdminLogin(e *core.RequestEvent) error {
	var creds services.AdminCredentials
	if err := bind(e, &creds); err != nil {
		return fail(e, err)
	}

	session, err := h.access.AdminLogin(creds)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, session)
}

func (h *AuthHandler) SignupUser(e *core.RequestEvent) error {
	return h.signup(e, models.KindUser)
}

func (h *AuthHandler) SignupVenue(e *core.RequestEvent) error {
	return h.signup(e, models.KindVenue)
}

func (h *AuthHandler) signup(e *core.RequestEvent, kind models.IdentityKind) error {
	var req services.SignupRequest
	if err := bind(e, &req); err != nil {
		return fail(e, err)
	}

	result, err := h.accounts.Signup(e.Request.Context(), kind, req)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusCreated, result)
}

// Me - Return the caller's account
func (h *AuthHandler) Me(e *core.RequestEvent) error {
	caller, err := identity(e, h.access)
	if err != nil {
		return fail(e, err)
	}

	account, err := h.accounts.Profile(e.Request.Context(), caller)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, account)
}
