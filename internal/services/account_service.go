package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age,omitempty"`
	Contact  string `json:"contact,omitempty"`
	Location string `json:"location,omitempty"`
}

func (r SignupRequest) normalized() SignupRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Contact = strings.TrimSpace(r.Contact)
	r.Location = strings.TrimSpace(r.Location)
	return r
}

func (r SignupRequest) validate(kind models.IdentityKind) error {
	rules := []*validation.FieldRules{
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, 72)),
	}

	switch kind {
	case models.KindUser:
		rules = append(rules, validation.Field(&r.Age, validation.Required, validation.Min(13), validation.Max(120)))
	case models.KindVenue:
		rules = append(rules,
			validation.Field(&r.Contact, validation.Required, validation.Length(10, 32)),
			validation.Field(&r.Location, validation.Required, validation.Length(10, 300)),
		)
	}

	return validationFailure(validation.ValidateStruct(&r, rules...))
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	return validationFailure(validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(minChangePasswordLength, 72)),
	))
}

// AuthResult is returned after signup: the new account and a session for it.
type AuthResult struct {
	Account models.Account `json:"account"`
	Session models.Session `json:"session"`
}

type AccountService struct {
	identities IdentityStore
	events     EventStore
	access     *AccessService
	guard      *StoreGuard
}

func NewAccountService(identities IdentityStore, events EventStore, access *AccessService, guard *StoreGuard) *AccountService {
	return &AccountService{identities: identities, events: events, access: access, guard: guard}
}

// Signup registers a user or venue and signs them in. Superadmins cannot
// sign up.
func (s *AccountService) Signup(ctx context.Context, kind models.IdentityKind, req SignupRequest) (AuthResult, error) {
	if !kind.Registrable() {
		return AuthResult{}, status.ErrForbidden
	}

	req = req.normalized()
	if err := req.validate(kind); err != nil {
		return AuthResult{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return AuthResult{}, err
	}

	account := models.Account{
		Kind:         kind,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
	}
	if kind == models.KindUser {
		account.Age = req.Age
	} else {
		account.Contact = req.Contact
		account.Location = req.Location
	}

	created, err := guarded(ctx, s.guard, "create account", func(ctx context.Context) (models.Account, error) {
		return s.identities.Create(ctx, account)
	})
	if err != nil {
		return AuthResult{}, err
	}

	session, err := s.access.Issue(created.Identity())
	if err != nil {
		return AuthResult{}, err
	}

	slog.Info("Account created", "kind", kind, "id", created.ID)
	return AuthResult{Account: created, Session: session}, nil
}

// Profile returns the caller's account. The superadmin has no stored account
// and gets a synthetic one.
func (s *AccountService) Profile(ctx context.Context, caller models.Identity) (models.Account, error) {
	if caller.ID == "" {
		return models.Account{}, status.ErrUnauthorized
	}
	if caller.Kind == models.KindSuperadmin {
		return models.Account{ID: caller.ID, Kind: caller.Kind, Name: "Superadmin"}, nil
	}

	return guarded(ctx, s.guard, "load account", func(ctx context.Context) (models.Account, error) {
		return s.identities.FindByID(ctx, caller.Kind, caller.ID)
	})
}

func (s *AccountService) UpdateProfile(ctx context.Context, caller models.Identity, fields models.AccountFields) (models.Account, error) {
	if err := requireAccountHolder(caller); err != nil {
		return models.Account{}, err
	}

	if err := validateAccountFields(caller.Kind, &fields); err != nil {
		return models.Account{}, err
	}

	return guarded(ctx, s.guard, "update profile", func(ctx context.Context) (models.Account, error) {
		return s.identities.UpdateProfile(ctx, caller.Kind, caller.ID, fields)
	})
}

func validateAccountFields(kind models.IdentityKind, fields *models.AccountFields) error {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(fields.Name)
	trim(fields.Contact)
	trim(fields.Location)

	if kind == models.KindUser && (fields.Contact != nil || fields.Location != nil) {
		return status.NewValidationError("contact", "only venues have contact and location")
	}
	if kind == models.KindVenue && fields.Age != nil {
		return status.NewValidationError("age", "venues have no age")
	}
	if fields.Name == nil && fields.Contact == nil && fields.Location == nil && fields.Age == nil {
		return status.NewValidationError("request", "no fields to update")
	}

	return validationFailure(validation.ValidateStruct(fields,
		validation.Field(&fields.Name, validation.NilOrNotEmpty, validation.Length(2, 100)),
		validation.Field(&fields.Contact, validation.NilOrNotEmpty, validation.Length(10, 32)),
		validation.Field(&fields.Location, validation.NilOrNotEmpty, validation.Length(10, 300)),
		validation.Field(&fields.Age, validation.NilOrNotEmpty, validation.Min(13), validation.Max(120)),
	))
}

func (s *AccountService) ChangePassword(ctx context.Context, caller models.Identity, req ChangePasswordRequest) error {
	if err := requireAccountHolder(caller); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	account, err := guarded(ctx, s.guard, "load account", func(ctx context.Context) (models.Account, error) {
		return s.identities.FindByID(ctx, caller.Kind, caller.ID)
	})
	if err != nil {
		return err
	}

	if !CheckPassword(account.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("current password does not match: %w", status.ErrUnauthorized)
	}
	if req.CurrentPassword == req.NewPassword {
		return status.NewValidationError("newPassword", "must differ from the current password")
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.guard.exec(ctx, "set password", func(ctx context.Context) error {
		return s.identities.SetPasswordHash(ctx, caller.Kind, caller.ID, hash)
	})
}

// DeleteAccount removes the caller's account. A venue's events go with it;
// orders stay as history.
func (s *AccountService) DeleteAccount(ctx context.Context, caller models.Identity) error {
	if err := requireAccountHolder(caller); err != nil {
		return err
	}
	return deleteIdentity(ctx, s.guard, s.identities, s.events, caller.Kind, caller.ID)
}

// VenueContact is public so buyers can reach the organiser.
func (s *AccountService) VenueContact(ctx context.Context, venueID string) (models.VenueContact, error) {
	account, err := guarded(ctx, s.guard, "load venue", func(ctx context.Context) (models.Account, error) {
		return s.identities.FindByID(ctx, models.KindVenue, venueID)
	})
	if err != nil {
		return models.VenueContact{}, err
	}

	return models.VenueContact{
		ID:      account.ID,
		Name:    account.Name,
		Email:   account.Email,
		Contact: account.Contact,
	}, nil
}

func deleteIdentity(ctx context.Context, guard *StoreGuard, identities IdentityStore, events EventStore, kind models.IdentityKind, id string) error {
	if _, err := guarded(ctx, guard, "load account", func(ctx context.Context) (models.Account, error) {
		return identities.FindByID(ctx, kind, id)
	}); err != nil {
		return err
	}

	if kind == models.KindVenue {
		removed, err := guarded(ctx, guard, "delete venue events", func(ctx context.Context) (int, error) {
			return events.DeleteEventsByVenue(ctx, id)
		})
		if err != nil {
			return err
		}
		slog.Info("Venue events removed", "venue_id", id, "count", removed)
	}

	if err := guard.exec(ctx, "delete account", func(ctx context.Context) error {
		return identities.Delete(ctx, kind, id)
	}); err != nil {
		return err
	}

	slog.Info("Account deleted", "kind", kind, "id", id)
	return nil
}

func requireAccountHolder(caller models.Identity) error {
	if caller.ID == "" {
		return status.ErrUnauthorized
	}
	if !caller.Is(models.KindUser, models.KindVenue) {
		return status.ErrForbidden
	}
	return nil
}
