package services

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

type FeedbackResponse struct {
	Status   models.FeedbackStatus `json:"status"`
	Response string                `json:"response"`
}

func (r FeedbackResponse) Validate() error {
	return validationFailure(validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required,
			validation.In(models.FeedbackPending, models.FeedbackReviewed, models.FeedbackResolved)),
		validation.Field(&r.Response, validation.Required, validation.Length(1, 2000)),
	))
}

// AdminService holds the superadmin's moderation operations. Every method
// rejects callers that are not the superadmin.
type AdminService struct {
	identities IdentityStore
	events     EventStore
	feedback   FeedbackStore
	guard      *StoreGuard
}

func NewAdminService(identities IdentityStore, events EventStore, feedback FeedbackStore, guard *StoreGuard) *AdminService {
	return &AdminService{identities: identities, events: events, feedback: feedback, guard: guard}
}

func requireSuperadmin(caller models.Identity) error {
	if caller.ID == "" {
		return status.ErrUnauthorized
	}
	if caller.Kind != models.KindSuperadmin {
		return status.ErrForbidden
	}
	return nil
}

func (s *AdminService) ListAccounts(ctx context.Context, caller models.Identity, kind models.IdentityKind) ([]models.Account, error) {
	if err := requireSuperadmin(caller); err != nil {
		return nil, err
	}
	if !kind.Registrable() {
		return nil, status.NewValidationError("kind", "must be user or venue")
	}

	return guarded(ctx, s.guard, "list accounts", func(ctx context.Context) ([]models.Account, error) {
		return s.identities.List(ctx, kind)
	})
}

func (s *AdminService) ListEvents(ctx context.Context, caller models.Identity) ([]models.Event, error) {
	if err := requireSuperadmin(caller); err != nil {
		return nil, err
	}

	return guarded(ctx, s.guard, "list events", func(ctx context.Context) ([]models.Event, error) {
		return s.events.ListEvents(ctx)
	})
}

// DeleteAccount removes a user or venue. Deleting a venue removes its events.
func (s *AdminService) DeleteAccount(ctx context.Context, caller models.Identity, kind models.IdentityKind, id string) error {
	if err := requireSuperadmin(caller); err != nil {
		return err
	}
	if !kind.Registrable() {
		return status.NewValidationError("kind", "must be user or venue")
	}

	return deleteIdentity(ctx, s.guard, s.identities, s.events, kind, id)
}

func (s *AdminService) DeleteEvent(ctx context.Context, caller models.Identity, id string) error {
	if err := requireSuperadmin(caller); err != nil {
		return err
	}

	return s.guard.exec(ctx, "delete event", func(ctx context.Context) error {
		return s.events.DeleteEvent(ctx, id, "")
	})
}

// ListFeedback returns all feedback, optionally only from one author kind.
func (s *AdminService) ListFeedback(ctx context.Context, caller models.Identity, kind models.IdentityKind) ([]models.Feedback, error) {
	if err := requireSuperadmin(caller); err != nil {
		return nil, err
	}
	if kind != "" && !kind.Registrable() {
		return nil, status.NewValidationError("kind", "must be user or venue")
	}

	return guarded(ctx, s.guard, "list feedback", func(ctx context.Context) ([]models.Feedback, error) {
		return s.feedback.List(ctx, kind)
	})
}

func (s *AdminService) RespondFeedback(ctx context.Context, caller models.Identity, id string, resp FeedbackResponse) (models.Feedback, error) {
	if err := requireSuperadmin(caller); err != nil {
		return models.Feedback{}, err
	}

	resp.Response = strings.TrimSpace(resp.Response)
	if err := resp.Validate(); err != nil {
		return models.Feedback{}, err
	}

	return guarded(ctx, s.guard, "respond to feedback", func(ctx context.Context) (models.Feedback, error) {
		return s.feedback.Respond(ctx, id, resp.Status, resp.Response)
	})
}
