package services

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/shopspring/decimal"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

const maxImageSize = 5 << 20

type EventService struct {
	events EventStore
	ledger OrderLedger
	guard  *StoreGuard
}

func NewEventService(events EventStore, ledger OrderLedger, guard *StoreGuard) *EventService {
	return &EventService{events: events, ledger: ledger, guard: guard}
}

func validateDraft(draft *models.EventDraft) error {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Description = strings.TrimSpace(draft.Description)
	draft.Date = strings.TrimSpace(draft.Date)
	draft.Time = strings.TrimSpace(draft.Time)
	draft.VenueText = strings.TrimSpace(draft.VenueText)
	draft.Performer = strings.TrimSpace(draft.Performer)

	return validationFailure(validation.ValidateStruct(draft,
		validation.Field(&draft.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&draft.Description, validation.Required, validation.Length(1, maxDescriptionLength)),
		validation.Field(&draft.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&draft.Time, validation.Required, validation.Date("15:04")),
		validation.Field(&draft.VenueText, validation.Required, validation.Length(1, 300)),
		validation.Field(&draft.Performer, validation.Required, validation.Length(1, 200)),
		validation.Field(&draft.Passes, validation.Required, validation.Min(1), validation.Max(maxEventPasses)),
		// zero is a valid price, so NotNil rather than Required
		validation.Field(&draft.PassPrice, validation.NotNil, validation.By(validPrice)),
	))
}

func validateFields(fields *models.EventFields) error {
	if fields.IsEmpty() {
		return status.NewValidationError("request", "no fields to update")
	}

	for _, p := range []*string{fields.Name, fields.Description, fields.Date, fields.Time, fields.VenueText, fields.Performer} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}

	return validationFailure(validation.ValidateStruct(fields,
		validation.Field(&fields.Name, validation.NilOrNotEmpty, validation.Length(2, 200)),
		validation.Field(&fields.Description, validation.NilOrNotEmpty, validation.Length(1, maxDescriptionLength)),
		validation.Field(&fields.Date, validation.NilOrNotEmpty, validation.Date("2006-01-02")),
		validation.Field(&fields.Time, validation.NilOrNotEmpty, validation.Date("15:04")),
		validation.Field(&fields.VenueText, validation.NilOrNotEmpty, validation.Length(1, 300)),
		validation.Field(&fields.Performer, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&fields.PassPrice, validation.By(validPrice)),
	))
}

func validPrice(value any) error {
	var price decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		price = v
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		price = *v
	default:
		return validation.NewError("validation_price_type", "must be a decimal amount")
	}

	if price.IsNegative() {
		return validation.NewError("validation_price_negative", "must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return validation.NewError("validation_price_precision", "must have at most 2 decimal places")
	}
	return nil
}

func (s *EventService) CreateEvent(ctx context.Context, caller models.Identity, draft models.EventDraft) (models.Event, error) {
	if caller.ID == "" {
		return models.Event{}, status.ErrUnauthorized
	}
	if !caller.Is(models.KindVenue) {
		return models.Event{}, status.ErrForbidden
	}
	if err := validateDraft(&draft); err != nil {
		return models.Event{}, err
	}

	return guarded(ctx, s.guard, "create event", func(ctx context.Context) (models.Event, error) {
		return s.events.CreateEvent(ctx, caller.ID, draft)
	})
}

// UpdateEvent edits descriptive fields. Venues may only edit their own
// events; the superadmin may edit any.
func (s *EventService) UpdateEvent(ctx context.Context, caller models.Identity, id string, fields models.EventFields) (models.Event, error) {
	owner, err := ownerScope(caller)
	if err != nil {
		return models.Event{}, err
	}
	if err := validateFields(&fields); err != nil {
		return models.Event{}, err
	}

	return guarded(ctx, s.guard, "update event", func(ctx context.Context) (models.Event, error) {
		return s.events.UpdateEventFields(ctx, id, owner, fields)
	})
}

func (s *EventService) DeleteEvent(ctx context.Context, caller models.Identity, id string) error {
	owner, err := ownerScope(caller)
	if err != nil {
		return err
	}

	return s.guard.exec(ctx, "delete event", func(ctx context.Context) error {
		return s.events.DeleteEvent(ctx, id, owner)
	})
}

// SetImage stores the performer image of a venue's own event.
func (s *EventService) SetImage(ctx context.Context, caller models.Identity, id string, file *filesystem.File) (models.Event, error) {
	if caller.ID == "" {
		return models.Event{}, status.ErrUnauthorized
	}
	if !caller.Is(models.KindVenue) {
		return models.Event{}, status.ErrForbidden
	}
	if file == nil {
		return models.Event{}, status.NewValidationError("image", "is required")
	}
	if file.Size > maxImageSize {
		return models.Event{}, status.NewValidationError("image", "must be at most 5MB")
	}

	return guarded(ctx, s.guard, "set event image", func(ctx context.Context) (models.Event, error) {
		return s.events.SetEventImage(ctx, id, caller.ID, file)
	})
}

func (s *EventService) GetEvent(ctx context.Context, id string) (models.Event, error) {
	return guarded(ctx, s.guard, "load event", func(ctx context.Context) (models.Event, error) {
		return s.events.GetEvent(ctx, id)
	})
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return guarded(ctx, s.guard, "list events", func(ctx context.Context) ([]models.Event, error) {
		return s.events.ListEvents(ctx)
	})
}

func (s *EventService) ListVenueEvents(ctx context.Context, venueID string) ([]models.Event, error) {
	return guarded(ctx, s.guard, "list venue events", func(ctx context.Context) ([]models.Event, error) {
		return s.events.ListEventsByVenue(ctx, venueID)
	})
}

// ListOrders returns the buyers of an event to its venue or the superadmin.
func (s *EventService) ListOrders(ctx context.Context, caller models.Identity, eventID string) ([]models.Order, error) {
	if caller.ID == "" {
		return nil, status.ErrUnauthorized
	}

	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !AuthorizeOwnership(caller, event.VenueID) {
		return nil, status.ErrForbidden
	}

	return guarded(ctx, s.guard, "list event orders", func(ctx context.Context) ([]models.Order, error) {
		return s.ledger.ListOrdersForEvent(ctx, eventID)
	})
}

// ownerScope returns the owner filter for a mutating call: the venue's own id,
// or empty for the superadmin.
func ownerScope(caller models.Identity) (string, error) {
	switch {
	case caller.ID == "":
		return "", status.ErrUnauthorized
	case caller.Kind == models.KindSuperadmin:
		return "", nil
	case caller.Kind == models.KindVenue:
		return caller.ID, nil
	}
	return "", status.ErrForbidden
}
