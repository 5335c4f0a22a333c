package services

import (
	"context"

	"github.com/pocketbase/pocketbase/tools/filesystem"

	"ticket-marketplace/models"
)

// InventoryStore is the part of the event store the purchase path needs.
type InventoryStore interface {
	GetEvent(ctx context.Context, id string) (models.Event, error)
	ConditionalDecrement(ctx context.Context, id string, qty int) (models.Reservation, error)
	CompensateIncrement(ctx context.Context, id string, qty int) error
}

type EventStore interface {
	InventoryStore
	CreateEvent(ctx context.Context, venueID string, draft models.EventDraft) (models.Event, error)
	UpdateEventFields(ctx context.Context, id, ownerID string, fields models.EventFields) (models.Event, error)
	DeleteEvent(ctx context.Context, id, ownerID string) error
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventsByVenue(ctx context.Context, venueID string) ([]models.Event, error)
	DeleteEventsByVenue(ctx context.Context, venueID string) (int, error)
	SetEventImage(ctx context.Context, id, ownerID string, file *filesystem.File) (models.Event, error)
}

type OrderLedger interface {
	RecordOrder(ctx context.Context, order models.Order) (models.Order, error)
	ListOrdersForEvent(ctx context.Context, eventID string) ([]models.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error)
	AggregateForEvent(ctx context.Context, eventID string) (models.EventSales, error)
	SoldByEvent(ctx context.Context) (map[string]int, error)
}

type IdentityStore interface {
	Create(ctx context.Context, account models.Account) (models.Account, error)
	FindByEmail(ctx context.Context, kind models.IdentityKind, email string) (models.Account, error)
	FindByID(ctx context.Context, kind models.IdentityKind, id string) (models.Account, error)
	List(ctx context.Context, kind models.IdentityKind) ([]models.Account, error)
	UpdateProfile(ctx context.Context, kind models.IdentityKind, id string, fields models.AccountFields) (models.Account, error)
	SetPasswordHash(ctx context.Context, kind models.IdentityKind, id, hash string) error
	Delete(ctx context.Context, kind models.IdentityKind, id string) error
}

type FeedbackStore interface {
	Create(ctx context.Context, fb models.Feedback) (models.Feedback, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Feedback, error)
	List(ctx context.Context, kind models.IdentityKind) ([]models.Feedback, error)
	Respond(ctx context.Context, id string, st models.FeedbackStatus, response string) (models.Feedback, error)
	MarkReadByAuthor(ctx context.Context, authorID string) (int, error)
}

// Notifier delivers purchase side effects. Implementations must not block
// and must not fail the purchase.
type Notifier interface {
	PurchaseCompleted(userID string, receipt models.Receipt)
}
