package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

const (
	EventsCollection     = "events"
	OrdersCollection     = "orders"
	IdentitiesCollection = "identities"
	FeedbackCollection   = "feedback"
)

// Decimal amounts are stored as text to keep them exact.
const decimalPattern = `^\d+(\.\d{1,2})?$`

// EnsureCollections creates any missing marketplace collection. Existing
// collections are left as they are. All API rules stay nil so the generic
// records API is superuser-only; clients go through the custom routes.
func EnsureCollections(app core.App) error {
	builders := []func() *core.Collection{
		eventsCollection,
		ordersCollection,
		identitiesCollection,
		feedbackCollection,
	}

	for _, build := range builders {
		collection := build()

		_, err := app.FindCollectionByNameOrId(collection.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lookup collection %s: %w", collection.Name, err)
		}

		if err := app.Save(collection); err != nil {
			return fmt.Errorf("create collection %s: %w", collection.Name, err)
		}
	}

	return nil
}

// DropCollections removes the marketplace collections, newest first.
func DropCollections(app core.App) error {
	for _, name := range []string{FeedbackCollection, IdentitiesCollection, OrdersCollection, EventsCollection} {
		collection, err := app.FindCollectionByNameOrId(name)
		if err != nil {
			continue
		}
		if err := app.Delete(collection); err != nil {
			return fmt.Errorf("drop collection %s: %w", name, err)
		}
	}
	return nil
}

func eventsCollection() *core.Collection {
	collection := core.NewBaseCollection(EventsCollection)

	collection.Fields.Add(
		&core.TextField{Name: "name", Required: true, Max: 200},
		&core.TextField{Name: "description", Max: 5000},
		&core.TextField{Name: "date", Required: true, Max: 32},
		&core.TextField{Name: "time", Max: 32},
		&core.TextField{Name: "venue_text", Max: 300},
		&core.TextField{Name: "performer", Max: 200},
		&core.TextField{Name: "venue_id", Required: true, Max: 32},
		&core.NumberField{Name: "total_passes", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.NumberField{Name: "remaining_passes", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.TextField{Name: "pass_price", Required: true, Pattern: decimalPattern},
		&core.FileField{
			Name:      "image",
			MaxSelect: 1,
			MaxSize:   5 << 20,
			MimeTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)

	collection.AddIndex("idx_events_venue_id", false, "venue_id", "")

	return collection
}

func ordersCollection() *core.Collection {
	collection := core.NewBaseCollection(OrdersCollection)

	collection.Fields.Add(
		&core.TextField{Name: "event_id", Required: true, Max: 32},
		&core.TextField{Name: "event_name", Max: 200},
		&core.TextField{Name: "user_id", Required: true, Max: 32},
		&core.TextField{Name: "buyer_name", Required: true, Max: 100},
		&core.TextField{Name: "buyer_contact", Required: true, Max: 32},
		&core.NumberField{Name: "quantity", Required: true, OnlyInt: true, Min: types.Pointer(1.0)},
		&core.TextField{Name: "unit_price", Required: true, Pattern: decimalPattern},
		&core.TextField{Name: "total_amount", Required: true, Pattern: decimalPattern},
		&core.TextField{Name: "ticket_code", Required: true, Max: 64},
		&core.AutodateField{Name: "created", OnCreate: true},
	)

	collection.AddIndex("idx_orders_event_id", false, "event_id", "")
	collection.AddIndex("idx_orders_user_id", false, "user_id", "")
	collection.AddIndex("idx_orders_ticket_code", true, "ticket_code", "")

	return collection
}

func identitiesCollection() *core.Collection {
	collection := core.NewBaseCollection(IdentitiesCollection)

	collection.Fields.Add(
		&core.SelectField{Name: "kind", Required: true, MaxSelect: 1, Values: []string{"user", "venue"}},
		&core.EmailField{Name: "email", Required: true},
		&core.TextField{Name: "password_hash", Required: true, Hidden: true},
		&core.TextField{Name: "name", Required: true, Max: 100},
		&core.TextField{Name: "contact", Max: 32},
		&core.TextField{Name: "location", Max: 300},
		&core.NumberField{Name: "age", OnlyInt: true, Min: types.Pointer(0.0)},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)

	collection.AddIndex("idx_identities_kind_email", true, "kind, email", "")

	return collection
}

func feedbackCollection() *core.Collection {
	collection := core.NewBaseCollection(FeedbackCollection)

	collection.Fields.Add(
		&core.TextField{Name: "author_id", Required: true, Max: 32},
		&core.EmailField{Name: "author_email"},
		&core.SelectField{Name: "author_kind", Required: true, MaxSelect: 1, Values: []string{"user", "venue"}},
		&core.TextField{Name: "message", Required: true, Min: 10, Max: 2000},
		&core.SelectField{Name: "status", Required: true, MaxSelect: 1, Values: []string{"pending", "reviewed", "resolved"}},
		&core.TextField{Name: "admin_response", Max: 2000},
		&core.BoolField{Name: "read_by_author"},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)

	collection.AddIndex("idx_feedback_author_id", false, "author_id", "")

	return collection
}
