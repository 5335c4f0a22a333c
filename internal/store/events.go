package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/pocketbase/pocketbase/tools/types"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

// EventStore is the event inventory backed by the events collection.
//
// remaining_passes is only written by ConditionalDecrement and
// CompensateIncrement. Every other write either targets explicit columns or
// runs inside a transaction so it cannot overwrite a concurrent decrement.
type EventStore struct {
	app core.App
}

func NewEventStore(app core.App) *EventStore {
	return &EventStore{app: app}
}

func (s *EventStore) GetEvent(ctx context.Context, id string) (models.Event, error) {
	record, err := s.findRecord(ctx, s.app, id)
	if err != nil {
		return models.Event{}, err
	}
	return toEvent(record), nil
}

func (s *EventStore) findRecord(ctx context.Context, app core.App, id string) (*core.Record, error) {
	record := &core.Record{}
	err := app.RecordQuery(EventsCollection).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"id": id}).
		Limit(1).
		One(record)
	if err != nil {
		return nil, translate(err, status.ErrEventNotFound)
	}
	return record, nil
}

type reservationRow struct {
	Remaining int    `db:"remaining_passes"`
	PassPrice string `db:"pass_price"`
	Name      string `db:"name"`
}

// ConditionalDecrement takes qty passes from the event in one statement. The
// row only changes when enough passes remain, so concurrent callers can never
// push remaining_passes below zero. The price and name are read by the same
// statement.
func (s *EventStore) ConditionalDecrement(ctx context.Context, id string, qty int) (models.Reservation, error) {
	if qty <= 0 {
		return models.Reservation{}, status.NewValidationError("quantity", "must be a positive integer")
	}

	var row reservationRow
	err := s.app.DB().NewQuery(`
		UPDATE events
		SET remaining_passes = remaining_passes - {:qty}, updated = {:now}
		WHERE id = {:id} AND remaining_passes >= {:qty}
		RETURNING remaining_passes, pass_price, name`).
		WithContext(ctx).
		Bind(dbx.Params{"id": id, "qty": qty, "now": types.NowDateTime().String()}).
		One(&row)

	if err == nil {
		return models.Reservation{
			EventID:   id,
			EventName: row.Name,
			UnitPrice: parseDecimal(row.PassPrice),
			Remaining: row.Remaining,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Reservation{}, fmt.Errorf("decrement event %s: %w", id, err)
	}

	// Nothing matched: either the event is gone or it has too few passes.
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return models.Reservation{}, err
	}
	return models.Reservation{}, &status.InsufficientInventoryError{Remaining: event.RemainingPasses}
}

// CompensateIncrement hands qty passes back. The guard keeps the count at or
// below total_passes, so a repeated compensation cannot inflate inventory.
func (s *EventStore) CompensateIncrement(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return status.NewValidationError("quantity", "must be a positive integer")
	}

	result, err := s.app.DB().NewQuery(`
		UPDATE events
		SET remaining_passes = remaining_passes + {:qty}, updated = {:now}
		WHERE id = {:id} AND remaining_passes + {:qty} <= total_passes`).
		WithContext(ctx).
		Bind(dbx.Params{"id": id, "qty": qty, "now": types.NowDateTime().String()}).
		Execute()
	if err != nil {
		return fmt.Errorf("compensate event %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("compensate event %s: %w", id, err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := s.GetEvent(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("compensate event %s: restoring %d passes would exceed total", id, qty)
}

func (s *EventStore) CreateEvent(ctx context.Context, venueID string, draft models.EventDraft) (models.Event, error) {
	collection, err := s.app.FindCachedCollectionByNameOrId(EventsCollection)
	if err != nil {
		return models.Event{}, fmt.Errorf("events collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("name", draft.Name)
	record.Set("description", draft.Description)
	record.Set("date", draft.Date)
	record.Set("time", draft.Time)
	record.Set("venue_text", draft.VenueText)
	record.Set("performer", draft.Performer)
	record.Set("venue_id", venueID)
	record.Set("total_passes", draft.Passes)
	record.Set("remaining_passes", draft.Passes)
	record.Set("pass_price", formatDecimal(draft.Price()))

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return models.Event{}, translate(err, status.ErrEventNotFound)
	}

	return toEvent(record), nil
}

// UpdateEventFields writes only the descriptive columns that are set. An
// empty ownerID skips the ownership check (administrative edits).
func (s *EventStore) UpdateEventFields(ctx context.Context, id, ownerID string, fields models.EventFields) (models.Event, error) {
	params := dbx.Params{}
	if fields.Name != nil {
		params["name"] = *fields.Name
	}
	if fields.Description != nil {
		params["description"] = *fields.Description
	}
	if fields.Date != nil {
		params["date"] = *fields.Date
	}
	if fields.Time != nil {
		params["time"] = *fields.Time
	}
	if fields.VenueText != nil {
		params["venue_text"] = *fields.VenueText
	}
	if fields.Performer != nil {
		params["performer"] = *fields.Performer
	}
	if fields.PassPrice != nil {
		params["pass_price"] = formatDecimal(*fields.PassPrice)
	}
	if len(params) == 0 {
		return s.GetEvent(ctx, id)
	}
	params["updated"] = types.NowDateTime().String()

	where := dbx.HashExp{"id": id}
	if ownerID != "" {
		where["venue_id"] = ownerID
	}

	result, err := s.app.DB().Update(EventsCollection, params, where).WithContext(ctx).Execute()
	if err != nil {
		return models.Event{}, fmt.Errorf("update event %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return models.Event{}, fmt.Errorf("update event %s: %w", id, err)
	}

	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	if affected == 0 {
		return models.Event{}, status.ErrForbidden
	}
	return event, nil
}

// DeleteEvent removes an event and its image. Orders that reference it are
// kept as history.
func (s *EventStore) DeleteEvent(ctx context.Context, id, ownerID string) error {
	record, err := s.findRecord(ctx, s.app, id)
	if err != nil {
		return err
	}
	if ownerID != "" && record.GetString("venue_id") != ownerID {
		return status.ErrForbidden
	}

	if err := s.app.DeleteWithContext(ctx, record); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

func (s *EventStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(EventsCollection).
		WithContext(ctx).
		OrderBy("created DESC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return mapRecords(records, toEvent), nil
}

func (s *EventStore) ListEventsByVenue(ctx context.Context, venueID string) ([]models.Event, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(EventsCollection).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"venue_id": venueID}).
		OrderBy("created DESC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("list events for venue %s: %w", venueID, err)
	}
	return mapRecords(records, toEvent), nil
}

// DeleteEventsByVenue removes every event a venue owns and reports how many
// were deleted.
func (s *EventStore) DeleteEventsByVenue(ctx context.Context, venueID string) (int, error) {
	deleted := 0
	err := s.app.RunInTransaction(func(txApp core.App) error {
		records := []*core.Record{}
		err := txApp.RecordQuery(EventsCollection).
			WithContext(ctx).
			AndWhere(dbx.HashExp{"venue_id": venueID}).
			All(&records)
		if err != nil {
			return err
		}

		for _, record := range records {
			if err := txApp.DeleteWithContext(ctx, record); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete events for venue %s: %w", venueID, err)
	}
	return deleted, nil
}

// SetEventImage replaces the event's image. The load and save share one
// transaction so the full-record save cannot clobber a decrement that lands
// in between.
func (s *EventStore) SetEventImage(ctx context.Context, id, ownerID string, file *filesystem.File) (models.Event, error) {
	var event models.Event
	err := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := s.findRecord(ctx, txApp, id)
		if err != nil {
			return err
		}
		if ownerID != "" && record.GetString("venue_id") != ownerID {
			return status.ErrForbidden
		}

		record.Set("image", file)
		if err := txApp.SaveWithContext(ctx, record); err != nil {
			return translate(err, status.ErrEventNotFound)
		}

		event = toEvent(record)
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// Ping checks that the events table can be read.
func (s *EventStore) Ping(ctx context.Context) error {
	var n int
	err := s.app.DB().NewQuery("SELECT COUNT(*) FROM {{" + EventsCollection + "}} LIMIT 1").
		WithContext(ctx).
		Row(&n)
	if err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}
