package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

type FeedbackStore struct {
	app core.App
}

func NewFeedbackStore(app core.App) *FeedbackStore {
	return &FeedbackStore{app: app}
}

func (s *FeedbackStore) Create(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	collection, err := s.app.FindCachedCollectionByNameOrId(FeedbackCollection)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("feedback collection: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("author_id", fb.AuthorID)
	record.Set("author_email", fb.AuthorEmail)
	record.Set("author_kind", string(fb.AuthorKind))
	record.Set("message", fb.Message)
	record.Set("status", string(models.FeedbackPending))
	record.Set("read_by_author", false)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return models.Feedback{}, translate(err, status.ErrNotFound)
	}
	return toFeedback(record), nil
}

func (s *FeedbackStore) ListByAuthor(ctx context.Context, authorID string) ([]models.Feedback, error) {
	return s.list(ctx, dbx.HashExp{"author_id": authorID})
}

// List returns all feedback, or only feedback from one author kind when kind
// is set.
func (s *FeedbackStore) List(ctx context.Context, kind models.IdentityKind) ([]models.Feedback, error) {
	if kind == "" {
		return s.list(ctx, nil)
	}
	return s.list(ctx, dbx.HashExp{"author_kind": string(kind)})
}

func (s *FeedbackStore) list(ctx context.Context, where dbx.Expression) ([]models.Feedback, error) {
	query := s.app.RecordQuery(FeedbackCollection).WithContext(ctx).OrderBy("created DESC")
	if where != nil {
		query = query.AndWhere(where)
	}

	records := []*core.Record{}
	if err := query.All(&records); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return mapRecords(records, toFeedback), nil
}

// Respond stores the admin answer and flags it unread for the author.
func (s *FeedbackStore) Respond(ctx context.Context, id string, st models.FeedbackStatus, response string) (models.Feedback, error) {
	record := &core.Record{}
	err := s.app.RecordQuery(FeedbackCollection).
		WithContext(ctx).
		AndWhere(dbx.HashExp{"id": id}).
		Limit(1).
		One(record)
	if err != nil {
		return models.Feedback{}, translate(err, status.ErrNotFound)
	}

	record.Set("status", string(st))
	record.Set("admin_response", response)
	record.Set("read_by_author", false)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return models.Feedback{}, translate(err, status.ErrNotFound)
	}
	return toFeedback(record), nil
}

// MarkReadByAuthor flags every answered feedback of an author as read.
func (s *FeedbackStore) MarkReadByAuthor(ctx context.Context, authorID string) (int, error) {
	result, err := s.app.DB().
		Update(FeedbackCollection,
			dbx.Params{"read_by_author": true, "updated": types.NowDateTime().String()},
			dbx.And(
				dbx.HashExp{"author_id": authorID, "read_by_author": false},
				dbx.NewExp("admin_response != ''"),
			)).
		WithContext(ctx).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("mark feedback read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark feedback read: %w", err)
	}
	return int(affected), nil
}
