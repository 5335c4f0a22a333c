package services

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"ticket-marketplace/models"
)

type FeedbackService struct {
	feedback FeedbackStore
	guard    *StoreGuard
}

func NewFeedbackService(feedback FeedbackStore, guard *StoreGuard) *FeedbackService {
	return &FeedbackService{feedback: feedback, guard: guard}
}

func (s *FeedbackService) Submit(ctx context.Context, caller models.Identity, message string) (models.Feedback, error) {
	if err := requireAccountHolder(caller); err != nil {
		return models.Feedback{}, err
	}

	message = strings.TrimSpace(message)
	if err := validationFailure(validation.Errors{
		"message": validation.Validate(message, validation.Required, validation.Length(10, 2000)),
	}.Filter()); err != nil {
		return models.Feedback{}, err
	}

	return guarded(ctx, s.guard, "submit feedback", func(ctx context.Context) (models.Feedback, error) {
		return s.feedback.Create(ctx, models.Feedback{
			AuthorID:    caller.ID,
			AuthorEmail: caller.Email,
			AuthorKind:  caller.Kind,
			Message:     message,
		})
	})
}

func (s *FeedbackService) Mine(ctx context.Context, caller models.Identity) ([]models.Feedback, error) {
	if err := requireAccountHolder(caller); err != nil {
		return nil, err
	}

	return guarded(ctx, s.guard, "list feedback", func(ctx context.Context) ([]models.Feedback, error) {
		return s.feedback.ListByAuthor(ctx, caller.ID)
	})
}

// MarkRead flags the caller's answered feedback as read and returns how many
// entries changed.
func (s *FeedbackService) MarkRead(ctx context.Context, caller models.Identity) (int, error) {
	if err := requireAccountHolder(caller); err != nil {
		return 0, err
	}

	return guarded(ctx, s.guard, "mark feedback read", func(ctx context.Context) (int, error) {
		return s.feedback.MarkReadByAuthor(ctx, caller.ID)
	})
}
