package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/models"
)

type feedbackService interface {
	Submit(ctx context.Context, caller models.Identity, message string) (models.Feedback, error)
	Mine(ctx context.Context, caller models.Identity) ([]models.Feedback, error)
	MarkRead(ctx context.Context, caller models.Identity) (int, error)
}

type FeedbackHandler struct {
	feedback feedbackService
	verifier Verifier
}

func NewFeedbackHandler(feedback feedbackService, verifier Verifier) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, verifier: verifier}
}

func (h *FeedbackHandler) Submit(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := bind(e, &req); err != nil {
		return fail(e, err)
	}

	item, err := h.feedback.Submit(e.Request.Context(), caller, req.Message)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusCreated, item)
}

func (h *FeedbackHandler) Mine(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	items, err := h.feedback.Mine(e.Request.Context(), caller)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"feedback": items})
}

func (h *FeedbackHandler) MarkRead(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	n, err := h.feedback.MarkRead(e.Request.Context(), caller)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]int{"updated": n})
}
