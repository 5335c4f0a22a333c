package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/models"
)

type purchaseService interface {
	Purchase(ctx context.Context, req services.PurchaseRequest, caller models.Identity) (models.Receipt, error)
	OrdersForUser(ctx context.Context, caller models.Identity, userID string) ([]models.Order, error)
}

type PurchaseHandler struct {
	purchases purchaseService
	verifier  Verifier
}

func NewPurchaseHandler(purchases purchaseService, verifier Verifier) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases, verifier: verifier}
}

// Purchase - Buy passes for an event
func (h *PurchaseHandler) Purchase(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	var req services.PurchaseRequest
	if err := bind(e, &req); err != nil {
		return fail(e, err)
	}

	receipt, err := h.purchases.Purchase(e.Request.Context(), req, caller)
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, receipt)
}

// UserOrders - Order history of the signed-in user
func (h *PurchaseHandler) UserOrders(e *core.RequestEvent) error {
	caller, err := identity(e, h.verifier)
	if err != nil {
		return fail(e, err)
	}

	orders, err := h.purchases.OrdersForUser(e.Request.Context(), caller, e.Request.PathValue("id"))
	if err != nil {
		return fail(e, err)
	}
	return e.JSON(http.StatusOK, map[string]any{"orders": orders})
}
