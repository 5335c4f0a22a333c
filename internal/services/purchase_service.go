package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
	"ticket-marketplace/monitoring"
	"ticket-marketplace/utils"
)

type PurchaseRequest struct {
	EventID      string `json:"eventId"`
	BuyerName    string `json:"buyerName"`
	BuyerContact string `json:"buyerContact"`
	Quantity     int    `json:"quantity"`
}

func (r PurchaseRequest) normalized() PurchaseRequest {
	r.EventID = strings.TrimSpace(r.EventID)
	r.BuyerName = strings.TrimSpace(r.BuyerName)
	r.BuyerContact = strings.TrimSpace(r.BuyerContact)
	return r
}

func (r PurchaseRequest) Validate() error {
	return validationFailure(validation.ValidateStruct(&r,
		validation.Field(&r.EventID, validation.Required),
		validation.Field(&r.BuyerName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.BuyerContact, validation.Required,
			validation.Match(phonePattern).Error("must be a 10 digit phone number")),
		validation.Field(&r.Quantity, validation.Required.Error("must be a positive integer"),
			validation.Min(1), validation.Max(maxPurchaseQuantity)),
	))
}

// RetryPolicy bounds the compensating increment.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

var defaultCompensationRetry = RetryPolicy{Attempts: 3, Backoff: 100 * time.Millisecond}

// PurchaseService is the only writer of inventory decrements.
type PurchaseService struct {
	inventory InventoryStore
	ledger    OrderLedger
	notifier  Notifier
	guard     *StoreGuard
	monitor   *monitoring.Monitor
	retry     RetryPolicy

	newTicketCode func() (string, error)
}

func NewPurchaseService(inventory InventoryStore, ledger OrderLedger, notifier Notifier, guard *StoreGuard, monitor *monitoring.Monitor) *PurchaseService {
	return &PurchaseService{
		inventory:     inventory,
		ledger:        ledger,
		notifier:      notifier,
		guard:         guard,
		monitor:       monitor,
		retry:         defaultCompensationRetry,
		newTicketCode: generateTicketCode,
	}
}

func generateTicketCode() (string, error) {
	code, err := utils.GenerateCode(6)
	if err != nil {
		return "", err
	}
	return "TKT-" + code, nil
}

// Purchase reserves passes, records the order and returns a receipt.
//
// Once the decrement has run, the rest of the call is detached from the
// caller's cancellation: a client that disconnects must not leave a committed
// reservation without its order or its compensation.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest, caller models.Identity) (models.Receipt, error) {
	start := time.Now()
	receipt, err := s.purchase(ctx, req, caller)
	s.monitor.TrackPurchase(purchaseResult(err), time.Since(start))
	return receipt, err
}

func (s *PurchaseService) purchase(ctx context.Context, req PurchaseRequest, caller models.Identity) (models.Receipt, error) {
	if caller.ID == "" {
		return models.Receipt{}, status.ErrUnauthorized
	}
	if !caller.Is(models.KindUser) {
		return models.Receipt{}, status.ErrForbidden
	}

	req = req.normalized()
	if err := req.Validate(); err != nil {
		return models.Receipt{}, err
	}

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.Receipt{}, fmt.Errorf("reserve passes: %w: %w", status.ErrStoreTimeout, err)
		}
		return models.Receipt{}, err
	}
	writeCtx := context.WithoutCancel(ctx)

	reservation, err := guarded(writeCtx, s.guard, "reserve passes", func(ctx context.Context) (models.Reservation, error) {
		return s.inventory.ConditionalDecrement(ctx, req.EventID, req.Quantity)
	})
	if err != nil {
		return models.Receipt{}, err
	}

	total := reservation.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))

	code, err := s.newTicketCode()
	if err != nil {
		return models.Receipt{}, s.abort(writeCtx, req, fmt.Errorf("ticket code: %w", err))
	}

	order, err := guarded(writeCtx, s.guard, "record order", func(ctx context.Context) (models.Order, error) {
		return s.ledger.RecordOrder(ctx, models.Order{
			EventID:      req.EventID,
			EventName:    reservation.EventName,
			UserID:       caller.ID,
			BuyerName:    req.BuyerName,
			BuyerContact: req.BuyerContact,
			Quantity:     req.Quantity,
			UnitPrice:    reservation.UnitPrice,
			TotalAmount:  total,
			TicketCode:   code,
		})
	})
	if err != nil {
		return models.Receipt{}, s.abort(writeCtx, req, err)
	}

	receipt := models.Receipt{
		OrderID:         order.ID,
		EventID:         req.EventID,
		Quantity:        req.Quantity,
		TotalAmount:     total,
		RemainingPasses: reservation.Remaining,
		TicketCode:      code,
	}

	slog.Info("Purchase completed",
		"order_id", order.ID,
		"event_id", req.EventID,
		"user_id", caller.ID,
		"quantity", req.Quantity,
		"remaining", reservation.Remaining,
	)
	s.monitor.TrackSale(req.EventID, req.Quantity, reservation.Remaining)
	s.notifier.PurchaseCompleted(caller.ID, receipt)

	return receipt, nil
}

// abort hands the reserved passes back after the order could not be written.
// The purchase is reported as failed either way.
func (s *PurchaseService) abort(ctx context.Context, req PurchaseRequest, cause error) error {
	err := s.compensate(ctx, req.EventID, req.Quantity)
	if err == nil {
		s.monitor.TrackCompensation(monitoring.CompensationRestored)
		slog.Warn("Order write failed, reserved passes restored",
			"event_id", req.EventID,
			"quantity", req.Quantity,
			"error", cause,
		)
		return &status.IntegrityError{EventID: req.EventID, Quantity: req.Quantity, Restored: true, Cause: cause}
	}

	s.monitor.TrackCompensation(monitoring.CompensationFailed)
	s.monitor.TrackReconciliationCase()
	slog.Error("Reconciliation required: reserved passes could not be restored",
		"event_id", req.EventID,
		"quantity", req.Quantity,
		"order_error", cause,
		"compensation_error", err,
	)
	return &status.IntegrityError{EventID: req.EventID, Quantity: req.Quantity, Cause: errors.Join(cause, err)}
}

func (s *PurchaseService) compensate(ctx context.Context, eventID string, qty int) error {
	var err error
	for attempt := 1; attempt <= s.retry.Attempts; attempt++ {
		err = s.guard.execUnbroken(ctx, "restore passes", func(ctx context.Context) error {
			return s.inventory.CompensateIncrement(ctx, eventID, qty)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, status.ErrEventNotFound) {
			return err
		}

		slog.Warn("Compensating increment failed",
			"event_id", eventID,
			"attempt", attempt,
			"error", err,
		)
		if attempt < s.retry.Attempts {
			time.Sleep(time.Duration(attempt) * s.retry.Backoff)
		}
	}
	return err
}

// OrdersForUser returns a user's own order history.
func (s *PurchaseService) OrdersForUser(ctx context.Context, caller models.Identity, userID string) ([]models.Order, error) {
	if caller.ID == "" {
		return nil, status.ErrUnauthorized
	}
	if !caller.Is(models.KindUser) || caller.ID != userID {
		return nil, status.ErrForbidden
	}

	return guarded(ctx, s.guard, "list user orders", func(ctx context.Context) ([]models.Order, error) {
		return s.ledger.ListOrdersForUser(ctx, userID)
	})
}

func purchaseResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, status.ErrValidation):
		return "invalid"
	case errors.Is(err, status.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, status.ErrForbidden):
		return "forbidden"
	case errors.Is(err, status.ErrEventNotFound):
		return "not_found"
	case errors.Is(err, status.ErrInsufficientInventory):
		return "insufficient"
	case errors.Is(err, status.ErrIntegrity):
		return "integrity"
	case errors.Is(err, status.ErrStoreTimeout):
		return "timeout"
	case errors.Is(err, status.ErrStoreUnavailable):
		return "unavailable"
	}
	return "error"
}
