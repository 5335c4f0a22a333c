package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/utils"
)

// StoreGuard bounds every store call with a timeout and routes it through a
// shared circuit breaker. Failures come back classified as StoreTimeout or
// StoreUnavailable; domain outcomes pass through untouched.
type StoreGuard struct {
	breaker *utils.CircuitBreaker
	timeout time.Duration
}

func NewStoreGuard(timeout time.Duration) *StoreGuard {
	breaker := utils.NewCircuitBreaker("store",
		utils.WithMaxRequests(20),
		utils.WithFailureRatio(0.5),
		utils.WithOpenTimeout(10*time.Second),
		utils.WithFailureFilter(func(err error) bool {
			return err != nil && !isDomainError(err)
		}),
	)
	return &StoreGuard{breaker: breaker, timeout: timeout}
}

func (g *StoreGuard) Timeout() time.Duration {
	return g.timeout
}

func (g *StoreGuard) exec(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := guarded(ctx, g, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// execUnbroken applies only the timeout. Compensation uses it so an open
// breaker cannot stop passes from being handed back.
func (g *StoreGuard) execUnbroken(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return classify(op, fn(ctx))
}

func guarded[T any](ctx context.Context, g *StoreGuard, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.breaker.Execute(ctx, func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, classify(op, err)
	}

	value, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected result type %T", op, result)
	}
	return value, nil
}

func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, status.ErrStoreTimeout)
	default:
		return fmt.Errorf("%s: %w: %w", op, status.ErrStoreUnavailable, err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		status.ErrValidation,
		status.ErrUnauthorized,
		status.ErrForbidden,
		status.ErrNotFound,
		status.ErrEventNotFound,
		status.ErrInsufficientInventory,
		status.ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
