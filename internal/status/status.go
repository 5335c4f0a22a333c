package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation            = errors.New("request: validation failed")
	ErrUnauthorized          = errors.New("auth: unauthorized")
	ErrForbidden             = errors.New("auth: forbidden")
	ErrNotFound              = errors.New("store: not found")
	ErrEventNotFound         = errors.New("event: event not found")
	ErrInsufficientInventory = errors.New("event: insufficient inventory")
	ErrConflict              = errors.New("store: conflict")
	ErrStoreTimeout          = errors.New("store: operation timed out")
	ErrStoreUnavailable      = errors.New("store: unavailable")
	ErrIntegrity             = errors.New("order: inventory restore failed")
)

// InsufficientInventoryError carries the count observed when a purchase was
// rejected. It matches ErrInsufficientInventory with errors.Is.
type InsufficientInventoryError struct {
	Remaining int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("%s: %d remaining", ErrInsufficientInventory, e.Remaining)
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// ValidationError lists per-field problems. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IntegrityError is raised when an order could not be written after its
// passes were reserved. Restored reports whether the passes were handed back;
// when false the event needs manual reconciliation.
type IntegrityError struct {
	EventID  string
	Quantity int
	Restored bool
	Cause    error
}

func (e *IntegrityError) Error() string {
	if e.Restored {
		return fmt.Sprintf("%s: order for %d passes of event %s not recorded, passes restored: %v", ErrIntegrity, e.Quantity, e.EventID, e.Cause)
	}
	return fmt.Sprintf("%s: event %s lost %d passes: %v", ErrIntegrity, e.EventID, e.Quantity, e.Cause)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

func (e *IntegrityError) Unwrap() error {
	return e.Cause
}
