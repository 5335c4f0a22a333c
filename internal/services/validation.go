package services

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"ticket-marketplace/internal/status"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

const (
	minPasswordLength       = 6
	minChangePasswordLength = 8
	maxPurchaseQuantity     = 10000
	maxEventPasses          = 10000
	maxDescriptionLength    = 1000
)

// validationFailure turns ozzo validation output into the status taxonomy.
func validationFailure(err error) error {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for name, ferr := range verrs {
			fields[name] = ferr.Error()
		}
		return &status.ValidationError{Fields: fields}
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}

	return &status.ValidationError{Fields: map[string]string{"request": err.Error()}}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
