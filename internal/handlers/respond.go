package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"ticket-marketplace/internal/status"
	"ticket-marketplace/models"
)

// Verifier resolves a session token to the identity it was issued for.
// Authenticate also confirms the account behind it still exists.
type Verifier interface {
	Verify(token string) (models.Identity, error)
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// identity returns the caller of a request. A request without a token is
// anonymous (zero identity); a request with a bad token is rejected. Reads
// trust the token alone, writes also need a live account.
func identity(e *core.RequestEvent, verifier Verifier) (models.Identity, error) {
	token := bearerToken(e.Request)
	if token == "" {
		return models.Identity{}, nil
	}
	switch e.Request.Method {
	case http.MethodGet, http.MethodHead:
		return verifier.Verify(token)
	}
	return verifier.Authenticate(e.Request.Context(), token)
}

// errorBody maps an error to its HTTP status and JSON envelope.
func errorBody(err error) (int, map[string]any) {
	var (
		verr      *status.ValidationError
		inventory *status.InsufficientInventoryError
		integrity *status.IntegrityError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"code":   "validation_error",
			"fields": verr.Fields,
		}
	case errors.Is(err, status.ErrValidation):
		return http.StatusBadRequest, envelope("Validation failed", "validation_error")
	case errors.As(err, &inventory):
		return http.StatusConflict, map[string]any{
			"error":     "Not enough passes remaining",
			"code":      "insufficient_inventory",
			"remaining": inventory.Remaining,
		}
	case errors.As(err, &integrity):
		if integrity.Restored {
			return http.StatusServiceUnavailable, envelope("Order could not be recorded, please retry", "integrity_error")
		}
		return http.StatusInternalServerError, envelope("Order could not be recorded", "integrity_error")
	case errors.Is(err, status.ErrUnauthorized):
		return http.StatusUnauthorized, envelope("Authentication required", "unauthorized")
	case errors.Is(err, status.ErrForbidden):
		return http.StatusForbidden, envelope("Not allowed", "forbidden")
	case errors.Is(err, status.ErrEventNotFound):
		return http.StatusNotFound, envelope("Event not found", "event_not_found")
	case errors.Is(err, status.ErrNotFound):
		return http.StatusNotFound, envelope("Not found", "not_found")
	case errors.Is(err, status.ErrConflict):
		return http.StatusConflict, envelope("Already exists", "conflict")
	case errors.Is(err, status.ErrStoreTimeout):
		return http.StatusServiceUnavailable, envelope("Store timed out, please retry", "store_timeout")
	case errors.Is(err, status.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, envelope("Store unavailable, please retry", "store_unavailable")
	}
	return http.StatusInternalServerError, envelope("Internal server error", "internal_error")
}

func envelope(msg, code string) map[string]any {
	return map[string]any{"error": msg, "code": code}
}

// fail writes err as a JSON error response.
func fail(e *core.RequestEvent, err error) error {
	code, body := errorBody(err)
	if code >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"method", e.Request.Method,
			"path", e.Request.URL.Path,
			"status", code,
			"error", err,
		)
	}
	return e.JSON(code, body)
}

// bind decodes the request body. An undecodable body is a validation
// failure like any other so it gets the same envelope.
func bind(e *core.RequestEvent, dst any) error {
	if err := e.BindBody(dst); err != nil {
		slog.Debug("Request body rejected", "path", e.Request.URL.Path, "error", err)
		return status.NewValidationError("request", "invalid JSON body")
	}
	return nil
}
