package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"

	"ticket-marketplace/security"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

// servedStatus is the status the client receives. A returned error is
// written by the router after the middleware chain unwinds, so it decides
// the status unless a response already went out.
func servedStatus(rec *statusRecorder, err error) int {
	if err != nil && !rec.wrote {
		return router.ToApiError(err).Status
	}
	return rec.status
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// RequestLogger tags each request with an id and logs it once it is served.
func RequestLogger(e *core.RequestEvent) error {
	requestID := e.Request.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	e.Response.Header().Set("X-Request-ID", requestID)

	rec := &statusRecorder{ResponseWriter: e.Response, status: http.StatusOK}
	e.Response = rec

	start := time.Now()
	err := e.Next()

	slog.Info("Request served",
		"request_id", requestID,
		"method", e.Request.Method,
		"path", e.Request.URL.Path,
		"status", servedStatus(rec, err),
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

// IdentityKey counts signed-in callers by identity and everyone else by
// address.
func IdentityKey(verifier Verifier) security.KeyFunc {
	return func(e *core.RequestEvent) string {
		if token := bearerToken(e.Request); token != "" {
			if id, err := verifier.Verify(token); err == nil {
				return string(id.Kind) + ":" + id.ID
			}
		}
		return security.ByIP(e)
	}
}
