package testutil

import (
	"net/http"
	"time"

	"travelkeep/pkg/requestcontext"
)

// WithTime pins the request-scoped clock.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
