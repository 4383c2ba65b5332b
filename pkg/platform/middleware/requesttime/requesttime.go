// Package requesttime pins one "now" per HTTP request so every timestamp a
// command writes (transactions, votes, expiry checks, audit events) agrees.
package requesttime

import (
	"net/http"
	"time"

	"covault/pkg/requestcontext"
)

// Middleware captures time.Now at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock captures now() instead of the wall clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
