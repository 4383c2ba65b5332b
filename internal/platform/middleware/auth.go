package middleware

import (
	"log/slog"
	"net/http"

	"covault/internal/identity"
	id "covault/pkg/domain"
	"covault/pkg/platform/httputil"
	"covault/pkg/requestcontext"
)

// GetParticipant retrieves the caller resolved by RequireParticipant.
func GetParticipant(r *http.Request) id.ParticipantID {
	return requestcontext.Participant(r.Context())
}

// RequireParticipant resolves the caller's participant key and rejects the
// request with 401 when none can be established.
func RequireParticipant(resolver identity.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, err := resolver.Resolve(r)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithParticipant(ctx, p)))
		})
	}
}
