package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/proctor/pkg/handlers"
)

// Middleware authenticates every request with a bearer token and stores the
// identity in the request context. Requests without a valid token get 401.
func Middleware(v Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			id, err := v.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, logger, MapHTTPStatus(err), err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Require wraps next so that only callers holding one of roles reach it.
func Require(logger *slog.Logger, next http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			handlers.RespondError(w, logger, http.StatusUnauthorized, ErrMissingToken)
			return
		}
		if !id.Is(roles...) {
			handlers.RespondError(w, logger, http.StatusForbidden, ErrForbidden)
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
