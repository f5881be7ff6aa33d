package middleware

import (
	"context"
	"net/http"

	"github.com/MikhailRaia/url-mapper/internal/auth"
	"github.com/rs/zerolog/log"
)

type contextKey string

// OperatorKey is the context key used to store the authenticated operator.
const OperatorKey contextKey = "operator"

// AuthorizationHeader is the request header that carries the operator token.
const AuthorizationHeader = "Authorization"

// AuthMiddleware checks the Authorization header of API requests.
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates an AuthMiddleware. A nil jwtService accepts any
// token, but the header itself must still be present.
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// RequireToken rejects requests without an Authorization header, and with a
// JWT service configured, requests whose token does not validate.
func (a *AuthMiddleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasAuthorizationHeader(r) {
			log.Debug().Str("uri", r.RequestURI).Msg("Missing Authorization header")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if a.jwtService == nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.jwtService.ValidateToken(r.Header.Get(AuthorizationHeader))
		if err != nil {
			log.Debug().Err(err).Str("uri", r.RequestURI).Msg("Rejected token")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), OperatorKey, claims.Operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HasAuthorizationHeader reports whether the header was sent, even with an empty value.
func HasAuthorizationHeader(r *http.Request) bool {
	_, ok := r.Header[http.CanonicalHeaderKey(AuthorizationHeader)]
	return ok
}

// GetOperatorFromContext extracts the authenticated operator from context.
func GetOperatorFromContext(ctx context.Context) (string, bool) {
	operator, ok := ctx.Value(OperatorKey).(string)
	return operator, ok
}
