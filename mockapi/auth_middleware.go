package mockapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/property-portal/internal/errors"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyClaims stores the verified token claims
const ContextKeyClaims ContextKey = "claims"

// RequireToken validates the bearer access token and stores its claims in the request context
func (s *Server) RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Missing bearer token"})
			return
		}

		claims, err := s.issuer.Parse(raw)
		if err != nil {
			msg := "Invalid token"
			switch {
			case errors.Is(err, errors.ErrTokenExpired):
				msg = "Token expired"
			case errors.Is(err, errors.ErrTokenRevoked):
				msg = "Token revoked"
			}
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: msg})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims)))
	}
}

// RequireRole rejects tokens whose role cannot use the surface built for role.
// It must run inside RequireToken.
func (s *Server) RequireRole(role roles.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		if claims == nil || !claims.Role.Satisfies(role) {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "Forbidden"})
			return
		}
		next(w, r)
	}
}

func claimsFrom(r *http.Request) *token.Claims {
	claims, _ := r.Context().Value(ContextKeyClaims).(*token.Claims)
	return claims
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, raw, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
