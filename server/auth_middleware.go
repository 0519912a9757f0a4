package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/property-portal/gate"
	"github.com/jrsteele09/property-portal/internal/errors"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/session"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPortal stores the roles.Portal named by the {portal} path segment
	ContextKeyPortal ContextKey = "portal"
	// ContextKeyGate stores the client's gate for that portal
	ContextKeyGate ContextKey = "gate"
	// ContextKeySession stores the session admitted by RequireRole
	ContextKeySession ContextKey = "session"
)

// PortalMiddleware resolves {portal} and the browser client's gate for it.
func (s *Server) PortalMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portal, ok := s.portals[r.PathValue("portal")]
		if !ok {
			http.Error(w, "404 - Page not found", http.StatusNotFound)
			return
		}

		g, err := s.gates.Get(s.clientID(w, r), portal)
		if err != nil {
			logError(r.Method, r.URL.Path, errors.Wrapf(err, "gate").Error())
			http.Error(w, "503 - Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyPortal, portal)
		ctx = context.WithValue(ctx, ContextKeyGate, g)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole admits requests whose stored session role is allowed on the portal.
// Everything else is redirected to the portal's login route. It must run after PortalMiddleware.
func (s *Server) RequireRole(next http.HandlerFunc) http.HandlerFunc {
	return requireRole(next, redirectSuccess)
}

// RequireRoleAPI is RequireRole for JSON routes: denials answer 401 and name the login route.
func (s *Server) RequireRoleAPI(next http.HandlerFunc) http.HandlerFunc {
	return requireRole(next, unauthorized)
}

func requireRole(next http.HandlerFunc, deny func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portal := portalFrom(r)
		g := gateFrom(r)

		decision := g.RequireRole(r.Context(), portal.Allowed...)
		if !decision.Allowed {
			deny(w, r, decision.RedirectTo)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, decision.Session)))
	}
}

func portalFrom(r *http.Request) roles.Portal {
	p, _ := r.Context().Value(ContextKeyPortal).(roles.Portal)
	return p
}

func gateFrom(r *http.Request) *gate.Gate {
	g, _ := r.Context().Value(ContextKeyGate).(*gate.Gate)
	return g
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ContextKeySession).(*session.Session)
	return sess
}
