package gate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/session"
)

// Decision is the outcome of a route guard check.
type Decision struct {
	Allowed    bool
	RedirectTo string           // Set when Allowed is false
	Session    *session.Session // Set when Allowed is true
}

// RequireRole is called on entry to every protected view. Without a session, or with a
// role outside allowed, it redirects to the portal's login route. A session whose
// token has expired is cleared first, exactly as a 401 would.
func (g *Gate) RequireRole(ctx context.Context, allowed ...roles.Role) Decision {
	deny := Decision{RedirectTo: g.portal.LoginRoute}

	sess, err := g.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) && !errors.Is(err, session.ErrInvalidSession) {
			g.logger.Err(err).Msg("RequireRole: failed to read session")
		}
		return deny
	}

	if tokenExpired(sess.Token, g.nowTime()) {
		_ = g.expire(ctx, nil, sess.Token, errors.New("token expired"))
		return deny
	}

	if !sess.Role.In(allowed...) {
		g.logger.Debug().Str("role", sess.Role.String()).Msg("RequireRole: role not allowed")
		return deny
	}

	return Decision{Allowed: true, Session: sess}
}

// tokenExpired reports whether raw is a JWT whose exp claim has passed.
// Opaque tokens are never considered expired locally.
func tokenExpired(raw string, now time.Time) bool {
	if strings.Count(raw, ".") != 2 {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
