package gate

import (
	"context"
	"errors"

	"github.com/jrsteele09/property-portal/session"
)

// Logout tells the backend the session is over, then clears local storage and
// redirects to the login route. The backend call is best effort: its failure is
// logged and never prevents the local clear. A login still in flight is cancelled
// and its reply is never stored.
func (g *Gate) Logout(ctx context.Context, redirect Redirect) {
	g.mu.Lock()
	g.invalidate()
	g.mu.Unlock()

	var token string
	sess, err := g.store.Load(ctx)
	switch {
	case err == nil:
		token = sess.Token
		g.notifyLogout(ctx, token)
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrInvalidSession):
	default:
		g.logger.Err(err).Msg("Logout: failed to read session")
	}

	g.mu.Lock()
	g.clearIfCurrent(ctx, token)
	g.mu.Unlock()
	if redirect != nil {
		redirect(g.portal.LoginRoute)
	}
}

func (g *Gate) notifyLogout(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.logoutTimeout)
	defer cancel()

	if err := g.client.Logout(ctx, token); err != nil {
		g.logger.Warn().Err(err).Msg("Logout: backend notification failed")
	}
}
