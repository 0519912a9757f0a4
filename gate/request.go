package gate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/jrsteele09/property-portal/session"
	pkgerrors "github.com/pkg/errors"
)

// Do sends req to the backend with the session's bearer token. Relative request
// URLs are resolved against the backend base URL.
//
// A 401 reply, a missing session or a locally expired token all take the same path
// as Logout without the backend call: storage is cleared, redirect is called with the
// login route and an ErrSessionExpired error is returned. A 401 for a token that a
// newer login has already replaced returns ErrSessionExpired but leaves the newer
// session and skips the redirect.
func (g *Gate) Do(ctx context.Context, req *http.Request, redirect Redirect) (*http.Response, error) {
	sess, err := g.store.Load(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrInvalidSession) {
			return nil, g.expire(ctx, redirect, "", err)
		}
		return nil, pkgerrors.Wrap(err, "[Gate.Do] store.Load")
	}

	if tokenExpired(sess.Token, g.nowTime()) {
		return nil, g.expire(ctx, redirect, sess.Token, errors.New("token expired"))
	}

	out := req.Clone(ctx)
	if !out.URL.IsAbs() {
		u, err := url.Parse(g.client.URL(out.URL.RequestURI()))
		if err != nil {
			return nil, newAuthError(ErrValidation, "Invalid request path", err)
		}
		out.URL = u
		out.Host = u.Host
	}
	out.RequestURI = ""

	resp, err := g.client.Authenticated(sess.Token).Do(out)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newAuthError(ErrNetwork, msgCannotReachServer, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
		return nil, g.expire(ctx, redirect, sess.Token, errors.New("backend answered 401"))
	}
	return resp, nil
}

// NewRequest builds a backend request for path, ready for Do.
func (g *Gate) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, g.client.URL(path), body)
}
