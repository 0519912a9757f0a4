package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/property-portal/api"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/session"
	pkgerrors "github.com/pkg/errors"
)

const (
	msgCredentialsRequired = "Email and password are required"
	msgInvalidCredentials  = "Invalid email or password"
	msgWrongPortal         = "This account cannot sign in to the %s portal"
)

// Login exchanges credentials with the backend and, when every check passes, stores
// the session and calls redirect exactly once with the role's home route.
//
// Failures after a usable reply (credentials, role, token) clear any stored session.
// Network failures and unstructured replies leave storage untouched. A second call
// while one is pending returns ErrLoginInProgress.
func (g *Gate) Login(ctx context.Context, email, password string, redirect Redirect) (*session.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, newAuthError(ErrValidation, msgCredentialsRequired, nil)
	}

	if !g.loginLock.TryLock() {
		return nil, ErrLoginInProgress
	}
	defer g.loginLock.Unlock()

	ctx, generation, done, err := g.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	req := api.LoginRequest{Email: email, Password: password}
	if g.sendRole {
		req.Role = g.portal.ExpectedRole.String()
	}

	raw, err := g.client.Login(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrDiscarded, ctx.Err())
		}
		g.logger.Warn().Err(err).Str("email", email).Msg("Login request failed")
		return nil, newAuthError(ErrNetwork, msgCannotReachServer, err)
	}

	sess, authErr := g.validate(ctx, raw, email)
	if authErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrDiscarded, ctx.Err())
		}
		if !errors.Is(authErr, ErrServerFormat) {
			g.clear(ctx)
		}
		g.logger.Info().Err(authErr).Str("email", email).Msg("Login rejected")
		return nil, authErr
	}

	if err := g.persist(ctx, sess, generation); err != nil {
		return nil, err
	}

	g.logger.Info().Str("email", email).Str("role", sess.Role.String()).Msg("Login succeeded")
	if redirect != nil {
		redirect(sess.Role.HomeRoute())
	}
	return sess, nil
}

// persist stores sess unless the login has been discarded. The check and the write
// happen under the same lock as Close, Logout and expiry, so none of them can be
// undone by a reply that arrives late.
func (g *Gate) persist(ctx context.Context, sess *session.Session, generation uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case g.closed:
		return fmt.Errorf("%w: %w", ErrDiscarded, ErrClosed)
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrDiscarded, ctx.Err())
	case g.generation != generation:
		return fmt.Errorf("%w: session reset during login", ErrDiscarded)
	}

	if err := g.store.Save(context.WithoutCancel(ctx), sess); err != nil {
		g.clear(ctx)
		return pkgerrors.Wrap(err, "[Gate.Login] store.Save")
	}
	return nil
}

// validate applies the login checks in order:
// status, content type, success flag, user role present, role known,
// role compatible with the portal, token present.
func (g *Gate) validate(ctx context.Context, raw *api.RawResponse, email string) (*session.Session, *AuthError) {
	if !raw.OK() {
		if raw.StatusCode >= http.StatusInternalServerError || !raw.IsJSON() {
			return nil, newAuthError(ErrServerFormat, msgServiceUnavailable, fmt.Errorf("status %d", raw.StatusCode))
		}
		reason := msgInvalidCredentials
		if lr, err := api.DecodeLoginResponse(raw.Body); err == nil && lr.Reason() != "" {
			reason = lr.Reason()
		}
		return nil, newAuthError(ErrCredentials, reason, fmt.Errorf("status %d", raw.StatusCode))
	}

	if !raw.IsJSON() {
		return nil, newAuthError(ErrServerFormat, msgServiceUnavailable, fmt.Errorf("content type %q", raw.ContentType))
	}

	lr, err := api.DecodeLoginResponse(raw.Body)
	if err != nil {
		return nil, newAuthError(ErrServerFormat, msgServiceUnavailable, err)
	}

	if !lr.Success {
		reason := lr.Reason()
		if reason == "" {
			reason = msgInvalidCredentials
		}
		return nil, newAuthError(ErrCredentials, reason, nil)
	}

	if lr.User == nil || strings.TrimSpace(lr.User.Role) == "" {
		return nil, newAuthError(ErrCredentials, msgInvalidCredentials, errors.New("reply has no user role"))
	}

	role, err := roles.Parse(lr.User.Role)
	if err != nil {
		return nil, newAuthError(ErrAuthorization, fmt.Sprintf(msgWrongPortal, g.portal.Name), err)
	}

	if !g.portal.Accepts(role) {
		return nil, newAuthError(ErrAuthorization, fmt.Sprintf(msgWrongPortal, g.portal.Name),
			fmt.Errorf("role %s not accepted by %s portal", role, g.portal.Name))
	}

	if strings.TrimSpace(lr.Token) == "" {
		return nil, newAuthError(ErrCredentials, msgInvalidCredentials, errors.New("reply has no token"))
	}

	if g.verifier != nil {
		if err := g.verifier.Verify(ctx, lr.Token); err != nil {
			return nil, newAuthError(ErrCredentials, msgInvalidCredentials, pkgerrors.Wrap(err, "token verification"))
		}
	}

	if lr.User.UserID == "" {
		return nil, newAuthError(ErrServerFormat, msgServiceUnavailable, errors.New("reply has no user id"))
	}

	sess := &session.Session{
		Token:     lr.Token,
		UserID:    string(lr.User.UserID),
		Role:      role,
		FullName:  strings.TrimSpace(lr.User.FullName),
		Email:     strings.ToLower(strings.TrimSpace(lr.User.Email)),
		LoginTime: g.nowTime(),
		User:      lr.RawUser,
	}
	if sess.Email == "" {
		sess.Email = email
	}
	if sess.FullName == "" {
		sess.FullName = sess.Email
	}
	return sess, nil
}
