package gate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/property-portal/api"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Redirect asks the caller to navigate to route.
type Redirect func(route string)

// TokenVerifier checks a freshly issued token before it is persisted.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) error
}

// State is the gate's position in the session lifecycle.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Invalid
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Gate mediates login, route entry, logout and authenticated calls for one portal
// instance (one browser client on one portal). It is the only writer of the session store.
type Gate struct {
	store         *session.Store
	client        *api.Client
	portal        roles.Portal
	verifier      TokenVerifier
	sendRole      bool
	logoutTimeout time.Duration
	nowTime       func() time.Time
	logger        zerolog.Logger

	loginLock sync.Mutex // Held for the whole of a login; TryLock rejects overlapping submissions

	mu         sync.Mutex
	closed     bool
	inflight   context.CancelFunc
	generation uint64 // Bumped by logout and expiry; a login started under an older value is never stored
}

// GateOption modifies a Gate.
type GateOption func(*Gate)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) GateOption {
	return func(g *Gate) {
		g.nowTime = nowFunc
	}
}

// WithTokenVerifier verifies tokens at login before they are stored
func WithTokenVerifier(v TokenVerifier) GateOption {
	return func(g *Gate) {
		g.verifier = v
	}
}

// WithSendRole includes the portal's expected role in the login request body
func WithSendRole(send bool) GateOption {
	return func(g *Gate) {
		g.sendRole = send
	}
}

// WithLogoutTimeout bounds the best-effort logout notification
func WithLogoutTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.logoutTimeout = d
	}
}

// WithLogger sets the gate's logger
func WithLogger(logger zerolog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New creates a gate for one portal instance.
func New(store *session.Store, client *api.Client, portal roles.Portal, options ...GateOption) (*Gate, error) {
	if store == nil {
		return nil, errors.New("[gate.New] session store is required")
	}
	if client == nil {
		return nil, errors.New("[gate.New] api client is required")
	}
	if !portal.ExpectedRole.Valid() {
		return nil, errors.New("[gate.New] portal must expect a valid role")
	}

	g := &Gate{
		store:         store,
		client:        client,
		portal:        portal,
		logoutTimeout: 5 * time.Second,
		nowTime:       time.Now,
		logger:        log.Logger.With().Str("portal", portal.Name).Logger(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Portal returns the portal this gate serves
func (g *Gate) Portal() roles.Portal {
	return g.portal
}

// Session reads the persisted session without any network I/O.
// It returns session.ErrNoSession when no valid session is stored.
func (g *Gate) Session(ctx context.Context) (*session.Session, error) {
	sess, err := g.store.Load(ctx)
	if errors.Is(err, session.ErrInvalidSession) {
		return nil, session.ErrNoSession
	}
	return sess, err
}

// State reports the lifecycle state and, when authenticated, the session's role.
func (g *Gate) State(ctx context.Context) (State, roles.Role) {
	if !g.loginLock.TryLock() {
		return Authenticating, ""
	}
	g.loginLock.Unlock()

	sess, err := g.store.Load(ctx)
	switch {
	case err == nil:
		return Authenticated, sess.Role
	case errors.Is(err, session.ErrNoSession):
		return Anonymous, ""
	default:
		return Invalid, ""
	}
}

// Close marks the portal instance as gone. An in-flight login is cancelled and its
// response, if any, is never applied.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.invalidate()
}

// begin derives the context for an in-flight login so Close, Logout and expiry can
// cancel it. The returned generation must still be current when the reply is stored.
func (g *Gate) begin(parent context.Context) (context.Context, uint64, func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, 0, nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(parent)
	g.inflight = cancel
	return ctx, g.generation, func() {
		g.mu.Lock()
		g.inflight = nil
		g.mu.Unlock()
		cancel()
	}, nil
}

// invalidate cancels any in-flight login and retires its generation. Callers hold g.mu.
func (g *Gate) invalidate() {
	g.generation++
	if g.inflight != nil {
		g.inflight()
		g.inflight = nil
	}
}

// clear wipes the session even when ctx has already been cancelled.
func (g *Gate) clear(ctx context.Context) {
	if err := g.store.Clear(context.WithoutCancel(ctx)); err != nil {
		g.logger.Err(err).Msg("Failed to clear session")
	}
}

// clearIfCurrent clears the stored session unless it carries a token other than token,
// which means a later login has replaced it. An empty token matches only an absent or
// unreadable session. Callers hold g.mu.
func (g *Gate) clearIfCurrent(ctx context.Context, token string) bool {
	sess, err := g.store.Load(context.WithoutCancel(ctx))
	if err == nil && sess.Token != token {
		return false
	}
	g.clear(ctx)
	return true
}

// expire is the shared clear-and-redirect path for 401s and expired tokens. token is
// the credential that was refused, empty when there was none; a session saved since
// by a newer login is kept and no redirect is issued. Refusing a stored token also
// cancels a login in flight.
func (g *Gate) expire(ctx context.Context, redirect Redirect, token string, cause error) error {
	g.mu.Lock()
	cleared := g.clearIfCurrent(ctx, token)
	if cleared && token != "" {
		g.invalidate()
	}
	g.mu.Unlock()

	if !cleared {
		g.logger.Debug().Err(cause).Msg("Refused token already replaced by a newer session")
		return newAuthError(ErrSessionExpired, "", cause)
	}

	g.logger.Info().Err(cause).Msg("Session expired")
	if redirect != nil {
		redirect(g.portal.LoginRoute)
	}
	return newAuthError(ErrSessionExpired, "", cause)
}
