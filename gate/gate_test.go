package gate_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/property-portal/api"
	"github.com/jrsteele09/property-portal/gate"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/session"
	"github.com/jrsteele09/property-portal/storage"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "caretaker@x.com"
	testPassword = "pw"
	caretakerOK  = `{"success":true,"token":"abc","user":{"user_id":1,"role":"caretaker","email":"caretaker@x.com","full_name":"C"}}`
)

// testFixture holds a gate wired to an httptest backend
type testFixture struct {
	repo      storage.Repo
	store     *session.Store
	gate      *gate.Gate
	backend   *httptest.Server
	requests  atomic.Int32
	mu        sync.Mutex
	redirects []string
}

func setupTestFixture(t *testing.T, portal roles.Portal, handler http.HandlerFunc, options ...gate.GateOption) *testFixture {
	t.Helper()

	f := &testFixture{repo: storage.NewInMemoryRepo()}
	f.store = session.NewStore(f.repo)
	f.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(f.backend.Close)

	client, err := api.NewClient(f.backend.URL)
	require.NoError(t, err)

	g, err := gate.New(f.store, client, portal, options...)
	require.NoError(t, err)
	f.gate = g
	return f
}

func (f *testFixture) redirect(route string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirects = append(f.redirects, route)
}

func (f *testFixture) redirected() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.redirects...)
}

func (f *testFixture) stored(t *testing.T) map[string]string {
	t.Helper()
	values, err := f.repo.GetAll(context.Background(), session.Keys...)
	require.NoError(t, err)
	return values
}

func (f *testFixture) seedSession(t *testing.T, token string, role roles.Role) {
	t.Helper()
	err := f.store.Save(context.Background(), &session.Session{
		Token:     token,
		UserID:    "seed",
		Role:      role,
		FullName:  "Seed User",
		Email:     "seed@x.com",
		LoginTime: time.Now(),
	})
	require.NoError(t, err)
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func loginReply(role, token string) string {
	b, _ := json.Marshal(map[string]any{
		"success": true,
		"token":   token,
		"user": map[string]any{
			"user_id":   42,
			"role":      role,
			"email":     role + "@x.com",
			"full_name": "Some " + role,
		},
	})
	return string(b)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestLogin_CaretakerSucceeds(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, jsonReply(http.StatusOK, caretakerOK))

	sess, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)

	require.NoError(t, err)
	require.Equal(t, "abc", sess.Token)
	require.Equal(t, roles.Caretaker, sess.Role)

	values := f.stored(t)
	require.Equal(t, "abc", values[session.KeyToken])
	require.Equal(t, "caretaker", values[session.KeyRole])
	require.Equal(t, "1", values[session.KeyUserID])
	require.Equal(t, "C", values[session.KeyFullName])
	for _, k := range session.Keys {
		require.NotEmpty(t, values[k], "key %s should be stored", k)
	}
	require.Equal(t, []string{"/caretaker/dashboard"}, f.redirected())
}

func TestLogin_TenantOnCaretakerPortal(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal,
		jsonReply(http.StatusOK, `{"success":true,"user":{"user_id":2,"role":"tenant"},"token":"abc"}`))

	_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)

	require.ErrorIs(t, err, gate.ErrAuthorization)
	require.Empty(t, f.stored(t))
	require.Empty(t, f.redirected())
}

func TestLogin_RoleMismatchAlwaysClears(t *testing.T) {
	for _, portal := range roles.Portals() {
		for _, actual := range roles.All {
			if portal.Accepts(actual) {
				continue
			}
			t.Run(portal.Name+"/"+actual.String(), func(t *testing.T) {
				f := setupTestFixture(t, portal, jsonReply(http.StatusOK, loginReply(actual.String(), "tok")))
				f.seedSession(t, "old-token", portal.ExpectedRole)

				_, err := f.gate.Login(context.Background(), "user@x.com", testPassword, f.redirect)

				require.ErrorIs(t, err, gate.ErrAuthorization)
				require.Empty(t, f.stored(t))
				require.Empty(t, f.redirected())
			})
		}
	}
}

func TestLogin_AdminThroughCaretakerPortal(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, jsonReply(http.StatusOK, loginReply("admin", "tok")))

	sess, err := f.gate.Login(context.Background(), "admin@x.com", testPassword, f.redirect)

	require.NoError(t, err)
	require.Equal(t, roles.Admin, sess.Role)
	require.Equal(t, []string{"/admin/dashboard"}, f.redirected())
}

func TestLogin_ServerErrorWithHTML(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<html><body>Internal Server Error</body></html>")
	})

	_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)

	require.ErrorIs(t, err, gate.ErrServerFormat)
	require.Equal(t, "The service is unavailable right now. Please try again later.", gate.UserMessage(err))
	require.Empty(t, f.stored(t))
	require.Empty(t, f.redirected())
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		kind    error
		message string
	}{
		{
			name:    "html with 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = io.WriteString(w, "<p>ok</p>")
			},
			kind:    gate.ErrServerFormat,
		},
		{
			name:    "malformed json",
			handler: jsonReply(http.StatusOK, `{"success":tru`),
			kind:    gate.ErrServerFormat,
		},
		{
			name:    "401 with server reason",
			handler: jsonReply(http.StatusUnauthorized, `{"success":false,"error":"Invalid email or password"}`),
			kind:    gate.ErrCredentials,
			message: "Invalid email or password",
		},
		{
			name:    "success flag false",
			handler: jsonReply(http.StatusOK, `{"success":false,"message":"Account suspended"}`),
			kind:    gate.ErrCredentials,
			message: "Account suspended",
		},
		{
			name:    "no user object",
			handler: jsonReply(http.StatusOK, `{"success":true,"token":"abc"}`),
			kind:    gate.ErrCredentials,
		},
		{
			name:    "empty role",
			handler: jsonReply(http.StatusOK, `{"success":true,"token":"abc","user":{"user_id":1,"role":""}}`),
			kind:    gate.ErrCredentials,
		},
		{
			name:    "unknown role",
			handler: jsonReply(http.StatusOK, `{"success":true,"token":"abc","user":{"user_id":1,"role":"landlord"}}`),
			kind:    gate.ErrAuthorization,
		},
		{
			name:    "missing token",
			handler: jsonReply(http.StatusOK, `{"success":true,"user":{"user_id":1,"role":"caretaker"}}`),
			kind:    gate.ErrCredentials,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := setupTestFixture(t, roles.CaretakerPortal, c.handler)

			_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)

			require.ErrorIs(t, err, c.kind)
			if c.message != "" {
				require.Equal(t, c.message, gate.UserMessage(err))
			}
			require.Empty(t, f.stored(t))
			require.Empty(t, f.redirected())
		})
	}
}

func TestLogin_ValidationSkipsNetwork(t *testing.T) {
	f := setupTestFixture(t, roles.TenantPortal, jsonReply(http.StatusOK, loginReply("tenant", "tok")))

	_, err := f.gate.Login(context.Background(), "   ", testPassword, f.redirect)
	require.ErrorIs(t, err, gate.ErrValidation)
	require.Equal(t, "Email and password are required", gate.UserMessage(err))

	_, err = f.gate.Login(context.Background(), testEmail, "", f.redirect)
	require.ErrorIs(t, err, gate.ErrValidation)

	require.Zero(t, f.requests.Load())
}

func TestLogin_NormalisesEmailAndSendsRole(t *testing.T) {
	var got api.LoginRequest
	f := setupTestFixture(t, roles.TenantPortal, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		jsonReply(http.StatusOK, loginReply("tenant", "tok"))(w, r)
	}, gate.WithSendRole(true))

	_, err := f.gate.Login(context.Background(), "  Tenant@X.com ", testPassword, f.redirect)

	require.NoError(t, err)
	require.Equal(t, "tenant@x.com", got.Email)
	require.Equal(t, "tenant", got.Role)
}

func TestLogin_NetworkFailureLeavesStorage(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, jsonReply(http.StatusOK, caretakerOK))
	f.seedSession(t, "existing", roles.Caretaker)
	f.backend.Close()

	_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)

	require.ErrorIs(t, err, gate.ErrNetwork)
	require.Equal(t, "Cannot reach the server. Check your connection and try again.", gate.UserMessage(err))
	require.Equal(t, "existing", f.stored(t)[session.KeyToken])
	require.Empty(t, f.redirected())
}

func TestLogin_SecondSubmissionIgnored(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f := setupTestFixture(t, roles.CaretakerPortal, func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		jsonReply(http.StatusOK, caretakerOK)(w, r)
	})
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	result := make(chan error, 1)
	go func() {
		_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)
		result <- err
	}()
	<-entered

	state, _ := f.gate.State(context.Background())
	require.Equal(t, gate.Authenticating, state)

	_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)
	require.ErrorIs(t, err, gate.ErrLoginInProgress)
	require.Equal(t, "A sign-in is already in progress.", gate.UserMessage(err))

	close(release)
	require.NoError(t, <-result)
	require.Equal(t, int32(1), f.requests.Load())
	require.Equal(t, []string{"/caretaker/dashboard"}, f.redirected())
}

func TestLogin_CloseDiscardsInflightResponse(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f := setupTestFixture(t, roles.CaretakerPortal, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		jsonReply(http.StatusOK, caretakerOK)(w, r)
	})
	t.Cleanup(func() { close(release) })

	result := make(chan error, 1)
	go func() {
		_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)
		result <- err
	}()
	<-entered
	f.gate.Close()

	err := <-result
	require.ErrorIs(t, err, gate.ErrDiscarded)
	require.Empty(t, f.stored(t))
	require.Empty(t, f.redirected())

	_, err = f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)
	require.ErrorIs(t, err, gate.ErrClosed)
}

func TestLogout_DuringLoginDiscardsResponse(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var logoutCalls atomic.Int32
	f := setupTestFixture(t, roles.CaretakerPortal, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == api.DefaultLogoutPath {
			logoutCalls.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		once.Do(func() { close(entered) })
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		jsonReply(http.StatusOK, caretakerOK)(w, r)
	})

	result := make(chan error, 1)
	go func() {
		_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)
		result <- err
	}()
	<-entered

	f.gate.Logout(context.Background(), f.redirect)
	close(release)

	err := <-result
	require.ErrorIs(t, err, gate.ErrDiscarded)
	require.Empty(t, f.stored(t))
	require.Equal(t, []string{"/caretaker/login"}, f.redirected())
	require.Zero(t, logoutCalls.Load())

	state, _ := f.gate.State(context.Background())
	require.Equal(t, gate.Anonymous, state)

	// The gate stays usable after the discarded login
	_, err = f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)
	require.NoError(t, err)
	require.Equal(t, "abc", f.stored(t)[session.KeyToken])
}

func TestDo_StaleUnauthorizedKeepsNewerSession(t *testing.T) {
	var f *testFixture
	f = setupTestFixture(t, roles.CaretakerPortal, func(w http.ResponseWriter, r *http.Request) {
		// A newer login lands while the old token's request is in flight
		_ = f.store.Save(context.Background(), &session.Session{
			Token:     "new",
			UserID:    "seed",
			Role:      roles.Caretaker,
			LoginTime: time.Now(),
		})
		jsonReply(http.StatusUnauthorized, `{"error":"token revoked"}`)(w, r)
	})
	f.seedSession(t, "old", roles.Caretaker)

	req, err := f.gate.NewRequest(context.Background(), http.MethodGet, "/api/caretaker/tickets", nil)
	require.NoError(t, err)
	_, err = f.gate.Do(context.Background(), req, f.redirect)

	require.ErrorIs(t, err, gate.ErrSessionExpired)
	require.Equal(t, "new", f.stored(t)[session.KeyToken])
	require.Empty(t, f.redirected())
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(context.Context, string) error {
	return io.ErrUnexpectedEOF
}

func TestLogin_TokenVerifierRejects(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, jsonReply(http.StatusOK, caretakerOK),
		gate.WithTokenVerifier(rejectingVerifier{}))

	_, err := f.gate.Login(context.Background(), testEmail, testPassword, f.redirect)

	require.ErrorIs(t, err, gate.ErrCredentials)
	require.Empty(t, f.stored(t))
}

func TestSession(t *testing.T) {
	f := setupTestFixture(t, roles.TenantPortal, jsonReply(http.StatusOK, "{}"))

	_, err := f.gate.Session(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)

	f.seedSession(t, "tok", roles.Tenant)
	sess, err := f.gate.Session(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok", sess.Token)
	require.Zero(t, f.requests.Load())
}

func TestRequireRole_EmptyStoreAlwaysRedirects(t *testing.T) {
	sets := [][]roles.Role{
		nil,
		{roles.Tenant},
		{roles.Caretaker, roles.Admin},
		roles.All,
	}
	for _, portal := range roles.Portals() {
		f := setupTestFixture(t, portal, jsonReply(http.StatusOK, "{}"))
		for _, allowed := range sets {
			d := f.gate.RequireRole(context.Background(), allowed...)
			require.False(t, d.Allowed)
			require.Equal(t, portal.LoginRoute, d.RedirectTo)
		}
	}
}

func TestRequireRole(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, jsonReply(http.StatusOK, "{}"))
	f.seedSession(t, "tok", roles.Caretaker)

	t.Run("allowed", func(t *testing.T) {
		d := f.gate.RequireRole(context.Background(), roles.CaretakerPortal.Allowed...)
		require.True(t, d.Allowed)
		require.Equal(t, "tok", d.Session.Token)
	})

	t.Run("disallowed leaves session", func(t *testing.T) {
		d := f.gate.RequireRole(context.Background(), roles.Admin)
		require.False(t, d.Allowed)
		require.Equal(t, "/caretaker/login", d.RedirectTo)
		require.Equal(t, "tok", f.stored(t)[session.KeyToken])
	})

	t.Run("partial session", func(t *testing.T) {
		require.NoError(t, f.repo.Delete(context.Background(), session.KeyRole))
		d := f.gate.RequireRole(context.Background(), roles.All...)
		require.False(t, d.Allowed)
		require.Empty(t, f.stored(t))
	})
}

func TestRequireRole_ExpiredTokenClears(t *testing.T) {
	f := setupTestFixture(t, roles.TenantPortal, jsonReply(http.StatusOK, "{}"))
	f.seedSession(t, signedToken(t, time.Now().Add(-time.Minute)), roles.Tenant)

	d := f.gate.RequireRole(context.Background(), roles.Tenant)

	require.False(t, d.Allowed)
	require.Equal(t, "/tenant/login", d.RedirectTo)
	require.Empty(t, f.stored(t))

	f.seedSession(t, signedToken(t, time.Now().Add(time.Hour)), roles.Tenant)
	require.True(t, f.gate.RequireRole(context.Background(), roles.Tenant).Allowed)
}

func TestDo_SendsBearer(t *testing.T) {
	var auth, path string
	f := setupTestFixture(t, roles.TenantPortal, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.RequestURI()
		jsonReply(http.StatusOK, `{"payments":[]}`)(w, r)
	})
	f.seedSession(t, "tok", roles.Tenant)

	req, err := http.NewRequest(http.MethodGet, "/api/tenant/payments?status=due", nil)
	require.NoError(t, err)
	resp, err := f.gate.Do(context.Background(), req, f.redirect)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Bearer tok", auth)
	require.Equal(t, "/api/tenant/payments?status=due", path)
	require.Empty(t, f.redirected())
}

func TestDo_UnauthorizedMatchesLogout(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, jsonReply(http.StatusUnauthorized, `{"error":"token expired"}`))
	f.seedSession(t, "tok", roles.Caretaker)

	req, err := f.gate.NewRequest(context.Background(), http.MethodGet, "/api/caretaker/tickets", nil)
	require.NoError(t, err)
	_, err = f.gate.Do(context.Background(), req, f.redirect)

	require.ErrorIs(t, err, gate.ErrSessionExpired)
	require.Empty(t, gate.UserMessage(err))
	afterExpiry := f.stored(t)
	require.Empty(t, afterExpiry)
	require.Equal(t, []string{"/caretaker/login"}, f.redirected())

	// Explicit logout from the same starting point ends in the same place
	f.seedSession(t, "tok", roles.Caretaker)
	f.gate.Logout(context.Background(), f.redirect)
	require.Equal(t, afterExpiry, f.stored(t))
	require.Equal(t, []string{"/caretaker/login", "/caretaker/login"}, f.redirected())
}

func TestDo_WithoutSession(t *testing.T) {
	f := setupTestFixture(t, roles.AdminPortal, jsonReply(http.StatusOK, "{}"))

	req, err := f.gate.NewRequest(context.Background(), http.MethodGet, "/api/admin/users", nil)
	require.NoError(t, err)
	_, err = f.gate.Do(context.Background(), req, f.redirect)

	require.ErrorIs(t, err, gate.ErrSessionExpired)
	require.Equal(t, []string{"/admin/login"}, f.redirected())
	require.Zero(t, f.requests.Load())
}

func TestLogout_NotifiesBackend(t *testing.T) {
	var auth, path string
	f := setupTestFixture(t, roles.TenantPortal, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	f.seedSession(t, "tok", roles.Tenant)

	f.gate.Logout(context.Background(), f.redirect)

	require.Equal(t, "Bearer tok", auth)
	require.Equal(t, api.DefaultLogoutPath, path)
	require.Empty(t, f.stored(t))
	require.Equal(t, []string{"/tenant/login"}, f.redirected())
}

func TestLogout_UnreachableBackend(t *testing.T) {
	f := setupTestFixture(t, roles.TenantPortal, jsonReply(http.StatusOK, "{}"), gate.WithLogoutTimeout(time.Second))
	f.seedSession(t, "tok", roles.Tenant)
	f.backend.Close()

	f.gate.Logout(context.Background(), f.redirect)

	require.Empty(t, f.stored(t))
	require.Equal(t, []string{"/tenant/login"}, f.redirected())
}

func TestState(t *testing.T) {
	f := setupTestFixture(t, roles.CaretakerPortal, jsonReply(http.StatusOK, caretakerOK))
	ctx := context.Background()

	state, _ := f.gate.State(ctx)
	require.Equal(t, gate.Anonymous, state)

	_, err := f.gate.Login(ctx, testEmail, testPassword, f.redirect)
	require.NoError(t, err)
	state, role := f.gate.State(ctx)
	require.Equal(t, gate.Authenticated, state)
	require.Equal(t, roles.Caretaker, role)

	require.NoError(t, f.repo.Delete(ctx, session.KeyRole))
	state, _ = f.gate.State(ctx)
	require.Equal(t, gate.Invalid, state)

	state, _ = f.gate.State(ctx)
	require.Equal(t, gate.Anonymous, state)
}

func TestNew_RequiresDependencies(t *testing.T) {
	client, err := api.NewClient("http://localhost")
	require.NoError(t, err)
	store := session.NewStore(storage.NewInMemoryRepo())

	_, err = gate.New(nil, client, roles.TenantPortal)
	require.Error(t, err)
	_, err = gate.New(store, nil, roles.TenantPortal)
	require.Error(t, err)
	_, err = gate.New(store, client, roles.Portal{Name: "x"})
	require.Error(t, err)
}
