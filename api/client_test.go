package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/property-portal/api"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := api.NewClient("/api")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be absolute")
}

func TestClient_URL(t *testing.T) {
	c, err := api.NewClient("http://backend.local/v1/")
	require.NoError(t, err)
	require.Equal(t, "http://backend.local/v1/api/auth/login", c.URL("/api/auth/login"))
	require.Equal(t, "http://backend.local/v1/payments?status=due", c.URL("payments?status=due"))
}

func TestClient_Login(t *testing.T) {
	var got api.LoginRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"success":true,"token":"abc","user":{"user_id":1,"role":"caretaker"}}`)
	}))
	defer srv.Close()

	c, err := api.NewClient(srv.URL)
	require.NoError(t, err)

	raw, err := c.Login(context.Background(), api.LoginRequest{Email: "caretaker@x.com", Password: "pw"})
	require.NoError(t, err)
	require.True(t, raw.OK())
	require.True(t, raw.IsJSON())
	require.Equal(t, "caretaker@x.com", got.Email)
	require.Empty(t, got.Role)

	lr, err := api.DecodeLoginResponse(raw.Body)
	require.NoError(t, err)
	require.True(t, lr.Success)
	require.Equal(t, "abc", lr.Token)
	require.NotNil(t, lr.User)
	require.Equal(t, api.ID("1"), lr.User.UserID)
	require.Equal(t, "caretaker", lr.User.Role)
}

func TestClient_LoginNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := api.NewClient(url)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), api.LoginRequest{Email: "a@b.c", Password: "pw"})
	require.ErrorIs(t, err, api.ErrNetwork)
}

func TestClient_LoginCancelled(t *testing.T) {
	c, err := api.NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Login(ctx, api.LoginRequest{Email: "a@b.c", Password: "pw"})
	require.True(t, errors.Is(err, context.Canceled))
	require.False(t, errors.Is(err, api.ErrNetwork))
}

func TestClient_LogoutSendsBearer(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := api.NewClient(srv.URL)
	require.NoError(t, err)
	require.NoError(t, c.Logout(context.Background(), "abc"))
	require.Equal(t, "Bearer abc", auth)
}

func TestIsJSONContentType(t *testing.T) {
	require.True(t, api.IsJSONContentType("application/json"))
	require.True(t, api.IsJSONContentType("application/json; charset=utf-8"))
	require.True(t, api.IsJSONContentType("application/problem+json"))
	require.False(t, api.IsJSONContentType("text/html; charset=utf-8"))
	require.False(t, api.IsJSONContentType(""))
}

func TestDecodeLoginResponse(t *testing.T) {
	t.Run("string user id", func(t *testing.T) {
		lr, err := api.DecodeLoginResponse([]byte(`{"success":true,"token":"t","user":{"user_id":"u-9","role":"tenant"}}`))
		require.NoError(t, err)
		require.Equal(t, api.ID("u-9"), lr.User.UserID)
	})

	t.Run("error reply", func(t *testing.T) {
		lr, err := api.DecodeLoginResponse([]byte(`{"success":false,"error":"Invalid email or password"}`))
		require.NoError(t, err)
		require.False(t, lr.Success)
		require.Nil(t, lr.User)
		require.Equal(t, "Invalid email or password", lr.Reason())
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := api.DecodeLoginResponse([]byte(`<html>`))
		require.Error(t, err)
	})
}
