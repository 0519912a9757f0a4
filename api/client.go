package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	DefaultLoginPath  = "/api/auth/login"
	DefaultLogoutPath = "/api/auth/logout"

	maxBodyBytes = 1 << 20
)

// ErrNetwork marks failures where no HTTP reply was received.
var ErrNetwork = errors.New("network error")

// Client talks to the property-management REST backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	loginPath  string
	logoutPath string
}

// ClientOption modifies a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (its transport is reused for authenticated calls)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLoginPath overrides the login endpoint path
func WithLoginPath(path string) ClientOption {
	return func(c *Client) {
		c.loginPath = path
	}
}

// WithLogoutPath overrides the logout endpoint path
func WithLogoutPath(path string) ClientOption {
	return func(c *Client) {
		c.logoutPath = path
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[api.NewClient] invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[api.NewClient] base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		loginPath:  DefaultLoginPath,
		logoutPath: DefaultLogoutPath,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// URL resolves path against the base URL, keeping any query string.
func (c *Client) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}

// Login posts the credentials and returns the reply undecoded, whatever its status.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*RawResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("[Client.Login] marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(c.loginPath), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("[Client.Login] new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, networkError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, networkError(ctx, err)
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}

// Logout notifies the backend that token is no longer in use. The reply body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(c.logoutPath), http.NoBody)
	if err != nil {
		return fmt.Errorf("[Client.Logout] new request: %w", err)
	}

	resp, err := c.Authenticated(token).Do(httpReq)
	if err != nil {
		return networkError(ctx, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("[Client.Logout] unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Authenticated returns an HTTP client that sends token as a bearer credential.
func (c *Client) Authenticated(token string) *http.Client {
	return &http.Client{
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Transport: &oauth2.Transport{
			Base:   c.httpClient.Transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		},
	}
}

func networkError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}
