package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/property-portal/gate"
)

// forwarded request and response headers for the API proxy
var (
	proxyRequestHeaders  = []string{"Content-Type", "Accept", "Accept-Language"}
	proxyResponseHeaders = []string{"Content-Type", "Cache-Control", "ETag", "Last-Modified"}
)

// DashboardHandler returns the signed-in profile for a protected portal page
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portal := portalFrom(r)
		sess := sessionFrom(r)

		body := map[string]any{
			"portal":     portal.Name,
			"role":       sess.Role,
			"user_id":    sess.UserID,
			"email":      sess.Email,
			"full_name":  sess.FullName,
			"login_time": sess.LoginTime.Format(time.RFC3339),
			"home_route": sess.Role.HomeRoute(),
		}
		if len(sess.User) > 0 && json.Valid(sess.User) {
			body["user"] = json.RawMessage(sess.User)
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// APIProxyHandler forwards /{portal}/api/... to the backend with the session's token.
// A 401 from the backend ends the session exactly as logout does.
func (s *Server) APIProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := gateFrom(r)

		path := "/api/" + r.PathValue("path")
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		req, err := g.NewRequest(r.Context(), r.Method, path, r.Body)
		if err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		req.ContentLength = r.ContentLength
		for _, h := range proxyRequestHeaders {
			if v := r.Header.Get(h); v != "" {
				req.Header.Set(h, v)
			}
		}

		var loginRoute string
		resp, err := g.Do(r.Context(), req, func(route string) { loginRoute = route })
		if err != nil {
			switch {
			case errors.Is(err, gate.ErrSessionExpired):
				if loginRoute == "" {
					// A newer login replaced the refused token; the caller may retry
					loginRoute = portalFrom(r).LoginRoute
				}
				unauthorized(w, r, loginRoute)
			case r.Context().Err() != nil:
				// Client disconnected; nothing to answer
			case errors.Is(err, gate.ErrNetwork):
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": gate.UserMessage(err)})
			default:
				logError(r.Method, r.URL.Path, err.Error())
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": gate.UserMessage(err)})
			}
			return
		}
		defer resp.Body.Close()

		for _, h := range proxyResponseHeaders {
			if v := resp.Header.Get(h); v != "" {
				w.Header().Set(h, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logError(r.Method, r.URL.Path, err.Error())
		}
	}
}
