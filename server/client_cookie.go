package server

import (
	"net/http"

	"github.com/google/uuid"
)

const clientCookieName = "portal_client"

// clientID identifies the browser. A missing or malformed cookie gets a new UUID.
func (s *Server) clientID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(clientCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetSecureCookies() || s.env == "PROD",
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
