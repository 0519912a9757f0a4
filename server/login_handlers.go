package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/jrsteele09/property-portal/gate"
)

const maxCredentialsBody = 1 << 16

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Portal       string `json:"portal"`
	ExpectedRole string `json:"expected_role"`
	LoginRoute   string `json:"login_route"`
	State        string `json:"state"`
	SignedInAs   string `json:"signed_in_as,omitempty"`
	Error        string `json:"error,omitempty"`
	Email        string `json:"email,omitempty"` // Preserve email on error
}

// LoginPageHandler describes the login page (GET /{portal}/login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portal := portalFrom(r)
		state, role := gateFrom(r).State(r.Context())

		writeJSON(w, http.StatusOK, LoginPageData{
			Portal:       portal.Name,
			ExpectedRole: portal.ExpectedRole.String(),
			LoginRoute:   portal.LoginRoute,
			State:        state.String(),
			SignedInAs:   role.String(),
			Error:        r.URL.Query().Get("error"),
			Email:        r.URL.Query().Get("email"),
		})
	}
}

// LoginSubmissionHandler processes the login form submission (POST /{portal}/login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		portal := portalFrom(r)

		email, password, err := readCredentials(w, r)
		if err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var home string
		_, err = gateFrom(r).Login(r.Context(), email, password, func(route string) { home = route })
		switch {
		case err == nil:
			redirectSuccess(w, r, home)
		case errors.Is(err, gate.ErrLoginInProgress):
			writeJSON(w, http.StatusConflict, map[string]string{"error": gate.UserMessage(err)})
		case errors.Is(err, gate.ErrDiscarded), errors.Is(err, gate.ErrClosed):
			// The client went away or the server is shutting down
			http.Error(w, "503 - Service Unavailable", http.StatusServiceUnavailable)
		default:
			redirectWithErrorAndEmail(w, r, portal.LoginRoute, gate.UserMessage(err), email)
		}
	}
}

// LogoutHandler ends the session and returns to the portal's login page
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var route string
		gateFrom(r).Logout(r.Context(), func(to string) { route = to })
		redirectSuccess(w, r, route)
	}
}

// readCredentials accepts a JSON body or a form post
func readCredentials(w http.ResponseWriter, r *http.Request) (email, password string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialsBody)).Decode(&body); err != nil {
			return "", "", err
		}
		return body.Email, body.Password, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCredentialsBody)
	if err := r.ParseForm(); err != nil {
		return "", "", err
	}
	return r.FormValue("email"), r.FormValue("password"), nil
}
