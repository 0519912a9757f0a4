package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/property-portal/api"
	"github.com/jrsteele09/property-portal/internal/errors"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/users"
)

const maxLoginBody = 1 << 16

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func toAPIUser(u *users.User) *api.User {
	return &api.User{
		UserID:   api.ID(u.ID),
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role.String(),
		Phone:    u.Phone,
	}
}

// OpenIDConfigHandler serves the discovery document verifiers use to find the signing keys
func (s *Server) OpenIDConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := s.issuer.IssuerURL()
		writeJSON(w, http.StatusOK, map[string]any{
			"issuer":                                issuer,
			"jwks_uri":                              issuer + RouteWellKnownJWKS,
			"response_types_supported":              []string{"token"},
			"subject_types_supported":               []string{"public"},
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	}
}

func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.issuer.JWKS()
		if err != nil {
			s.logger.Err(err).Msg("JWKS")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
			return
		}
		writeJSON(w, http.StatusOK, jwks)
	}
}

// LoginHandler checks credentials and issues an access token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
			return
		}

		email := users.NormaliseEmail(req.Email)
		if email == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Email and password are required"})
			return
		}

		user, err := s.users.GetByEmail(email)
		if err != nil || !user.CheckPassword(req.Password) {
			s.logger.Info().Str("email", email).Msg("Login failed")
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid email or password"})
			return
		}

		if user.Blocked {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "Account is blocked. Contact support."})
			return
		}

		if req.Role != "" {
			role, err := roles.Parse(req.Role)
			if err != nil || !user.CanUse(role) {
				writeJSON(w, http.StatusForbidden, errorBody{Error: fmt.Sprintf("This account cannot sign in to the %s portal", req.Role)})
				return
			}
		}

		raw, _, err := s.issuer.Issue(user)
		if err != nil {
			s.logger.Err(err).Str("email", email).Msg("Issue token")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
			return
		}

		if err := s.users.SetLastLogin(email, time.Now().UTC()); err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("SetLastLogin")
		}

		s.logger.Info().Str("email", email).Str("role", user.Role.String()).Msg("Login succeeded")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Login successful",
			"token":   raw,
			"user":    toAPIUser(user),
		})
	}
}

// LogoutHandler revokes the presented token. It always succeeds.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := bearerToken(r); ok {
			if err := s.issuer.Revoke(raw); err != nil {
				s.logger.Debug().Err(err).Msg("Logout with unusable token")
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		user, err := s.users.GetByID(claims.Subject)
		if err != nil {
			// The account went away after the token was issued
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unknown user"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": toAPIUser(user)})
	}
}

// DashboardHandler returns the summary for /api/{role}/dashboard
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surface, err := roles.Parse(r.PathValue("role"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
			return
		}

		claims := claimsFrom(r)
		if !claims.Role.Satisfies(surface) {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "Forbidden"})
			return
		}

		summary := map[string]any{
			"role":    surface,
			"user_id": claims.Subject,
			"name":    claims.Name,
		}
		switch surface {
		case roles.Tenant:
			summary["balance_due"] = 0
			summary["next_payment"] = time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
		case roles.Caretaker:
			summary["open_tickets"] = s.tickets.count()
		case roles.Admin:
			all, _ := s.users.List(0, 0)
			summary["users"] = len(all)
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) PaymentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id": claims.Subject,
			"payments": []map[string]any{
				{"id": 1, "amount": 25000, "currency": "KES", "status": "paid", "period": "2026-09"},
				{"id": 2, "amount": 25000, "currency": "KES", "status": "paid", "period": "2026-10"},
			},
		})
	}
}

func (s *Server) TicketsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"tickets": s.tickets.list()})
	}
}

func (s *Server) CreateTicketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Title string `json:"title"`
			Unit  string `json:"unit"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&in); err != nil || in.Title == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "A ticket needs a title"})
			return
		}
		t := s.tickets.add(in.Title, in.Unit, claimsFrom(r).Subject)
		writeJSON(w, http.StatusCreated, t)
	}
}

func (s *Server) UsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		list, err := s.users.List(offset, limit)
		if err != nil {
			s.logger.Err(errors.Wrapf(err, "[Server.UsersHandler] list")).Send()
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
			return
		}

		out := make([]*api.User, 0, len(list))
		for _, u := range list {
			out = append(out, toAPIUser(u))
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": out, "offset": offset, "limit": limit})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
