package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
)

type portalSummary struct {
	Name       string   `json:"name"`
	LoginRoute string   `json:"login_route"`
	HomeRoute  string   `json:"home_route"`
	Allowed    []string `json:"allowed_roles"`
}

// IndexHandler lists the enabled portals
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries := make([]portalSummary, 0, len(s.portals))
		for _, p := range s.portals {
			allowed := make([]string, 0, len(p.Allowed))
			for _, role := range p.Allowed {
				allowed = append(allowed, role.String())
			}
			summaries = append(summaries, portalSummary{
				Name:       p.Name,
				LoginRoute: p.LoginRoute,
				HomeRoute:  p.HomeRoute,
				Allowed:    allowed,
			})
		}
		sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })

		writeJSON(w, http.StatusOK, map[string]any{
			"app":     s.config.GetAppName(),
			"portals": summaries,
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "gates": s.gates.Len()})
	}
}

func (s *Server) NoContentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// redirectWithErrorAndEmail helper for htmx-aware error redirects that preserves email
func redirectWithErrorAndEmail(w http.ResponseWriter, r *http.Request, path, errorMsg, email string) {
	q := url.Values{}
	q.Set("error", errorMsg)
	if email != "" {
		q.Set("email", email)
	}
	redirectSuccess(w, r, path+"?"+q.Encode())
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// unauthorized answers a JSON caller whose session is gone and names where to sign in again
func unauthorized(w http.ResponseWriter, r *http.Request, loginRoute string) {
	w.Header().Set("HX-Redirect", loginRoute)
	w.Header().Set("Location", loginRoute)
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error":    "authentication required",
		"redirect": loginRoute,
	})
}
