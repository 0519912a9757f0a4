package mockapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/property-portal/token"
	"github.com/jrsteele09/property-portal/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server is a development stand-in for the property-management REST API. It
// implements the login, logout and role-scoped endpoints the portals consume.
type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	users   users.Repo
	issuer  *token.Issuer
	tickets *ticketBook
	logger  zerolog.Logger
}

func New(env string, userRepo users.Repo, issuer *token.Issuer) *Server {
	s := &Server{
		env:     env,
		mux:     http.NewServeMux(),
		users:   userRepo,
		issuer:  issuer,
		tickets: newTicketBook(),
		logger:  log.Logger.With().Str("component", "mockapi").Logger(),
	}
	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Routes returns the registered route patterns
func (s *Server) Routes() []string {
	return s.routes
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, s.recoverMiddleware(s.loggingMiddleware(handler)))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Info().Msg(fmt.Sprintf("[%-7s] %s", method, path))
	}
}

func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.env == "DEV" {
			s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		}
		next(w, r)
	}
}

func (s *Server) recoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				writeJSON(w, http.StatusInternalServerError, errorBody{Success: false, Error: "Internal server error"})
			}
		}()
		next(w, r)
	}
}
