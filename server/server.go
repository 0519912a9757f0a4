package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/property-portal/internal/config"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server serves the tenant, caretaker and admin portals. Each browser client gets
// its own gate per portal from the registry.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	handler http.Handler
	routes  []string
	config  config.Config
	portals map[string]roles.Portal
	gates   *GateRegistry
}

func New(config config.Config, gates *GateRegistry) (*Server, error) {
	if gates == nil {
		return nil, fmt.Errorf("[Server New] a gate registry is required")
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		portals: config.GetPortals(),
		gates:   gates,
	}
	if len(s.portals) == 0 {
		return nil, fmt.Errorf("[Server New] no portals enabled")
	}

	s.initRoutes()
	s.logRoutes()
	s.handler = otelhttp.NewHandler(s.mux, config.GetAppName())

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		logRoute(splitPattern(route))
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msg(fmt.Sprintf("[%-19s] %s", displayMethod, path))
}
