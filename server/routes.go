package server

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var proxiedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, s.HealthHandler())

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare(s.PortalMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.PortalMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.PortalMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.PortalMiddleware)...))

	// Protected portal routes
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.PortalMiddleware, s.RequireRole)...))
	for _, method := range proxiedMethods {
		s.RegisterRouteHandler(method+" "+RouteAPIProxy, ChainMiddleware(s.APIProxyHandler(), s.APIMiddleware(s.PortalMiddleware, s.RequireRoleAPI)...))
	}
	s.RegisterRouteHandler("OPTIONS "+RouteAPIProxy, ChainMiddleware(s.NoContentHandler(), s.APIMiddleware()...))
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	errorString := Red + error + ResetColor
	log.Warn().Msg(fmt.Sprintf("[%-19s] %s %s", displayMethod, path, errorString))
}

func splitPattern(route string) (method, path string) {
	parts := strings.SplitN(route, " ", 2)
	if len(parts) > 1 {
		return parts[0], parts[1]
	}
	return "", parts[0]
}
