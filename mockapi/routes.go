package mockapi

import "github.com/jrsteele09/property-portal/roles"

// Route path constants
const (
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteWellKnownJWKS         = "/.well-known/jwks.json"

	RouteLogin  = "/api/auth/login"
	RouteLogout = "/api/auth/logout"
	RouteMe     = "/api/me"

	RouteDashboard        = "/api/{role}/dashboard"
	RouteTenantPayments   = "/api/tenant/payments"
	RouteCaretakerTickets = "/api/caretaker/tickets"
	RouteAdminUsers       = "/api/admin/users"

	RouteHealth = "/healthz"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteWellKnownOpenIDConfig, s.OpenIDConfigHandler())
	s.RegisterRouteFunc("GET "+RouteWellKnownJWKS, s.JWKSHandler())

	s.RegisterRouteFunc("POST "+RouteLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+RouteLogout, s.LogoutHandler())
	s.RegisterRouteFunc("GET "+RouteMe, s.RequireToken(s.MeHandler()))

	s.RegisterRouteFunc("GET "+RouteDashboard, s.RequireToken(s.DashboardHandler()))
	s.RegisterRouteFunc("GET "+RouteTenantPayments, s.RequireToken(s.RequireRole(roles.Tenant, s.PaymentsHandler())))
	s.RegisterRouteFunc("GET "+RouteCaretakerTickets, s.RequireToken(s.RequireRole(roles.Caretaker, s.TicketsHandler())))
	s.RegisterRouteFunc("POST "+RouteCaretakerTickets, s.RequireToken(s.RequireRole(roles.Caretaker, s.CreateTicketHandler())))
	s.RegisterRouteFunc("GET "+RouteAdminUsers, s.RequireToken(s.RequireRole(roles.Admin, s.UsersHandler())))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
