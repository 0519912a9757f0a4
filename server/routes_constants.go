package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex  = "/{$}"
	RouteHealth = "/healthz"

	// Portal routes, {portal} is tenant, caretaker or admin
	RouteLogin     = "/{portal}/login"
	RouteLogout    = "/{portal}/logout"
	RouteDashboard = "/{portal}/dashboard"
	RouteAPIProxy  = "/{portal}/api/{path...}"
)
