package roles

import "fmt"

// Portal is one of the login surfaces. Each portal expects a single role but may
// accept more privileged ones (see Role.Satisfies).
type Portal struct {
	Name         string // URL segment, e.g. "caretaker"
	ExpectedRole Role   // Role requested from the backend
	LoginRoute   string // Where anonymous users are sent
	HomeRoute    string // Landing page for the expected role
	Allowed      []Role // Roles allowed on this portal's protected routes
}

var (
	TenantPortal = Portal{
		Name:         "tenant",
		ExpectedRole: Tenant,
		LoginRoute:   Tenant.LoginRoute(),
		HomeRoute:    Tenant.HomeRoute(),
		Allowed:      []Role{Tenant},
	}
	CaretakerPortal = Portal{
		Name:         "caretaker",
		ExpectedRole: Caretaker,
		LoginRoute:   Caretaker.LoginRoute(),
		HomeRoute:    Caretaker.HomeRoute(),
		Allowed:      []Role{Caretaker, Admin},
	}
	AdminPortal = Portal{
		Name:         "admin",
		ExpectedRole: Admin,
		LoginRoute:   Admin.LoginRoute(),
		HomeRoute:    Admin.HomeRoute(),
		Allowed:      []Role{Admin},
	}
)

// Portals returns the built-in portals keyed by name.
func Portals() map[string]Portal {
	return map[string]Portal{
		TenantPortal.Name:    TenantPortal,
		CaretakerPortal.Name: CaretakerPortal,
		AdminPortal.Name:     AdminPortal,
	}
}

// PortalFor returns the built-in portal for name.
func PortalFor(name string) (Portal, error) {
	p, ok := Portals()[name]
	if !ok {
		return Portal{}, fmt.Errorf("unknown portal %q", name)
	}
	return p, nil
}

// Accepts reports whether a login with role may proceed through this portal.
func (p Portal) Accepts(role Role) bool {
	return role.Satisfies(p.ExpectedRole)
}
