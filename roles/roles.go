package roles

import (
	"fmt"
	"strings"
)

// Role is the role the backend assigns to a signed-in user.
type Role string

const (
	Tenant    Role = "tenant"    // Rents a unit, sees their own payments and tickets
	Caretaker Role = "caretaker" // Manages properties, tenants and maintenance
	Admin     Role = "admin"     // Full access, including the caretaker surface
)

// All lists every known role.
var All = []Role{Tenant, Caretaker, Admin}

// Parse normalises s and returns the matching role.
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case Tenant, Caretaker, Admin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Satisfies reports whether a user holding r may use a surface built for expected.
// Admins satisfy the caretaker surface; nothing else crosses over.
func (r Role) Satisfies(expected Role) bool {
	if !r.Valid() || !expected.Valid() {
		return false
	}
	if r == expected {
		return true
	}
	return r == Admin && expected == Caretaker
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// HomeRoute is the dashboard a user with this role lands on after login.
func (r Role) HomeRoute() string {
	return "/" + string(r) + "/dashboard"
}

// LoginRoute is the login page for the portal serving this role.
func (r Role) LoginRoute() string {
	return "/" + string(r) + "/login"
}
