package config

import (
	"github.com/jrsteele09/property-portal/roles"
)

type Portals struct {
	file *fileConfig
}

var _ PortalConfig = Portals{}

// GetPortals returns the enabled portals. The config file may disable a portal or
// narrow the roles its protected routes accept.
func (p Portals) GetPortals() map[string]roles.Portal {
	portals := roles.Portals()
	for name, override := range p.file.Portals {
		if override.Disabled {
			delete(portals, name)
			continue
		}
		if len(override.Allowed) == 0 {
			continue
		}
		portal := portals[name]
		portal.Allowed = make([]roles.Role, 0, len(override.Allowed))
		for _, r := range override.Allowed {
			role, _ := roles.Parse(r) // validated at load
			portal.Allowed = append(portal.Allowed, role)
		}
		portals[name] = portal
	}
	return portals
}
