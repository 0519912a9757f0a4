package config

import (
	"time"

	"github.com/jrsteele09/property-portal/roles"
)

type Config interface {
	EnvConfig
	CorsConfig
	BackendConfig
	SessionConfig
	PortalConfig
	MockAPIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetOTelEndpoint() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// BackendConfig describes the property-management REST API the portals talk to.
type BackendConfig interface {
	GetBackendURL() string
	GetBackendTimeout() time.Duration
	GetLoginPath() string
	GetLogoutPath() string
	GetSendLoginRole() bool
	GetOIDCIssuerURL() string
	GetOIDCClientID() string
}

type SessionConfig interface {
	GetRedisURL() string
	GetSessionIdleTTL() time.Duration
	GetGateIdleTimeout() time.Duration
	GetSweepInterval() time.Duration
	GetLogoutTimeout() time.Duration
	GetSecureCookies() bool
}

type PortalConfig interface {
	GetPortals() map[string]roles.Portal
}

type mainConfig struct {
	EnvVars
	Cors
	Backend
	Session
	Portals
	MockAPI
}

// New returns configuration read from the environment and built-in defaults.
func New() Config {
	return newMainConfig(&fileConfig{})
}

// Load resolves configuration in priority order: defaults -> file -> env.
// An empty path behaves like New.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	file, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return newMainConfig(file), nil
}

func newMainConfig(file *fileConfig) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{},
		Cors:    Cors{file: file},
		Backend: Backend{file: file},
		Session: Session{file: file},
		Portals: Portals{file: file},
		MockAPI: MockAPI{file: file},
	}
}
