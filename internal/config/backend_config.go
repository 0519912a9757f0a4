package config

import (
	"time"

	"github.com/jrsteele09/property-portal/api"
)

type Backend struct {
	file *fileConfig
}

var _ BackendConfig = Backend{}

func (b Backend) GetBackendURL() string {
	return GetEnv("API_BASE_URL", firstNonEmpty(b.file.Backend.URL, "http://localhost:8081"))
}

func (b Backend) GetBackendTimeout() time.Duration {
	def := 10 * time.Second
	if b.file.Backend.Timeout > 0 {
		def = b.file.Backend.Timeout
	}
	return GetEnvDuration("API_TIMEOUT", def)
}

func (b Backend) GetLoginPath() string {
	return GetEnv("API_LOGIN_PATH", firstNonEmpty(b.file.Backend.LoginPath, api.DefaultLoginPath))
}

func (b Backend) GetLogoutPath() string {
	return GetEnv("API_LOGOUT_PATH", firstNonEmpty(b.file.Backend.LogoutPath, api.DefaultLogoutPath))
}

// GetSendLoginRole includes the portal's role in login requests for backends that need it
func (b Backend) GetSendLoginRole() bool {
	return GetEnvBool("SEND_LOGIN_ROLE", b.file.Backend.SendRole)
}

// GetOIDCIssuerURL enables signature verification of issued tokens when set
func (b Backend) GetOIDCIssuerURL() string {
	return GetEnv("OIDC_ISSUER_URL", b.file.Backend.OIDCIssuerURL)
}

func (b Backend) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", firstNonEmpty(b.file.Backend.OIDCClientID, "property-portal"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
