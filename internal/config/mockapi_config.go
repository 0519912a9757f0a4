package config

import "time"

// MockAPIConfig configures the development backend.
type MockAPIConfig interface {
	GetMockAPIPort() string
	GetIssuerURL() string
	GetTokenTTL() time.Duration
	GetSigningKeyFile() string
	GetSeedUsers() []SeedUser
}

// SeedUser is an account created when the development backend starts.
type SeedUser struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
	Phone    string `yaml:"phone"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

type MockAPI struct {
	file *fileConfig
}

var _ MockAPIConfig = MockAPI{}

var defaultSeedUsers = []SeedUser{
	{Email: "tenant@example.com", FullName: "Terry Tenant", Phone: "+254700000001", Role: "tenant", Password: "Tenant123"},
	{Email: "caretaker@example.com", FullName: "Casey Caretaker", Phone: "+254700000002", Role: "caretaker", Password: "Caretaker123"},
	{Email: "admin@example.com", FullName: "Ada Admin", Phone: "+254700000003", Role: "admin", Password: "Admin123"},
}

func (m MockAPI) GetMockAPIPort() string {
	return normalisePort(GetEnv("MOCKAPI_PORT", firstNonEmpty(m.file.MockAPI.Port, "8081")))
}

// GetIssuerURL is the iss claim and OIDC discovery root of the development backend
func (m MockAPI) GetIssuerURL() string {
	return GetEnv("MOCKAPI_ISSUER_URL", firstNonEmpty(m.file.MockAPI.IssuerURL, "http://localhost:8081"))
}

func (m MockAPI) GetTokenTTL() time.Duration {
	return GetEnvDuration("MOCKAPI_TOKEN_TTL", orDuration(m.file.MockAPI.TokenTTL, time.Hour))
}

// GetSigningKeyFile names an RSA private key PEM; a key is generated at startup when empty
func (m MockAPI) GetSigningKeyFile() string {
	return GetEnv("MOCKAPI_SIGNING_KEY_FILE", m.file.MockAPI.SigningKeyFile)
}

func (m MockAPI) GetSeedUsers() []SeedUser {
	if len(m.file.MockAPI.Users) > 0 {
		return m.file.MockAPI.Users
	}
	return defaultSeedUsers
}
