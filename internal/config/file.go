package config

import (
	"bytes"
	"os"
	"time"

	"github.com/jrsteele09/property-portal/roles"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML schema of the optional config file.
type fileConfig struct {
	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	Backend struct {
		URL           string        `yaml:"url"`
		Timeout       time.Duration `yaml:"timeout"`
		LoginPath     string        `yaml:"login_path"`
		LogoutPath    string        `yaml:"logout_path"`
		SendRole      bool          `yaml:"send_role"`
		OIDCIssuerURL string        `yaml:"oidc_issuer_url"`
		OIDCClientID  string        `yaml:"oidc_client_id"`
	} `yaml:"backend"`
	Session struct {
		RedisURL        string        `yaml:"redis_url"`
		IdleTTL         time.Duration `yaml:"idle_ttl"`
		GateIdleTimeout time.Duration `yaml:"gate_idle_timeout"`
		SweepInterval   time.Duration `yaml:"sweep_interval"`
		LogoutTimeout   time.Duration `yaml:"logout_timeout"`
		SecureCookies   bool          `yaml:"secure_cookies"`
	} `yaml:"session"`
	Portals map[string]portalFile `yaml:"portals"`
	MockAPI struct {
		Port           string        `yaml:"port"`
		IssuerURL      string        `yaml:"issuer_url"`
		TokenTTL       time.Duration `yaml:"token_ttl"`
		SigningKeyFile string        `yaml:"signing_key_file"`
		Users          []SeedUser    `yaml:"users"`
	} `yaml:"mockapi"`
}

type portalFile struct {
	Disabled bool     `yaml:"disabled"`
	Allowed  []string `yaml:"allowed"`
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[config.Load] read %s", path)
	}

	var file fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrapf(err, "[config.Load] parse %s", path)
	}
	if err := file.validate(); err != nil {
		return nil, errors.Wrapf(err, "[config.Load] %s", path)
	}
	return &file, nil
}

func (f *fileConfig) validate() error {
	builtIn := roles.Portals()
	for name, p := range f.Portals {
		if _, ok := builtIn[name]; !ok {
			return errors.Errorf("unknown portal %q", name)
		}
		for _, r := range p.Allowed {
			if _, err := roles.Parse(r); err != nil {
				return errors.Wrapf(err, "portal %q", name)
			}
		}
	}
	for _, u := range f.MockAPI.Users {
		if u.Email == "" || u.Password == "" {
			return errors.New("mockapi users need an email and a password")
		}
		if _, err := roles.Parse(u.Role); err != nil {
			return errors.Wrapf(err, "mockapi user %q", u.Email)
		}
	}
	return nil
}
