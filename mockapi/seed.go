package mockapi

import (
	"github.com/jrsteele09/property-portal/internal/config"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Seed creates the configured accounts, replacing any with the same email.
func Seed(repo users.Repo, seeds []config.SeedUser, env string) error {
	for _, seed := range seeds {
		role, err := roles.Parse(seed.Role)
		if err != nil {
			return errors.Wrapf(err, "[mockapi.Seed] %s", seed.Email)
		}
		if err := users.ValidatePasswordStrength(seed.Password); err != nil {
			log.Warn().Str("email", seed.Email).Err(err).Msg("Weak seed password")
		}

		u, err := users.NewUser(seed.Email, seed.FullName, role, seed.Password)
		if err != nil {
			return errors.Wrapf(err, "[mockapi.Seed] %s", seed.Email)
		}
		u.Phone = seed.Phone
		if u.FullName == "" {
			u.FullName = u.Email
		}
		if err := repo.Upsert(u); err != nil {
			return errors.Wrapf(err, "[mockapi.Seed] upsert %s", seed.Email)
		}

		evt := log.Info().Str("email", u.Email).Str("role", role.String())
		if env == "DEV" {
			evt = evt.Str("password", seed.Password)
		}
		evt.Msg("Seeded user")
	}
	return nil
}
