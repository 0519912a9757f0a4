package users_test

import (
	"testing"

	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	require.Error(t, users.ValidatePasswordStrength("Short1"))
	require.Error(t, users.ValidatePasswordStrength("alllowercase1"))
	require.Error(t, users.ValidatePasswordStrength("ALLUPPERCASE1"))
	require.Error(t, users.ValidatePasswordStrength("NoNumbersHere"))
	require.NoError(t, users.ValidatePasswordStrength("Caretaker123"))
}

func TestNewUser(t *testing.T) {
	u, err := users.NewUser("  Care@Example.com ", "Casey Taker", roles.Caretaker, "Caretaker123")
	require.NoError(t, err)

	require.Equal(t, "care@example.com", u.Email)
	require.NotEqual(t, "Caretaker123", u.PasswordHash)
	require.True(t, u.CheckPassword("Caretaker123"))
	require.False(t, u.CheckPassword("caretaker123"))
	require.False(t, u.DateJoined.IsZero())

	_, err = users.NewUser("x@example.com", "X", roles.Role("landlord"), "Caretaker123")
	require.Error(t, err)
}

func TestCanUse(t *testing.T) {
	admin := &users.User{Role: roles.Admin}
	tenant := &users.User{Role: roles.Tenant}

	require.True(t, admin.CanUse(roles.Caretaker))
	require.True(t, admin.CanUse(roles.Admin))
	require.False(t, admin.CanUse(roles.Tenant))
	require.True(t, tenant.CanUse(roles.Tenant))
	require.False(t, tenant.CanUse(roles.Caretaker))
}
