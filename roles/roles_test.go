package roles_test

import (
	"testing"

	"github.com/jrsteele09/property-portal/roles"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("normalises case and whitespace", func(t *testing.T) {
		r, err := roles.Parse("  Caretaker ")
		require.NoError(t, err)
		require.Equal(t, roles.Caretaker, r)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := roles.Parse("landlord")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown role")
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := roles.Parse("")
		require.Error(t, err)
	})
}

func TestSatisfies(t *testing.T) {
	cases := []struct {
		actual   roles.Role
		expected roles.Role
		want     bool
	}{
		{roles.Tenant, roles.Tenant, true},
		{roles.Tenant, roles.Caretaker, false},
		{roles.Tenant, roles.Admin, false},
		{roles.Caretaker, roles.Tenant, false},
		{roles.Caretaker, roles.Caretaker, true},
		{roles.Caretaker, roles.Admin, false},
		{roles.Admin, roles.Tenant, false},
		{roles.Admin, roles.Caretaker, true},
		{roles.Admin, roles.Admin, true},
		{roles.Role("owner"), roles.Caretaker, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.actual.Satisfies(c.expected), "%s on %s portal", c.actual, c.expected)
	}
}

func TestPortals(t *testing.T) {
	p, err := roles.PortalFor("caretaker")
	require.NoError(t, err)
	require.Equal(t, "/caretaker/login", p.LoginRoute)
	require.Equal(t, "/caretaker/dashboard", p.HomeRoute)
	require.True(t, p.Accepts(roles.Admin))
	require.False(t, p.Accepts(roles.Tenant))

	_, err = roles.PortalFor("landlord")
	require.Error(t, err)

	require.Equal(t, "/admin/dashboard", roles.Admin.HomeRoute())
}
