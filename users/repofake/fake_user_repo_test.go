package fakeuserrepo_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/property-portal/internal/errors"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/users"
	fakeuserrepo "github.com/jrsteele09/property-portal/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	tenant := &users.User{Email: "Tenant@X.com", Role: roles.Tenant}
	require.NoError(t, repo.Upsert(tenant))
	require.NotEmpty(t, tenant.ID)

	got, err := repo.GetByEmail("tenant@x.com")
	require.NoError(t, err)
	require.Equal(t, tenant.ID, got.ID)

	got, err = repo.GetByID(tenant.ID)
	require.NoError(t, err)
	require.Equal(t, "tenant@x.com", got.Email)

	// Upserting the same email again keeps the id
	again := &users.User{Email: "tenant@x.com", Role: roles.Tenant, FullName: "Renamed"}
	require.NoError(t, repo.Upsert(again))
	require.Equal(t, tenant.ID, again.ID)

	require.NoError(t, repo.SetBlocked("tenant@x.com", true))
	got, _ = repo.GetByEmail("tenant@x.com")
	require.True(t, got.Blocked)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.SetLastLogin("tenant@x.com", at))
	got, _ = repo.GetByEmail("tenant@x.com")
	require.Equal(t, at, got.LastLogin)

	require.NoError(t, repo.Delete("tenant@x.com"))
	_, err = repo.GetByEmail("tenant@x.com")
	require.ErrorIs(t, err, errors.ErrUserNotFound)
	require.ErrorIs(t, repo.Delete("tenant@x.com"), errors.ErrUserNotFound)
}

func TestFakeUserRepo_List(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	for _, email := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		require.NoError(t, repo.Upsert(&users.User{Email: email, Role: roles.Tenant}))
	}

	all, err := repo.List(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "a@x.com", all[0].Email)

	page, err := repo.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "b@x.com", page[0].Email)

	empty, err := repo.List(5, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}
