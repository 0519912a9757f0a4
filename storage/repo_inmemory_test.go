package storage_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/property-portal/storage"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo(t *testing.T) {
	ctx := context.Background()
	p := storage.NewInMemoryProvider()
	a := p.ForClient("a")
	b := p.ForClient("b")

	require.NoError(t, a.SetAll(ctx, map[string]string{"token": "abc", "role": "tenant"}))

	t.Run("values are scoped per client", func(t *testing.T) {
		_, ok, err := b.Get(ctx, "token")
		require.NoError(t, err)
		require.False(t, ok)

		v, ok, err := a.Get(ctx, "token")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "abc", v)
	})

	t.Run("get all returns present keys only", func(t *testing.T) {
		values, err := a.GetAll(ctx, "token", "role", "email")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"token": "abc", "role": "tenant"}, values)
	})

	t.Run("delete removes keys together", func(t *testing.T) {
		require.NoError(t, a.Delete(ctx, "token", "role", "missing"))
		values, err := a.GetAll(ctx, "token", "role")
		require.NoError(t, err)
		require.Empty(t, values)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		require.Error(t, a.SetAll(cctx, map[string]string{"token": "x"}))
		_, ok, _ := a.Get(ctx, "token")
		require.False(t, ok)
	})
}
