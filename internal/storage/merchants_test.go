package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
)

func TestEnsureMerchants(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	existing, err := store.CreateMerchant(ctx, "Netflix")
	require.NoError(t, err)

	ids, err := store.EnsureMerchants(ctx, []string{"Netflix", "Spotify", "Unknown", "", "Spotify", " Woolworths "})
	require.NoError(t, err)

	assert.Len(t, ids, 3)
	assert.Equal(t, existing.ID, ids["Netflix"])
	assert.NotZero(t, ids["Spotify"])
	assert.NotZero(t, ids["Woolworths"])
	assert.NotContains(t, ids, "Unknown")

	merchants, err := store.GetMerchants(ctx)
	require.NoError(t, err)
	names := make([]string, len(merchants))
	for i, m := range merchants {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"Netflix", "Spotify", "Woolworths"}, names)
}

func TestEnsureMerchants_UsesCache(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.EnsureMerchants(ctx, []string{"Bakery"})
	require.NoError(t, err)

	id, ok := store.getCachedMerchant("Bakery")
	require.True(t, ok)
	assert.Equal(t, first["Bakery"], id)

	second, err := store.EnsureMerchants(ctx, []string{"Bakery"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateMerchant_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a, err := store.CreateMerchant(ctx, "Cafe")
	require.NoError(t, err)
	b, err := store.CreateMerchant(ctx, "Cafe")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	_, err = store.CreateMerchant(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestGetMerchantByName_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetMerchantByName(context.Background(), "Nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
