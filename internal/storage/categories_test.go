package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestSeedTaxonomy(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seed := []model.Category{
		{Name: "Food & Dining", Subcategories: []model.Subcategory{{Name: "Groceries"}, {Name: "Dining Out"}}},
		{Name: "Pets", Subcategories: []model.Subcategory{{Name: "Pet Food"}}},
		{Name: "Empty"},
	}

	seeded, err := store.SeedTaxonomy(ctx, seed)
	require.NoError(t, err)
	assert.True(t, seeded)

	cats, err := store.GetTaxonomy(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Food & Dining", cats[0].Name)
	require.Len(t, cats[0].Subcategories, 2)
	assert.Equal(t, "Groceries", cats[0].Subcategories[0].Name)
	assert.Equal(t, cats[0].ID, cats[0].Subcategories[0].CategoryID)
	assert.Equal(t, "Pet Food", cats[1].Subcategories[0].Name)
	assert.Empty(t, cats[2].Subcategories)

	// Seeding is skipped once any category exists.
	seeded, err = store.SeedTaxonomy(ctx, []model.Category{{Name: "Other"}})
	require.NoError(t, err)
	assert.False(t, seeded)

	cats, err = store.GetTaxonomy(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}

func TestSeedTaxonomy_RejectsBlankNames(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.SeedTaxonomy(ctx, []model.Category{{Name: "Ok", Subcategories: []model.Subcategory{{Name: " "}}}})
	assert.ErrorIs(t, err, ErrEmptyString)

	cats, err := store.GetTaxonomy(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}
