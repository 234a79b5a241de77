package gormdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

func TestFeedLowStockFiltersDepletedAndThreshold(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedRepository(newTestDB(t))

	entries := []models.FeedEntry{
		{ID: models.NewRecordID(), Brand: "Layer Pellets", Quantity: 5, Unit: "kg", PurchaseDate: mustDate(t, "2026-08-01")},
		{ID: models.NewRecordID(), Brand: "Scratch Mix", Quantity: 50, Unit: "kg", PurchaseDate: mustDate(t, "2026-08-02")},
		{ID: models.NewRecordID(), Brand: "Starter Crumble", Quantity: 2, Unit: "kg", PurchaseDate: mustDate(t, "2026-08-03"), Depleted: true},
	}
	_, err := repo.Upsert(ctx, ownerAlice, entries,
		sameCols(3, "brand", "quantity", "unit", "purchase_date", "depleted", "updated_at"))
	require.NoError(t, err)

	low, err := repo.LowStock(ctx, ownerAlice, 10)
	require.NoError(t, err)

	// The depleted bag is excluded even though its quantity qualifies.
	require.Len(t, low, 1)
	assert.Equal(t, "Layer Pellets", low[0].Brand)
}

func TestFeedUpsertScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewFeedRepository(newTestDB(t))

	entry := models.FeedEntry{
		ID:           models.NewRecordID(),
		Brand:        "Layer Pellets",
		Quantity:     25,
		Unit:         "kg",
		PurchaseDate: mustDate(t, "2026-08-01"),
	}
	_, err := repo.Upsert(ctx, ownerAlice, []models.FeedEntry{entry},
		sameCols(1, "brand", "quantity", "unit", "purchase_date", "updated_at"))
	require.NoError(t, err)

	stolen := entry
	stolen.Quantity = 0
	stored, err := repo.Upsert(ctx, ownerBob, []models.FeedEntry{stolen},
		sameCols(1, "brand", "quantity", "unit", "purchase_date", "updated_at"))
	require.NoError(t, err)
	assert.Empty(t, stored)

	mine, err := repo.List(ctx, ownerAlice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 25.0, mine[0].Quantity)

	assert.ErrorIs(t, repo.Delete(ctx, ownerBob, entry.ID), ErrNotFound)
}
