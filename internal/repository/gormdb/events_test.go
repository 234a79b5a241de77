package gormdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

func TestDeleteBatchEventReturnsDeletedRow(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestDB(t))

	event, err := repo.CreateBatchEvent(ctx, ownerAlice, models.BatchEvent{
		ID:      models.NewRecordID(),
		BatchID: models.NewRecordID(),
		Date:    mustDate(t, "2026-08-01"),
		Type:    models.BatchEventVaccination,
	})
	require.NoError(t, err)

	_, err = repo.DeleteBatchEvent(ctx, ownerBob, event.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.DeleteBatchEvent(ctx, ownerAlice, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, deleted.ID)
	assert.Equal(t, models.BatchEventVaccination, deleted.Type)

	_, err = repo.GetBatchEvent(ctx, ownerAlice, event.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlockEventsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepository(newTestDB(t))

	mine, err := repo.CreateFlockEvent(ctx, ownerAlice, models.FlockEvent{
		ID:          models.NewRecordID(),
		Date:        mustDate(t, "2026-08-01"),
		Type:        models.FlockEventOther,
		Description: "Coop cleaned",
	})
	require.NoError(t, err)

	_, err = repo.CreateFlockEvent(ctx, ownerBob, models.FlockEvent{
		ID:          models.NewRecordID(),
		Date:        mustDate(t, "2026-08-02"),
		Type:        models.FlockEventOther,
		Description: "Fence repaired",
	})
	require.NoError(t, err)

	listed, err := repo.ListFlockEvents(ctx, ownerAlice)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)

	assert.ErrorIs(t, repo.DeleteFlockEvent(ctx, ownerBob, mine.ID), ErrNotFound)
	require.NoError(t, repo.DeleteFlockEvent(ctx, ownerAlice, mine.ID))
}
