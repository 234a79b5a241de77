package gormdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// EventRepository stores batch events and flock timeline events.
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository builds an event repository over the shared database.
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListBatchEvents returns the events for the owner's batch, newest first.
func (r *EventRepository) ListBatchEvents(ctx context.Context, ownerID, batchID string) ([]models.BatchEvent, error) {
	var events []models.BatchEvent
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND batch_id = ?", ownerID, batchID).
		Order("date desc").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list batch events: %w", err)
	}
	return events, nil
}

// GetBatchEvent returns the owner's batch event by id.
func (r *EventRepository) GetBatchEvent(ctx context.Context, ownerID, id string) (*models.BatchEvent, error) {
	var event models.BatchEvent
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&event).Error; err != nil {
		return nil, fmt.Errorf("get batch event: %w", translate(err))
	}
	return &event, nil
}

// CreateBatchEvent inserts a batch event stamped with the owner.
func (r *EventRepository) CreateBatchEvent(ctx context.Context, ownerID string, event models.BatchEvent) (*models.BatchEvent, error) {
	event.OwnerID = ownerID
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create batch event: %w", translate(err))
	}
	return &event, nil
}

// UpdateBatchEvent applies the provided column values to the owner's batch
// event and returns the stored row.
func (r *EventRepository) UpdateBatchEvent(ctx context.Context, ownerID, id string, updates map[string]any) (*models.BatchEvent, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BatchEvent{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update batch event: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetBatchEvent(ctx, ownerID, id)
}

// DeleteBatchEvent removes the owner's batch event and returns the deleted
// row so that propagation can unwind its side effects.
func (r *EventRepository) DeleteBatchEvent(ctx context.Context, ownerID, id string) (*models.BatchEvent, error) {
	event, err := r.GetBatchEvent(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.BatchEvent{})
	if result.Error != nil {
		return nil, fmt.Errorf("delete batch event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return event, nil
}

// ListFlockEvents returns the owner's flock timeline, newest first.
func (r *EventRepository) ListFlockEvents(ctx context.Context, ownerID string) ([]models.FlockEvent, error) {
	var events []models.FlockEvent
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date desc").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list flock events: %w", err)
	}
	return events, nil
}

// CreateFlockEvent inserts a direct (non-mirrored) flock timeline entry.
func (r *EventRepository) CreateFlockEvent(ctx context.Context, ownerID string, event models.FlockEvent) (*models.FlockEvent, error) {
	event.OwnerID = ownerID
	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("create flock event: %w", translate(err))
	}
	return &event, nil
}

// DeleteFlockEvent removes the owner's flock timeline entry.
func (r *EventRepository) DeleteFlockEvent(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.FlockEvent{})
	if result.Error != nil {
		return fmt.Errorf("delete flock event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
