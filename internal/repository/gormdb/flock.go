package gormdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// FlockRepository stores the flock profile, its batches, and death records.
type FlockRepository struct {
	db *gorm.DB
}

// NewFlockRepository builds a flock repository over the shared database.
func NewFlockRepository(db *gorm.DB) *FlockRepository {
	return &FlockRepository{db: db}
}

// GetProfile returns the owner's flock profile.
func (r *FlockRepository) GetProfile(ctx context.Context, ownerID string) (*models.FlockProfile, error) {
	var profile models.FlockProfile
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&profile).Error; err != nil {
		return nil, fmt.Errorf("get flock profile: %w", translate(err))
	}
	return &profile, nil
}

// UpsertProfile writes the profile keyed on the owner (one profile per user),
// overwriting only the provided columns.
func (r *FlockRepository) UpsertProfile(ctx context.Context, ownerID string, profile models.FlockProfile, updateCols []string) (*models.FlockProfile, error) {
	profile.OwnerID = ownerID

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns(updateCols),
	}).Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("upsert flock profile: %w", translate(err))
	}

	return r.GetProfile(ctx, ownerID)
}

// ListBatches returns the owner's batches, active ones only unless
// includeInactive is set, ordered by acquisition date descending.
func (r *FlockRepository) ListBatches(ctx context.Context, ownerID string, includeInactive bool) ([]models.FlockBatch, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("acquisition_date desc")
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var batches []models.FlockBatch
	if err := query.Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// GetBatch returns the owner's batch by id.
func (r *FlockRepository) GetBatch(ctx context.Context, ownerID, id string) (*models.FlockBatch, error) {
	var batch models.FlockBatch
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&batch).Error; err != nil {
		return nil, fmt.Errorf("get batch: %w", translate(err))
	}
	return &batch, nil
}

// CreateBatch inserts a batch stamped with the owner. A duplicate batch name
// for the same owner yields ErrConflict.
func (r *FlockRepository) CreateBatch(ctx context.Context, ownerID string, batch models.FlockBatch) (*models.FlockBatch, error) {
	batch.OwnerID = ownerID
	if err := r.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, fmt.Errorf("create batch: %w", translate(err))
	}
	return &batch, nil
}

// UpdateBatch applies the provided column values to the owner's batch and
// returns the stored row.
func (r *FlockRepository) UpdateBatch(ctx context.Context, ownerID, id string, updates map[string]any) (*models.FlockBatch, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FlockBatch{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update batch: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetBatch(ctx, ownerID, id)
}

// DeactivateBatch soft-deletes the owner's batch by clearing the active flag.
func (r *FlockRepository) DeactivateBatch(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.FlockBatch{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate batch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDeaths returns the death records for the owner's batch, newest first.
func (r *FlockRepository) ListDeaths(ctx context.Context, ownerID, batchID string) ([]models.BatchDeath, error) {
	var deaths []models.BatchDeath
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND batch_id = ?", ownerID, batchID).
		Order("date desc").
		Find(&deaths).Error; err != nil {
		return nil, fmt.Errorf("list batch deaths: %w", err)
	}
	return deaths, nil
}

// RecordDeath inserts a death record and decrements the batch's current count
// in the same transaction. A count that is not positive, or that exceeds the
// remaining birds, fails validation and leaves the batch untouched.
func (r *FlockRepository) RecordDeath(ctx context.Context, ownerID string, death models.BatchDeath) (*models.BatchDeath, error) {
	death.OwnerID = ownerID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.FlockBatch
		if err := tx.
			Where("id = ? AND owner_id = ?", death.BatchID, ownerID).
			First(&batch).Error; err != nil {
			return fmt.Errorf("get batch: %w", translate(err))
		}

		if death.Count <= 0 {
			return fmt.Errorf("death count must be positive: %w", ErrInvalid)
		}
		if death.Count > batch.CurrentCount {
			return fmt.Errorf("death count %d exceeds remaining birds %d: %w",
				death.Count, batch.CurrentCount, ErrInvalid)
		}

		if err := tx.Create(&death).Error; err != nil {
			return fmt.Errorf("create death record: %w", translate(err))
		}

		if err := tx.Model(&models.FlockBatch{}).
			Where("id = ? AND owner_id = ?", death.BatchID, ownerID).
			Update("current_count", gorm.Expr("current_count - ?", death.Count)).Error; err != nil {
			return fmt.Errorf("decrement batch count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &death, nil
}
