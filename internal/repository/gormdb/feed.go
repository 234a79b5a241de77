package gormdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// FeedRepository stores feed inventory purchases.
type FeedRepository struct {
	db *gorm.DB
}

// NewFeedRepository builds a feed inventory repository over the shared database.
func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// List returns the owner's feed inventory, newest purchases first.
func (r *FeedRepository) List(ctx context.Context, ownerID string) ([]models.FeedEntry, error) {
	var entries []models.FeedEntry
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("purchase_date desc").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list feed inventory: %w", err)
	}
	return entries, nil
}

// LowStock returns inventory rows at or below the threshold that have not
// been marked depleted.
func (r *FeedRepository) LowStock(ctx context.Context, ownerID string, threshold float64) ([]models.FeedEntry, error) {
	var entries []models.FeedEntry
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND quantity <= ? AND depleted = ?", ownerID, threshold, false).
		Order("quantity asc").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list low stock feed: %w", err)
	}
	return entries, nil
}

// Upsert writes the entries keyed on id, applying each record's own update
// column set so optional fields one record omitted survive a sibling's
// update, grouped per set inside one transaction so the batch stays
// all-or-nothing and never crosses tenant boundaries.
func (r *FeedRepository) Upsert(ctx context.Context, ownerID string, entries []models.FeedEntry, updateColSets [][]string) ([]models.FeedEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		entries[i].OwnerID = ownerID
		if _, dup := seen[entries[i].ID]; dup {
			return nil, fmt.Errorf("duplicate id %s in batch: %w", entries[i].ID, ErrInvalid)
		}
		seen[entries[i].ID] = struct{}{}
		ids = append(ids, entries[i].ID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, group := range groupByColumns(entries, updateColSets) {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(group.columns),
				Where: clause.Where{Exprs: []clause.Expression{
					clause.Eq{Column: clause.Column{Table: "feed_inventory", Name: "owner_id"}, Value: ownerID},
				}},
			}).Create(&group.records).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert feed inventory: %w", translate(err))
	}

	var stored []models.FeedEntry
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Order("purchase_date desc").
		Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload feed inventory: %w", err)
	}
	return stored, nil
}

// Delete removes the owner's feed entry, reporting not found when the row
// does not exist or belongs to another tenant.
func (r *FeedRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.FeedEntry{})
	if result.Error != nil {
		return fmt.Errorf("delete feed entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
