package gormdb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// EggRepository stores daily egg-production entries.
type EggRepository struct {
	db *gorm.DB
}

// NewEggRepository builds an egg entry repository over the shared database.
func NewEggRepository(db *gorm.DB) *EggRepository {
	return &EggRepository{db: db}
}

// List returns the owner's entries, optionally restricted to [start, end),
// ordered by date ascending.
func (r *EggRepository) List(ctx context.Context, ownerID string, start, end *time.Time) ([]models.EggEntry, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date asc")
	if start != nil {
		query = query.Where("date >= ?", *start)
	}
	if end != nil {
		query = query.Where("date < ?", *end)
	}

	var entries []models.EggEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list egg entries: %w", err)
	}
	return entries, nil
}

// Upsert writes the entries keyed on id, applying each record's own update
// column set so an optional field one record omitted keeps its stored value
// even when a sibling in the same batch supplied it. Records are grouped by
// column set and written inside one transaction, keeping the batch
// all-or-nothing. The conflict update is additionally scoped to the owner:
// colliding with another tenant's id is a silent no-op.
func (r *EggRepository) Upsert(ctx context.Context, ownerID string, entries []models.EggEntry, updateColSets [][]string) ([]models.EggEntry, error) {
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
					clause.Eq{Column: clause.Column{Table: "egg_entries", Name: "owner_id"}, Value: ownerID},
				}},
			}).Create(&group.records).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert egg entries: %w", translate(err))
	}

	var stored []models.EggEntry
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Order("date asc").
		Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload egg entries: %w", err)
	}
	return stored, nil
}

// Delete removes the owner's entry. A row owned by someone else matches zero
// rows and surfaces as not found.
func (r *EggRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.EggEntry{})
	if result.Error != nil {
		return fmt.Errorf("delete egg entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
