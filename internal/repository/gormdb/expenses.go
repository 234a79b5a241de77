package gormdb

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// ExpenseRepository stores expense transactions.
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository builds an expense repository over the shared database.
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns the owner's expenses, newest first, optionally restricted to
// [start, end).
func (r *ExpenseRepository) List(ctx context.Context, ownerID string, start, end *time.Time) ([]models.Expense, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date desc")
	if start != nil {
		query = query.Where("date >= ?", *start)
	}
	if end != nil {
		query = query.Where("date < ?", *end)
	}

	var expenses []models.Expense
	if err := query.Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Upsert writes the expenses keyed on id, applying each record's own update
// column set, grouped per set inside one transaction so the batch stays
// all-or-nothing and never crosses tenant boundaries.
func (r *ExpenseRepository) Upsert(ctx context.Context, ownerID string, expenses []models.Expense, updateColSets [][]string) ([]models.Expense, error) {
	if len(expenses) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(expenses))
	seen := make(map[string]struct{}, len(expenses))
	for i := range expenses {
		expenses[i].OwnerID = ownerID
		if _, dup := seen[expenses[i].ID]; dup {
			return nil, fmt.Errorf("duplicate id %s in batch: %w", expenses[i].ID, ErrInvalid)
		}
		seen[expenses[i].ID] = struct{}{}
		ids = append(ids, expenses[i].ID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, group := range groupByColumns(expenses, updateColSets) {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(group.columns),
				Where: clause.Where{Exprs: []clause.Expression{
					clause.Eq{Column: clause.Column{Table: "expenses", Name: "owner_id"}, Value: ownerID},
				}},
			}).Create(&group.records).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert expenses: %w", translate(err))
	}

	var stored []models.Expense
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Order("date desc").
		Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("reload expenses: %w", err)
	}
	return stored, nil
}

// Delete removes the owner's expense, reporting not found when the row does
// not exist or belongs to another tenant.
func (r *ExpenseRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Expense{})
	if result.Error != nil {
		return fmt.Errorf("delete expense: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
