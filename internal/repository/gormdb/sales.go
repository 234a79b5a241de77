package gormdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// CustomerRepository stores egg buyers.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository builds a customer repository over the shared database.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// List returns the owner's customers, active ones only unless includeInactive
// is set, ordered by name.
func (r *CustomerRepository) List(ctx context.Context, ownerID string, includeInactive bool) ([]models.Customer, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name asc")
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var customers []models.Customer
	if err := query.Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// Create inserts a customer stamped with the owner.
func (r *CustomerRepository) Create(ctx context.Context, ownerID string, customer models.Customer) (*models.Customer, error) {
	customer.OwnerID = ownerID
	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, fmt.Errorf("create customer: %w", translate(err))
	}
	return &customer, nil
}

// Update applies the provided column values to the owner's customer and
// returns the stored row.
func (r *CustomerRepository) Update(ctx context.Context, ownerID, id string, updates map[string]any) (*models.Customer, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update customer: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&customer).Error; err != nil {
		return nil, fmt.Errorf("reload customer: %w", translate(err))
	}
	return &customer, nil
}

// Deactivate soft-deletes the owner's customer by clearing the active flag.
func (r *CustomerRepository) Deactivate(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate customer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaleRepository stores sale transactions.
type SaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository builds a sale repository over the shared database.
func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// List returns the owner's sales with their customers, newest first.
func (r *SaleRepository) List(ctx context.Context, ownerID string) ([]models.Sale, error) {
	var sales []models.Sale
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("owner_id = ?", ownerID).
		Order("date desc").
		Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// Create inserts a sale stamped with the owner. The referenced customer must
// belong to the same owner.
func (r *SaleRepository) Create(ctx context.Context, ownerID string, sale models.Sale) (*models.Sale, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND owner_id = ?", sale.CustomerID, ownerID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("unknown customer: %w", ErrNotFound)
	}

	sale.OwnerID = ownerID
	if err := r.db.WithContext(ctx).Create(&sale).Error; err != nil {
		return nil, fmt.Errorf("create sale: %w", translate(err))
	}
	return &sale, nil
}

// Update applies the provided column values to the owner's sale and returns
// the stored row.
func (r *SaleRepository) Update(ctx context.Context, ownerID, id string, updates map[string]any) (*models.Sale, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update sale: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var sale models.Sale
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&sale).Error; err != nil {
		return nil, fmt.Errorf("reload sale: %w", translate(err))
	}
	return &sale, nil
}

// Delete removes the owner's sale, reporting not found when the row does not
// exist or belongs to another tenant.
func (r *SaleRepository) Delete(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Sale{})
	if result.Error != nil {
		return fmt.Errorf("delete sale: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
