package models

import "time"

// Expense captures a single operating expense transaction.
type Expense struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID     string    `gorm:"not null;index;type:uuid" json:"ownerId"`
	Category    string    `gorm:"not null" json:"category"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Date        time.Time `gorm:"not null;index;type:date" json:"date"`
	Description string    `gorm:"not null;type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the storage table for expenses.
func (Expense) TableName() string { return "expenses" }

// Customer is an egg buyer tracked by the sales module. Customers are never
// hard-deleted; the active flag soft-disables them.
type Customer struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID   string    `gorm:"not null;index;type:uuid" json:"ownerId"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the storage table for customers.
func (Customer) TableName() string { return "customers" }

// Sale records one egg sale. A total amount of zero is a first-class
// "free eggs given" transaction, not an error.
type Sale struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID         string    `gorm:"not null;index;type:uuid" json:"ownerId"`
	CustomerID      string    `gorm:"not null;index;type:uuid" json:"customerId"`
	Date            time.Time `gorm:"not null;index;type:date" json:"date"`
	DozenCount      int       `gorm:"not null;default:0" json:"dozenCount"`
	IndividualCount int       `gorm:"not null;default:0" json:"individualCount"`
	TotalAmount     float64   `gorm:"not null;default:0" json:"totalAmount"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Customer *Customer `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
}

// TableName pins the storage table for sales.
func (Sale) TableName() string { return "sales" }

// EggsMoved returns the number of eggs covered by the sale.
func (s Sale) EggsMoved() int {
	return s.DozenCount*12 + s.IndividualCount
}

// IsGift reports whether the sale was a free-egg giveaway.
func (s Sale) IsGift() bool {
	return s.TotalAmount == 0
}
