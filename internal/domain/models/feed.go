package models

import "time"

// FeedEntry is one feed-inventory purchase. Quantity is drawn down by
// consumption tracking; Depleted marks the bag as used up.
type FeedEntry struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID      string     `gorm:"not null;index;type:uuid" json:"ownerId"`
	Brand        string     `gorm:"not null" json:"brand"`
	Type         string     `json:"type,omitempty"`
	Quantity     float64    `gorm:"not null" json:"quantity"`
	Unit         string     `gorm:"not null" json:"unit"`
	PricePerUnit float64    `json:"pricePerUnit"`
	TotalCost    float64    `gorm:"not null" json:"totalCost"`
	PurchaseDate time.Time  `gorm:"not null;index;type:date" json:"purchaseDate"`
	ExpiryDate   *time.Time `gorm:"type:date" json:"expiryDate,omitempty"`
	Depleted     bool       `gorm:"not null;default:false" json:"depleted"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the storage table for feed inventory.
func (FeedEntry) TableName() string { return "feed_inventory" }
