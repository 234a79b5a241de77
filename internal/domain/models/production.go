package models

import "time"

// EggEntry captures one daily egg-production log for a flock owner. One entry
// per date is a UI convention, not a constraint; entries are keyed by id.
type EggEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID   string    `gorm:"not null;index;type:uuid" json:"ownerId"`
	Date      time.Time `gorm:"not null;index;type:date" json:"date"`
	Count     int       `gorm:"not null" json:"count"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the storage table for egg entries.
func (EggEntry) TableName() string { return "egg_entries" }
