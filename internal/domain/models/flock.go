package models

import "time"

// FlockProfile is the aggregate picture of a user's flock. One profile per
// owner, enforced by a unique index and maintained by upsert.
type FlockProfile struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID   string     `gorm:"not null;uniqueIndex;type:uuid" json:"ownerId"`
	FarmName  string     `json:"farmName,omitempty"`
	Hens      int        `gorm:"not null;default:0" json:"hens"`
	Roosters  int        `gorm:"not null;default:0" json:"roosters"`
	Chicks    int        `gorm:"not null;default:0" json:"chicks"`
	Brooding  int        `gorm:"not null;default:0" json:"brooding"`
	Breeds    []string   `gorm:"serializer:json" json:"breeds,omitempty"`
	StartDate *time.Time `gorm:"type:date" json:"startDate,omitempty"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the storage table for flock profiles.
func (FlockProfile) TableName() string { return "flock_profiles" }

// FlockBatch is a named sub-group of birds acquired together. CurrentCount and
// the derived fields (BroodingCount, ActualLayingStartDate) are maintained by
// death records and batch-event propagation; Active soft-deletes the batch.
type FlockBatch struct {
	ID                      string     `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID                 string     `gorm:"not null;index;uniqueIndex:idx_batches_owner_name;type:uuid" json:"ownerId"`
	Name                    string     `gorm:"not null;uniqueIndex:idx_batches_owner_name" json:"name"`
	Breed                   string     `json:"breed,omitempty"`
	AcquisitionDate         time.Time  `gorm:"not null;type:date" json:"acquisitionDate"`
	InitialCount            int        `gorm:"not null" json:"initialCount"`
	CurrentCount            int        `gorm:"not null" json:"currentCount"`
	Hens                    int        `gorm:"not null;default:0" json:"hens"`
	Roosters                int        `gorm:"not null;default:0" json:"roosters"`
	Chicks                  int        `gorm:"not null;default:0" json:"chicks"`
	BroodingCount           int        `gorm:"not null;default:0" json:"broodingCount"`
	ExpectedLayingStartDate *time.Time `gorm:"type:date" json:"expectedLayingStartDate,omitempty"`
	ActualLayingStartDate   *time.Time `gorm:"type:date" json:"actualLayingStartDate,omitempty"`
	Cost                    float64    `gorm:"not null;default:0" json:"cost"`
	Notes                   string     `gorm:"type:text" json:"notes,omitempty"`
	Active                  bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the storage table for flock batches.
func (FlockBatch) TableName() string { return "flock_batches" }

// BatchDeath records birds lost from a batch. Inserting one decrements the
// batch's current count in the same transaction.
type BatchDeath struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID   string    `gorm:"not null;index;type:uuid" json:"ownerId"`
	BatchID   string    `gorm:"not null;index;type:uuid" json:"batchId"`
	Date      time.Time `gorm:"not null;type:date" json:"date"`
	Count     int       `gorm:"not null" json:"count"`
	Cause     string    `json:"cause,omitempty"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Batch *FlockBatch `gorm:"foreignKey:BatchID;references:ID" json:"-"`
}

// TableName pins the storage table for batch death records.
func (BatchDeath) TableName() string { return "batch_deaths" }
