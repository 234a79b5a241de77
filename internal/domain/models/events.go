package models

import "time"

// Batch event types.
const (
	BatchEventHealthCheck    = "health_check"
	BatchEventVaccination    = "vaccination"
	BatchEventRelocation     = "relocation"
	BatchEventBreeding       = "breeding"
	BatchEventLayingStart    = "laying_start"
	BatchEventProductionNote = "production_note"
	BatchEventBroodingStart  = "brooding_start"
	BatchEventBroodingStop   = "brooding_stop"
	BatchEventFlockAdded     = "flock_added"
	BatchEventOther          = "other"
)

// Flock timeline event types.
const (
	FlockEventLayingStart = "laying_start"
	FlockEventBroody      = "broody"
	FlockEventOther       = "other"
)

var batchEventTypes = map[string]struct{}{
	BatchEventHealthCheck:    {},
	BatchEventVaccination:    {},
	BatchEventRelocation:     {},
	BatchEventBreeding:       {},
	BatchEventLayingStart:    {},
	BatchEventProductionNote: {},
	BatchEventBroodingStart:  {},
	BatchEventBroodingStop:   {},
	BatchEventFlockAdded:     {},
	BatchEventOther:          {},
}

// ValidBatchEventType reports whether the value is a known batch event type.
func ValidBatchEventType(t string) bool {
	_, ok := batchEventTypes[t]
	return ok
}

var flockEventTypes = map[string]struct{}{
	FlockEventLayingStart: {},
	FlockEventBroody:      {},
	FlockEventOther:       {},
}

// ValidFlockEventType reports whether the value is a known flock event type.
func ValidFlockEventType(t string) bool {
	_, ok := flockEventTypes[t]
	return ok
}

// BatchEvent is a dated occurrence within a flock batch. Mutations are
// mirrored into the flock timeline and may adjust derived batch fields.
type BatchEvent struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID       string    `gorm:"not null;index;type:uuid" json:"ownerId"`
	BatchID       string    `gorm:"not null;index;type:uuid" json:"batchId"`
	Date          time.Time `gorm:"not null;index;type:date" json:"date"`
	Type          string    `gorm:"not null" json:"type"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	AffectedCount *int      `json:"affectedCount,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Batch *FlockBatch `gorm:"foreignKey:BatchID;references:ID" json:"-"`
}

// TableName pins the storage table for batch events.
func (BatchEvent) TableName() string { return "batch_events" }

// Affected returns the bird count the event applies to, defaulting to one
// when the client did not supply a count.
func (e BatchEvent) Affected() int {
	if e.AffectedCount == nil || *e.AffectedCount <= 0 {
		return 1
	}
	return *e.AffectedCount
}

// FlockEvent is a flock-level timeline entry. Rows mirrored from batch events
// carry a back-reference in BatchEventID so that later updates and deletes are
// exact-match operations; directly created rows leave it null.
type FlockEvent struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerID       string    `gorm:"not null;index;type:uuid" json:"ownerId"`
	BatchEventID  *string   `gorm:"index;type:uuid" json:"batchEventId,omitempty"`
	Date          time.Time `gorm:"not null;index;type:date" json:"date"`
	Type          string    `gorm:"not null" json:"type"`
	Description   string    `gorm:"not null;type:text" json:"description"`
	AffectedBirds *int      `json:"affectedBirds,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName pins the storage table for flock events.
func (FlockEvent) TableName() string { return "flock_events" }
