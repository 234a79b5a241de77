package propagation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// Service keeps the flock timeline and the derived batch fields consistent
// with the batch event log. The primary batch-event write always commits on
// its own before any of these methods run; callers log a returned error and
// move on, so propagation can never fail a user's write. Each method applies
// its side effects in one transaction so the derived state never
// half-applies.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService wires a new propagation service instance.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger}
}

// EventCreated mirrors a freshly created batch event into the flock timeline
// and refreshes the derived fields its type affects.
func (s *Service) EventCreated(ctx context.Context, event models.BatchEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.upsertMirror(tx, event); err != nil {
			return err
		}
		return s.recomputeForType(tx, event.OwnerID, event.BatchID, event.Type)
	})
	if err != nil {
		s.logger.Warn("propagation after create failed",
			zap.String("event_id", event.ID), zap.Error(err))
	}
	return err
}

// EventUpdated refreshes the mirror row and recomputes every derived field,
// since the event's type or date may have changed.
func (s *Service) EventUpdated(ctx context.Context, event models.BatchEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.upsertMirror(tx, event); err != nil {
			return err
		}
		if err := s.recomputeBroodingCount(tx, event.OwnerID, event.BatchID); err != nil {
			return err
		}
		return s.recomputeLayingStart(tx, event.OwnerID, event.BatchID)
	})
	if err != nil {
		s.logger.Warn("propagation after update failed",
			zap.String("event_id", event.ID), zap.Error(err))
	}
	return err
}

// EventDeleted removes the mirror row for a deleted batch event and replays
// the remaining log so the derived fields read as if the event never existed.
func (s *Service) EventDeleted(ctx context.Context, event models.BatchEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("owner_id = ? AND batch_event_id = ?", event.OwnerID, event.ID).
			Delete(&models.FlockEvent{}).Error; err != nil {
			return fmt.Errorf("delete mirrored flock event: %w", err)
		}
		return s.recomputeForType(tx, event.OwnerID, event.BatchID, event.Type)
	})
	if err != nil {
		s.logger.Warn("propagation after delete failed",
			zap.String("event_id", event.ID), zap.Error(err))
	}
	return err
}

// upsertMirror creates or refreshes the flock timeline row that shadows the
// batch event, matched exactly by its back-reference.
func (s *Service) upsertMirror(tx *gorm.DB, event models.BatchEvent) error {
	var batch models.FlockBatch
	if err := tx.
		Where("id = ? AND owner_id = ?", event.BatchID, event.OwnerID).
		First(&batch).Error; err != nil {
		return fmt.Errorf("load batch for mirror: %w", err)
	}

	eventType, description := mirrorContent(event, batch.Name)

	var mirror models.FlockEvent
	err := tx.
		Where("owner_id = ? AND batch_event_id = ?", event.OwnerID, event.ID).
		First(&mirror).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		mirror = models.FlockEvent{
			ID:            models.NewRecordID(),
			OwnerID:       event.OwnerID,
			BatchEventID:  &event.ID,
			Date:          event.Date,
			Type:          eventType,
			Description:   description,
			AffectedBirds: event.AffectedCount,
			Notes:         event.Notes,
		}
		if err := tx.Create(&mirror).Error; err != nil {
			return fmt.Errorf("create mirrored flock event: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("find mirrored flock event: %w", err)
	}

	updates := map[string]any{
		"date":           event.Date,
		"type":           eventType,
		"description":    description,
		"affected_birds": event.AffectedCount,
		"notes":          event.Notes,
	}
	if err := tx.Model(&models.FlockEvent{}).
		Where("id = ?", mirror.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("update mirrored flock event: %w", err)
	}
	return nil
}

func (s *Service) recomputeForType(tx *gorm.DB, ownerID, batchID, eventType string) error {
	switch eventType {
	case models.BatchEventBroodingStart, models.BatchEventBroodingStop:
		return s.recomputeBroodingCount(tx, ownerID, batchID)
	case models.BatchEventLayingStart:
		return s.recomputeLayingStart(tx, ownerID, batchID)
	default:
		return nil
	}
}

// recomputeBroodingCount replays every brooding event for the batch in
// (date, created_at, id) order, adding the affected count on start and
// subtracting it on stop. A full replay rather than an incremental delta
// means out-of-order edits and deletes self-correct on the next write.
func (s *Service) recomputeBroodingCount(tx *gorm.DB, ownerID, batchID string) error {
	var events []models.BatchEvent
	if err := tx.
		Where("owner_id = ? AND batch_id = ? AND type IN ?",
			ownerID, batchID,
			[]string{models.BatchEventBroodingStart, models.BatchEventBroodingStop}).
		Order("date asc, created_at asc, id asc").
		Find(&events).Error; err != nil {
		return fmt.Errorf("load brooding events: %w", err)
	}

	count := 0
	for _, event := range events {
		if event.Type == models.BatchEventBroodingStart {
			count += event.Affected()
		} else {
			count -= event.Affected()
		}
	}
	if count < 0 {
		count = 0
	}

	if err := tx.Model(&models.FlockBatch{}).
		Where("id = ? AND owner_id = ?", batchID, ownerID).
		Update("brooding_count", count).Error; err != nil {
		return fmt.Errorf("update brooding count: %w", err)
	}
	return nil
}

// recomputeLayingStart sets the batch's actual laying-start date to the
// earliest remaining laying_start event, or null when none remain. Earliest
// wins on create; deletes fall out of the same recompute.
func (s *Service) recomputeLayingStart(tx *gorm.DB, ownerID, batchID string) error {
	var earliest models.BatchEvent
	err := tx.
		Where("owner_id = ? AND batch_id = ? AND type = ?",
			ownerID, batchID, models.BatchEventLayingStart).
		Order("date asc").
		First(&earliest).Error

	var value any
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		value = nil
	case err != nil:
		return fmt.Errorf("load laying start events: %w", err)
	default:
		value = earliest.Date
	}

	if err := tx.Model(&models.FlockBatch{}).
		Where("id = ? AND owner_id = ?", batchID, ownerID).
		Update("actual_laying_start_date", value).Error; err != nil {
		return fmt.Errorf("update laying start date: %w", err)
	}
	return nil
}

// mirrorContent maps a batch event onto the flock-timeline type and
// description used for its mirror row.
func mirrorContent(event models.BatchEvent, batchName string) (string, string) {
	switch event.Type {
	case models.BatchEventLayingStart:
		return models.FlockEventLayingStart, fmt.Sprintf("%s batch started laying", batchName)
	case models.BatchEventBroodingStart:
		return models.FlockEventBroody, fmt.Sprintf("Brooding started in %s batch", batchName)
	case models.BatchEventBroodingStop:
		return models.FlockEventOther, fmt.Sprintf("Brooding ended in %s batch", batchName)
	case models.BatchEventVaccination:
		return models.FlockEventOther, fmt.Sprintf("Vaccination administered to %s batch", batchName)
	case models.BatchEventHealthCheck:
		return models.FlockEventOther, fmt.Sprintf("Health check performed on %s batch", batchName)
	case models.BatchEventRelocation:
		return models.FlockEventOther, fmt.Sprintf("%s batch relocated", batchName)
	case models.BatchEventBreeding:
		return models.FlockEventOther, fmt.Sprintf("Breeding activity recorded for %s batch", batchName)
	case models.BatchEventProductionNote:
		return models.FlockEventOther, fmt.Sprintf("Production note for %s batch", batchName)
	case models.BatchEventFlockAdded:
		return models.FlockEventOther, fmt.Sprintf("%s batch added to the flock", batchName)
	default:
		if event.Description != "" {
			return models.FlockEventOther, event.Description
		}
		return models.FlockEventOther, fmt.Sprintf("Event recorded for %s batch", batchName)
	}
}
