package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
	"github.com/smallflock/coopkeeper/internal/service/propagation"
)

// BatchEventHandler serves batch events. Every mutation triggers best-effort
// propagation into the flock timeline and the batch's derived fields; the
// primary write succeeds regardless of propagation outcome.
type BatchEventHandler struct {
	events      *gormdb.EventRepository
	flock       *gormdb.FlockRepository
	propagation *propagation.Service
	logger      *zap.Logger
}

// NewBatchEventHandler constructs the batch event HTTP handler.
func NewBatchEventHandler(events *gormdb.EventRepository, flock *gormdb.FlockRepository, propagation *propagation.Service, logger *zap.Logger) *BatchEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchEventHandler{events: events, flock: flock, propagation: propagation, logger: logger}
}

type batchEventCreateRequest struct {
	BatchID       string `json:"batchId"`
	Date          string `json:"date"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	AffectedCount *int   `json:"affectedCount"`
	Notes         string `json:"notes"`
}

type batchEventUpdateRequest struct {
	Date          *string `json:"date"`
	Type          *string `json:"type"`
	Description   *string `json:"description"`
	AffectedCount *int    `json:"affectedCount"`
	Notes         *string `json:"notes"`
}

// List returns the events for the batch named by the required batchId query
// parameter.
func (h *BatchEventHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	batchID := c.Query("batchId")
	if batchID == "" {
		respondValidation(c, "batchId query parameter is required")
		return
	}

	events, err := h.events.ListBatchEvents(c.Request.Context(), ownerID, batchID)
	if err != nil {
		h.logger.Error("failed listing batch events", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "batch events retrieved", events)
}

// Create records a batch event and propagates its side effects.
func (h *BatchEventHandler) Create(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request batchEventCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid batch event payload", zap.Error(err))
		respondValidation(c, "invalid request body")
		return
	}

	if request.BatchID == "" {
		respondValidation(c, "batchId is required")
		return
	}
	if request.Date == "" {
		respondValidation(c, "date is required")
		return
	}
	date, err := parseDate(request.Date)
	if err != nil {
		respondValidation(c, err.Error())
		return
	}
	if !models.ValidBatchEventType(request.Type) {
		respondValidation(c, "unknown event type")
		return
	}
	if request.AffectedCount != nil && *request.AffectedCount <= 0 {
		respondValidation(c, "affectedCount must be positive")
		return
	}

	// The batch must exist and belong to the caller before any event is
	// attached to it.
	if _, err := h.flock.GetBatch(c.Request.Context(), ownerID, request.BatchID); err != nil {
		respondError(c, err)
		return
	}

	event, err := h.events.CreateBatchEvent(c.Request.Context(), ownerID, models.BatchEvent{
		ID:            models.NewRecordID(),
		BatchID:       request.BatchID,
		Date:          date,
		Type:          request.Type,
		Description:   request.Description,
		AffectedCount: request.AffectedCount,
		Notes:         request.Notes,
	})
	if err != nil {
		h.logger.Error("failed creating batch event", zap.Error(err))
		respondError(c, err)
		return
	}

	// Best-effort: the service logs its own failures.
	_ = h.propagation.EventCreated(c.Request.Context(), *event)

	respond(c, http.StatusCreated, "batch event recorded", event)
}

// Update applies the provided fields to one of the caller's batch events and
// re-propagates.
func (h *BatchEventHandler) Update(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request batchEventUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid batch event payload", zap.Error(err))
		respondValidation(c, "invalid request body")
		return
	}

	updates := map[string]any{}
	if request.Date != nil {
		date, err := parseDate(*request.Date)
		if err != nil {
			respondValidation(c, err.Error())
			return
		}
		updates["date"] = date
	}
	if request.Type != nil {
		if !models.ValidBatchEventType(*request.Type) {
			respondValidation(c, "unknown event type")
			return
		}
		updates["type"] = *request.Type
	}
	if request.Description != nil {
		updates["description"] = *request.Description
	}
	if request.AffectedCount != nil {
		if *request.AffectedCount <= 0 {
			respondValidation(c, "affectedCount must be positive")
			return
		}
		updates["affected_count"] = *request.AffectedCount
	}
	if request.Notes != nil {
		updates["notes"] = *request.Notes
	}
	if len(updates) == 0 {
		respondValidation(c, "no fields to update")
		return
	}

	event, err := h.events.UpdateBatchEvent(c.Request.Context(), ownerID, c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = h.propagation.EventUpdated(c.Request.Context(), *event)

	respond(c, http.StatusOK, "batch event updated", event)
}

// Delete removes one of the caller's batch events and unwinds its mirrored
// timeline entry and derived-field contributions.
func (h *BatchEventHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	event, err := h.events.DeleteBatchEvent(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	_ = h.propagation.EventDeleted(c.Request.Context(), *event)

	respond(c, http.StatusOK, "batch event deleted", nil)
}
