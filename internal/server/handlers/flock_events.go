package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
)

// FlockEventHandler serves the flock-level timeline. Rows mirrored from batch
// events are read-only here; direct entries can be created and deleted.
type FlockEventHandler struct {
	repo   *gormdb.EventRepository
	logger *zap.Logger
}

// NewFlockEventHandler constructs the flock timeline HTTP handler.
func NewFlockEventHandler(repo *gormdb.EventRepository, logger *zap.Logger) *FlockEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlockEventHandler{repo: repo, logger: logger}
}

type flockEventRequest struct {
	Date          string `json:"date"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	AffectedBirds *int   `json:"affectedBirds"`
	Notes         string `json:"notes"`
}

// List returns the caller's flock timeline, newest first.
func (h *FlockEventHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	events, err := h.repo.ListFlockEvents(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed listing flock events", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "flock events retrieved", events)
}

// Create records a direct flock-level timeline entry.
func (h *FlockEventHandler) Create(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request flockEventRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid flock event payload", zap.Error(err))
		respondValidation(c, "invalid request body")
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
	if !models.ValidFlockEventType(request.Type) {
		respondValidation(c, "unknown event type")
		return
	}
	if request.Description == "" {
		respondValidation(c, "description is required")
		return
	}
	if request.AffectedBirds != nil && *request.AffectedBirds <= 0 {
		respondValidation(c, "affectedBirds must be positive")
		return
	}

	event, err := h.repo.CreateFlockEvent(c.Request.Context(), ownerID, models.FlockEvent{
		ID:            models.NewRecordID(),
		Date:          date,
		Type:          request.Type,
		Description:   request.Description,
		AffectedBirds: request.AffectedBirds,
		Notes:         request.Notes,
	})
	if err != nil {
		h.logger.Error("failed creating flock event", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "flock event recorded", event)
}

// Delete removes one of the caller's flock timeline entries.
func (h *FlockEventHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteFlockEvent(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "flock event deleted", nil)
}
