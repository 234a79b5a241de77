package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
)

// BatchHandler serves flock batches and their death records.
type BatchHandler struct {
	repo   *gormdb.FlockRepository
	logger *zap.Logger
}

// NewBatchHandler constructs the batch HTTP handler.
func NewBatchHandler(repo *gormdb.FlockRepository, logger *zap.Logger) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{repo: repo, logger: logger}
}

type batchCreateRequest struct {
	Name                    string   `json:"name"`
	Breed                   string   `json:"breed"`
	AcquisitionDate         string   `json:"acquisitionDate"`
	InitialCount            *int     `json:"initialCount"`
	Hens                    *int     `json:"hens"`
	Roosters                *int     `json:"roosters"`
	Chicks                  *int     `json:"chicks"`
	ExpectedLayingStartDate *string  `json:"expectedLayingStartDate"`
	Cost                    *float64 `json:"cost"`
	Notes                   string   `json:"notes"`
}

type batchUpdateRequest struct {
	Name                    *string  `json:"name"`
	Breed                   *string  `json:"breed"`
	AcquisitionDate         *string  `json:"acquisitionDate"`
	Hens                    *int     `json:"hens"`
	Roosters                *int     `json:"roosters"`
	Chicks                  *int     `json:"chicks"`
	ExpectedLayingStartDate *string  `json:"expectedLayingStartDate"`
	Cost                    *float64 `json:"cost"`
	Notes                   *string  `json:"notes"`
	Active                  *bool    `json:"active"`
}

type deathRequest struct {
	Date  string `json:"date"`
	Count *int   `json:"count"`
	Cause string `json:"cause"`
	Notes string `json:"notes"`
}

// List returns the caller's batches; pass includeInactive=true to include
// soft-deleted ones.
func (h *BatchHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	batches, err := h.repo.ListBatches(c.Request.Context(), ownerID, c.Query("includeInactive") == "true")
	if err != nil {
		h.logger.Error("failed listing batches", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "batches retrieved", batches)
}

// Create adds a batch. When initialCount is omitted it is derived from the
// per-type counts; currentCount always starts at the initial count.
func (h *BatchHandler) Create(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request batchCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid batch payload", zap.Error(err))
		respondValidation(c, "invalid request body")
		return
	}

	if request.Name == "" {
		respondValidation(c, "name is required")
		return
	}
	if request.AcquisitionDate == "" {
		respondValidation(c, "acquisitionDate is required")
		return
	}
	acquisitionDate, err := parseDate(request.AcquisitionDate)
	if err != nil {
		respondValidation(c, "acquisitionDate: "+err.Error())
		return
	}

	batch := models.FlockBatch{
		ID:              models.NewRecordID(),
		Name:            request.Name,
		Breed:           request.Breed,
		AcquisitionDate: acquisitionDate,
		Notes:           request.Notes,
		Active:          true,
	}
	for _, field := range []struct {
		value  *int
		name   string
		target *int
	}{
		{request.Hens, "hens", &batch.Hens},
		{request.Roosters, "roosters", &batch.Roosters},
		{request.Chicks, "chicks", &batch.Chicks},
	} {
		if field.value == nil {
			continue
		}
		if *field.value < 0 {
			respondValidation(c, field.name+" must not be negative")
			return
		}
		*field.target = *field.value
	}
	if request.InitialCount != nil {
		if *request.InitialCount < 0 {
			respondValidation(c, "initialCount must not be negative")
			return
		}
		batch.InitialCount = *request.InitialCount
	} else {
		batch.InitialCount = batch.Hens + batch.Roosters + batch.Chicks
	}
	batch.CurrentCount = batch.InitialCount
	if request.ExpectedLayingStartDate != nil {
		expected, err := parseDate(*request.ExpectedLayingStartDate)
		if err != nil {
			respondValidation(c, "expectedLayingStartDate: "+err.Error())
			return
		}
		batch.ExpectedLayingStartDate = &expected
	}
	if request.Cost != nil {
		if *request.Cost < 0 {
			respondValidation(c, "cost must not be negative")
			return
		}
		batch.Cost = *request.Cost
	}

	stored, err := h.repo.CreateBatch(c.Request.Context(), ownerID, batch)
	if err != nil {
		h.logger.Error("failed creating batch", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "batch created", stored)
}

// Update applies the provided fields to one of the caller's batches. The
// derived fields (currentCount, broodingCount, actualLayingStartDate) are not
// client-writable; they are maintained by death records and event propagation.
func (h *BatchHandler) Update(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request batchUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid batch payload", zap.Error(err))
		respondValidation(c, "invalid request body")
		return
	}

	updates := map[string]any{}
	if request.Name != nil {
		if *request.Name == "" {
			respondValidation(c, "name must not be empty")
			return
		}
		updates["name"] = *request.Name
	}
	if request.Breed != nil {
		updates["breed"] = *request.Breed
	}
	if request.AcquisitionDate != nil {
		acquisitionDate, err := parseDate(*request.AcquisitionDate)
		if err != nil {
			respondValidation(c, "acquisitionDate: "+err.Error())
			return
		}
		updates["acquisition_date"] = acquisitionDate
	}
	for _, field := range []struct {
		value  *int
		name   string
		column string
	}{
		{request.Hens, "hens", "hens"},
		{request.Roosters, "roosters", "roosters"},
		{request.Chicks, "chicks", "chicks"},
	} {
		if field.value == nil {
			continue
		}
		if *field.value < 0 {
			respondValidation(c, field.name+" must not be negative")
			return
		}
		updates[field.column] = *field.value
	}
	if request.ExpectedLayingStartDate != nil {
		expected, err := parseDate(*request.ExpectedLayingStartDate)
		if err != nil {
			respondValidation(c, "expectedLayingStartDate: "+err.Error())
			return
		}
		updates["expected_laying_start_date"] = expected
	}
	if request.Cost != nil {
		if *request.Cost < 0 {
			respondValidation(c, "cost must not be negative")
			return
		}
		updates["cost"] = *request.Cost
	}
	if request.Notes != nil {
		updates["notes"] = *request.Notes
	}
	if request.Active != nil {
		updates["active"] = *request.Active
	}
	if len(updates) == 0 {
		respondValidation(c, "no fields to update")
		return
	}

	batch, err := h.repo.UpdateBatch(c.Request.Context(), ownerID, c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "batch updated", batch)
}

// Delete soft-disables one of the caller's batches.
func (h *BatchHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	if err := h.repo.DeactivateBatch(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "batch deactivated", nil)
}

// ListDeaths returns the death records for one of the caller's batches.
func (h *BatchHandler) ListDeaths(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	batchID := c.Param("id")
	if _, err := h.repo.GetBatch(c.Request.Context(), ownerID, batchID); err != nil {
		respondError(c, err)
		return
	}

	deaths, err := h.repo.ListDeaths(c.Request.Context(), ownerID, batchID)
	if err != nil {
		h.logger.Error("failed listing batch deaths", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "death records retrieved", deaths)
}

// RecordDeath inserts a death record for one of the caller's batches and
// decrements the batch count in the same transaction. A count exceeding the
// remaining birds is rejected with the batch left unchanged.
func (h *BatchHandler) RecordDeath(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request deathRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid death payload", zap.Error(err))
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
	if request.Count == nil {
		respondValidation(c, "count is required")
		return
	}

	death, err := h.repo.RecordDeath(c.Request.Context(), ownerID, models.BatchDeath{
		ID:      models.NewRecordID(),
		BatchID: c.Param("id"),
		Date:    date,
		Count:   *request.Count,
		Cause:   request.Cause,
		Notes:   request.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "death recorded", death)
}
