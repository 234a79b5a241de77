package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
)

// FlockHandler serves the aggregate flock profile.
type FlockHandler struct {
	repo   *gormdb.FlockRepository
	logger *zap.Logger
}

// NewFlockHandler constructs the flock profile HTTP handler.
func NewFlockHandler(repo *gormdb.FlockRepository, logger *zap.Logger) *FlockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlockHandler{repo: repo, logger: logger}
}

type flockProfileRequest struct {
	FarmName  *string   `json:"farmName"`
	Hens      *int      `json:"hens"`
	Roosters  *int      `json:"roosters"`
	Chicks    *int      `json:"chicks"`
	Brooding  *int      `json:"brooding"`
	Breeds    *[]string `json:"breeds"`
	StartDate *string   `json:"startDate"`
	Notes     *string   `json:"notes"`
}

// GetProfile returns the caller's flock profile.
func (h *FlockHandler) GetProfile(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	profile, err := h.repo.GetProfile(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "flock profile retrieved", profile)
}

// UpsertProfile writes the caller's single flock profile, keyed by owner.
// Omitted fields keep their stored values.
func (h *FlockHandler) UpsertProfile(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request flockProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid flock profile payload", zap.Error(err))
		respondValidation(c, "invalid request body")
		return
	}

	profile := models.FlockProfile{ID: models.NewRecordID()}
	columns := []string{"updated_at"}

	if request.FarmName != nil {
		profile.FarmName = *request.FarmName
		columns = append(columns, "farm_name")
	}
	for _, field := range []struct {
		value  *int
		name   string
		column string
		target *int
	}{
		{request.Hens, "hens", "hens", &profile.Hens},
		{request.Roosters, "roosters", "roosters", &profile.Roosters},
		{request.Chicks, "chicks", "chicks", &profile.Chicks},
		{request.Brooding, "brooding", "brooding", &profile.Brooding},
	} {
		if field.value == nil {
			continue
		}
		if *field.value < 0 {
			respondValidation(c, field.name+" must not be negative")
			return
		}
		*field.target = *field.value
		columns = append(columns, field.column)
	}
	if request.Breeds != nil {
		profile.Breeds = *request.Breeds
		columns = append(columns, "breeds")
	}
	if request.StartDate != nil {
		startDate, err := parseDate(*request.StartDate)
		if err != nil {
			respondValidation(c, "startDate: "+err.Error())
			return
		}
		profile.StartDate = &startDate
		columns = append(columns, "start_date")
	}
	if request.Notes != nil {
		profile.Notes = *request.Notes
		columns = append(columns, "notes")
	}

	if len(columns) == 1 {
		respondValidation(c, "no fields to update")
		return
	}

	stored, err := h.repo.UpsertProfile(c.Request.Context(), ownerID, profile, columns)
	if err != nil {
		h.logger.Error("failed upserting flock profile", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "flock profile saved", stored)
}
