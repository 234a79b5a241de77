package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
	"github.com/smallflock/coopkeeper/internal/service/reporting"
)

// EggHandler serves the daily egg-production log.
type EggHandler struct {
	repo   *gormdb.EggRepository
	logger *zap.Logger
}

// NewEggHandler constructs the egg log HTTP handler.
func NewEggHandler(repo *gormdb.EggRepository, logger *zap.Logger) *EggHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EggHandler{repo: repo, logger: logger}
}

type eggEntryRequest struct {
	ID    string  `json:"id"`
	Date  string  `json:"date"`
	Count *int    `json:"count"`
	Size  *string `json:"size"`
	Color *string `json:"color"`
	Notes *string `json:"notes"`
}

// toModel maps the client shape onto the storage shape and reports which
// columns the client actually provided. Omitted optional fields stay out of
// the update set so an upsert never nulls them on an existing row.
func (r eggEntryRequest) toModel() (models.EggEntry, []string, error) {
	if r.Date == "" {
		return models.EggEntry{}, nil, errValidation("date is required")
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return models.EggEntry{}, nil, errValidation(err.Error())
	}
	if r.Count == nil {
		return models.EggEntry{}, nil, errValidation("count is required")
	}
	if *r.Count < 0 {
		return models.EggEntry{}, nil, errValidation("count must not be negative")
	}

	entry := models.EggEntry{
		ID:    models.EnsureRecordID(r.ID),
		Date:  date,
		Count: *r.Count,
	}
	columns := []string{"date", "count", "updated_at"}
	if r.Size != nil {
		entry.Size = *r.Size
		columns = append(columns, "size")
	}
	if r.Color != nil {
		entry.Color = *r.Color
		columns = append(columns, "color")
	}
	if r.Notes != nil {
		entry.Notes = *r.Notes
		columns = append(columns, "notes")
	}
	return entry, columns, nil
}

// List returns the caller's egg entries, optionally bounded by the startDate
// and endDate query parameters.
func (h *EggHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	start, err := parseDateQuery(c, "startDate")
	if err != nil {
		respondValidation(c, err.Error())
		return
	}
	end, err := parseDateQuery(c, "endDate")
	if err != nil {
		respondValidation(c, err.Error())
		return
	}

	entries, err := h.repo.List(c.Request.Context(), ownerID, start, end)
	if err != nil {
		h.logger.Error("failed listing egg entries", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "egg entries retrieved", entries)
}

// Upsert accepts one entry or an array of entries and writes them in a single
// all-or-nothing statement keyed by id.
func (h *EggHandler) Upsert(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	requests, err := bindOneOrMany[eggEntryRequest](c)
	if err != nil {
		h.logger.Warn("invalid egg payload", zap.Error(err))
		respondValidation(c, err.Error())
		return
	}

	entries := make([]models.EggEntry, 0, len(requests))
	columnSets := make([][]string, 0, len(requests))
	for _, request := range requests {
		entry, columns, err := request.toModel()
		if err != nil {
			respondValidation(c, err.Error())
			return
		}
		entries = append(entries, entry)
		columnSets = append(columnSets, columns)
	}

	stored, err := h.repo.Upsert(c.Request.Context(), ownerID, entries, columnSets)
	if err != nil {
		h.logger.Error("failed upserting egg entries", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "egg entries saved", stored)
}

// Delete removes one of the caller's egg entries.
func (h *EggHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "egg entry deleted", nil)
}

// Summary reduces the caller's full egg log into production totals with a
// month-over-month delta.
func (h *EggHandler) Summary(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	entries, err := h.repo.List(c.Request.Context(), ownerID, nil, nil)
	if err != nil {
		h.logger.Error("failed loading egg entries for summary", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "egg summary computed", reporting.SummarizeEggs(entries, time.Now()))
}
