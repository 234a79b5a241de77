package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
)

// FeedHandler serves feed inventory records.
type FeedHandler struct {
	repo      *gormdb.FeedRepository
	threshold float64
	logger    *zap.Logger
}

// NewFeedHandler constructs the feed inventory HTTP handler.
func NewFeedHandler(repo *gormdb.FeedRepository, lowStockThreshold float64, logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHandler{repo: repo, threshold: lowStockThreshold, logger: logger}
}

// flexNumber accepts both JSON numbers and numeric strings; some clients send
// quantity and cost as quoted values.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	value, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return err
	}
	*n = flexNumber(value)
	return nil
}

type feedEntryRequest struct {
	ID           string      `json:"id"`
	Brand        string      `json:"brand"`
	Type         *string     `json:"type"`
	Quantity     *flexNumber `json:"quantity"`
	Unit         string      `json:"unit"`
	PricePerUnit *flexNumber `json:"pricePerUnit"`
	TotalCost    *flexNumber `json:"totalCost"`
	PurchaseDate string      `json:"purchaseDate"`
	ExpiryDate   *string     `json:"expiryDate"`
	Depleted     *bool       `json:"depleted"`
}

func (r feedEntryRequest) toModel() (models.FeedEntry, []string, error) {
	if r.Brand == "" {
		return models.FeedEntry{}, nil, errValidation("brand is required")
	}
	if r.Quantity == nil {
		return models.FeedEntry{}, nil, errValidation("quantity is required")
	}
	if float64(*r.Quantity) < 0 {
		return models.FeedEntry{}, nil, errValidation("quantity must not be negative")
	}
	if r.Unit == "" {
		return models.FeedEntry{}, nil, errValidation("unit is required")
	}
	if r.TotalCost == nil {
		return models.FeedEntry{}, nil, errValidation("totalCost is required")
	}
	if float64(*r.TotalCost) < 0 {
		return models.FeedEntry{}, nil, errValidation("totalCost must not be negative")
	}
	if r.PurchaseDate == "" {
		return models.FeedEntry{}, nil, errValidation("purchaseDate is required")
	}
	purchaseDate, err := parseDate(r.PurchaseDate)
	if err != nil {
		return models.FeedEntry{}, nil, errValidation(err.Error())
	}

	entry := models.FeedEntry{
		ID:           models.EnsureRecordID(r.ID),
		Brand:        r.Brand,
		Quantity:     float64(*r.Quantity),
		Unit:         r.Unit,
		TotalCost:    float64(*r.TotalCost),
		PurchaseDate: purchaseDate,
	}
	columns := []string{"brand", "quantity", "unit", "total_cost", "purchase_date", "updated_at"}
	if r.Type != nil {
		entry.Type = *r.Type
		columns = append(columns, "type")
	}
	if r.PricePerUnit != nil {
		entry.PricePerUnit = float64(*r.PricePerUnit)
		columns = append(columns, "price_per_unit")
	}
	if r.ExpiryDate != nil {
		expiry, err := parseDate(*r.ExpiryDate)
		if err != nil {
			return models.FeedEntry{}, nil, errValidation("expiryDate: " + err.Error())
		}
		entry.ExpiryDate = &expiry
		columns = append(columns, "expiry_date")
	}
	if r.Depleted != nil {
		entry.Depleted = *r.Depleted
		columns = append(columns, "depleted")
	}
	return entry, columns, nil
}

// List returns the caller's feed inventory.
func (h *FeedHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	entries, err := h.repo.List(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed listing feed inventory", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "feed inventory retrieved", entries)
}

// LowStock returns inventory rows at or below the configured threshold that
// are not yet depleted.
func (h *FeedHandler) LowStock(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	entries, err := h.repo.LowStock(c.Request.Context(), ownerID, h.threshold)
	if err != nil {
		h.logger.Error("failed listing low stock feed", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "low stock feed retrieved", gin.H{
		"threshold": h.threshold,
		"entries":   entries,
	})
}

// Upsert accepts one feed entry or an array and writes them in a single
// all-or-nothing statement keyed by id.
func (h *FeedHandler) Upsert(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	requests, err := bindOneOrMany[feedEntryRequest](c)
	if err != nil {
		h.logger.Warn("invalid feed payload", zap.Error(err))
		respondValidation(c, err.Error())
		return
	}

	entries := make([]models.FeedEntry, 0, len(requests))
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
		h.logger.Error("failed upserting feed inventory", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "feed inventory saved", stored)
}

// Delete removes one of the caller's feed entries.
func (h *FeedHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "feed entry deleted", nil)
}
