package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
	"github.com/smallflock/coopkeeper/internal/service/reporting"
)

// SaleHandler serves sale transactions and the sales summary.
type SaleHandler struct {
	repo   *gormdb.SaleRepository
	logger *zap.Logger
}

// NewSaleHandler constructs the sales HTTP handler.
func NewSaleHandler(repo *gormdb.SaleRepository, logger *zap.Logger) *SaleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleHandler{repo: repo, logger: logger}
}

type saleCreateRequest struct {
	CustomerID      string   `json:"customerId"`
	Date            string   `json:"date"`
	DozenCount      *int     `json:"dozenCount"`
	IndividualCount *int     `json:"individualCount"`
	TotalAmount     *float64 `json:"totalAmount"`
	Notes           string   `json:"notes"`
}

type saleUpdateRequest struct {
	Date            *string  `json:"date"`
	DozenCount      *int     `json:"dozenCount"`
	IndividualCount *int     `json:"individualCount"`
	TotalAmount     *float64 `json:"totalAmount"`
	Notes           *string  `json:"notes"`
}

// List returns the caller's sales with their customers.
func (h *SaleHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	sales, err := h.repo.List(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed listing sales", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "sales retrieved", sales)
}

// Create records a sale. A total amount of zero is a free-egg giveaway and is
// accepted as-is.
func (h *SaleHandler) Create(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request saleCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid sale payload", zap.Error(err))
		respondValidation(c, "invalid request body")
		return
	}

	if !models.ValidRecordID(request.CustomerID) {
		respondValidation(c, "customerId is required")
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

	sale := models.Sale{
		ID:         models.NewRecordID(),
		CustomerID: request.CustomerID,
		Date:       date,
		Notes:      request.Notes,
	}
	if request.DozenCount != nil {
		if *request.DozenCount < 0 {
			respondValidation(c, "dozenCount must not be negative")
			return
		}
		sale.DozenCount = *request.DozenCount
	}
	if request.IndividualCount != nil {
		if *request.IndividualCount < 0 {
			respondValidation(c, "individualCount must not be negative")
			return
		}
		sale.IndividualCount = *request.IndividualCount
	}
	if request.TotalAmount != nil {
		if *request.TotalAmount < 0 {
			respondValidation(c, "totalAmount must not be negative")
			return
		}
		sale.TotalAmount = *request.TotalAmount
	}

	stored, err := h.repo.Create(c.Request.Context(), ownerID, sale)
	if err != nil {
		h.logger.Error("failed creating sale", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "sale recorded", stored)
}

// Update applies the provided fields to one of the caller's sales.
func (h *SaleHandler) Update(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request saleUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid sale payload", zap.Error(err))
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
	if request.DozenCount != nil {
		if *request.DozenCount < 0 {
			respondValidation(c, "dozenCount must not be negative")
			return
		}
		updates["dozen_count"] = *request.DozenCount
	}
	if request.IndividualCount != nil {
		if *request.IndividualCount < 0 {
			respondValidation(c, "individualCount must not be negative")
			return
		}
		updates["individual_count"] = *request.IndividualCount
	}
	if request.TotalAmount != nil {
		if *request.TotalAmount < 0 {
			respondValidation(c, "totalAmount must not be negative")
			return
		}
		updates["total_amount"] = *request.TotalAmount
	}
	if request.Notes != nil {
		updates["notes"] = *request.Notes
	}
	if len(updates) == 0 {
		respondValidation(c, "no fields to update")
		return
	}

	sale, err := h.repo.Update(c.Request.Context(), ownerID, c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "sale updated", sale)
}

// Delete removes one of the caller's sales.
func (h *SaleHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "sale deleted", nil)
}

// Summary reduces the caller's sales into revenue, egg, and top-customer
// totals.
func (h *SaleHandler) Summary(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	sales, err := h.repo.List(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed loading sales for summary", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "sales summary computed", reporting.SummarizeSales(sales))
}
