package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
)

// CustomerHandler serves the egg-buyer roster.
type CustomerHandler struct {
	repo   *gormdb.CustomerRepository
	logger *zap.Logger
}

// NewCustomerHandler constructs the customer HTTP handler.
func NewCustomerHandler(repo *gormdb.CustomerRepository, logger *zap.Logger) *CustomerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerHandler{repo: repo, logger: logger}
}

type customerCreateRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

type customerUpdateRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Notes  *string `json:"notes"`
	Active *bool   `json:"active"`
}

// List returns the caller's customers; pass includeInactive=true to include
// soft-deleted ones.
func (h *CustomerHandler) List(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	customers, err := h.repo.List(c.Request.Context(), ownerID, c.Query("includeInactive") == "true")
	if err != nil {
		h.logger.Error("failed listing customers", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "customers retrieved", customers)
}

// Create adds a customer for the caller.
func (h *CustomerHandler) Create(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request customerCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid customer payload", zap.Error(err))
		respondValidation(c, "name is required")
		return
	}

	customer, err := h.repo.Create(c.Request.Context(), ownerID, models.Customer{
		ID:     models.NewRecordID(),
		Name:   request.Name,
		Phone:  request.Phone,
		Notes:  request.Notes,
		Active: true,
	})
	if err != nil {
		h.logger.Error("failed creating customer", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "customer created", customer)
}

// Update applies the provided fields to one of the caller's customers.
func (h *CustomerHandler) Update(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	var request customerUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn("invalid customer payload", zap.Error(err))
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
	if request.Phone != nil {
		updates["phone"] = *request.Phone
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

	customer, err := h.repo.Update(c.Request.Context(), ownerID, c.Param("id"), updates)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "customer updated", customer)
}

// Delete soft-deactivates one of the caller's customers.
func (h *CustomerHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	if err := h.repo.Deactivate(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "customer deactivated", nil)
}
