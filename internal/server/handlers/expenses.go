package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
	"github.com/smallflock/coopkeeper/internal/service/reporting"
)

// ExpenseHandler serves expense records and their summaries.
type ExpenseHandler struct {
	repo   *gormdb.ExpenseRepository
	logger *zap.Logger
}

// NewExpenseHandler constructs the expense HTTP handler.
func NewExpenseHandler(repo *gormdb.ExpenseRepository, logger *zap.Logger) *ExpenseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseHandler{repo: repo, logger: logger}
}

type expenseRequest struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Amount      *float64 `json:"amount"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
}

func (r expenseRequest) toModel() (models.Expense, []string, error) {
	if r.Category == "" {
		return models.Expense{}, nil, errValidation("category is required")
	}
	if r.Amount == nil {
		return models.Expense{}, nil, errValidation("amount is required")
	}
	if *r.Amount <= 0 {
		return models.Expense{}, nil, errValidation("amount must be positive")
	}
	if r.Date == "" {
		return models.Expense{}, nil, errValidation("date is required")
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return models.Expense{}, nil, errValidation(err.Error())
	}
	if r.Description == "" {
		return models.Expense{}, nil, errValidation("description is required")
	}

	expense := models.Expense{
		ID:          models.EnsureRecordID(r.ID),
		Category:    r.Category,
		Amount:      *r.Amount,
		Date:        date,
		Description: r.Description,
	}
	columns := []string{"category", "amount", "date", "description", "updated_at"}
	return expense, columns, nil
}

// List returns the caller's expenses, optionally bounded by startDate/endDate.
func (h *ExpenseHandler) List(c *gin.Context) {
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

	expenses, err := h.repo.List(c.Request.Context(), ownerID, start, end)
	if err != nil {
		h.logger.Error("failed listing expenses", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "expenses retrieved", expenses)
}

// Upsert accepts one expense or an array and writes them in a single
// all-or-nothing statement keyed by id.
func (h *ExpenseHandler) Upsert(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	requests, err := bindOneOrMany[expenseRequest](c)
	if err != nil {
		h.logger.Warn("invalid expense payload", zap.Error(err))
		respondValidation(c, err.Error())
		return
	}

	expenses := make([]models.Expense, 0, len(requests))
	columnSets := make([][]string, 0, len(requests))
	for _, request := range requests {
		expense, columns, err := request.toModel()
		if err != nil {
			respondValidation(c, err.Error())
			return
		}
		expenses = append(expenses, expense)
		columnSets = append(columnSets, columns)
	}

	stored, err := h.repo.Upsert(c.Request.Context(), ownerID, expenses, columnSets)
	if err != nil {
		h.logger.Error("failed upserting expenses", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "expenses saved", stored)
}

// Delete removes one of the caller's expenses.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "expense deleted", nil)
}

// Summary reduces the caller's expenses into a category breakdown and a
// monthly trend.
func (h *ExpenseHandler) Summary(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	expenses, err := h.repo.List(c.Request.Context(), ownerID, nil, nil)
	if err != nil {
		h.logger.Error("failed loading expenses for summary", zap.Error(err))
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "expense summary computed", gin.H{
		"byCategory":    reporting.CategoryBreakdown(expenses),
		"monthlyTotals": reporting.MonthlyExpenseTotals(expenses),
	})
}
