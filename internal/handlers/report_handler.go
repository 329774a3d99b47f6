package handlers

import (
	"net/http"
	"time"

	"restaurant-pos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// --- GET: /api/reports/sales?from=2024-05-01&to=2024-05-31 ---
func (h *Handler) GetSalesReport(c *gin.Context) {
	today := time.Now().In(h.Location).Format("2006-01-02")
	start, end, err := h.dayRange(c.DefaultQuery("from", today), c.DefaultQuery("to", today))
	if err != nil {
		badRequest(c, "from and to must be YYYY-MM-DD")
		return
	}
	report, err := h.Store.SalesReport(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- Accounting ---

func (h *Handler) ListTransactions(c *gin.Context) {
	start, end, err := h.monthRange(c.Query("month"))
	if err != nil {
		badRequest(c, "month must be YYYY-MM")
		return
	}
	list, err := h.Store.ListTransactions(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type TransactionRequest struct {
	Type        models.TransactionType `json:"type" binding:"required,oneof=income expense"`
	Amount      decimal.Decimal        `json:"amount"`
	Description string                 `json:"description" binding:"required,max=255"`
	Date        string                 `json:"date"` // YYYY-MM-DD, default now
}

func (h *Handler) CreateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	if !req.Amount.IsPositive() {
		badRequest(c, "amount must be positive")
		return
	}
	at := time.Now().In(h.Location)
	if req.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", req.Date, h.Location)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		at = d.Add(12 * time.Hour)
	}

	entry := models.Transaction{
		Type:        req.Type,
		Source:      models.SourceManual,
		Amount:      req.Amount.Round(2),
		Description: req.Description,
		CreatedAt:   at,
	}
	if err := h.Store.CreateTransaction(c.Request.Context(), &entry); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	deleted, err := h.Store.DeleteTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "No manual entry with that ID", "code": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
}

// AccountingSummary totals income, expense and profit for ?month=YYYY-MM.
func (h *Handler) AccountingSummary(c *gin.Context) {
	start, end, err := h.monthRange(c.Query("month"))
	if err != nil {
		badRequest(c, "month must be YYYY-MM")
		return
	}
	sum, err := h.Store.Summarize(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

type CleanupRequest struct {
	Before string `json:"before" binding:"required"` // YYYY-MM-DD
}

// Cleanup permanently removes finished orders and ledger entries before a date.
func (h *Handler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "before is required")
		return
	}
	cutoff, err := time.ParseInLocation("2006-01-02", req.Before, h.Location)
	if err != nil {
		badRequest(c, "before must be YYYY-MM-DD")
		return
	}
	if !cutoff.Before(time.Now()) {
		badRequest(c, "before must be in the past")
		return
	}

	a := actor(c)
	res, err := h.Store.Cleanup(c.Request.Context(), cutoff, models.AuditLog{
		Action:    "cleanup",
		Actor:     a.Name,
		RequestID: a.RequestID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) monthRange(month string) (time.Time, time.Time, error) {
	if month == "" {
		month = time.Now().In(h.Location).Format("2006-01")
	}
	start, err := time.ParseInLocation("2006-01", month, h.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}
