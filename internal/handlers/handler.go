package handlers

import (
	"net/http"
	"strconv"
	"time"

	"restaurant-pos/internal/ai"
	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/auth"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/metrics"
	"restaurant-pos/internal/middleware"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/pos"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

// Handler carries the services behind the HTTP API.
type Handler struct {
	Store             *database.Store
	Tables            *pos.TableRegistry
	Orders            *pos.OrderManager
	Kitchen           *pos.KitchenBoard
	Payments          *pos.PaymentProcessor
	Shop              *pos.DayCloseScheduler
	Tokens            *auth.TokenManager
	Agent             *ai.Agent
	Metrics           *metrics.Metrics
	Location          *time.Location
	AllowRegistration bool
	Node              string
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Handler())
	}

	r.POST("/api/login", h.Login)
	r.POST("/api/register", h.Register)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Tokens))
	{
		// floor staff and owner
		api.GET("/tables", h.ListTables)
		api.POST("/tables/:id/orders", h.OpenOrder)
		api.GET("/tables/:id/order", h.GetActiveOrder)
		api.POST("/orders/:id/items", h.AppendItems)

		api.GET("/kitchen/tickets", h.KitchenTickets)
		api.POST("/kitchen/items/:id/served", h.MarkItemServed)
		api.POST("/kitchen/tickets/served", h.MarkTicketServed)

		api.GET("/menu", h.ListMenu)
		api.GET("/discounts", h.ListDiscounts)

		api.GET("/shop", h.GetShop)
	}

	owner := api.Group("")
	owner.Use(middleware.RequireRole(models.RoleOwner))
	{
		// cashier
		owner.GET("/tables/:id/bill", h.PreviewBill)
		owner.POST("/orders/:id/settle", h.Settle)
		owner.POST("/orders/:id/void", h.Void)
		owner.GET("/orders/:id/receipt", h.Reprint)
		owner.GET("/orders/history", h.History)
		owner.POST("/shop/open", h.OpenShop)
		owner.POST("/shop/close", h.CloseShop)

		owner.GET("/tables/phantoms", h.ListPhantoms)
		owner.POST("/tables/:id/reset", h.ResetTable)
		owner.POST("/tables/ensure", h.EnsureTables)

		owner.POST("/menu", h.CreateMenuItem)
		owner.PUT("/menu/:id", h.UpdateMenuItem)
		owner.DELETE("/menu/:id", h.DeleteMenuItem)
		owner.POST("/discounts", h.CreateDiscount)
		owner.PUT("/discounts/:id", h.UpdateDiscount)
		owner.DELETE("/discounts/:id", h.DeleteDiscount)

		owner.PUT("/shop/settings", h.UpdateSettings)
		owner.GET("/shop/closes", h.ListDayCloses)

		owner.GET("/reports/sales", h.GetSalesReport)
		owner.GET("/accounting/transactions", h.ListTransactions)
		owner.POST("/accounting/transactions", h.CreateTransaction)
		owner.DELETE("/accounting/transactions/:id", h.DeleteTransaction)
		owner.GET("/accounting/summary", h.AccountingSummary)
		owner.POST("/maintenance/cleanup", h.Cleanup)
		owner.GET("/audit", h.ListAudit)

		owner.GET("/staff", h.ListStaff)
		owner.POST("/staff", h.CreateStaff)
		owner.DELETE("/staff/:id", h.DeleteStaff)

		owner.POST("/ai/ask", h.AskAI)
	}
}

func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.Store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "node": h.Node})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "node": h.Node})
}

// respondError maps a failure to its HTTP status and reason code.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code := apperr.CodeOf(err)
	msg := err.Error()

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindPrecondition, apperr.KindConsistency, apperr.KindConcurrency:
		status = http.StatusConflict
	case apperr.KindExternal:
		status = http.StatusServiceUnavailable
		msg = "A backing service is unavailable, please try again"
	default:
		msg = "Internal server error"
	}

	body := gin.H{"error": msg, "code": code}
	switch kind {
	case apperr.KindConsistency:
		body["recovery"] = "table_reset"
	case apperr.KindConcurrency:
		body["recovery"] = "reload"
	}
	if errors.Is(err, apperr.ErrReceiptConflict) {
		// Receipt numbers are unique per minute, table and payment method.
		wait := 60 - time.Now().Second()
		body["recovery"] = "retry"
		body["retry_after"] = wait
		c.Header("Retry-After", strconv.Itoa(wait))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": "bad_request"})
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

func actor(c *gin.Context) pos.Actor {
	return pos.Actor{Name: c.GetString(middleware.KeyUserName), RequestID: c.GetString(middleware.KeyRequestID)}
}

// dayRange parses YYYY-MM-DD bounds in the shop's zone; "to" is inclusive.
func (h *Handler) dayRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", from, h.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.ParseInLocation("2006-01-02", to, h.Location)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end.AddDate(0, 0, 1), nil
}
