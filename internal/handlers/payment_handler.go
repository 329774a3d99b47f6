package handlers

import (
	"net/http"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SettleRequest struct {
	Method     models.PaymentMethod `json:"payment_method" binding:"required"`
	DiscountID *uint                `json:"discount_id"`
	Tendered   *decimal.Decimal     `json:"tendered"`
}

func (h *Handler) Settle(c *gin.Context) {
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	res, err := h.Payments.Settle(c.Request.Context(), pos.SettleRequest{
		OrderID:    orderID,
		DiscountID: req.DiscountID,
		Method:     req.Method,
		Tendered:   req.Tendered,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":  res.Order,
		"bill":   res.Bill,
		"change": res.Change,
		"voided": res.Voided,
	})
}

func (h *Handler) Void(c *gin.Context) {
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	order, err := h.Payments.Void(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) Reprint(c *gin.Context) {
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	order, bill, err := h.Payments.Reprint(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "bill": bill})
}
