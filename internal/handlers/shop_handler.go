package handlers

import (
	"net/http"
	"strconv"

	"restaurant-pos/internal/database"

	"github.com/gin-gonic/gin"
)

// GetShop returns the authoritative shop state clients render from.
func (h *Handler) GetShop(c *gin.Context) {
	st, err := h.Store.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st, "node": h.Node})
}

func (h *Handler) OpenShop(c *gin.Context) {
	st, err := h.Shop.OpenShop(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) CloseShop(c *gin.Context) {
	dc, created, err := h.Shop.CloseShop(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day_close": dc, "closed_now": created})
}

type SettingsRequest struct {
	ShopName      *string `json:"shop_name" binding:"omitempty,max=100"`
	PromptPayID   *string `json:"promptpay_id" binding:"omitempty,max=20"`
	AutoCloseTime *string `json:"auto_close_time"`
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	st, err := h.Shop.UpdateSettings(c.Request.Context(), database.SettingsPatch{
		ShopName:      req.ShopName,
		PromptPayID:   req.PromptPayID,
		AutoCloseTime: req.AutoCloseTime,
	}, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) ListDayCloses(c *gin.Context) {
	closes, err := h.Store.ListDayCloses(c.Request.Context(), limitParam(c, 30))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, closes)
}

func (h *Handler) ListAudit(c *gin.Context) {
	logs, err := h.Store.ListAudit(c.Request.Context(), limitParam(c, 100))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func limitParam(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 || n > 500 {
		return def
	}
	return n
}
