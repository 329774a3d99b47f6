package handlers

import (
	"net/http"

	"restaurant-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: List the menu ---
// ?available=true hides dishes that cannot be ordered right now.
func (h *Handler) ListMenu(c *gin.Context) {
	items, err := h.Store.ListMenu(c.Request.Context(), c.Query("available") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// --- POST: Add a new dish ---
func (h *Handler) CreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	item.ID = 0
	if err := h.Store.CreateMenuItem(c.Request.Context(), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// --- PUT: Replace a dish ---
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	item.ID = id
	if err := h.Store.SaveMenuItem(c.Request.Context(), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated successfully", "menu_item": item})
}

// --- DELETE: Remove a dish ---
// Dishes on past orders are retired (made unavailable) instead.
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	deleted, err := h.Store.DeleteMenuItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusOK, gin.H{"message": "Menu item is on past orders and was marked unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}

// --- Discounts ---

func (h *Handler) ListDiscounts(c *gin.Context) {
	list, err := h.Store.ListDiscounts(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateDiscount(c *gin.Context) {
	var d models.Discount
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	d.ID = 0
	if err := h.Store.CreateDiscount(c.Request.Context(), &d); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDiscount(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var d models.Discount
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	d.ID = id
	if err := h.Store.SaveDiscount(c.Request.Context(), &d); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDiscount(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteDiscount(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Discount deleted successfully"})
}
