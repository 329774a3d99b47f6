package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.Tables.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

type EnsureTablesRequest struct {
	DineIn   int `json:"dine_in" binding:"min=0,max=200"`
	Takeaway int `json:"takeaway" binding:"min=0,max=200"`
}

func (h *Handler) EnsureTables(c *gin.Context) {
	var req EnsureTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	n, err := h.Tables.Ensure(c.Request.Context(), req.DineIn, req.Takeaway)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": n})
}

// ListPhantoms shows tables stuck in occupied with no active order.
func (h *Handler) ListPhantoms(c *gin.Context) {
	tables, err := h.Tables.Phantoms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

func (h *Handler) ResetTable(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	table, err := h.Tables.Reset(c.Request.Context(), id, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}
