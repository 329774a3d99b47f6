package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) KitchenTickets(c *gin.Context) {
	tickets, err := h.Kitchen.Tickets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (h *Handler) MarkItemServed(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	n, err := h.Kitchen.MarkItemServed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"served": n})
}

type TicketServedRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
}

func (h *Handler) MarkTicketServed(c *gin.Context) {
	var req TicketServedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "item_ids is required")
		return
	}
	n, err := h.Kitchen.MarkTicketServed(c.Request.Context(), req.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"served": n})
}
