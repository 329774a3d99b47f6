package handlers

import (
	"net/http"

	"restaurant-pos/internal/apperr"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}

	if h.Agent == nil || !h.Agent.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server missing Gemini API key", "code": "ai_disabled"})
		return
	}

	response, err := h.Agent.Run(c.Request.Context(), req.Message)
	if err != nil {
		respondError(c, apperr.External(err, "ask assistant"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
