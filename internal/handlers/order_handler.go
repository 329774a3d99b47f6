package handlers

import (
	"net/http"
	"strconv"
	"time"

	"restaurant-pos/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (h *Handler) OpenOrder(c *gin.Context) {
	tableID, ok := paramID(c)
	if !ok {
		return
	}
	order, err := h.Orders.OpenOrder(c.Request.Context(), tableID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetActiveOrder(c *gin.Context) {
	tableID, ok := paramID(c)
	if !ok {
		return
	}
	order, err := h.Orders.GetActiveOrder(c.Request.Context(), tableID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"rows":  h.Orders.AggregateItems(order),
	})
}

type AppendItemsRequest struct {
	Items []struct {
		MenuItemID uint            `json:"menu_item_id" binding:"required"`
		Quantity   decimal.Decimal `json:"quantity"`
		Notes      string          `json:"notes" binding:"max=255"`
	} `json:"items" binding:"required,min=1,dive"`
}

func (h *Handler) AppendItems(c *gin.Context) {
	orderID, ok := paramID(c)
	if !ok {
		return
	}
	var req AppendItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	items := make([]database.NewItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, database.NewItem{MenuItemID: it.MenuItemID, Quantity: it.Quantity, Notes: it.Notes})
	}
	created, err := h.Orders.AppendItems(c.Request.Context(), orderID, items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PreviewBill is the cashier view: GET /tables/:id/bill?discount_id=2
func (h *Handler) PreviewBill(c *gin.Context) {
	tableID, ok := paramID(c)
	if !ok {
		return
	}
	discountID, ok := optionalID(c, c.Query("discount_id"))
	if !ok {
		return
	}
	preview, err := h.Orders.Preview(c.Request.Context(), tableID, discountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// History lists orders completed on ?date=YYYY-MM-DD (default today).
func (h *Handler) History(c *gin.Context) {
	day := time.Now().In(h.Location)
	if s := c.Query("date"); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, h.Location)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		day = d
	}
	orders, err := h.Orders.History(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func optionalID(c *gin.Context, s string) (*uint, bool) {
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "Invalid ID")
		return nil, false
	}
	id := uint(v)
	return &id, true
}
