// Package kitchen turns the flat list of pending order items into kitchen
// tickets, one per ordering wave per table.
package kitchen

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWindow is how far after a ticket's first item a new item may arrive
// and still join that ticket.
const DefaultWindow = 2 * time.Minute

// PendingItem is one pending order row with the context the kitchen needs.
type PendingItem struct {
	ItemID     uint            `json:"item_id"`
	OrderID    uint            `json:"order_id"`
	TableLabel string          `json:"table_label"`
	MenuName   string          `json:"menu_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TicketRow is a dish on a ticket.
type TicketRow struct {
	ItemID   uint            `json:"item_id"`
	MenuName string          `json:"menu_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes"`
}

// Ticket is one ordering wave for one order.
type Ticket struct {
	Key        string      `json:"key"`
	OrderID    uint        `json:"order_id"`
	TableLabel string      `json:"table_label"`
	AnchoredAt time.Time   `json:"anchored_at"`
	Items      []TicketRow `json:"items"`
}

// ItemIDs lists the order item ids on the ticket.
func (t Ticket) ItemIDs() []uint {
	ids := make([]uint, 0, len(t.Items))
	for _, r := range t.Items {
		ids = append(ids, r.ItemID)
	}
	return ids
}

// Group builds tickets from items sorted by creation time ascending. An item
// joins its order's most recent ticket when it was created less than window
// after that ticket's anchor; otherwise it anchors a new ticket. Tickets are
// returned in anchor order.
func Group(items []PendingItem, window time.Duration) []Ticket {
	if window <= 0 {
		window = DefaultWindow
	}

	var tickets []Ticket
	latest := make(map[uint]int)

	for _, it := range items {
		row := TicketRow{ItemID: it.ItemID, MenuName: it.MenuName, Quantity: it.Quantity, Notes: it.Notes}

		if idx, ok := latest[it.OrderID]; ok {
			t := &tickets[idx]
			if it.CreatedAt.Sub(t.AnchoredAt) < window {
				t.Items = append(t.Items, row)
				continue
			}
		}

		tickets = append(tickets, Ticket{
			Key:        fmt.Sprintf("%d_%d", it.OrderID, it.ItemID),
			OrderID:    it.OrderID,
			TableLabel: it.TableLabel,
			AnchoredAt: it.CreatedAt,
			Items:      []TicketRow{row},
		})
		latest[it.OrderID] = len(tickets) - 1
	}
	return tickets
}
