// Package notify fans POS state changes out to listeners (kitchen screens,
// cashier tablets). Delivery is best effort: callers publish after their
// transaction has committed and only log failures.
package notify

import (
	"context"
	"log"
	"time"
)

// Event names published by the POS core.
const (
	TableChanged   = "table.changed"
	OrderOpened    = "order.opened"
	ItemsAppended  = "order.items_appended"
	ItemsServed    = "kitchen.items_served"
	OrderSettled   = "order.settled"
	OrderVoided    = "order.voided"
	DayClosed      = "shop.day_closed"
	ShopOpened     = "shop.opened"
	SettingsUpdate = "shop.settings_updated"
)

// Event is the payload every notifier receives.
type Event struct {
	Name      string      `json:"name"`
	OrderID   uint        `json:"order_id,omitempty"`
	TableID   uint        `json:"table_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi delivers to every notifier and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, evt Event) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, evt); err != nil {
			log.Printf("⚠️ notify %s failed: %v", evt.Name, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
