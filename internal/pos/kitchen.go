package pos

import (
	"context"
	"time"

	"restaurant-pos/internal/kitchen"
	"restaurant-pos/internal/notify"
)

// KitchenBoard serves the kitchen display: pending items grouped into
// ordering waves, and the one-way served transition.
type KitchenBoard struct {
	core
	window time.Duration
}

func NewKitchenBoard(d Deps, window time.Duration) *KitchenBoard {
	return &KitchenBoard{core: newCore(d), window: window}
}

func (k *KitchenBoard) Tickets(ctx context.Context) ([]kitchen.Ticket, error) {
	items, err := k.store.PendingItems(ctx)
	if err != nil {
		return nil, err
	}
	return kitchen.Group(items, k.window), nil
}

func (k *KitchenBoard) MarkItemServed(ctx context.Context, itemID uint) (int64, error) {
	return k.MarkTicketServed(ctx, []uint{itemID})
}

// MarkTicketServed serves every listed item in one batch. Items already
// served are skipped, so repeating the call is harmless.
func (k *KitchenBoard) MarkTicketServed(ctx context.Context, itemIDs []uint) (int64, error) {
	n, err := k.store.MarkServed(ctx, itemIDs)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	k.metrics.ItemsServed.Add(float64(n))

	orderIDs, err := k.store.OrderIDsForItems(ctx, itemIDs)
	if err != nil {
		// the write is done; only the notification target is unknown
		k.publish(ctx, notify.Event{Name: notify.ItemsServed, Data: itemIDs})
		return n, nil
	}
	for _, id := range orderIDs {
		k.publish(ctx, notify.Event{Name: notify.ItemsServed, OrderID: id})
	}
	return n, nil
}
