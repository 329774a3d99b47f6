package pos

import (
	"context"
	"log"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notify"
)

// TableRegistry reads table state and owns the phantom-table repair path.
// Occupying and freeing a table happen inside the order and settlement
// transactions, never on their own.
type TableRegistry struct {
	core
}

func NewTableRegistry(d Deps) *TableRegistry {
	return &TableRegistry{core: newCore(d)}
}

func (r *TableRegistry) List(ctx context.Context) ([]models.Table, error) {
	return r.store.ListTables(ctx)
}

// Ensure creates missing dine-in and takeaway tables.
func (r *TableRegistry) Ensure(ctx context.Context, dineIn, takeaway int) (int, error) {
	n, err := r.store.EnsureTables(ctx, dineIn, takeaway)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("🪑 Created %d tables", n)
		r.publish(ctx, notify.Event{Name: notify.TableChanged})
	}
	return n, nil
}

// Phantoms lists tables marked occupied that have no active order.
func (r *TableRegistry) Phantoms(ctx context.Context) ([]models.Table, error) {
	return r.store.PhantomTables(ctx)
}

// Reset forces a phantom table back to available. It is an explicit operator
// action and fails if the table has an active order after all.
func (r *TableRegistry) Reset(ctx context.Context, tableID uint, by Actor) (*models.Table, error) {
	table, err := r.store.ResetPhantomTable(ctx, tableID, models.AuditLog{
		Action:    "reset_table",
		Actor:     by.Name,
		Detail:    "occupied without active order",
		RequestID: by.RequestID,
		CreatedAt: r.now(),
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🛠️ Table %s reset to available by %s", table.Label, by.Name)
	r.publish(ctx, notify.Event{Name: notify.TableChanged, TableID: table.ID})
	return table, nil
}
