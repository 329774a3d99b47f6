package database

import (
	"context"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/kitchen"
	"restaurant-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewItem is a validated request to add a dish to an order.
type NewItem struct {
	MenuItemID uint
	Quantity   decimal.Decimal
	Notes      string
}

// OpenOrder marks the table occupied and creates its active order in one
// transaction, so the two never diverge through this path.
func (s *Store) OpenOrder(ctx context.Context, tableID uint, now time.Time) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := shopIsOpen(tx)
		if err != nil {
			return err
		}
		if !open {
			return apperr.ErrShopClosed
		}

		var table models.Table
		if err := forUpdate(tx).First(&table, tableID).Error; err != nil {
			return err
		}
		if table.Status != models.TableAvailable {
			return apperr.ErrTableOccupied
		}

		order = models.Order{
			TableID:   table.ID,
			Status:    models.OrderActive,
			CreatedAt: now,
		}
		if err := tx.Omit("Table", "Items").Create(&order).Error; err != nil {
			return err
		}
		if err := setTableStatus(tx, table.ID, models.TableAvailable, models.TableOccupied); err != nil {
			return err
		}
		table.Status = models.TableOccupied
		order.Table = table
		return nil
	})
	if err != nil {
		return nil, wrap(err, "open order")
	}
	return &order, nil
}

// AppendItems adds pending items to an active order. The order row stays
// locked for the duration, which serializes appends against settlement.
func (s *Store) AppendItems(ctx context.Context, orderID uint, items []NewItem, now time.Time) ([]models.OrderItem, error) {
	if len(items) == 0 {
		return nil, apperr.ErrNoItems
	}

	var created []models.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := shopIsOpen(tx)
		if err != nil {
			return err
		}
		if !open {
			return apperr.ErrShopClosed
		}

		var order models.Order
		if err := forUpdate(tx).First(&order, orderID).Error; err != nil {
			return err
		}
		if order.Status != models.OrderActive {
			return apperr.ErrOrderNotActive
		}

		for _, in := range items {
			var menu models.MenuItem
			if err := tx.First(&menu, in.MenuItemID).Error; err != nil {
				return err
			}
			if !menu.IsAvailable {
				return apperr.ErrMenuUnavailable
			}
			if !ValidQuantity(menu.SaleMode, in.Quantity) {
				return apperr.ErrBadQuantity
			}
			created = append(created, models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: menu.ID,
				Quantity:   in.Quantity,
				Notes:      in.Notes,
				Status:     models.ItemPending,
				CreatedAt:  now,
			})
		}
		return tx.Omit("MenuItem").Create(&created).Error
	})
	if err != nil {
		return nil, wrap(err, "append items")
	}
	return created, nil
}

// ValidQuantity checks a quantity against how the dish is sold: unit-sold
// dishes take whole positive numbers, weight-sold dishes any positive amount.
func ValidQuantity(mode models.SaleMode, q decimal.Decimal) bool {
	if !q.IsPositive() {
		return false
	}
	if mode == models.SoldByWeight {
		return true
	}
	return q.Equal(q.Truncate(0))
}

func preloadOrder(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Table").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Items.MenuItem")
}

// ActiveOrderForTable returns the table's active order or
// apperr.ErrActiveOrderAbsent.
func (s *Store) ActiveOrderForTable(ctx context.Context, tableID uint) (*models.Order, error) {
	var orders []models.Order
	err := preloadOrder(s.db.WithContext(ctx)).
		Where("table_id = ? AND status = ?", tableID, models.OrderActive).
		Order("id").
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, wrap(err, "active order")
	}
	if len(orders) == 0 {
		return nil, apperr.ErrActiveOrderAbsent
	}
	return &orders[0], nil
}

func (s *Store) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := preloadOrder(s.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		return nil, wrap(err, "get order")
	}
	return &o, nil
}

// CompletedOrders lists orders settled in [from, to), newest first.
func (s *Store) CompletedOrders(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Table").
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.OrderCompleted, from, to).
		Order("completed_at desc").
		Find(&orders).Error
	return orders, wrap(err, "completed orders")
}

// --- Kitchen ---

// PendingItems returns every pending item, oldest first, with its table label.
func (s *Store) PendingItems(ctx context.Context) ([]kitchen.PendingItem, error) {
	var rows []kitchen.PendingItem
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.id AS item_id, order_items.order_id, tables.label AS table_label,
			menu_items.name AS menu_name, order_items.quantity, order_items.notes, order_items.created_at`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN tables ON tables.id = orders.table_id").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("order_items.status = ? AND orders.status = ?", models.ItemPending, models.OrderActive).
		Order("order_items.created_at, order_items.id").
		Scan(&rows).Error
	return rows, wrap(err, "pending items")
}

// MarkServed moves pending items to served. Served items are never touched,
// so the transition is one-way. Returns the number of rows changed.
func (s *Store) MarkServed(ctx context.Context, itemIDs []uint) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("id IN ? AND status = ?", itemIDs, models.ItemPending).
		Update("status", models.ItemServed)
	return res.RowsAffected, wrap(res.Error, "mark served")
}

// OrderIDsForItems resolves the owning orders of item rows.
func (s *Store) OrderIDsForItems(ctx context.Context, itemIDs []uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("id IN ?", itemIDs).
		Distinct().
		Pluck("order_id", &ids).Error
	return ids, wrap(err, "item orders")
}
