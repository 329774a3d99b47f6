package database

import (
	"context"
	"fmt"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/billing"
	"restaurant-pos/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettleParams are the inputs of the settlement operation.
type SettleParams struct {
	OrderID    uint
	DiscountID *uint
	Method     models.PaymentMethod
	ReceiptNo  string
	Tendered   *decimal.Decimal // required for cash
	At         time.Time
}

// SettleResult describes what the settlement applied.
type SettleResult struct {
	Order  models.Order
	Bill   billing.Bill
	Change decimal.Decimal
	Voided bool
}

// SettleOrder finalizes an order in a single transaction: the order row is
// locked, pending items are counted, the bill is computed from the locked
// rows, and the order, table and ledger are written together. A zero grand
// total voids the order instead.
func (s *Store) SettleOrder(ctx context.Context, p SettleParams) (*SettleResult, error) {
	var result SettleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := forUpdate(tx).First(&order, p.OrderID).Error; err != nil {
			return err
		}
		switch order.Status {
		case models.OrderActive:
		case models.OrderCompleted:
			return apperr.ErrAlreadySettled
		default:
			return apperr.ErrOrderNotActive
		}

		var items []models.OrderItem
		if err := tx.Preload("MenuItem").Where("order_id = ?", order.ID).Order("created_at, id").Find(&items).Error; err != nil {
			return err
		}
		if billing.PendingCount(items) > 0 {
			return apperr.ErrItemsPending
		}

		var discount *models.Discount
		if p.DiscountID != nil {
			var d models.Discount
			if err := tx.First(&d, *p.DiscountID).Error; err != nil {
				return err
			}
			if !d.IsActive {
				return apperr.ErrDiscountInactive
			}
			discount = &d
		}

		bill := billing.Compute(billing.Aggregate(items), discount)
		result.Bill = bill

		if bill.GrandTotal.IsZero() {
			if err := voidLocked(tx, &order); err != nil {
				return err
			}
			result.Order = order
			result.Voided = true
			return nil
		}

		if p.Method == models.PayCash {
			if p.Tendered == nil || p.Tendered.LessThan(bill.GrandTotal) {
				return apperr.ErrInsufficientCash
			}
			result.Change = billing.Change(*p.Tendered, bill.GrandTotal)
		}

		receipt := p.ReceiptNo
		completedAt := p.At
		updates := map[string]interface{}{
			"status":         models.OrderCompleted,
			"total_price":    bill.GrandTotal,
			"receipt_no":     receipt,
			"payment_method": p.Method,
			"completed_at":   completedAt,
		}
		if bill.DiscountName != "" && bill.Discount.IsPositive() {
			updates["promotion_name"] = bill.DiscountName
			order.PromotionName = bill.DiscountName
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderActive).
			Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return apperr.ErrReceiptConflict
			}
			return res.Error
		}
		if res.RowsAffected != 1 {
			return apperr.ErrAlreadySettled
		}

		if err := freeTable(tx, order.TableID); err != nil {
			return err
		}

		orderID := order.ID
		entry := models.Transaction{
			Type:        models.Income,
			Source:      models.SourceSale,
			OrderID:     &orderID,
			Amount:      bill.GrandTotal,
			Description: fmt.Sprintf("Sale %s", receipt),
			CreatedAt:   completedAt,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		order.Status = models.OrderCompleted
		order.TotalPrice = bill.GrandTotal
		order.ReceiptNo = &receipt
		order.PaymentMethod = p.Method
		order.CompletedAt = &completedAt
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, wrap(err, "settle order")
	}
	return &result, nil
}

// VoidOrder cancels an active order, zeroes its total and frees the table.
// No ledger entry is written.
func (s *Store) VoidOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&order, orderID).Error; err != nil {
			return err
		}
		if order.Status != models.OrderActive {
			return apperr.ErrOrderNotActive
		}
		return voidLocked(tx, &order)
	})
	if err != nil {
		return nil, wrap(err, "void order")
	}
	return &order, nil
}

func voidLocked(tx *gorm.DB, order *models.Order) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderActive).
		Updates(map[string]interface{}{
			"status":      models.OrderCancelled,
			"total_price": decimal.Zero,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return apperr.ErrOrderNotActive
	}
	if err := freeTable(tx, order.TableID); err != nil {
		return err
	}
	order.Status = models.OrderCancelled
	order.TotalPrice = decimal.Zero
	return nil
}

// freeTable releases the table of a finished order regardless of the state it
// was left in.
func freeTable(tx *gorm.DB, tableID uint) error {
	return tx.Model(&models.Table{}).Where("id = ?", tableID).Update("status", models.TableAvailable).Error
}
