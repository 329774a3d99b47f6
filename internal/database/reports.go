package database

import (
	"context"
	"time"

	"restaurant-pos/internal/models"

	"github.com/shopspring/decimal"
)

// SalesReportResult holds the revenue figures for a period
type SalesReportResult struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCount   int64           `json:"total_orders"`
	TopItems     []TopItem       `json:"top_items"`
}

type TopItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// SalesReport calculates completed-order revenue within [start, end)
func (s *Store) SalesReport(ctx context.Context, start, end time.Time) (*SalesReportResult, error) {
	result := SalesReportResult{TotalRevenue: decimal.Zero}
	db := s.db.WithContext(ctx)

	// 1. Calculate Revenue
	// COALESCE ensures we get 0 instead of NULL if no sales exist
	var revenue decimal.NullDecimal
	err := db.Model(&models.Order{}).
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.OrderCompleted, start, end).
		Select("COALESCE(SUM(total_price), 0)").
		Row().Scan(&revenue)
	if err != nil {
		return nil, wrap(err, "sales revenue")
	}
	if revenue.Valid {
		result.TotalRevenue = revenue.Decimal
	}

	// 2. Count Orders
	err = db.Model(&models.Order{}).
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.OrderCompleted, start, end).
		Count(&result.TotalCount).Error
	if err != nil {
		return nil, wrap(err, "sales count")
	}

	// 3. Top 5 dishes by quantity (list price, before promotions)
	rows, err := db.Table("order_items").
		Select("menu_items.name, SUM(order_items.quantity), SUM(order_items.quantity * menu_items.price)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("orders.status = ? AND orders.completed_at >= ? AND orders.completed_at < ?", models.OrderCompleted, start, end).
		Group("menu_items.name").
		Order("SUM(order_items.quantity) desc").
		Limit(5).
		Rows()
	if err != nil {
		return nil, wrap(err, "top items")
	}
	defer rows.Close()

	for rows.Next() {
		var item TopItem
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Revenue); err != nil {
			return nil, wrap(err, "scan top item")
		}
		result.TopItems = append(result.TopItems, item)
	}
	return &result, wrap(rows.Err(), "top items")
}

// --- Accounting ledger ---

func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return wrap(s.db.WithContext(ctx).Create(t).Error, "create transaction")
}

// ListTransactions returns ledger entries in [from, to), newest first.
func (s *Store) ListTransactions(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, wrap(err, "list transactions")
}

// DeleteTransaction removes a manual entry. Sale and day-close entries are
// owned by settlement and day close and cannot be deleted here.
func (s *Store) DeleteTransaction(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND source = ?", id, models.SourceManual).
		Delete(&models.Transaction{})
	return res.RowsAffected == 1, wrap(res.Error, "delete transaction")
}

type LedgerSummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Profit  decimal.Decimal `json:"profit"`
}

// Summarize totals the ledger in [from, to). Day-close entries restate sales
// already booked per order, so only sale and manual entries count.
func (s *Store) Summarize(ctx context.Context, from, to time.Time) (*LedgerSummary, error) {
	rows, err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("type, SUM(amount)").
		Where("created_at >= ? AND created_at < ? AND source <> ?", from, to, models.SourceDayClose).
		Group("type").
		Rows()
	if err != nil {
		return nil, wrap(err, "summarize ledger")
	}
	defer rows.Close()

	sum := LedgerSummary{Income: decimal.Zero, Expense: decimal.Zero}
	for rows.Next() {
		var typ models.TransactionType
		var amount decimal.NullDecimal
		if err := rows.Scan(&typ, &amount); err != nil {
			return nil, wrap(err, "scan ledger")
		}
		switch typ {
		case models.Income:
			sum.Income = amount.Decimal
		case models.Expense:
			sum.Expense = amount.Decimal
		}
	}
	sum.Profit = sum.Income.Sub(sum.Expense)
	return &sum, wrap(rows.Err(), "summarize ledger")
}
