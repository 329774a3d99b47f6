// Package billing computes bills. Nothing in here touches the database or
// the clock; callers pass in everything the computation needs.
package billing

import (
	"fmt"

	"restaurant-pos/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultDiscountName labels a replayed discount when the order carries no
// promotion name.
const DefaultDiscountName = "Discount"

// Line is one aggregated bill row: every order item of the same menu name
// collapsed together.
type Line struct {
	Name           string            `json:"name"`
	UnitPrice      decimal.Decimal   `json:"unit_price"`
	Quantity       decimal.Decimal   `json:"quantity"`
	PromotionQty   int               `json:"promotion_qty"`
	PromotionPrice decimal.Decimal   `json:"promotion_price"`
	Status         models.ItemStatus `json:"status"`
}

// HasPromotion reports whether the bundle rule is fully configured.
func (l Line) HasPromotion() bool {
	return l.PromotionQty > 0 && l.PromotionPrice.IsPositive()
}

// PricedLine is a Line with its computed total.
type PricedLine struct {
	Line
	Bundles int64           `json:"bundles"`
	Total   decimal.Decimal `json:"total"`
	Note    string          `json:"note,omitempty"`
}

// Bill is the result of a computation.
type Bill struct {
	Lines        []PricedLine    `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountName string          `json:"discount_name,omitempty"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

// Aggregate collapses order items sharing a menu name into one row, summing
// quantities. The row is pending if any underlying item is pending. Rows keep
// first-seen order.
func Aggregate(items []models.OrderItem) []Line {
	index := make(map[string]int)
	var lines []Line

	for _, it := range items {
		name := it.MenuItem.Name
		if i, ok := index[name]; ok {
			lines[i].Quantity = lines[i].Quantity.Add(it.Quantity)
			if it.Status != models.ItemServed {
				lines[i].Status = models.ItemPending
			}
			continue
		}

		status := models.ItemServed
		if it.Status != models.ItemServed {
			status = models.ItemPending
		}
		index[name] = len(lines)
		lines = append(lines, Line{
			Name:           name,
			UnitPrice:      it.MenuItem.Price,
			Quantity:       it.Quantity,
			PromotionQty:   it.MenuItem.PromotionQty,
			PromotionPrice: it.MenuItem.PromotionPrice,
			Status:         status,
		})
	}
	return lines
}

// PriceLine applies the bundle promotion when quantity reaches the bundle size:
// floor(q/n) bundles at the bundle price plus the remainder at unit price.
func PriceLine(l Line) PricedLine {
	out := PricedLine{Line: l}

	if l.HasPromotion() {
		size := decimal.NewFromInt(int64(l.PromotionQty))
		if l.Quantity.GreaterThanOrEqual(size) {
			bundles := l.Quantity.Div(size).Floor()
			remainder := l.Quantity.Sub(bundles.Mul(size))

			out.Bundles = bundles.IntPart()
			out.Total = bundles.Mul(l.PromotionPrice).Add(remainder.Mul(l.UnitPrice))
			out.Note = fmt.Sprintf("promo %d for %s x%d", l.PromotionQty, l.PromotionPrice.StringFixed(2), out.Bundles)
			return out
		}
	}

	out.Total = l.Quantity.Mul(l.UnitPrice)
	return out
}

func priceAll(lines []Line) ([]PricedLine, decimal.Decimal) {
	priced := make([]PricedLine, 0, len(lines))
	subtotal := decimal.Zero
	for _, l := range lines {
		p := PriceLine(l)
		subtotal = subtotal.Add(p.Total)
		priced = append(priced, p)
	}
	return priced, subtotal
}

// DiscountAmount is the raw discount before clamping.
func DiscountAmount(subtotal decimal.Decimal, d *models.Discount) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	switch d.Type {
	case models.DiscountPercent:
		return subtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	case models.DiscountAmount:
		return d.Value
	}
	return decimal.Zero
}

// Clamp bounds a discount to [0, subtotal].
func Clamp(discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

func finish(b Bill) Bill {
	b.Discount = Clamp(b.Discount, b.Subtotal)
	b.GrandTotal = decimal.Max(decimal.Zero, b.Subtotal.Sub(b.Discount))
	return b
}

// Compute prices the lines and applies the selected discount, if any.
func Compute(lines []Line, d *models.Discount) Bill {
	priced, subtotal := priceAll(lines)
	b := Bill{Lines: priced, Subtotal: subtotal}
	if d != nil {
		b.DiscountName = d.Name
		b.Discount = DiscountAmount(subtotal, d)
	}
	return finish(b)
}

// Replay rebuilds the bill of a settled order. The discount is inferred from
// the recorded total instead of being looked up again.
func Replay(lines []Line, recordedTotal decimal.Decimal, promotionName string) Bill {
	priced, subtotal := priceAll(lines)
	b := Bill{Lines: priced, Subtotal: subtotal}
	if recordedTotal.LessThan(subtotal) {
		b.Discount = subtotal.Sub(recordedTotal)
		b.DiscountName = promotionName
		if b.DiscountName == "" {
			b.DiscountName = DefaultDiscountName
		}
	}
	return finish(b)
}

// PendingCount counts rows still waiting on the kitchen.
func PendingCount(items []models.OrderItem) int {
	n := 0
	for _, it := range items {
		if it.Status != models.ItemServed {
			n++
		}
	}
	return n
}

// Change returns tendered minus total, floored at zero.
func Change(tendered, grandTotal decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, tendered.Sub(grandTotal))
}
