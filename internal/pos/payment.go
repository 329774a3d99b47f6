package pos

import (
	"context"
	"log"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/billing"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notify"

	"github.com/shopspring/decimal"
)

// PaymentProcessor settles, voids and reprints orders.
type PaymentProcessor struct {
	core
}

func NewPaymentProcessor(d Deps) *PaymentProcessor {
	return &PaymentProcessor{core: newCore(d)}
}

// SettleRequest is what the cashier submits.
type SettleRequest struct {
	OrderID    uint
	DiscountID *uint
	Method     models.PaymentMethod
	Tendered   *decimal.Decimal
}

// Settle completes an order. The pending check, bill computation and every
// write run in one store transaction; the receipt number is derived from the
// server clock at this moment.
func (p *PaymentProcessor) Settle(ctx context.Context, req SettleRequest) (*database.SettleResult, error) {
	if req.Method != models.PayCash && req.Method != models.PayTransfer {
		return nil, apperr.ErrBadPaymentMethod
	}
	if req.Tendered != nil && req.Tendered.IsNegative() {
		return nil, apperr.Invalid("bad_tendered", "tendered amount cannot be negative")
	}

	order, err := p.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderCompleted {
		return nil, apperr.ErrAlreadySettled
	}
	if order.Status != models.OrderActive {
		return nil, apperr.ErrOrderNotActive
	}

	at := p.now()
	receipt := billing.ReceiptNumber(at, order.Table.Label, req.Method)

	start := time.Now()
	res, err := p.store.SettleOrder(ctx, database.SettleParams{
		OrderID:    req.OrderID,
		DiscountID: req.DiscountID,
		Method:     req.Method,
		ReceiptNo:  receipt,
		Tendered:   req.Tendered,
		At:         at,
	})
	p.metrics.SettlementLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.Settlements.WithLabelValues(string(req.Method), apperr.CodeOf(err)).Inc()
		return nil, err
	}

	if res.Voided {
		p.metrics.Settlements.WithLabelValues(string(req.Method), "voided").Inc()
		p.metrics.Voids.Inc()
		log.Printf("🧾 Order #%d closed at zero total, voided", order.ID)
		p.publish(ctx, notify.Event{Name: notify.OrderVoided, OrderID: order.ID, TableID: order.TableID})
	} else {
		p.metrics.Settlements.WithLabelValues(string(req.Method), "completed").Inc()
		total, _ := res.Bill.GrandTotal.Float64()
		p.metrics.SettledAmount.Add(total)
		log.Printf("💰 Order #%d settled: receipt %s total %s (%s)", order.ID, receipt, res.Bill.GrandTotal.StringFixed(2), req.Method)
		p.publish(ctx, notify.Event{Name: notify.OrderSettled, OrderID: order.ID, TableID: order.TableID, Data: receipt})
	}
	p.publish(ctx, notify.Event{Name: notify.TableChanged, TableID: order.TableID})
	return res, nil
}

// Void cancels an active order without a ledger entry and frees its table.
func (p *PaymentProcessor) Void(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := p.store.VoidOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	p.metrics.Voids.Inc()
	log.Printf("🗑️ Order #%d voided", order.ID)
	p.publish(ctx, notify.Event{Name: notify.OrderVoided, OrderID: order.ID, TableID: order.TableID})
	p.publish(ctx, notify.Event{Name: notify.TableChanged, TableID: order.TableID})
	return order, nil
}

// Reprint rebuilds the bill of a settled order from what was recorded. The
// discount is not looked up again; it is inferred from the stored total.
func (p *PaymentProcessor) Reprint(ctx context.Context, orderID uint) (*models.Order, billing.Bill, error) {
	order, err := p.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, billing.Bill{}, err
	}
	if order.Status != models.OrderCompleted {
		return nil, billing.Bill{}, apperr.New(apperr.KindPrecondition, "order_not_completed", "only completed orders have a receipt")
	}
	bill := billing.Replay(billing.Aggregate(order.Items), order.TotalPrice, order.PromotionName)
	return order, bill, nil
}
