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
	"restaurant-pos/internal/payqr"

	"github.com/cockroachdb/errors"
)

// OrderManager opens orders, appends items and builds the cashier preview.
type OrderManager struct {
	core
	qr payqr.Provider
}

func NewOrderManager(d Deps, qr payqr.Provider) *OrderManager {
	if qr == nil {
		qr = payqr.Disabled{}
	}
	return &OrderManager{core: newCore(d), qr: qr}
}

// OpenOrder seats a table: the table becomes occupied and gets an active
// order in the same transaction.
func (m *OrderManager) OpenOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	order, err := m.store.OpenOrder(ctx, tableID, m.now())
	if err != nil {
		return nil, err
	}
	log.Printf("🍽️ Order #%d opened on table %s", order.ID, order.Table.Label)
	m.publish(ctx, notify.Event{Name: notify.OrderOpened, OrderID: order.ID, TableID: tableID})
	m.publish(ctx, notify.Event{Name: notify.TableChanged, TableID: tableID})
	return order, nil
}

// AppendItems adds dishes to an active order. Creation time is taken from
// the server clock so kitchen grouping never depends on client clocks.
func (m *OrderManager) AppendItems(ctx context.Context, orderID uint, items []database.NewItem) ([]models.OrderItem, error) {
	created, err := m.store.AppendItems(ctx, orderID, items, m.now())
	if err != nil {
		return nil, err
	}
	m.publish(ctx, notify.Event{Name: notify.ItemsAppended, OrderID: orderID, Data: len(created)})
	return created, nil
}

// GetActiveOrder returns the table's active order. When there is none but the
// table is still marked occupied, it reports apperr.ErrPhantomTable so the
// caller can offer the reset.
func (m *OrderManager) GetActiveOrder(ctx context.Context, tableID uint) (*models.Order, error) {
	order, err := m.store.ActiveOrderForTable(ctx, tableID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, apperr.ErrActiveOrderAbsent) {
		return nil, err
	}
	table, terr := m.store.GetTable(ctx, tableID)
	if terr != nil {
		return nil, terr
	}
	if table.Status == models.TableOccupied {
		return nil, apperr.ErrPhantomTable
	}
	return nil, err
}

// AggregateItems collapses an order's items into display rows.
func (m *OrderManager) AggregateItems(order *models.Order) []billing.Line {
	return billing.Aggregate(order.Items)
}

// Preview is the cashier's view of a bill before settlement.
type Preview struct {
	Order         *models.Order `json:"order"`
	Bill          billing.Bill  `json:"bill"`
	PendingCount  int           `json:"pending_count"`
	CanSettle     bool          `json:"can_settle"`
	QRPayload     string        `json:"qr_payload,omitempty"`
	QRUnavailable bool          `json:"qr_unavailable,omitempty"`
}

// Preview computes the live bill for a table, optionally with a discount.
// A QR service failure does not block the preview; it is flagged instead.
func (m *OrderManager) Preview(ctx context.Context, tableID uint, discountID *uint) (*Preview, error) {
	order, err := m.GetActiveOrder(ctx, tableID)
	if err != nil {
		return nil, err
	}

	var discount *models.Discount
	if discountID != nil {
		if discount, err = m.store.GetDiscount(ctx, *discountID); err != nil {
			return nil, err
		}
		if !discount.IsActive {
			return nil, apperr.ErrDiscountInactive
		}
	}

	pending := billing.PendingCount(order.Items)
	p := &Preview{
		Order:        order,
		Bill:         billing.Compute(billing.Aggregate(order.Items), discount),
		PendingCount: pending,
		CanSettle:    pending == 0,
	}

	if p.Bill.GrandTotal.IsPositive() {
		st, err := m.store.Settings(ctx)
		if err != nil {
			return nil, err
		}
		if st.PromptPayID != "" {
			payload, err := m.qr.Payload(ctx, st.PromptPayID, p.Bill.GrandTotal)
			if err != nil {
				log.Printf("⚠️ QR payload for order #%d: %v", order.ID, err)
				p.QRUnavailable = true
			} else {
				p.QRPayload = payload
			}
		}
	}
	return p, nil
}

// History lists orders completed on the calendar day containing day, in the
// shop's time zone.
func (m *OrderManager) History(ctx context.Context, day time.Time) ([]models.Order, error) {
	d := day.In(m.loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, m.loc)
	return m.store.CompletedOrders(ctx, from, from.AddDate(0, 0, 1))
}
