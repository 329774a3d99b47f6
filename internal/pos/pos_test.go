package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/billing"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/kitchen"
	"restaurant-pos/internal/metrics"
	"restaurant-pos/internal/mocks"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notify"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 13, 7, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func eventNamed(name string) interface{} {
	return mock.MatchedBy(func(e notify.Event) bool { return e.Name == name })
}

func testDeps(store *mocks.MockStore, n *mocks.MockNotifier, now time.Time) Deps {
	return Deps{
		Store:    store,
		Notifier: n,
		Metrics:  metrics.New(),
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}
}

func servedItem(name, price, qty string) models.OrderItem {
	return models.OrderItem{
		MenuItem: models.MenuItem{Name: name, Price: dec(price)},
		Quantity: dec(qty),
		Status:   models.ItemServed,
	}
}

// --- PaymentProcessor ---

func TestSettleBuildsReceiptFromServerClock(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	p := NewPaymentProcessor(testDeps(store, n, t0))

	order := &models.Order{ID: 9, TableID: 5, Table: models.Table{ID: 5, Label: "T5"}, Status: models.OrderActive}
	tendered := dec("500")
	store.On("GetOrder", mock.Anything, uint(9)).Return(order, nil)
	store.On("SettleOrder", mock.Anything, mock.MatchedBy(func(sp database.SettleParams) bool {
		return sp.ReceiptNo == "2405011307T051" && sp.Method == models.PayCash && sp.At.Equal(t0) && sp.Tendered.Equal(tendered)
	})).Return(&database.SettleResult{
		Order:  models.Order{ID: 9, Status: models.OrderCompleted},
		Bill:   billing.Bill{GrandTotal: dec("210")},
		Change: dec("290"),
	}, nil)
	n.On("Notify", mock.Anything, eventNamed(notify.OrderSettled)).Return(nil).Once()
	n.On("Notify", mock.Anything, eventNamed(notify.TableChanged)).Return(nil).Once()

	res, err := p.Settle(context.Background(), SettleRequest{OrderID: 9, Method: models.PayCash, Tendered: &tendered})
	require.NoError(t, err)
	assert.True(t, res.Change.Equal(dec("290")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.Settlements.WithLabelValues("cash", "completed")))
	store.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestSettleTakeawayTransferReceipt(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	p := NewPaymentProcessor(testDeps(store, n, t0))

	store.On("GetOrder", mock.Anything, uint(3)).Return(&models.Order{ID: 3, TableID: 12, Table: models.Table{Label: "TA3"}, Status: models.OrderActive}, nil)
	store.On("SettleOrder", mock.Anything, mock.MatchedBy(func(sp database.SettleParams) bool {
		return sp.ReceiptNo == "2405011307A032"
	})).Return(&database.SettleResult{Bill: billing.Bill{GrandTotal: dec("80")}}, nil)
	n.On("Notify", mock.Anything, mock.Anything).Return(nil)

	_, err := p.Settle(context.Background(), SettleRequest{OrderID: 3, Method: models.PayTransfer})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestSettleRejections(t *testing.T) {
	tests := []struct {
		name  string
		req   SettleRequest
		order *models.Order
		store error
		want  error
	}{
		{
			name: "unknown payment method",
			req:  SettleRequest{OrderID: 1, Method: "card"},
			want: apperr.ErrBadPaymentMethod,
		},
		{
			name:  "already completed",
			req:   SettleRequest{OrderID: 1, Method: models.PayTransfer},
			order: &models.Order{ID: 1, Status: models.OrderCompleted},
			want:  apperr.ErrAlreadySettled,
		},
		{
			name:  "cancelled",
			req:   SettleRequest{OrderID: 1, Method: models.PayTransfer},
			order: &models.Order{ID: 1, Status: models.OrderCancelled},
			want:  apperr.ErrOrderNotActive,
		},
		{
			name:  "kitchen not finished",
			req:   SettleRequest{OrderID: 1, Method: models.PayTransfer},
			order: &models.Order{ID: 1, Status: models.OrderActive, Table: models.Table{Label: "T1"}},
			store: apperr.ErrItemsPending,
			want:  apperr.ErrItemsPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.MockStore)
			n := new(mocks.MockNotifier)
			p := NewPaymentProcessor(testDeps(store, n, t0))
			if tt.order != nil {
				store.On("GetOrder", mock.Anything, uint(1)).Return(tt.order, nil)
			}
			if tt.store != nil {
				store.On("SettleOrder", mock.Anything, mock.Anything).Return(nil, tt.store)
			}

			_, err := p.Settle(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		})
	}
}

func TestSettleSurvivesNotificationFailure(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	p := NewPaymentProcessor(testDeps(store, n, t0))

	store.On("GetOrder", mock.Anything, uint(2)).Return(&models.Order{ID: 2, TableID: 2, Table: models.Table{Label: "T2"}, Status: models.OrderActive}, nil)
	store.On("SettleOrder", mock.Anything, mock.Anything).Return(&database.SettleResult{Bill: billing.Bill{GrandTotal: dec("10")}}, nil)
	n.On("Notify", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	_, err := p.Settle(context.Background(), SettleRequest{OrderID: 2, Method: models.PayTransfer})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.NotifyFailures.WithLabelValues(notify.OrderSettled)))
}

func TestSettleZeroTotalCountsAsVoid(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	p := NewPaymentProcessor(testDeps(store, n, t0))

	store.On("GetOrder", mock.Anything, uint(4)).Return(&models.Order{ID: 4, TableID: 4, Table: models.Table{Label: "T4"}, Status: models.OrderActive}, nil)
	store.On("SettleOrder", mock.Anything, mock.Anything).Return(&database.SettleResult{Voided: true}, nil)
	n.On("Notify", mock.Anything, eventNamed(notify.OrderVoided)).Return(nil).Once()
	n.On("Notify", mock.Anything, eventNamed(notify.TableChanged)).Return(nil).Once()

	res, err := p.Settle(context.Background(), SettleRequest{OrderID: 4, Method: models.PayCash})
	require.NoError(t, err)
	assert.True(t, res.Voided)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.Voids))
	n.AssertExpectations(t)
}

func TestReprintReplaysRecordedTotal(t *testing.T) {
	store := new(mocks.MockStore)
	p := NewPaymentProcessor(testDeps(store, new(mocks.MockNotifier), t0))

	receipt := "2405011307T051"
	store.On("GetOrder", mock.Anything, uint(7)).Return(&models.Order{
		ID:            7,
		Status:        models.OrderCompleted,
		TotalPrice:    dec("90"),
		ReceiptNo:     &receipt,
		PromotionName: "Staff meal",
		Items:         []models.OrderItem{servedItem("Rice", "50", "2")},
	}, nil)
	store.On("GetOrder", mock.Anything, uint(8)).Return(&models.Order{ID: 8, Status: models.OrderActive}, nil)

	_, bill, err := p.Reprint(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, bill.Subtotal.Equal(dec("100")))
	assert.True(t, bill.Discount.Equal(dec("10")))
	assert.Equal(t, "Staff meal", bill.DiscountName)
	assert.True(t, bill.GrandTotal.Equal(dec("90")))

	_, _, err = p.Reprint(context.Background(), 8)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
}

func TestVoidPublishes(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	p := NewPaymentProcessor(testDeps(store, n, t0))

	store.On("VoidOrder", mock.Anything, uint(5)).Return(&models.Order{ID: 5, TableID: 1, Status: models.OrderCancelled}, nil)
	n.On("Notify", mock.Anything, eventNamed(notify.OrderVoided)).Return(nil).Once()
	n.On("Notify", mock.Anything, eventNamed(notify.TableChanged)).Return(nil).Once()

	o, err := p.Void(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, o.Status)
	n.AssertExpectations(t)
}

// --- OrderManager ---

func TestGetActiveOrderReportsPhantomTable(t *testing.T) {
	store := new(mocks.MockStore)
	m := NewOrderManager(testDeps(store, new(mocks.MockNotifier), t0), nil)

	store.On("ActiveOrderForTable", mock.Anything, uint(1)).Return(nil, apperr.ErrActiveOrderAbsent)
	store.On("GetTable", mock.Anything, uint(1)).Return(&models.Table{ID: 1, Status: models.TableOccupied}, nil)
	store.On("ActiveOrderForTable", mock.Anything, uint(2)).Return(nil, apperr.ErrActiveOrderAbsent)
	store.On("GetTable", mock.Anything, uint(2)).Return(&models.Table{ID: 2, Status: models.TableAvailable}, nil)

	_, err := m.GetActiveOrder(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrPhantomTable)
	assert.Equal(t, apperr.KindConsistency, apperr.KindOf(err))

	_, err = m.GetActiveOrder(context.Background(), 2)
	assert.ErrorIs(t, err, apperr.ErrActiveOrderAbsent)
}

func TestOpenOrderStampsServerTimeAndNotifies(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	m := NewOrderManager(testDeps(store, n, t0), nil)

	store.On("OpenOrder", mock.Anything, uint(3), t0).Return(&models.Order{ID: 11, TableID: 3, Table: models.Table{Label: "T3"}}, nil)
	n.On("Notify", mock.Anything, eventNamed(notify.OrderOpened)).Return(nil).Once()
	n.On("Notify", mock.Anything, eventNamed(notify.TableChanged)).Return(nil).Once()

	o, err := m.OpenOrder(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint(11), o.ID)
	n.AssertExpectations(t)
}

func TestOpenOrderOccupiedTableNotifiesNobody(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	m := NewOrderManager(testDeps(store, n, t0), nil)

	store.On("OpenOrder", mock.Anything, uint(3), t0).Return(nil, apperr.ErrTableOccupied)

	_, err := m.OpenOrder(context.Background(), 3)
	assert.ErrorIs(t, err, apperr.ErrTableOccupied)
	n.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestPreview(t *testing.T) {
	order := &models.Order{ID: 1, TableID: 1, Status: models.OrderActive, Items: []models.OrderItem{
		servedItem("Rice", "50", "2"),
		{MenuItem: models.MenuItem{Name: "Soup", Price: dec("40")}, Quantity: dec("1"), Status: models.ItemPending},
	}}

	t.Run("with qr and discount", func(t *testing.T) {
		store := new(mocks.MockStore)
		qr := new(mocks.MockQRProvider)
		m := NewOrderManager(testDeps(store, new(mocks.MockNotifier), t0), qr)

		discountID := uint(2)
		store.On("ActiveOrderForTable", mock.Anything, uint(1)).Return(order, nil)
		store.On("GetDiscount", mock.Anything, discountID).Return(&models.Discount{Name: "Ten off", Type: models.DiscountAmount, Value: dec("10"), IsActive: true}, nil)
		store.On("Settings", mock.Anything).Return(&models.StoreSetting{PromptPayID: "0812345678"}, nil)
		qr.On("Payload", mock.Anything, "0812345678", mock.MatchedBy(func(a decimal.Decimal) bool { return a.Equal(dec("130")) })).Return("QRDATA", nil)

		p, err := m.Preview(context.Background(), 1, &discountID)
		require.NoError(t, err)
		assert.True(t, p.Bill.GrandTotal.Equal(dec("130")), p.Bill.GrandTotal.String())
		assert.Equal(t, 1, p.PendingCount)
		assert.False(t, p.CanSettle)
		assert.Equal(t, "QRDATA", p.QRPayload)
		qr.AssertExpectations(t)
	})

	t.Run("qr failure is flagged", func(t *testing.T) {
		store := new(mocks.MockStore)
		qr := new(mocks.MockQRProvider)
		m := NewOrderManager(testDeps(store, new(mocks.MockNotifier), t0), qr)

		store.On("ActiveOrderForTable", mock.Anything, uint(1)).Return(order, nil)
		store.On("Settings", mock.Anything).Return(&models.StoreSetting{PromptPayID: "0812345678"}, nil)
		qr.On("Payload", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("timeout"))

		p, err := m.Preview(context.Background(), 1, nil)
		require.NoError(t, err)
		assert.True(t, p.QRUnavailable)
		assert.Empty(t, p.QRPayload)
	})

	t.Run("inactive discount", func(t *testing.T) {
		store := new(mocks.MockStore)
		m := NewOrderManager(testDeps(store, new(mocks.MockNotifier), t0), nil)
		id := uint(3)
		store.On("ActiveOrderForTable", mock.Anything, uint(1)).Return(order, nil)
		store.On("GetDiscount", mock.Anything, id).Return(&models.Discount{IsActive: false}, nil)

		_, err := m.Preview(context.Background(), 1, &id)
		assert.ErrorIs(t, err, apperr.ErrDiscountInactive)
	})
}

func TestHistoryUsesCalendarDay(t *testing.T) {
	store := new(mocks.MockStore)
	m := NewOrderManager(testDeps(store, new(mocks.MockNotifier), t0), nil)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store.On("CompletedOrders", mock.Anything, from, from.Add(24*time.Hour)).Return([]models.Order{{ID: 1}}, nil)

	orders, err := m.History(context.Background(), t0)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

// --- TableRegistry ---

func TestResetWritesAuditWithActor(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	r := NewTableRegistry(testDeps(store, n, t0))

	store.On("ResetPhantomTable", mock.Anything, uint(4), mock.MatchedBy(func(a models.AuditLog) bool {
		return a.Action == "reset_table" && a.Actor == "owner" && a.RequestID == "req-9" && a.CreatedAt.Equal(t0)
	})).Return(&models.Table{ID: 4, Label: "T4", Status: models.TableAvailable}, nil)
	n.On("Notify", mock.Anything, eventNamed(notify.TableChanged)).Return(nil).Once()

	tbl, err := r.Reset(context.Background(), 4, Actor{Name: "owner", RequestID: "req-9"})
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, tbl.Status)
	store.AssertExpectations(t)
	n.AssertExpectations(t)
}

// --- KitchenBoard ---

func TestKitchenTicketsGroupWaves(t *testing.T) {
	store := new(mocks.MockStore)
	k := NewKitchenBoard(testDeps(store, new(mocks.MockNotifier), t0), 0)

	store.On("PendingItems", mock.Anything).Return([]kitchen.PendingItem{
		{ItemID: 1, OrderID: 1, TableLabel: "T1", MenuName: "Rice", Quantity: dec("1"), CreatedAt: t0},
		{ItemID: 2, OrderID: 1, TableLabel: "T1", MenuName: "Soup", Quantity: dec("1"), CreatedAt: t0.Add(90 * time.Second)},
		{ItemID: 3, OrderID: 1, TableLabel: "T1", MenuName: "Beer", Quantity: dec("2"), CreatedAt: t0.Add(10 * time.Minute)},
	}, nil)

	tickets, err := k.Tickets(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, []uint{1, 2}, tickets[0].ItemIDs())
	assert.Equal(t, []uint{3}, tickets[1].ItemIDs())
}

func TestMarkTicketServed(t *testing.T) {
	store := new(mocks.MockStore)
	n := new(mocks.MockNotifier)
	k := NewKitchenBoard(testDeps(store, n, t0), 0)

	store.On("MarkServed", mock.Anything, []uint{1, 2}).Return(int64(2), nil).Once()
	store.On("OrderIDsForItems", mock.Anything, []uint{1, 2}).Return([]uint{7}, nil)
	n.On("Notify", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
		return e.Name == notify.ItemsServed && e.OrderID == 7
	})).Return(nil).Once()

	served, err := k.MarkTicketServed(context.Background(), []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), served)
	assert.Equal(t, 2.0, testutil.ToFloat64(k.metrics.ItemsServed))

	// Repeat: nothing left to change, nobody is told.
	store.On("MarkServed", mock.Anything, []uint{1, 2}).Return(int64(0), nil).Once()
	served, err = k.MarkTicketServed(context.Background(), []uint{1, 2})
	require.NoError(t, err)
	assert.Zero(t, served)
	n.AssertExpectations(t)
}
