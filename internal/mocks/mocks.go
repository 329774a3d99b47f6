package mocks

import (
	"context"
	"time"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/kitchen"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

type MockNotifier struct {
	mock.Mock
}

type MockQRProvider struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, evt notify.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockQRProvider) Payload(ctx context.Context, merchantID string, amount decimal.Decimal) (string, error) {
	args := m.Called(ctx, merchantID, amount)
	return args.String(0), args.Error(1)
}

func (m *MockStore) ListTables(ctx context.Context) ([]models.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Table), args.Error(1)
}

func (m *MockStore) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Table), args.Error(1)
}

func (m *MockStore) EnsureTables(ctx context.Context, dineIn, takeaway int) (int, error) {
	args := m.Called(ctx, dineIn, takeaway)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) PhantomTables(ctx context.Context) ([]models.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Table), args.Error(1)
}

func (m *MockStore) ResetPhantomTable(ctx context.Context, tableID uint, entry models.AuditLog) (*models.Table, error) {
	args := m.Called(ctx, tableID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Table), args.Error(1)
}

func (m *MockStore) OpenOrder(ctx context.Context, tableID uint, now time.Time) (*models.Order, error) {
	args := m.Called(ctx, tableID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockStore) AppendItems(ctx context.Context, orderID uint, items []database.NewItem, now time.Time) ([]models.OrderItem, error) {
	args := m.Called(ctx, orderID, items, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

func (m *MockStore) ActiveOrderForTable(ctx context.Context, tableID uint) (*models.Order, error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockStore) CompletedOrders(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockStore) PendingItems(ctx context.Context) ([]kitchen.PendingItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kitchen.PendingItem), args.Error(1)
}

func (m *MockStore) MarkServed(ctx context.Context, itemIDs []uint) (int64, error) {
	args := m.Called(ctx, itemIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) OrderIDsForItems(ctx context.Context, itemIDs []uint) ([]uint, error) {
	args := m.Called(ctx, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockStore) GetDiscount(ctx context.Context, id uint) (*models.Discount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Discount), args.Error(1)
}

func (m *MockStore) SettleOrder(ctx context.Context, p database.SettleParams) (*database.SettleResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.SettleResult), args.Error(1)
}

func (m *MockStore) VoidOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockStore) Settings(ctx context.Context) (*models.StoreSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoreSetting), args.Error(1)
}

func (m *MockStore) UpdateSettings(ctx context.Context, p database.SettingsPatch) (*models.StoreSetting, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoreSetting), args.Error(1)
}

func (m *MockStore) WriteAudit(ctx context.Context, entry models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockStore) OpenShop(ctx context.Context, now time.Time) (*models.StoreSetting, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoreSetting), args.Error(1)
}

func (m *MockStore) CloseDay(ctx context.Context, now time.Time, closedBy string) (*models.DayClose, bool, error) {
	args := m.Called(ctx, now, closedBy)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.DayClose), args.Bool(1), args.Error(2)
}
