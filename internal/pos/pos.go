// Package pos holds the POS components: table registry, order manager,
// kitchen board, payment processor and day-close scheduler. They depend on
// the Store interface for persistence and push change notifications after
// every committed write.
package pos

import (
	"context"
	"log"
	"time"

	"restaurant-pos/internal/database"
	"restaurant-pos/internal/kitchen"
	"restaurant-pos/internal/metrics"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notify"
)

// Store is the persistence collaborator. *database.Store implements it.
type Store interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	GetTable(ctx context.Context, id uint) (*models.Table, error)
	EnsureTables(ctx context.Context, dineIn, takeaway int) (int, error)
	PhantomTables(ctx context.Context) ([]models.Table, error)
	ResetPhantomTable(ctx context.Context, tableID uint, entry models.AuditLog) (*models.Table, error)

	OpenOrder(ctx context.Context, tableID uint, now time.Time) (*models.Order, error)
	AppendItems(ctx context.Context, orderID uint, items []database.NewItem, now time.Time) ([]models.OrderItem, error)
	ActiveOrderForTable(ctx context.Context, tableID uint) (*models.Order, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	CompletedOrders(ctx context.Context, from, to time.Time) ([]models.Order, error)

	PendingItems(ctx context.Context) ([]kitchen.PendingItem, error)
	MarkServed(ctx context.Context, itemIDs []uint) (int64, error)
	OrderIDsForItems(ctx context.Context, itemIDs []uint) ([]uint, error)

	GetDiscount(ctx context.Context, id uint) (*models.Discount, error)
	SettleOrder(ctx context.Context, p database.SettleParams) (*database.SettleResult, error)
	VoidOrder(ctx context.Context, orderID uint) (*models.Order, error)

	Settings(ctx context.Context) (*models.StoreSetting, error)
	UpdateSettings(ctx context.Context, p database.SettingsPatch) (*models.StoreSetting, error)
	WriteAudit(ctx context.Context, entry models.AuditLog) error
	OpenShop(ctx context.Context, now time.Time) (*models.StoreSetting, error)
	CloseDay(ctx context.Context, now time.Time, closedBy string) (*models.DayClose, bool, error)
}

var _ Store = (*database.Store)(nil)

// Actor identifies who asked for an administrative action.
type Actor struct {
	Name      string
	RequestID string
}

// Deps are the collaborators shared by every component.
type Deps struct {
	Store    Store
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Location *time.Location
	Now      func() time.Time
}

type core struct {
	store    Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	loc      *time.Location
	clock    func() time.Time
}

func newCore(d Deps) core {
	c := core{store: d.Store, notifier: d.Notifier, metrics: d.Metrics, loc: d.Location, clock: d.Now}
	if c.notifier == nil {
		c.notifier = notify.Nop{}
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

// now is the server wall clock in the shop's time zone.
func (c core) now() time.Time {
	return c.clock().In(c.loc)
}

// publish sends a change notification after a committed write. A failed
// delivery is logged and counted; the write it describes already happened.
func (c core) publish(ctx context.Context, evt notify.Event) {
	evt.Timestamp = c.now()
	if err := c.notifier.Notify(context.WithoutCancel(ctx), evt); err != nil {
		log.Printf("⚠️ notification %s not delivered: %v", evt.Name, err)
		c.metrics.NotifyFailures.WithLabelValues(evt.Name).Inc()
	}
}
