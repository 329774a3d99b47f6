package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User - Staff member who signs in with a PIN
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:50" json:"name"`
	PINHash   string    `json:"-"`                  // Never return this in JSON
	Role      string    `gorm:"size:10" json:"role"` // 'owner', 'staff'
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
)

// Table - A physical table or a takeaway queue slot ("TA1")
type Table struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	Label  string      `gorm:"uniqueIndex;size:20" json:"label"`
	Status TableStatus `gorm:"size:20;default:available;index" json:"status"`
}

type OrderStatus string

const (
	OrderActive    OrderStatus = "active"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayTransfer PaymentMethod = "transfer"
)

// Order - One seating at a table, from opening to settlement
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TableID       uint            `gorm:"index;not null" json:"table_id"`
	Table         Table           `json:"table"`
	Status        OrderStatus     `gorm:"size:20;default:active;index" json:"status"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"total_price"` // valid once completed
	ReceiptNo     *string         `gorm:"uniqueIndex;size:20" json:"receipt_no"`
	PaymentMethod PaymentMethod   `gorm:"size:20" json:"payment_method"`
	PromotionName string          `gorm:"size:100" json:"promotion_name"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `gorm:"index" json:"completed_at"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemServed  ItemStatus = "served"
)

// OrderItem - A dish requested within an order
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"index;not null" json:"order_id"`
	MenuItemID uint            `gorm:"not null" json:"menu_item_id"`
	MenuItem   MenuItem        `json:"menu_item"`
	Quantity   decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	Notes      string          `gorm:"size:255" json:"notes"`
	Status     ItemStatus      `gorm:"size:20;default:pending;index" json:"status"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"` // assigned server-side, kitchen ordering key
}

type SaleMode string

const (
	SoldByUnit   SaleMode = "unit"
	SoldByWeight SaleMode = "weight"
)

// MenuItem - A dish on the menu, with an optional bundle promotion
type MenuItem struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category       string          `gorm:"size:50" json:"category"`
	PromotionQty   int             `json:"promotion_qty"`
	PromotionPrice decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"promotion_price"`
	SaleMode       SaleMode        `gorm:"size:10;default:unit" json:"sale_mode"`
	IsAvailable    bool            `json:"is_available"`
	ImageURL       string          `json:"image_url"`
}

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// Discount - Selectable at settlement, at most one per bill
type Discount struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Name     string          `gorm:"size:100;not null" json:"name"`
	Type     DiscountType    `gorm:"size:10;not null" json:"type"`
	Value    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	IsActive bool            `json:"is_active"`
}

type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Where a ledger entry came from
const (
	SourceSale     = "sale"
	SourceDayClose = "day_close"
	SourceManual   = "manual"
)

// Transaction - Accounting ledger entry
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Type        TransactionType `gorm:"size:10;not null" json:"type"`
	Source      string          `gorm:"size:20;default:manual;index" json:"source"`
	OrderID     *uint           `gorm:"index" json:"order_id,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description string          `gorm:"size:255" json:"description"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

// StoreSetting - Single row (ID 1) holding the authoritative shop state
type StoreSetting struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	ShopName           string     `json:"shop_name"`
	PromptPayID        string     `json:"promptpay_id"`
	IsOpen             bool       `json:"is_open"`
	AutoCloseTime      string     `gorm:"size:5" json:"auto_close_time"` // "HH:MM"
	CurrentBusinessDay *time.Time `json:"current_business_day"`
	LastClosedAt       *time.Time `json:"last_closed_at"`
}

// DayClose - One row per business day that has been closed
type DayClose struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	BusinessDay string          `gorm:"index;size:10;not null" json:"business_day"` // YYYY-MM-DD, one row per close
	Revenue     decimal.Decimal `gorm:"type:decimal(12,2)" json:"revenue"`
	OrderCount  int64           `json:"order_count"`
	ClosedBy    string          `gorm:"size:50" json:"closed_by"`
	ClosedAt    time.Time       `json:"closed_at"`
}

// AuditLog - Administrative repairs and destructive actions
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"size:50;index" json:"action"`
	Actor     string    `gorm:"size:50" json:"actor"`
	Subject   string    `gorm:"size:100" json:"subject"`
	Detail    string    `gorm:"size:255" json:"detail"`
	RequestID string    `gorm:"size:36" json:"request_id"`
	CreatedAt time.Time `json:"created_at"`
}
