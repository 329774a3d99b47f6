package database

import (
	"context"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateMenuItem checks the menu item at the boundary before it is stored.
func ValidateMenuItem(m *models.MenuItem) error {
	if m.Name == "" {
		return apperr.Invalid("menu_name_required", "menu item name is required")
	}
	if m.Price.IsNegative() {
		return apperr.Invalid("menu_price_negative", "price cannot be negative")
	}
	if m.SaleMode == "" {
		m.SaleMode = models.SoldByUnit
	}
	if m.SaleMode != models.SoldByUnit && m.SaleMode != models.SoldByWeight {
		return apperr.Invalid("menu_sale_mode", "sale_mode must be unit or weight")
	}
	hasQty := m.PromotionQty > 0
	hasPrice := m.PromotionPrice.IsPositive()
	if m.PromotionQty < 0 || m.PromotionPrice.IsNegative() || hasQty != hasPrice {
		return apperr.Invalid("menu_promotion", "promotion_qty and promotion_price must be set together")
	}
	return nil
}

// ValidateDiscount checks a discount definition.
func ValidateDiscount(d *models.Discount) error {
	if d.Name == "" {
		return apperr.Invalid("discount_name_required", "discount name is required")
	}
	switch d.Type {
	case models.DiscountPercent:
		if d.Value.IsNegative() || d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return apperr.Invalid("discount_percent_range", "percent discount must be between 0 and 100")
		}
	case models.DiscountAmount:
		if d.Value.IsNegative() {
			return apperr.Invalid("discount_amount_negative", "amount discount cannot be negative")
		}
	default:
		return apperr.Invalid("discount_type", "discount type must be percent or amount")
	}
	return nil
}

// --- Menu ---

func (s *Store) ListMenu(ctx context.Context, availableOnly bool) ([]models.MenuItem, error) {
	var items []models.MenuItem
	q := s.db.WithContext(ctx).Order("category, name")
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	return items, wrap(q.Find(&items).Error, "list menu")
}

func (s *Store) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var m models.MenuItem
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, wrap(err, "get menu item")
	}
	return &m, nil
}

func (s *Store) CreateMenuItem(ctx context.Context, m *models.MenuItem) error {
	if err := ValidateMenuItem(m); err != nil {
		return err
	}
	return wrap(s.db.WithContext(ctx).Create(m).Error, "create menu item")
}

// SaveMenuItem replaces every field of an existing menu item.
func (s *Store) SaveMenuItem(ctx context.Context, m *models.MenuItem) error {
	if err := ValidateMenuItem(m); err != nil {
		return err
	}
	if _, err := s.GetMenuItem(ctx, m.ID); err != nil {
		return err
	}
	return wrap(s.db.WithContext(ctx).Save(m).Error, "save menu item")
}

// UpdateMenuPrice changes only the unit price.
func (s *Store) UpdateMenuPrice(ctx context.Context, id uint, price decimal.Decimal) (bool, error) {
	if price.IsNegative() {
		return false, apperr.Invalid("menu_price_negative", "price cannot be negative")
	}
	res := s.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Update("price", price)
	return res.RowsAffected == 1, wrap(res.Error, "update menu price")
}

// DeleteMenuItem removes a dish. Dishes referenced by past orders are marked
// unavailable instead so history keeps its names and prices.
func (s *Store) DeleteMenuItem(ctx context.Context, id uint) (deleted bool, err error) {
	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&refs).Error; err != nil {
		return false, wrap(err, "count menu references")
	}
	if refs > 0 {
		res := s.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Update("is_available", false)
		if res.RowsAffected == 0 && res.Error == nil {
			return false, apperr.ErrNotFound
		}
		return false, wrap(res.Error, "retire menu item")
	}
	res := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.RowsAffected == 0 && res.Error == nil {
		return false, apperr.ErrNotFound
	}
	return true, wrap(res.Error, "delete menu item")
}

// --- Discounts ---

func (s *Store) ListDiscounts(ctx context.Context, activeOnly bool) ([]models.Discount, error) {
	var out []models.Discount
	q := s.db.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return out, wrap(q.Find(&out).Error, "list discounts")
}

func (s *Store) GetDiscount(ctx context.Context, id uint) (*models.Discount, error) {
	var d models.Discount
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, wrap(err, "get discount")
	}
	return &d, nil
}

func (s *Store) CreateDiscount(ctx context.Context, d *models.Discount) error {
	if err := ValidateDiscount(d); err != nil {
		return err
	}
	return wrap(s.db.WithContext(ctx).Create(d).Error, "create discount")
}

func (s *Store) SaveDiscount(ctx context.Context, d *models.Discount) error {
	if err := ValidateDiscount(d); err != nil {
		return err
	}
	if _, err := s.GetDiscount(ctx, d.ID); err != nil {
		return err
	}
	return wrap(s.db.WithContext(ctx).Save(d).Error, "save discount")
}

func (s *Store) DeleteDiscount(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Discount{}, id)
	if res.Error == nil && res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return wrap(res.Error, "delete discount")
}
