package database

import (
	"context"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

func (s *Store) FindUserByName(ctx context.Context, name string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&u).Error; err != nil {
		return nil, wrap(err, "find user")
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Invalid("user_exists", "user already exists")
	}
	return wrap(err, "create user")
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	return out, wrap(s.db.WithContext(ctx).Order("id").Find(&out).Error, "list users")
}

func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error == nil && res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return wrap(res.Error, "delete user")
}

// CleanupResult counts what a maintenance cleanup removed.
type CleanupResult struct {
	Orders       int64 `json:"orders"`
	Items        int64 `json:"items"`
	Transactions int64 `json:"transactions"`
}

// Cleanup permanently deletes finished orders (with their items) and ledger
// entries created before cutoff. Active orders are never removed.
func (s *Store) Cleanup(ctx context.Context, cutoff time.Time, entry models.AuditLog) (*CleanupResult, error) {
	var out CleanupResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Order{}).
			Where("created_at < ? AND status <> ?", cutoff, models.OrderActive).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		if len(ids) > 0 {
			res := tx.Where("order_id IN ?", ids).Delete(&models.OrderItem{})
			if res.Error != nil {
				return res.Error
			}
			out.Items = res.RowsAffected

			res = tx.Where("id IN ?", ids).Delete(&models.Order{})
			if res.Error != nil {
				return res.Error
			}
			out.Orders = res.RowsAffected
		}

		res := tx.Where("created_at < ?", cutoff).Delete(&models.Transaction{})
		if res.Error != nil {
			return res.Error
		}
		out.Transactions = res.RowsAffected

		entry.Subject = "before:" + cutoff.Format("2006-01-02")
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, wrap(err, "cleanup")
	}
	return &out, nil
}
