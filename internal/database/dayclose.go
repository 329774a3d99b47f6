package database

import (
	"context"
	"fmt"
	"time"

	"restaurant-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CloseDay books the revenue of every order completed since the previous
// close as one income entry, records the DayClose row and marks the shop
// closed. When the shop is already closed nothing is written and created is
// false. A shop reopened on the same date closes again into a second
// DayClose row for that business day, covering only the new session.
func (s *Store) CloseDay(ctx context.Context, now time.Time, closedBy string) (dc *models.DayClose, created bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := lockSettings(tx)
		if err != nil {
			return err
		}

		day := businessDay(st, now)
		if !st.IsOpen {
			var existing models.DayClose
			res := tx.Where("business_day = ?", day).Order("closed_at desc, id desc").Limit(1).Find(&existing)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				dc = &existing
			}
			return nil
		}

		q := tx.Model(&models.Order{}).Where("status = ?", models.OrderCompleted)
		if st.LastClosedAt != nil {
			q = q.Where("completed_at > ?", *st.LastClosedAt)
		}
		q = q.Where("completed_at <= ?", now)

		var count int64
		var revenue decimal.NullDecimal
		if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
			return err
		}
		if err := q.Session(&gorm.Session{}).Select("SUM(total_price)").Row().Scan(&revenue); err != nil {
			return err
		}
		total := decimal.Zero
		if revenue.Valid {
			total = revenue.Decimal
		}

		record := models.DayClose{
			BusinessDay: day,
			Revenue:     total,
			OrderCount:  count,
			ClosedBy:    closedBy,
			ClosedAt:    now,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if total.IsPositive() {
			entry := models.Transaction{
				Type:        models.Income,
				Source:      models.SourceDayClose,
				Amount:      total,
				Description: fmt.Sprintf("Day close %s (%d orders)", day, count),
				CreatedAt:   now,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(st).Updates(map[string]interface{}{
			"is_open":        false,
			"last_closed_at": now,
		}).Error; err != nil {
			return err
		}

		dc = &record
		created = true
		return nil
	})
	if err != nil {
		return nil, false, wrap(err, "close day")
	}
	return dc, created, nil
}

func businessDay(st *models.StoreSetting, now time.Time) string {
	if st.CurrentBusinessDay != nil {
		return st.CurrentBusinessDay.In(now.Location()).Format("2006-01-02")
	}
	return now.Format("2006-01-02")
}

func (s *Store) ListDayCloses(ctx context.Context, limit int) ([]models.DayClose, error) {
	var out []models.DayClose
	err := s.db.WithContext(ctx).Order("closed_at desc").Limit(limit).Find(&out).Error
	return out, wrap(err, "list day closes")
}
