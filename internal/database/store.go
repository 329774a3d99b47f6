package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsID is the primary key of the single store_settings row.
const settingsID = 1

// Store is the gorm-backed persistence collaborator. Every multi-row state
// change runs inside one transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for health checks.
func (s *Store) DB() *gorm.DB { return s.db }

// forUpdate locks the selected rows until the transaction ends.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// wrap maps gorm errors to the apperr taxonomy; domain errors pass through.
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return apperr.External(err, op)
}

// --- Tables ---

func (s *Store) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).Order("id").Find(&tables).Error
	return tables, wrap(err, "list tables")
}

func (s *Store) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var t models.Table
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, wrap(err, "get table")
	}
	return &t, nil
}

// EnsureTables creates any missing dine-in (T1..Tn) and takeaway (TA1..TAm)
// labels. Existing tables are left untouched.
func (s *Store) EnsureTables(ctx context.Context, dineIn, takeaway int) (int, error) {
	var want []string
	for i := 1; i <= dineIn; i++ {
		want = append(want, fmt.Sprintf("T%d", i))
	}
	for i := 1; i <= takeaway; i++ {
		want = append(want, fmt.Sprintf("TA%d", i))
	}
	if len(want) == 0 {
		return 0, nil
	}

	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.Table{}).Where("label IN ?", want).Pluck("label", &existing).Error; err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, l := range existing {
			have[strings.ToUpper(l)] = true
		}

		var missing []models.Table
		for _, l := range want {
			if !have[l] {
				missing = append(missing, models.Table{Label: l, Status: models.TableAvailable})
			}
		}
		if len(missing) == 0 {
			return nil
		}
		created = len(missing)
		return tx.Create(&missing).Error
	})
	return created, wrap(err, "ensure tables")
}

// PhantomTables lists tables marked occupied with no active order.
func (s *Store) PhantomTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := s.db.WithContext(ctx).
		Where("status = ?", models.TableOccupied).
		Where("NOT EXISTS (SELECT 1 FROM orders WHERE orders.table_id = tables.id AND orders.status = ?)", models.OrderActive).
		Order("id").
		Find(&tables).Error
	return tables, wrap(err, "find phantom tables")
}

// ResetPhantomTable frees a table only while it is still occupied without an
// active order, and records the repair in the audit log.
func (s *Store) ResetPhantomTable(ctx context.Context, tableID uint, entry models.AuditLog) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&table, tableID).Error; err != nil {
			return err
		}
		if table.Status != models.TableOccupied {
			return apperr.ErrTableNotOccupied
		}

		var active int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status = ?", tableID, models.OrderActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return apperr.ErrTableHasOrder
		}

		if err := setTableStatus(tx, tableID, models.TableOccupied, models.TableAvailable); err != nil {
			return err
		}
		table.Status = models.TableAvailable

		entry.Subject = "table:" + table.Label
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, wrap(err, "reset table")
	}
	return &table, nil
}

// setTableStatus moves a table between states; it fails when the table is not
// in the expected state.
func setTableStatus(tx *gorm.DB, tableID uint, from, to models.TableStatus) error {
	res := tx.Model(&models.Table{}).
		Where("id = ? AND status = ?", tableID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		if from == models.TableAvailable {
			return apperr.ErrTableOccupied
		}
		return apperr.ErrTableNotOccupied
	}
	return nil
}

// --- Settings ---

// Settings returns the store settings row, creating it on first use.
func (s *Store) Settings(ctx context.Context) (*models.StoreSetting, error) {
	var st models.StoreSetting
	err := s.db.WithContext(ctx).
		Where(models.StoreSetting{ID: settingsID}).
		Attrs(models.StoreSetting{ShopName: "Restaurant"}).
		FirstOrCreate(&st).Error
	if err != nil {
		return nil, wrap(err, "load settings")
	}
	return &st, nil
}

// SettingsPatch holds the editable, non-operational settings.
type SettingsPatch struct {
	ShopName      *string
	PromptPayID   *string
	AutoCloseTime *string
}

func (s *Store) UpdateSettings(ctx context.Context, p SettingsPatch) (*models.StoreSetting, error) {
	if _, err := s.Settings(ctx); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if p.ShopName != nil {
		updates["shop_name"] = *p.ShopName
	}
	if p.PromptPayID != nil {
		updates["prompt_pay_id"] = *p.PromptPayID
	}
	if p.AutoCloseTime != nil {
		updates["auto_close_time"] = *p.AutoCloseTime
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.StoreSetting{ID: settingsID}).Updates(updates).Error; err != nil {
			return nil, wrap(err, "update settings")
		}
	}
	return s.Settings(ctx)
}

// lockSettings loads the settings row under a row lock inside tx.
func lockSettings(tx *gorm.DB) (*models.StoreSetting, error) {
	var st models.StoreSetting
	err := forUpdate(tx).
		Where(models.StoreSetting{ID: settingsID}).
		Attrs(models.StoreSetting{ShopName: "Restaurant"}).
		FirstOrCreate(&st).Error
	return &st, err
}

// shopIsOpen reads the open flag under a shared lock. Readers do not block
// each other; a day close holding the exclusive lock is waited for.
func shopIsOpen(tx *gorm.DB) (bool, error) {
	var st []models.StoreSetting
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", settingsID).
		Limit(1).
		Find(&st).Error
	if err != nil {
		return false, err
	}
	return len(st) == 1 && st[0].IsOpen, nil
}

// OpenShop marks the shop open and moves the business day anchor to now.
func (s *Store) OpenShop(ctx context.Context, now time.Time) (*models.StoreSetting, error) {
	var st *models.StoreSetting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if st, err = lockSettings(tx); err != nil {
			return err
		}
		if st.IsOpen {
			return nil
		}
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		st.IsOpen = true
		st.CurrentBusinessDay = &day
		return tx.Model(st).Updates(map[string]interface{}{
			"is_open":              true,
			"current_business_day": day,
		}).Error
	})
	if err != nil {
		return nil, wrap(err, "open shop")
	}
	return st, nil
}

// --- Audit ---

func (s *Store) WriteAudit(ctx context.Context, entry models.AuditLog) error {
	return wrap(s.db.WithContext(ctx).Create(&entry).Error, "write audit")
}

func (s *Store) ListAudit(ctx context.Context, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit).Find(&logs).Error
	return logs, wrap(err, "list audit")
}
