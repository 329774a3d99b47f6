package pos

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notify"

	"github.com/robfig/cron/v3"
)

// DayCloseScheduler owns the shop's open/closed state. A cron job compares
// the clock with the configured close time once per tick; owners can also
// open and close the shop by hand. Both paths share one idempotent close.
type DayCloseScheduler struct {
	core
	dayStartHour int
	node         string
	cron         *cron.Cron
}

func NewDayCloseScheduler(d Deps, dayStartHour int, node string) *DayCloseScheduler {
	c := newCore(d)
	return &DayCloseScheduler{
		core:         c,
		dayStartHour: dayStartHour,
		node:         node,
		cron: cron.New(
			cron.WithLocation(c.loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

// ParseCloseTime parses "HH:MM".
func ParseCloseTime(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if ok {
		hour, err = strconv.Atoi(h)
		if err == nil {
			minute, err = strconv.Atoi(m)
		}
	}
	if !ok || err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, apperr.Invalid("bad_close_time", "close time must be HH:MM")
	}
	return hour, minute, nil
}

// CloseDeadline is the moment the business day that started on businessDay
// ends. A close hour earlier than dayStartHour belongs to the next calendar
// day, so a shop opening at noon with close time 02:00 closes at 2am.
func CloseDeadline(businessDay time.Time, closeTime string, dayStartHour int, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseCloseTime(closeTime)
	if err != nil {
		return time.Time{}, err
	}
	d := businessDay.In(loc)
	deadline := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc)
	if hour < dayStartHour {
		deadline = deadline.AddDate(0, 0, 1)
	}
	return deadline, nil
}

// Tick closes the day when the shop is open and the close time has passed.
// It reports whether this call performed the close.
func (s *DayCloseScheduler) Tick(ctx context.Context) (bool, error) {
	st, err := s.store.Settings(ctx)
	if err != nil {
		return false, err
	}
	if !st.IsOpen || st.AutoCloseTime == "" {
		return false, nil
	}

	now := s.now()
	anchor := now
	if st.CurrentBusinessDay != nil {
		anchor = *st.CurrentBusinessDay
	}
	deadline, err := CloseDeadline(anchor, st.AutoCloseTime, s.dayStartHour, s.loc)
	if err != nil {
		return false, err
	}
	if now.Before(deadline) {
		return false, nil
	}

	_, created, err := s.close(ctx, "scheduler", "scheduler@"+s.node)
	return created, err
}

// CloseShop is the manual close. Closing an already closed shop returns the
// existing record, if any, and writes nothing.
func (s *DayCloseScheduler) CloseShop(ctx context.Context, by Actor) (*models.DayClose, bool, error) {
	return s.close(ctx, "manual", by.Name)
}

func (s *DayCloseScheduler) close(ctx context.Context, trigger, closedBy string) (*models.DayClose, bool, error) {
	dc, created, err := s.store.CloseDay(ctx, s.now(), closedBy)
	if err != nil {
		s.metrics.DayCloses.WithLabelValues(trigger, apperr.CodeOf(err)).Inc()
		return nil, false, err
	}
	if !created {
		s.metrics.DayCloses.WithLabelValues(trigger, "noop").Inc()
		return dc, false, nil
	}
	s.metrics.DayCloses.WithLabelValues(trigger, "closed").Inc()
	log.Printf("🌙 Business day %s closed by %s: %d orders, revenue %s", dc.BusinessDay, closedBy, dc.OrderCount, dc.Revenue.StringFixed(2))
	s.publish(ctx, notify.Event{Name: notify.DayClosed, Data: dc})
	return dc, true, nil
}

// OpenShop opens the shop and anchors a new business day at today.
func (s *DayCloseScheduler) OpenShop(ctx context.Context) (*models.StoreSetting, error) {
	st, err := s.store.OpenShop(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if st.CurrentBusinessDay != nil {
		log.Printf("☀️ Shop open, business day %s", st.CurrentBusinessDay.Format("2006-01-02"))
	}
	s.publish(ctx, notify.Event{Name: notify.ShopOpened, Data: st})
	return st, nil
}

// UpdateSettings applies an owner's edit to the shop settings, records it in
// the audit log and pushes the new state to clients.
func (s *DayCloseScheduler) UpdateSettings(ctx context.Context, patch database.SettingsPatch, by Actor) (*models.StoreSetting, error) {
	var changed []string
	if patch.ShopName != nil {
		changed = append(changed, "shop_name")
	}
	if patch.PromptPayID != nil {
		changed = append(changed, "promptpay_id")
	}
	if patch.AutoCloseTime != nil {
		if *patch.AutoCloseTime != "" {
			if _, _, err := ParseCloseTime(*patch.AutoCloseTime); err != nil {
				return nil, err
			}
		}
		changed = append(changed, "auto_close_time="+*patch.AutoCloseTime)
	}

	st, err := s.store.UpdateSettings(ctx, patch)
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		entry := models.AuditLog{
			Action:    "update_settings",
			Actor:     by.Name,
			Subject:   "settings",
			Detail:    strings.Join(changed, ","),
			RequestID: by.RequestID,
			CreatedAt: s.now(),
		}
		if err := s.store.WriteAudit(ctx, entry); err != nil {
			log.Printf("⚠️ settings audit not written: %v", err)
		}
	}
	s.publish(ctx, notify.Event{Name: notify.SettingsUpdate, Data: st})
	return st, nil
}

// Start schedules Tick on spec (e.g. "@every 1m").
func (s *DayCloseScheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Tick(ctx); err != nil {
			log.Printf("❌ Day close check failed: %v", err)
		}
	})
	if err != nil {
		return apperr.Invalid("bad_cron_spec", err.Error())
	}
	s.cron.Start()
	log.Printf("⏰ Day close check scheduled (%s)", spec)
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (s *DayCloseScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
