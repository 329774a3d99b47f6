package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/auth"
	"restaurant-pos/internal/database"
	"restaurant-pos/internal/metrics"
	"restaurant-pos/internal/middleware"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/notify"
	"restaurant-pos/internal/payqr"
	"restaurant-pos/internal/pos"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router *gin.Engine
	store  *database.Store
	rice   models.MenuItem
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	store := database.NewStore(db)
	ctx := context.Background()
	_, err = store.EnsureTables(ctx, 2, 1)
	require.NoError(t, err)
	rice := models.MenuItem{Name: "Fried Rice", Price: decimal.NewFromInt(50), IsAvailable: true}
	require.NoError(t, store.CreateMenuItem(ctx, &rice))

	deps := pos.Deps{Store: store, Notifier: notify.Nop{}, Metrics: metrics.New(), Location: time.UTC}
	h := &Handler{
		Store:    store,
		Tables:   pos.NewTableRegistry(deps),
		Orders:   pos.NewOrderManager(deps, payqr.Disabled{}),
		Kitchen:  pos.NewKitchenBoard(deps, 2*time.Minute),
		Payments: pos.NewPaymentProcessor(deps),
		Shop:     pos.NewDayCloseScheduler(deps, 12, "POS-TEST"),
		Tokens:   auth.NewTokenManager("test-secret", time.Hour),
		Metrics:  deps.Metrics,
		Location: time.UTC,
		Node:     "POS-TEST",
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	h.RegisterRoutes(r)
	return &testServer{router: r, store: store, rice: rice}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *testServer) login(t *testing.T, name, pin string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/login", "", gin.H{"name": name, "pin": pin})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(t, w, &out)
	return out.Token
}

// owner registers the first account and signs in.
func (s *testServer) owner(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "boss", "pin": "1234"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(t, "boss", "1234")
}

func (s *testServer) tableID(t *testing.T, label string) uint {
	t.Helper()
	tables, err := s.store.ListTables(context.Background())
	require.NoError(t, err)
	for _, tbl := range tables {
		if tbl.Label == label {
			return tbl.ID
		}
	}
	t.Fatalf("table %s not found", label)
	return 0
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "POS-TEST")
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderReqID))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/tables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/tables", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", errorCode(t, w))
}

func TestRegistrationClosesAfterFirstUser(t *testing.T) {
	s := newTestServer(t)
	s.owner(t)

	w := s.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "intruder", "pin": "9999"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/login", "", gin.H{"name": "boss", "pin": "0000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffCannotUseOwnerRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.owner(t)

	w := s.do(t, http.MethodPost, "/api/staff", owner, gin.H{"name": "waiter", "pin": "5678"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	staff := s.login(t, "waiter", "5678")

	w = s.do(t, http.MethodGet, "/api/tables", staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/menu", staff, gin.H{"name": "Soup", "price": "40"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/tables/phantoms", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/tables/phantoms", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/shop/open", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/tables/%d/orders", s.tableID(t, "T1")), staff, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)

	cashier := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, fmt.Sprintf("/api/tables/%d/bill", order.TableID), nil},
		{http.MethodPost, fmt.Sprintf("/api/orders/%d/settle", order.ID), gin.H{"payment_method": "transfer"}},
		{http.MethodPost, fmt.Sprintf("/api/orders/%d/void", order.ID), nil},
		{http.MethodGet, fmt.Sprintf("/api/orders/%d/receipt", order.ID), nil},
		{http.MethodGet, "/api/orders/history", nil},
		{http.MethodPost, "/api/shop/open", nil},
		{http.MethodPost, "/api/shop/close", nil},
	}
	for _, tc := range cashier {
		w = s.do(t, tc.method, tc.path, staff, tc.body)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)
	}

	st, err := s.store.Settings(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsOpen)
	active, err := s.store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderActive, active.Status)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/void", order.ID), owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.owner(t)
	t1 := s.tableID(t, "T1")

	// closed shop rejects new orders
	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/tables/%d/orders", t1), token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "shop_closed", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/shop/open", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/tables/%d/orders", t1), token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/tables/%d/orders", t1), token, nil)
	assert.Equal(t, "table_occupied", errorCode(t, w))

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/items", order.ID), token, gin.H{
		"items": []gin.H{{"menu_item_id": s.rice.ID, "quantity": "2"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/settle", order.ID), token, gin.H{
		"payment_method": "cash", "tendered": "500",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "items_pending", errorCode(t, w))

	w = s.do(t, http.MethodGet, "/api/kitchen/tickets", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tickets []struct {
		Items []struct {
			ItemID uint `json:"item_id"`
		} `json:"items"`
	}
	decode(t, w, &tickets)
	require.Len(t, tickets, 1)
	ids := []uint{}
	for _, it := range tickets[0].Items {
		ids = append(ids, it.ItemID)
	}
	w = s.do(t, http.MethodPost, "/api/kitchen/tickets/served", token, gin.H{"item_ids": ids})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/settle", order.ID), token, gin.H{
		"payment_method": "cash", "tendered": "50",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_cash", errorCode(t, w))

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/settle", order.ID), token, gin.H{
		"payment_method": "cash", "tendered": "500",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var settled struct {
		Order  models.Order    `json:"order"`
		Change decimal.Decimal `json:"change"`
	}
	decode(t, w, &settled)
	assert.Equal(t, models.OrderCompleted, settled.Order.Status)
	assert.True(t, decimal.NewFromInt(100).Equal(settled.Order.TotalPrice))
	assert.True(t, decimal.NewFromInt(400).Equal(settled.Change))
	require.NotNil(t, settled.Order.ReceiptNo)
	assert.True(t, strings.HasSuffix(*settled.Order.ReceiptNo, "T011"), *settled.Order.ReceiptNo)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/settle", order.ID), token, gin.H{
		"payment_method": "cash", "tendered": "500",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d/receipt", order.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/tables/%d/order", t1), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/shop/close", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var closed struct {
		DayClose  models.DayClose `json:"day_close"`
		ClosedNow bool            `json:"closed_now"`
	}
	decode(t, w, &closed)
	assert.True(t, closed.ClosedNow)
	assert.Equal(t, int64(1), closed.DayClose.OrderCount)

	w = s.do(t, http.MethodPost, "/api/shop/close", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &closed)
	assert.False(t, closed.ClosedNow)
}

func TestMenuAdministration(t *testing.T) {
	s := newTestServer(t)
	token := s.owner(t)

	w := s.do(t, http.MethodPost, "/api/menu", token, gin.H{"name": "Beer", "price": "30", "promotion_qty": 3})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "menu_promotion", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/menu", token, gin.H{"name": "Beer", "price": "30", "is_available": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var beer models.MenuItem
	decode(t, w, &beer)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/menu/%d", beer.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/menu/%d", beer.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/discounts", token, gin.H{"name": "Half", "type": "percent", "value": "150"})
	assert.Equal(t, "discount_percent_range", errorCode(t, w))
}

func TestSettingsRejectBadCloseTime(t *testing.T) {
	s := newTestServer(t)
	token := s.owner(t)

	w := s.do(t, http.MethodPut, "/api/shop/settings", token, gin.H{"auto_close_time": "25:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPut, "/api/shop/settings", token, gin.H{"auto_close_time": "02:30", "shop_name": "Noodle Bar"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/shop", token, nil)
	assert.Contains(t, w.Body.String(), "Noodle Bar")

	w = s.do(t, http.MethodGet, "/api/audit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.AuditLog
	decode(t, w, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "update_settings", logs[0].Action)
	assert.Equal(t, "boss", logs[0].Actor)
	assert.Equal(t, "shop_name,auto_close_time=02:30", logs[0].Detail)
}

func TestManualLedgerEntries(t *testing.T) {
	s := newTestServer(t)
	token := s.owner(t)
	month := time.Now().UTC().Format("2006-01")

	w := s.do(t, http.MethodPost, "/api/accounting/transactions", token, gin.H{
		"type": "expense", "amount": "-5", "description": "ice",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/accounting/transactions", token, gin.H{
		"type": "expense", "amount": "120", "description": "ice",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var entry models.Transaction
	decode(t, w, &entry)
	assert.Equal(t, models.SourceManual, entry.Source)

	w = s.do(t, http.MethodGet, "/api/accounting/summary?month="+month, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sum database.LedgerSummary
	decode(t, w, &sum)
	assert.True(t, decimal.NewFromInt(-120).Equal(sum.Profit))

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/accounting/transactions/%d", entry.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/accounting/transactions/%d", entry.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAskWithoutKey(t *testing.T) {
	s := newTestServer(t)
	token := s.owner(t)
	w := s.do(t, http.MethodPost, "/api/ai/ask", token, gin.H{"message": "what sells best?"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReceiptConflictCarriesRetryHint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, errors.Wrap(apperr.ErrReceiptConflict, "settle order"))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Code       string `json:"code"`
		Recovery   string `json:"recovery"`
		RetryAfter int    `json:"retry_after"`
	}
	decode(t, w, &body)
	assert.Equal(t, "receipt_conflict", body.Code)
	assert.Equal(t, "retry", body.Recovery)
	assert.True(t, body.RetryAfter >= 1 && body.RetryAfter <= 60, body.RetryAfter)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAlreadySettledAsksForReload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, apperr.ErrAlreadySettled)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"recovery":"reload"`)
	assert.Empty(t, w.Header().Get("Retry-After"))
}
