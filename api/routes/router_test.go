package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/adjustments"
	"github.com/angelmondragon/stockroom-backend/internal/checkout"
	pkgAuth "github.com/angelmondragon/stockroom-backend/pkg/auth"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string, userID int64) (bool, error) {
	return accessID != "", nil
}

type stubAuthorizer struct {
	grants map[int64][]string
}

func (s stubAuthorizer) Permissions(ctx context.Context, userID int64) ([]string, error) {
	return s.grants[userID], nil
}

func (s stubAuthorizer) Allowed(ctx context.Context, userID int64, permission enums.Permission) (bool, error) {
	for _, name := range s.grants[userID] {
		if name == permission.String() {
			return true, nil
		}
	}
	return false, nil
}

type memoryRedis struct {
	mu     sync.Mutex
	data   map[string]string
	counts map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, counts: map[string]int64{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

const (
	clerkID  int64 = 1
	viewerID int64 = 2
)

type routerHarness struct {
	handler http.Handler
	conn    *gorm.DB
	cfg     *config.Config
	item    models.Item
	fixture dbtest.Fixture
}

func newRouterHarness(t *testing.T) *routerHarness {
	t.Helper()

	client := dbtest.Open(t, "router")
	conn := client.DB()
	fixture := dbtest.Seed(t, conn)
	item := fixture.Item(t, conn, "Gloves", 10)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	adjSvc, err := adjustments.NewService(adjustments.NewRepository(conn))
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		TX:          client,
		Repo:        checkout.NewRepository(conn),
		Adjustments: adjSvc,
		Logger:      logg,
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App:      config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT:      config.JWTConfig{Secret: "router-secret", Issuer: "stockroom", ExpirationMinutes: 30},
		Checkout: config.CheckoutConfig{IdempotencyTTL: time.Hour},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:    time.Minute,
			LoginUserLimit: 5,
			LoginIPLimit:   20,
		},
	}

	authorizer := stubAuthorizer{grants: map[int64][]string{
		clerkID:  {enums.PermissionInventoryRead.String(), enums.PermissionCheckoutCreate.String()},
		viewerID: {enums.PermissionInventoryRead.String()},
	}}

	handler := NewRouter(cfg, logg, client, newMemoryRedis(), stubSessions{}, nil, Services{
		Authorizer:  authorizer,
		Checkout:    checkoutSvc,
		Adjustments: adjSvc,
	})
	return &routerHarness{handler: handler, conn: conn, cfg: cfg, item: item, fixture: fixture}
}

func (h *routerHarness) token(t *testing.T, userID int64) string {
	t.Helper()
	token, _, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		UserName: fmt.Sprintf("user-%d", userID),
	})
	require.NoError(t, err)
	return token
}

func (h *routerHarness) do(t *testing.T, method, path, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *routerHarness) checkoutBody(qty int) string {
	return fmt.Sprintf(`{"employee_id":%d,"department_id":%d,"checkout_items":[{"item_id":%d,"quantity":%d}]}`,
		h.fixture.Employee.EmployeeID, h.fixture.Department.DepartmentID, h.item.ItemID, qty)
}

func (h *routerHarness) stock(t *testing.T) int {
	t.Helper()
	var item models.Item
	require.NoError(t, h.conn.Where("item_id = ?", h.item.ItemID).First(&item).Error)
	return item.Quantity
}

func TestHealthLive(t *testing.T) {
	h := newRouterHarness(t)
	rec := h.do(t, http.MethodGet, "/health/live", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/health/ready", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newRouterHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/transactions", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutRequiresPermission(t *testing.T) {
	h := newRouterHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/transactions", h.token(t, viewerID), h.checkoutBody(2), nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Operation not permitted because of insufficient permissions")
	assert.Equal(t, 10, h.stock(t))
}

func TestCheckoutThroughRouter(t *testing.T) {
	h := newRouterHarness(t)
	token := h.token(t, clerkID)
	headers := map[string]string{"Idempotency-Key": "scan-1"}

	rec := h.do(t, http.MethodPost, "/api/v1/transactions", token, h.checkoutBody(4), headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			Message     string `json:"message"`
			Transaction int64  `json:"transaction"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Checkout processed successfully", created.Data.Message)
	assert.NotZero(t, created.Data.Transaction)
	assert.Equal(t, 6, h.stock(t))

	replay := h.do(t, http.MethodPost, "/api/v1/transactions", token, h.checkoutBody(4), headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, rec.Body.String(), replay.Body.String())
	assert.Equal(t, 6, h.stock(t), "replayed request must not move stock again")

	get := h.do(t, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", created.Data.Transaction), token, "", nil)
	require.Equal(t, http.StatusOK, get.Code)
	var fetched struct {
		Data models.CheckoutTransaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &fetched))
	require.Len(t, fetched.Data.CheckoutItems, 1)
	assert.Equal(t, 1, fetched.Data.CheckoutItems[0].LineNumber)

	logs := h.do(t, http.MethodGet, "/api/v1/logs/inventory-adjustment-logs", token, "", nil)
	require.Equal(t, http.StatusOK, logs.Code)
	var entries struct {
		Data []models.InventoryAdjustmentLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(logs.Body.Bytes(), &entries))
	require.Len(t, entries.Data, 1)
	assert.Equal(t, enums.AdjustmentTypeCheckout, entries.Data[0].AdjustmentType)
	assert.Equal(t, 4, entries.Data[0].QuantityChanged)
	assert.Equal(t, 6, entries.Data[0].NewQuantity)
}

func TestCheckoutInsufficientStockThroughRouter(t *testing.T) {
	h := newRouterHarness(t)
	rec := h.do(t, http.MethodPost, "/api/v1/transactions", h.token(t, clerkID), h.checkoutBody(11), nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_STOCK")
	assert.Contains(t, rec.Body.String(), "Item Gloves has only 10 in stock.")
	assert.Equal(t, 10, h.stock(t))
}
