package checkout

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/angelmondragon/stockroom-backend/internal/adjustments"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	client   *db.Client
	conn     *gorm.DB
	svc      Service
	registry *prometheus.Registry
}

type harnessOption func(*ServiceParams)

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	client := dbtest.Open(t, "checkout")
	adjSvc, err := adjustments.NewService(adjustments.NewRepository(client.DB()))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	params := ServiceParams{
		TX:          client,
		Repo:        NewRepository(client.DB()),
		Adjustments: adjSvc,
		Metrics:     metrics.NewStockMetrics(reg),
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		MaxAttempts: 3,
	}
	for _, opt := range opts {
		opt(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return &harness{client: client, conn: client.DB(), svc: svc, registry: reg}
}

// seedWarehouse creates employee 123, department 2 and items 456 and 789 with
// distinct categories and units so per line snapshots can be told apart.
func (h *harness) seedWarehouse(t *testing.T, stock456, stock789 int) {
	t.Helper()
	rows := []any{
		&models.Department{DepartmentID: 2, Name: "Facilities"},
		&models.ItemCategory{CategoryID: 10, Name: "Gloves"},
		&models.ItemCategory{CategoryID: 11, Name: "Fasteners"},
		&models.UnitOfMeasure{UOMID: 20, Name: "Pair", Abbreviation: "pr"},
		&models.UnitOfMeasure{UOMID: 21, Name: "Box", Abbreviation: "bx"},
		&models.Employee{EmployeeID: 123, EmployeeNumber: "00000123", FirstName: "Sam", LastName: "Ortiz", DepartmentID: 2},
		&models.Item{ItemID: 456, ItemCode: "GLV-01", Name: "Nitrile gloves", Category: 10, OwnerDepartment: 2, UnitOfMeasure: 20, Quantity: stock456},
		&models.Item{ItemID: 789, ItemCode: "SCR-02", Name: "Wood screws", Category: 11, OwnerDepartment: 2, UnitOfMeasure: 21, Quantity: stock789},
	}
	for _, row := range rows {
		require.NoError(t, h.conn.Create(row).Error)
	}
}

func (h *harness) quantity(t *testing.T, itemID int64) int {
	t.Helper()
	var item models.Item
	require.NoError(t, h.conn.Where("item_id = ?", itemID).First(&item).Error)
	return item.Quantity
}

func (h *harness) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(model).Count(&n).Error)
	return n
}

func (h *harness) assertNothingPersisted(t *testing.T) {
	t.Helper()
	assert.Zero(t, h.count(t, &models.CheckoutTransaction{}), "transactions")
	assert.Zero(t, h.count(t, &models.CheckoutItem{}), "lines")
	assert.Zero(t, h.count(t, &models.InventoryAdjustmentLog{}), "logs")
}

func standardRequest() CheckoutInput {
	return CheckoutInput{
		EmployeeID:   123,
		DepartmentID: 2,
		Lines: []LineInput{
			{ItemID: 456, Quantity: 2},
			{ItemID: 789, Quantity: 1},
		},
	}
}

func TestProcessCommitsTransactionLinesStockAndLogs(t *testing.T) {
	h := newHarness(t)
	h.seedWarehouse(t, 10, 5)
	ctx := context.Background()

	result, err := h.svc.Process(ctx, standardRequest())
	require.NoError(t, err)
	assert.Equal(t, "Checkout processed successfully", result.Message)
	require.NotZero(t, result.TransactionID)

	txn, err := h.svc.Get(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, 2, txn.TotalItems)
	assert.Equal(t, int64(123), txn.EmployeeID)
	assert.Equal(t, int64(2), txn.DepartmentID)
	require.Len(t, txn.CheckoutItems, txn.TotalItems)

	first, second := txn.CheckoutItems[0], txn.CheckoutItems[1]
	assert.Equal(t, 1, first.LineNumber)
	assert.Equal(t, 2, second.LineNumber)
	assert.Equal(t, int64(456), first.ItemID)
	assert.Equal(t, int64(10), first.CategoryID)
	assert.Equal(t, int64(20), first.UnitOfMeasure)
	assert.Equal(t, int64(789), second.ItemID)
	assert.Equal(t, int64(11), second.CategoryID)
	assert.Equal(t, int64(21), second.UnitOfMeasure)

	assert.Equal(t, 8, h.quantity(t, 456))
	assert.Equal(t, 4, h.quantity(t, 789))

	var logs []models.InventoryAdjustmentLog
	require.NoError(t, h.conn.Order("log_id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	expect := []struct {
		item          int64
		old, new, chg int
		line          int64
	}{
		{456, 10, 8, 2, first.CheckoutItemID},
		{789, 5, 4, 1, second.CheckoutItemID},
	}
	for i, want := range expect {
		got := logs[i]
		assert.Equal(t, want.item, got.ItemID)
		assert.Equal(t, want.old, got.OldQuantity)
		assert.Equal(t, want.new, got.NewQuantity)
		assert.Equal(t, want.chg, got.QuantityChanged)
		assert.Equal(t, got.OldQuantity-got.QuantityChanged, got.NewQuantity)
		assert.Equal(t, enums.AdjustmentTypeCheckout, got.AdjustmentType)
		require.NotNil(t, got.CheckoutItemID)
		assert.Equal(t, want.line, *got.CheckoutItemID)
		assert.Nil(t, got.ScannedInvoiceItemID)
	}
}

func TestProcessInsufficientStockWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.seedWarehouse(t, 10, 0)

	_, err := h.svc.Process(context.Background(), standardRequest())
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, "Item Wood screws has only 0 in stock.", typed.Message())
	details := typed.Details().(map[string]any)
	assert.Equal(t, int64(789), details["item_id"])
	assert.Equal(t, 0, details["available"])

	assert.Equal(t, 10, h.quantity(t, 456))
	h.assertNothingPersisted(t)
}

func TestProcessMissingReferencesFailWithNotFound(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CheckoutInput)
		message string
	}{
		{"employee", func(in *CheckoutInput) { in.EmployeeID = 999 }, "Employee with id 999 not found."},
		{"department", func(in *CheckoutInput) { in.DepartmentID = 77 }, "Department with id 77 not found."},
		{"item", func(in *CheckoutInput) { in.Lines[1].ItemID = 31337 }, "Item with id 31337 not found."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.seedWarehouse(t, 10, 5)

			input := standardRequest()
			tc.mutate(&input)
			_, err := h.svc.Process(context.Background(), input)

			typed := pkgerrors.As(err)
			require.NotNil(t, typed, "got %v", err)
			assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
			assert.Equal(t, tc.message, typed.Message())
			assert.Equal(t, 10, h.quantity(t, 456))
			assert.Equal(t, 5, h.quantity(t, 789))
			h.assertNothingPersisted(t)
		})
	}
}

func TestProcessRejectsMalformedInput(t *testing.T) {
	h := newHarness(t)
	h.seedWarehouse(t, 10, 5)

	inputs := []CheckoutInput{
		{EmployeeID: 123, DepartmentID: 2},
		{EmployeeID: 0, DepartmentID: 2, Lines: []LineInput{{ItemID: 456, Quantity: 1}}},
		{EmployeeID: 123, DepartmentID: 2, Lines: []LineInput{{ItemID: 456, Quantity: 0}}},
	}
	for _, input := range inputs {
		_, err := h.svc.Process(context.Background(), input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
	}
	h.assertNothingPersisted(t)
}

func TestProcessRepeatedItemDemandIsAggregated(t *testing.T) {
	h := newHarness(t)
	h.seedWarehouse(t, 10, 5)

	_, err := h.svc.Process(context.Background(), CheckoutInput{
		EmployeeID:   123,
		DepartmentID: 2,
		Lines:        []LineInput{{ItemID: 456, Quantity: 6}, {ItemID: 456, Quantity: 6}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	assert.Equal(t, 10, h.quantity(t, 456))
	h.assertNothingPersisted(t)

	result, err := h.svc.Process(context.Background(), CheckoutInput{
		EmployeeID:   123,
		DepartmentID: 2,
		Lines:        []LineInput{{ItemID: 456, Quantity: 4}, {ItemID: 456, Quantity: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, h.quantity(t, 456))

	var logs []models.InventoryAdjustmentLog
	require.NoError(t, h.conn.Order("log_id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, 10, logs[0].OldQuantity)
	assert.Equal(t, 6, logs[0].NewQuantity)
	assert.Equal(t, 6, logs[1].OldQuantity)
	assert.Equal(t, 0, logs[1].NewQuantity)
	assert.NotZero(t, result.TransactionID)
}

// drainingRepo empties an item's stock after the lines are written, as a
// competing checkout committing between validation and mutation would.
type drainingRepo struct {
	Repository
	drainItem int64
}

func (r *drainingRepo) WithTx(tx *gorm.DB) Repository {
	return &drainingRepo{Repository: r.Repository.WithTx(tx), drainItem: r.drainItem}
}

func (r *drainingRepo) CreateLines(ctx context.Context, lines []models.CheckoutItem) error {
	if err := r.Repository.CreateLines(ctx, lines); err != nil {
		return err
	}
	_, err := r.Repository.DecrementStock(ctx, r.drainItem, 5)
	return err
}

func TestProcessRechecksStockAtMutationAndRollsBack(t *testing.T) {
	h := newHarness(t, func(p *ServiceParams) {
		p.Repo = &drainingRepo{Repository: p.Repo, drainItem: 789}
	})
	h.seedWarehouse(t, 10, 5)

	_, err := h.svc.Process(context.Background(), standardRequest())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "got %v", err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, "mutation", typed.Details().(map[string]any)["step"])

	assert.Equal(t, 10, h.quantity(t, 456))
	assert.Equal(t, 5, h.quantity(t, 789), "drain must roll back with the rest of the unit of work")
	h.assertNothingPersisted(t)
}

type failingRecorder struct {
	inner  adjustmentRecorder
	calls  int
	failAt int
}

func (f *failingRecorder) Record(ctx context.Context, tx *gorm.DB, input adjustments.RecordInput) (*models.InventoryAdjustmentLog, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("connection reset by peer"), "insert inventory adjustment log")
	}
	return f.inner.Record(ctx, tx, input)
}

func TestProcessAuditFailureRollsBackEverything(t *testing.T) {
	h := newHarness(t, func(p *ServiceParams) {
		p.Adjustments = &failingRecorder{inner: p.Adjustments, failAt: 2}
	})
	h.seedWarehouse(t, 10, 5)

	_, err := h.svc.Process(context.Background(), standardRequest())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "got %v", err)

	assert.Equal(t, 10, h.quantity(t, 456))
	assert.Equal(t, 5, h.quantity(t, 789))
	h.assertNothingPersisted(t)
}

type flakyTx struct {
	inner    txRunner
	failures int
	calls    int
}

func (f *flakyTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	if f.calls <= f.failures {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}, "lock items")
	}
	return f.inner.WithTx(ctx, fn)
}

func TestProcessRetriesLockContention(t *testing.T) {
	var flaky *flakyTx
	h := newHarness(t, func(p *ServiceParams) {
		flaky = &flakyTx{inner: p.TX, failures: 2}
		p.TX = flaky
	})
	h.seedWarehouse(t, 10, 5)

	_, err := h.svc.Process(context.Background(), standardRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, 8, h.quantity(t, 456))
	assert.Equal(t, int64(1), h.count(t, &models.CheckoutTransaction{}))

	mfs, err := h.registry.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "stockroom_stock_operation_retries_total" {
			found = true
			assert.Equal(t, float64(2), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "retry counter not exported")
}

func TestProcessGivesUpAfterMaxAttempts(t *testing.T) {
	h := newHarness(t, func(p *ServiceParams) {
		p.TX = &flakyTx{inner: p.TX, failures: 10}
	})
	h.seedWarehouse(t, 10, 5)

	_, err := h.svc.Process(context.Background(), standardRequest())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "got %v", err)
	assert.Equal(t, 10, h.quantity(t, 456))
}

func TestProcessConcurrentCheckoutsNeverOversell(t *testing.T) {
	h := newHarness(t)
	h.seedWarehouse(t, 10, 5)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		other     []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Process(context.Background(), CheckoutInput{
				EmployeeID:   123,
				DepartmentID: 2,
				Lines:        []LineInput{{ItemID: 456, Quantity: 2}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 3, rejected)
	assert.Equal(t, 0, h.quantity(t, 456))
	assert.Equal(t, int64(5), h.count(t, &models.CheckoutTransaction{}))
	assert.Equal(t, int64(5), h.count(t, &models.InventoryAdjustmentLog{}))
}

func TestProcessConcurrentCheckoutsWithinStockAllSucceed(t *testing.T) {
	h := newHarness(t)
	h.seedWarehouse(t, 10, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Process(context.Background(), CheckoutInput{
				EmployeeID:   123,
				DepartmentID: 2,
				Lines:        []LineInput{{ItemID: 456, Quantity: 4}, {ItemID: 789, Quantity: 2}},
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 2, h.quantity(t, 456))
	assert.Equal(t, 1, h.quantity(t, 789))
}

func TestGetAndList(t *testing.T) {
	h := newHarness(t)
	h.seedWarehouse(t, 10, 5)
	ctx := context.Background()

	first, err := h.svc.Process(ctx, CheckoutInput{EmployeeID: 123, DepartmentID: 2, Lines: []LineInput{{ItemID: 456, Quantity: 1}}})
	require.NoError(t, err)
	second, err := h.svc.Process(ctx, standardRequest())
	require.NoError(t, err)

	_, err = h.svc.Get(ctx, 4040)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "transaction with id 4040 not found.", typed.Message())

	byTotal, err := h.svc.List(ctx, ListFilter{ListParams: pagination.ListParams{OrderBy: "total_items", Ascending: false}})
	require.NoError(t, err)
	require.Len(t, byTotal, 2)
	assert.Equal(t, second.TransactionID, byTotal[0].TransactionID)
	assert.Len(t, byTotal[0].CheckoutItems, 2)

	fallback, err := h.svc.List(ctx, ListFilter{ListParams: pagination.ListParams{OrderBy: "nonsense", Ascending: true, Limit: 1}})
	require.NoError(t, err)
	require.Len(t, fallback, 1)
	assert.Equal(t, first.TransactionID, fallback[0].TransactionID)

	none, err := h.svc.List(ctx, ListFilter{EmployeeID: 5, ListParams: pagination.ListParams{Ascending: true}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
