package receiving

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/angelmondragon/stockroom-backend/internal/adjustments"
	"github.com/angelmondragon/stockroom-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB, dbtest.Fixture) {
	t.Helper()
	client := dbtest.Open(t, "receiving")
	fx := dbtest.Seed(t, client.DB())
	adjSvc, err := adjustments.NewService(adjustments.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		TX:          client,
		Repo:        NewRepository(client.DB()),
		Adjustments: adjSvc,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		MaxAttempts: 2,
	})
	require.NoError(t, err)
	return svc, client.DB(), fx
}

func TestReceiveIncrementsStockAndLogsInvoiceLines(t *testing.T) {
	svc, conn, fx := newTestService(t)
	ctx := context.Background()
	gloves := fx.Item(t, conn, "Gloves", 4)
	tape := fx.Item(t, conn, "Tape", 0)

	result, err := svc.Receive(ctx, InvoiceInput{
		InvoiceNumber: " INV-1001 ",
		VendorID:      fx.Vendor.VendorID,
		ScannedBy:     fx.Employee.EmployeeID,
		Lines:         []LineInput{{ItemID: gloves.ItemID, Quantity: 6}, {ItemID: tape.ItemID, Quantity: 12}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Invoice received successfully", result.Message)

	invoice, err := svc.Get(ctx, result.ScanID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1001", invoice.InvoiceNumber)
	assert.Equal(t, 2, invoice.TotalItems)
	require.Len(t, invoice.Items, 2)
	assert.Equal(t, 1, invoice.Items[0].LineNumber)
	assert.Equal(t, gloves.ItemCode, invoice.Items[0].ItemCode)

	var stocked models.Item
	require.NoError(t, conn.Where("item_id = ?", gloves.ItemID).First(&stocked).Error)
	assert.Equal(t, 10, stocked.Quantity)

	var logs []models.InventoryAdjustmentLog
	require.NoError(t, conn.Order("log_id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, enums.AdjustmentTypeInvoice, logs[1].AdjustmentType)
	assert.Equal(t, 0, logs[1].OldQuantity)
	assert.Equal(t, 12, logs[1].NewQuantity)
	require.NotNil(t, logs[1].ScannedInvoiceItemID)
	assert.Equal(t, invoice.Items[1].ScannedInvoiceItemID, *logs[1].ScannedInvoiceItemID)
	assert.Nil(t, logs[1].CheckoutItemID)

	listed, err := svc.List(ctx, ListFilter{VendorID: fx.Vendor.VendorID, ListParams: pagination.ListParams{Ascending: true}})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestReceiveUnknownReferencesWriteNothing(t *testing.T) {
	svc, conn, fx := newTestService(t)
	item := fx.Item(t, conn, "Gloves", 4)

	_, err := svc.Receive(context.Background(), InvoiceInput{
		InvoiceNumber: "INV-2",
		VendorID:      fx.Vendor.VendorID,
		ScannedBy:     fx.Employee.EmployeeID,
		Lines:         []LineInput{{ItemID: item.ItemID, Quantity: 1}, {ItemID: 999, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Item with id 999 not found.", typed.Message())

	_, err = svc.Receive(context.Background(), InvoiceInput{
		InvoiceNumber: "INV-3",
		VendorID:      404,
		ScannedBy:     fx.Employee.EmployeeID,
		Lines:         []LineInput{{ItemID: item.ItemID, Quantity: 1}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, conn.Model(&models.ScannedInvoice{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, conn.Model(&models.InventoryAdjustmentLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReceiveValidatesInput(t *testing.T) {
	svc, _, fx := newTestService(t)
	_, err := svc.Receive(context.Background(), InvoiceInput{InvoiceNumber: "INV-4", VendorID: fx.Vendor.VendorID, ScannedBy: fx.Employee.EmployeeID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Receive(context.Background(), InvoiceInput{VendorID: fx.Vendor.VendorID, ScannedBy: fx.Employee.EmployeeID, Lines: []LineInput{{ItemID: 1, Quantity: 1}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestReceiveLocksItemsInAscendingOrderBeforeWriting(t *testing.T) {
	client := dbtest.Open(t, "receiving_lock_order")
	conn := client.DB()
	fx := dbtest.Seed(t, conn)
	first := fx.Item(t, conn, "Gloves", 1)
	second := fx.Item(t, conn, "Tape", 1)
	third := fx.Item(t, conn, "Rags", 1)

	calls := &[]string{}
	adjSvc, err := adjustments.NewService(adjustments.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		TX:          client,
		Repo:        &recordingRepository{Repository: NewRepository(conn), calls: calls},
		Adjustments: adjSvc,
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		MaxAttempts: 1,
	})
	require.NoError(t, err)

	_, err = svc.Receive(context.Background(), InvoiceInput{
		InvoiceNumber: "INV-ORDER",
		VendorID:      fx.Vendor.VendorID,
		ScannedBy:     fx.Employee.EmployeeID,
		Lines: []LineInput{
			{ItemID: third.ItemID, Quantity: 1},
			{ItemID: first.ItemID, Quantity: 1},
			{ItemID: third.ItemID, Quantity: 2},
			{ItemID: second.ItemID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.NotEmpty(t, *calls)
	assert.Equal(t, fmt.Sprintf("LockItems %v", []int64{first.ItemID, second.ItemID, third.ItemID}), (*calls)[0])
	lockCalls := 0
	for _, call := range *calls {
		if strings.HasPrefix(call, "LockItems ") {
			lockCalls++
		}
	}
	assert.Equal(t, 1, lockCalls)

	var stocked models.Item
	require.NoError(t, conn.Where("item_id = ?", third.ItemID).First(&stocked).Error)
	assert.Equal(t, 4, stocked.Quantity)
}

func TestLockOrderSortsAndDedupes(t *testing.T) {
	got := lockOrder([]LineInput{{ItemID: 9}, {ItemID: 2}, {ItemID: 9}, {ItemID: 5}, {ItemID: 2}})
	assert.Equal(t, []int64{2, 5, 9}, got)
	assert.Empty(t, lockOrder(nil))
}

// recordingRepository logs the row-locking and stock calls made inside the unit of work.
type recordingRepository struct {
	Repository
	calls *[]string
}

func (r *recordingRepository) WithTx(tx *gorm.DB) Repository {
	return &recordingRepository{Repository: r.Repository.WithTx(tx), calls: r.calls}
}

func (r *recordingRepository) LockItems(ctx context.Context, ids []int64) ([]models.Item, error) {
	*r.calls = append(*r.calls, fmt.Sprintf("LockItems %v", ids))
	return r.Repository.LockItems(ctx, ids)
}

func (r *recordingRepository) LockItem(ctx context.Context, id int64) (*models.Item, error) {
	*r.calls = append(*r.calls, fmt.Sprintf("LockItem %d", id))
	return r.Repository.LockItem(ctx, id)
}

func (r *recordingRepository) IncrementStock(ctx context.Context, itemID int64, qty int) error {
	*r.calls = append(*r.calls, fmt.Sprintf("IncrementStock %d", itemID))
	return r.Repository.IncrementStock(ctx, itemID, qty)
}

func (r *recordingRepository) CreateInvoice(ctx context.Context, invoice *models.ScannedInvoice) error {
	*r.calls = append(*r.calls, "CreateInvoice")
	return r.Repository.CreateInvoice(ctx, invoice)
}
