// Package receiving books scanned vendor invoices into stock.
package receiving

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/internal/adjustments"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"gorm.io/gorm"
)

const (
	operationName  = "invoice"
	successMessage = "Invoice received successfully"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type adjustmentRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input adjustments.RecordInput) (*models.InventoryAdjustmentLog, error)
}

// Service receives scanned invoices.
type Service interface {
	Receive(ctx context.Context, input InvoiceInput) (*ReceiptResult, error)
	Get(ctx context.Context, id int64) (*models.ScannedInvoice, error)
	List(ctx context.Context, filter ListFilter) ([]models.ScannedInvoice, error)
}

type InvoiceInput struct {
	InvoiceNumber string
	VendorID      int64
	ScannedBy     int64
	ImageFilePath *string
	Lines         []LineInput
}

type LineInput struct {
	ItemID   int64
	Quantity int
}

type ReceiptResult struct {
	Message string
	ScanID  int64
	Invoice *models.ScannedInvoice
}

type ServiceParams struct {
	TX           txRunner
	Repo         Repository
	Adjustments  adjustmentRecorder
	Metrics      *metrics.StockMetrics
	Logger       *logger.Logger
	MaxAttempts  int
	RetryBackoff time.Duration
}

type service struct {
	tx          txRunner
	repo        Repository
	adjustments adjustmentRecorder
	metrics     *metrics.StockMetrics
	logg        *logger.Logger
	retry       db.RetryPolicy
}

func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("receiving repository required")
	}
	if params.Adjustments == nil {
		return nil, fmt.Errorf("adjustment recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          params.TX,
		repo:        params.Repo,
		adjustments: params.Adjustments,
		metrics:     params.Metrics,
		logg:        params.Logger,
		retry:       db.RetryPolicy{MaxAttempts: params.MaxAttempts, Backoff: params.RetryBackoff},
	}, nil
}

func (s *service) Receive(ctx context.Context, input InvoiceInput) (*ReceiptResult, error) {
	start := time.Now()
	input.InvoiceNumber = strings.TrimSpace(input.InvoiceNumber)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"invoice_number": input.InvoiceNumber,
		"vendor_id":      input.VendorID,
		"line_count":     len(input.Lines),
	})

	var result *ReceiptResult
	err := validateInput(input)
	if err == nil {
		policy := s.retry
		policy.OnRetry = func(attempt int, retryErr error) {
			s.metrics.IncRetry(operationName)
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": retryErr.Error()}), "invoice.retry")
		}
		err = policy.Run(ctx, func() error {
			var runErr error
			result, runErr = s.run(ctx, input)
			return runErr
		})
	}

	outcome := metrics.OutcomeFor(err)
	s.metrics.Observe(operationName, outcome, time.Since(start))
	if err != nil {
		if outcome == metrics.OutcomeError {
			s.logg.Error(ctx, "invoice.failed", err)
		} else {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"outcome": outcome, "error": err.Error()}), "invoice.rejected")
		}
		return nil, err
	}

	units := 0
	for _, line := range input.Lines {
		units += line.Quantity
	}
	s.metrics.AddUnits(string(enums.AdjustmentTypeInvoice), units)
	s.logg.Info(s.logg.WithField(ctx, "scan_id", result.ScanID), "invoice.received")
	return result, nil
}

func (s *service) run(ctx context.Context, input InvoiceInput) (*ReceiptResult, error) {
	var result *ReceiptResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindVendor(ctx, input.VendorID); err != nil {
			return db.MapError(err, fmt.Sprintf("Vendor with id %d not found.", input.VendorID), "load vendor")
		}
		if _, err := repo.FindEmployee(ctx, input.ScannedBy); err != nil {
			return db.MapError(err, fmt.Sprintf("Employee with id %d not found.", input.ScannedBy), "load employee")
		}
		codes := make([]string, len(input.Lines))
		for i, line := range input.Lines {
			item, err := repo.FindItem(ctx, line.ItemID)
			if err != nil {
				return db.MapError(err, fmt.Sprintf("Item with id %d not found.", line.ItemID), "load item")
			}
			codes[i] = item.ItemCode
		}
		if _, err := repo.LockItems(ctx, lockOrder(input.Lines)); err != nil {
			return db.MapError(err, "", "lock items")
		}

		header := &models.ScannedInvoice{
			InvoiceNumber: input.InvoiceNumber,
			VendorID:      input.VendorID,
			ScannedBy:     input.ScannedBy,
			ImageFilePath: input.ImageFilePath,
			TotalItems:    len(input.Lines),
		}
		if err := repo.CreateInvoice(ctx, header); err != nil {
			return db.MapError(err, "", "insert scanned invoice")
		}
		rows := make([]models.ScannedInvoiceItem, len(input.Lines))
		for i, line := range input.Lines {
			rows[i] = models.ScannedInvoiceItem{
				ScanID:     header.ScanID,
				LineNumber: i + 1,
				ItemID:     line.ItemID,
				ItemCode:   codes[i],
				Quantity:   line.Quantity,
			}
		}
		if err := repo.CreateLines(ctx, rows); err != nil {
			return db.MapError(err, "", "insert scanned invoice lines")
		}

		stored, err := repo.FindInvoice(ctx, header.ScanID)
		if err != nil {
			return db.MapError(err, "", "reload scanned invoice")
		}
		for _, line := range stored.Items {
			item, err := repo.LockItem(ctx, line.ItemID)
			if err != nil {
				return db.MapError(err, fmt.Sprintf("Item with id %d not found.", line.ItemID), "reload item")
			}
			if err := repo.IncrementStock(ctx, item.ItemID, line.Quantity); err != nil {
				return db.MapError(err, "", "increment item stock")
			}
			lineID := line.ScannedInvoiceItemID
			if _, err := s.adjustments.Record(ctx, tx, adjustments.RecordInput{
				ItemID:               item.ItemID,
				OldQuantity:          item.Quantity,
				NewQuantity:          item.Quantity + line.Quantity,
				Type:                 enums.AdjustmentTypeInvoice,
				ScannedInvoiceItemID: &lineID,
			}); err != nil {
				return err
			}
		}

		result = &ReceiptResult{Message: successMessage, ScanID: stored.ScanID, Invoice: stored}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.ScannedInvoice, error) {
	invoice, err := s.repo.FindInvoice(ctx, id)
	if err != nil {
		return nil, db.MapError(err, fmt.Sprintf("invoice with id %d not found.", id), "load scanned invoice")
	}
	return invoice, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.ScannedInvoice, error) {
	invoices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, db.MapError(err, "", "list scanned invoices")
	}
	return invoices, nil
}

// lockOrder returns the distinct item ids of lines in ascending order.
func lockOrder(lines []LineInput) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ItemID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func validateInput(input InvoiceInput) error {
	if input.InvoiceNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice_number is required")
	}
	if input.VendorID <= 0 || input.ScannedBy <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor_id and scanned_by must be positive")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "items must contain at least one line")
	}
	for i, line := range input.Lines {
		if line.ItemID <= 0 || line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invoice line has an invalid item or quantity").
				WithDetails(map[string]any{"line_number": i + 1, "item_id": line.ItemID, "quantity": line.Quantity})
		}
	}
	return nil
}
