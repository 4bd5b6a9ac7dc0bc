package checkout

import (
	"context"
	"fmt"
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
	operationName  = "checkout"
	successMessage = "Checkout processed successfully"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type adjustmentRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input adjustments.RecordInput) (*models.InventoryAdjustmentLog, error)
}

// Service processes checkout transactions.
type Service interface {
	Process(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	Get(ctx context.Context, id int64) (*models.CheckoutTransaction, error)
	List(ctx context.Context, filter ListFilter) ([]models.CheckoutTransaction, error)
}

// CheckoutInput is a request to withdraw stock on behalf of an employee.
type CheckoutInput struct {
	EmployeeID   int64
	DepartmentID int64
	Lines        []LineInput
}

// LineInput is one requested item and quantity, in request order.
type LineInput struct {
	ItemID   int64
	Quantity int
}

// CheckoutResult is returned after the unit of work commits.
type CheckoutResult struct {
	Message       string
	TransactionID int64
	Transaction   *models.CheckoutTransaction
}

// ServiceParams wires the checkout service.
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

// resolvedLine is a validated line with its own category and unit snapshot.
type resolvedLine struct {
	LineInput
	Category      int64
	UnitOfMeasure int64
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Adjustments == nil {
		return nil, fmt.Errorf("adjustment recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		tx:          params.TX,
		repo:        params.Repo,
		adjustments: params.Adjustments,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}
	s.retry = db.RetryPolicy{
		MaxAttempts: params.MaxAttempts,
		Backoff:     params.RetryBackoff,
	}
	return s, nil
}

func (s *service) Process(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	start := time.Now()
	ctx = s.logg.WithFields(ctx, map[string]any{
		"employee_id":   input.EmployeeID,
		"department_id": input.DepartmentID,
		"line_count":    len(input.Lines),
	})

	var result *CheckoutResult
	err := validateInput(input)
	if err == nil {
		policy := s.retry
		policy.OnRetry = func(attempt int, retryErr error) {
			s.onRetry(ctx, attempt, retryErr)
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
		s.logFailure(ctx, outcome, err)
		return nil, err
	}

	units := 0
	for _, line := range input.Lines {
		units += line.Quantity
	}
	s.metrics.AddUnits(string(enums.AdjustmentTypeCheckout), units)
	s.logg.Info(s.logg.WithField(ctx, "transaction_id", result.TransactionID), "checkout.processed")
	return result, nil
}

// run executes validation and every write inside one transaction.
func (s *service) run(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	var result *CheckoutResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lines, err := s.validate(ctx, repo, input)
		if err != nil {
			return err
		}

		header := &models.CheckoutTransaction{
			EmployeeID:   input.EmployeeID,
			DepartmentID: input.DepartmentID,
			TotalItems:   len(lines),
		}
		if err := repo.CreateTransaction(ctx, header); err != nil {
			return db.MapError(err, "", "insert checkout transaction")
		}

		rows := make([]models.CheckoutItem, len(lines))
		for i, line := range lines {
			rows[i] = models.CheckoutItem{
				TransactionID: header.TransactionID,
				LineNumber:    i + 1,
				ItemID:        line.ItemID,
				Quantity:      line.Quantity,
				CategoryID:    line.Category,
				UnitOfMeasure: line.UnitOfMeasure,
			}
		}
		if err := repo.CreateLines(ctx, rows); err != nil {
			return db.MapError(err, "", "insert checkout lines")
		}

		stored, err := repo.FindTransaction(ctx, header.TransactionID)
		if err != nil {
			return db.MapError(err, "", "reload checkout transaction")
		}
		if len(stored.CheckoutItems) != len(lines) {
			return pkgerrors.New(pkgerrors.CodeInternal, "checkout lines were not persisted")
		}

		if err := s.applyStock(ctx, tx, repo, stored); err != nil {
			return err
		}

		result = &CheckoutResult{
			Message:       successMessage,
			TransactionID: stored.TransactionID,
			Transaction:   stored,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// validate checks every reference and the stock of every line before anything is written.
func (s *service) validate(ctx context.Context, repo Repository, input CheckoutInput) ([]resolvedLine, error) {
	if _, err := repo.FindEmployee(ctx, input.EmployeeID); err != nil {
		return nil, db.MapError(err, fmt.Sprintf("Employee with id %d not found.", input.EmployeeID), "load employee")
	}
	if _, err := repo.FindDepartment(ctx, input.DepartmentID); err != nil {
		return nil, db.MapError(err, fmt.Sprintf("Department with id %d not found.", input.DepartmentID), "load department")
	}

	demand := make(map[int64]int, len(input.Lines))
	lines := make([]resolvedLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		item, err := repo.FindItem(ctx, line.ItemID)
		if err != nil {
			return nil, db.MapError(err, fmt.Sprintf("Item with id %d not found.", line.ItemID), "load item")
		}

		demand[item.ItemID] += line.Quantity
		if item.Quantity < demand[item.ItemID] {
			return nil, insufficientStock(item, demand[item.ItemID], "validation")
		}

		category, err := repo.FindCategory(ctx, item.Category)
		if err != nil {
			return nil, db.MapError(err, fmt.Sprintf("Item category with id %d not found.", item.Category), "load item category")
		}
		unit, err := repo.FindUnit(ctx, item.UnitOfMeasure)
		if err != nil {
			return nil, db.MapError(err, fmt.Sprintf("Unit of measure with id %d not found.", item.UnitOfMeasure), "load unit of measure")
		}

		lines = append(lines, resolvedLine{
			LineInput:     line,
			Category:      category.CategoryID,
			UnitOfMeasure: unit.UOMID,
		})
	}
	return lines, nil
}

// applyStock decrements each line's item under a row lock and logs the change.
func (s *service) applyStock(ctx context.Context, tx *gorm.DB, repo Repository, txn *models.CheckoutTransaction) error {
	ids := make([]int64, 0, len(txn.CheckoutItems))
	seen := make(map[int64]struct{}, len(txn.CheckoutItems))
	for _, line := range txn.CheckoutItems {
		if _, ok := seen[line.ItemID]; ok {
			continue
		}
		seen[line.ItemID] = struct{}{}
		ids = append(ids, line.ItemID)
	}
	if _, err := repo.LockItems(ctx, ids); err != nil {
		return db.MapError(err, "", "lock items")
	}

	for _, line := range txn.CheckoutItems {
		item, err := repo.LockItem(ctx, line.ItemID)
		if err != nil {
			return db.MapError(err, fmt.Sprintf("Item with id %d not found.", line.ItemID), "reload item")
		}

		oldQty := item.Quantity
		newQty := oldQty - line.Quantity
		if newQty < 0 {
			return insufficientStock(item, line.Quantity, "mutation")
		}
		applied, err := repo.DecrementStock(ctx, item.ItemID, line.Quantity)
		if err != nil {
			return db.MapError(err, "", "decrement item stock")
		}
		if !applied {
			return insufficientStock(item, line.Quantity, "mutation")
		}

		checkoutItemID := line.CheckoutItemID
		if _, err := s.adjustments.Record(ctx, tx, adjustments.RecordInput{
			ItemID:         item.ItemID,
			OldQuantity:    oldQty,
			NewQuantity:    newQty,
			Type:           enums.AdjustmentTypeCheckout,
			CheckoutItemID: &checkoutItemID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.CheckoutTransaction, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id must be positive")
	}
	txn, err := s.repo.FindTransaction(ctx, id)
	if err != nil {
		return nil, db.MapError(err, fmt.Sprintf("transaction with id %d not found.", id), "load checkout transaction")
	}
	return txn, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.CheckoutTransaction, error) {
	txns, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, db.MapError(err, "", "list checkout transactions")
	}
	return txns, nil
}

func (s *service) onRetry(ctx context.Context, attempt int, err error) {
	s.metrics.IncRetry(operationName)
	ctx = s.logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": err.Error()})
	s.logg.Warn(ctx, "checkout.retry")
}

func (s *service) logFailure(ctx context.Context, outcome string, err error) {
	if outcome == metrics.OutcomeError {
		s.logg.Error(ctx, "checkout.failed", err)
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"outcome": outcome, "error": err.Error()})
	s.logg.Warn(ctx, "checkout.rejected")
}

func validateInput(input CheckoutInput) error {
	if input.EmployeeID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "employee_id must be positive")
	}
	if input.DepartmentID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "department_id must be positive")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout_items must contain at least one line")
	}
	for i, line := range input.Lines {
		if line.ItemID <= 0 || line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "checkout line has an invalid item or quantity").
				WithDetails(map[string]any{"line_number": i + 1, "item_id": line.ItemID, "quantity": line.Quantity})
		}
	}
	return nil
}

func insufficientStock(item *models.Item, requested int, stage string) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("Item %s has only %d in stock.", item.Name, item.Quantity)).
		WithDetails(map[string]any{
			"item_id":   item.ItemID,
			"available": item.Quantity,
			"requested": requested,
			"step":      stage,
		})
}
