package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

const LowStockJobName = "low-stock-scan"

type lowStockReporter interface {
	LowStock(ctx context.Context, limit int) ([]items.LowStockItem, error)
}

// LowStockJobParams wires the low stock scan.
type LowStockJobParams struct {
	Logger  *logger.Logger
	Items   lowStockReporter
	Metrics *metrics.CronJobMetrics
	Limit   int
}

// LowStockJob publishes how many items sit at or below their threshold.
type LowStockJob struct {
	logg    *logger.Logger
	items   lowStockReporter
	metrics *metrics.CronJobMetrics
	limit   int
}

func NewLowStockJob(params LowStockJobParams) (*LowStockJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Items == nil {
		return nil, fmt.Errorf("item service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = pagination.MaxLimit
	}
	return &LowStockJob{
		logg:    params.Logger,
		items:   params.Items,
		metrics: params.Metrics,
		limit:   limit,
	}, nil
}

func (j *LowStockJob) Name() string { return LowStockJobName }

func (j *LowStockJob) Run(ctx context.Context) error {
	report, err := j.items.LowStock(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("list low stock items: %w", err)
	}
	j.metrics.SetLowStockItems(len(report))
	for _, entry := range report {
		itemCtx := j.logg.WithFields(ctx, map[string]any{
			"item_id":             entry.ItemID,
			"item_code":           entry.ItemCode,
			"quantity":            entry.Quantity,
			"low_stock_threshold": entry.LowStockThreshold,
			"coverage":            entry.Coverage.String(),
		})
		j.logg.Warn(itemCtx, "inventory.low_stock")
	}
	j.logg.Info(j.logg.WithField(ctx, "low_stock_items", len(report)), "inventory.low_stock.scanned")
	return nil
}
