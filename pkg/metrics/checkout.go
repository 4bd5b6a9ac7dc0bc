package metrics

import (
	"time"

	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Stock operation outcomes used as label values.
const (
	OutcomeSuccess           = "success"
	OutcomeValidation        = "validation"
	OutcomeNotFound          = "not_found"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

// StockMetrics tracks checkout and receiving activity.
type StockMetrics struct {
	outcomes  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	retries   *prometheus.CounterVec
	movements *prometheus.CounterVec
}

// NewStockMetrics registers the stock movement metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_stock_operations_total",
		Help: "Checkout and receiving operations by outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockroom_stock_operation_duration_seconds",
		Help:    "End to end duration of stock operations including retries.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_stock_operation_retries_total",
		Help: "Transactions retried after lock contention.",
	}, []string{"operation"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_stock_units_moved_total",
		Help: "Units moved in or out of stock by adjustment type.",
	}, []string{"adjustment_type"})
	reg.MustRegister(outcomes, duration, retries, movements)
	return &StockMetrics{
		outcomes:  outcomes,
		duration:  duration,
		retries:   retries,
		movements: movements,
	}
}

// Observe records the outcome and duration of one operation.
func (s *StockMetrics) Observe(operation, outcome string, duration time.Duration) {
	if s == nil || s.outcomes == nil {
		return
	}
	s.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
	s.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncRetry counts a retried transaction attempt.
func (s *StockMetrics) IncRetry(operation string) {
	if s == nil || s.retries == nil {
		return
	}
	s.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

// AddUnits counts units moved for an adjustment type.
func (s *StockMetrics) AddUnits(adjustmentType string, units int) {
	if s == nil || s.movements == nil || units <= 0 {
		return
	}
	s.movements.WithLabelValues(normalizeLabel(adjustmentType)).Add(float64(units))
}

// OutcomeFor classifies an operation error into an outcome label.
func OutcomeFor(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return OutcomeError
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation:
		return OutcomeValidation
	case pkgerrors.CodeNotFound:
		return OutcomeNotFound
	case pkgerrors.CodeInsufficientStock:
		return OutcomeInsufficientStock
	case pkgerrors.CodeConflict:
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
