package pagination

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 100
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 500
)

// ListParams holds the limit/order_by/ascending inputs shared by every list endpoint.
type ListParams struct {
	Limit     int
	OrderBy   string
	Ascending bool
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Ordering whitelists the sortable columns of one table. The first column is the fallback.
type Ordering struct {
	columns []string
}

func NewOrdering(columns ...string) Ordering {
	return Ordering{columns: columns}
}

// Column resolves a requested column, falling back to the default when unknown.
func (o Ordering) Column(requested string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	for _, col := range o.columns {
		if col == requested {
			return col
		}
	}
	if len(o.columns) == 0 {
		return ""
	}
	return o.columns[0]
}

// Scope applies ordering and limit to a GORM query.
func (o Ordering) Scope(params ListParams) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if col := o.Column(params.OrderBy); col != "" {
			q = q.Order(clause.OrderByColumn{
				Column: clause.Column{Name: col},
				Desc:   !params.Ascending,
			})
		}
		return q.Limit(NormalizeLimit(params.Limit))
	}
}
