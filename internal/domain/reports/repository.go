package reports

import (
	"context"
	"time"
)

// Repository defines the read-only queries behind the reports.
type Repository interface {
	// SummarizeSales aggregates count and total over [from, to].
	SummarizeSales(ctx context.Context, from, to time.Time) (SalesSummary, error)

	// InventorySnapshot lists current product stock positions.
	InventorySnapshot(ctx context.Context, filter InventoryFilter) ([]InventoryRow, error)
}
