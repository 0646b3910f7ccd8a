package sale

import (
	"context"
	"time"

	"librepos/internal/core/id"
)

// Repository defines persistence operations for sales.
//
// CreateHeader and InsertLines are expected to run inside one ambient
// transaction managed by the coordinator; together they form the atomic
// sale write. Either the header and all of its lines exist, or none do.
type Repository interface {
	// CreateHeader inserts the sale header row.
	CreateHeader(ctx context.Context, s *Sale) error

	// InsertLines bulk-inserts the sale's lines referencing its id.
	InsertLines(ctx context.Context, saleID id.ID, lines []Line) error

	// GetByID retrieves a sale header; NotFound if absent.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetLines retrieves a sale's lines ordered by line number.
	GetLines(ctx context.Context, saleID id.ID) ([]Line, error)

	// ListAll retrieves all sale headers ordered by timestamp descending.
	ListAll(ctx context.Context) ([]*Sale, error)

	// ListByDateRange retrieves sale headers with from <= timestamp <= to,
	// ordered by timestamp descending.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*Sale, error)
}
