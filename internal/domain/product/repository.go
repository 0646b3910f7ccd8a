package product

import (
	"context"
	"time"

	"librepos/internal/core/id"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ID) error
	List(ctx context.Context, filter ListFilter) ([]*Product, error)

	// NextCode returns the next generated product code (P%06d), derived
	// from the highest existing generated code.
	NextCode(ctx context.Context) (string, error)
}

// StockGateway exposes the stock operations the sale engine depends on.
// ApplyDelta must be atomic per call; the sale coordinator does not
// coordinate multiple deltas against each other beyond that.
type StockGateway interface {
	// GetStock returns current stock for a product, NotFound if absent.
	GetStock(ctx context.Context, productID id.ID) (int, error)

	// HasAvailable reports whether quantity units are on hand.
	HasAvailable(ctx context.Context, productID id.ID, quantity int) (bool, error)

	// ApplyDelta adds signedQuantity to the product's stock in a single
	// atomic statement. Fails with InsufficientStock if the result would
	// be negative, NotFound if the product does not exist.
	ApplyDelta(ctx context.Context, productID id.ID, signedQuantity int) error
}

// ListFilter for filtering product listings.
type ListFilter struct {
	Search       string
	Category     string
	MaxStock     *int // inclusive upper bound, used for low-stock reports
	Limit        int
	Offset       int
	ModifiedFrom *time.Time
}
