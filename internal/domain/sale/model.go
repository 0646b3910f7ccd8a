// Package sale provides the sale transaction engine: the coordinator,
// the persistence contract, and the sale/line data model.
//
// A sale is born in memory as a candidate (no id, no number), validated,
// then persisted. Persistence assigns id and number and is the only
// mutation point; after that the record is append-only.
package sale

import (
	"context"
	"strings"
	"time"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/core/types"
	"librepos/internal/domain/product"
)

// Sale is a finalized, immutable-after-creation transaction record.
type Sale struct {
	// ID is assigned at persist time; nil for candidates
	ID id.ID `db:"id" json:"id"`

	// Number is the human-facing unique number, V<YYYYMMDD>-<4 digits>,
	// scoped to the calendar day it was generated on. Assigned once.
	Number string `db:"number" json:"number"`

	// Timestamp is the creation instant, defaulting to "now"
	Timestamp time.Time `db:"timestamp" json:"timestamp"`

	// Total is derived from the lines. The stored column is a cache;
	// RecalculateTotal is the only writer and readers recompute it.
	Total types.Money `db:"total" json:"total"`

	// PaymentMethod is a non-empty free-form label (e.g. EFECTIVO).
	// The domain is deliberately open; no enum is enforced.
	PaymentMethod string `db:"payment_method" json:"paymentMethod"`

	// Lines in insertion order. Stored flat in their own table; each line
	// refers back to the sale by id only, never by a live handle.
	Lines []Line `db:"-" json:"lines"`
}

// Line is one product+quantity+price-snapshot entry within a sale.
type Line struct {
	ID     id.ID `db:"id" json:"id"`
	SaleID id.ID `db:"sale_id" json:"saleId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int   `db:"quantity" json:"quantity"`

	// UnitPrice is the price snapshot captured when the line was created.
	// Later product price changes never alter it.
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// Product is the current product snapshot resolved on read. Name and
	// category may drift from what they were at sale time; only
	// UnitPrice and Quantity are historically frozen.
	Product *product.Product `db:"-" json:"product,omitempty"`
}

// Subtotal is always recomputed, never stored as a negotiated value.
func (l Line) Subtotal() types.Money {
	return types.MoneyFromIntQty(l.UnitPrice, l.Quantity)
}

// NewCandidate builds an unpersisted sale. A zero timestamp defaults to now.
func NewCandidate(paymentMethod string, timestamp time.Time) *Sale {
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	return &Sale{
		Timestamp:     timestamp,
		PaymentMethod: paymentMethod,
		Lines:         make([]Line, 0),
	}
}

// AddLine appends a line with a price snapshot and recalculates the total.
func (s *Sale) AddLine(productID id.ID, quantity int, unitPrice types.Money) {
	s.Lines = append(s.Lines, Line{
		ID:        id.New(),
		LineNo:    len(s.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	s.RecalculateTotal()
}

// RecalculateTotal recomputes the total from the lines.
// Invariant: Total == Σ line subtotals for every fully constructed sale.
func (s *Sale) RecalculateTotal() {
	total := types.ZeroMoney()
	for _, line := range s.Lines {
		total = total.Add(line.Subtotal())
	}
	s.Total = total
}

// Validate checks sale invariants, failing fast on the first violation.
// Order matters: an empty basket is reported before a missing payment method.
func (s *Sale) Validate(ctx context.Context) error {
	if len(s.Lines) == 0 {
		return apperror.NewValidation("sale must have at least one line item").
			WithDetail("field", "lines")
	}

	if strings.TrimSpace(s.PaymentMethod) == "" {
		return apperror.NewValidation("payment method is required").
			WithDetail("field", "paymentMethod")
	}

	for i, line := range s.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
