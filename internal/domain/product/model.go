// Package product provides the product catalog and stock state.
// The sale engine treats stock as owned here: availability checks and
// stock deltas go through the StockGateway contract, never through
// direct row updates elsewhere.
package product

import (
	"context"
	"strings"
	"time"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/core/types"
)

// Product represents a sellable item with its current price and stock.
type Product struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the human-facing product code (e.g. P000001), generated when absent
	Code string `db:"code" json:"code"`

	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category"`

	// Price is the current unit price. Sales snapshot this value at sale
	// time; changing it never affects historical sales.
	Price types.Money `db:"price" json:"price"`

	// Stock is the current on-hand quantity
	Stock int `db:"stock" json:"stock"`

	Description string `db:"description" json:"description,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a product with required fields and timestamps.
func New(code, name, category string, price types.Money, stock int) *Product {
	now := time.Now().UTC()
	return &Product{
		ID:        id.New(),
		Code:      code,
		Name:      name,
		Category:  category,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks product invariants.
func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("product name is required").
			WithDetail("field", "name")
	}
	if strings.TrimSpace(p.Category) == "" {
		return apperror.NewValidation("product category is required").
			WithDetail("field", "category")
	}
	if !p.Price.IsPositive() {
		return apperror.NewValidation("product price must be greater than zero").
			WithDetail("field", "price")
	}
	if p.Stock < 0 {
		return apperror.NewValidation("product stock cannot be negative").
			WithDetail("field", "stock")
	}
	return nil
}

// Touch updates the UpdatedAt timestamp.
func (p *Product) Touch() {
	p.UpdatedAt = time.Now().UTC()
}
