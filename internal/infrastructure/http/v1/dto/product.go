package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"librepos/internal/domain/product"
)

// CreateProductRequest for creating products. A blank code gets the
// next generated one.
type CreateProductRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
}

// ToEntity maps the DTO to a new product.
func (r CreateProductRequest) ToEntity() *product.Product {
	p := product.New(r.Code, r.Name, r.Category, r.Price, r.Stock)
	p.Description = r.Description
	return p
}

// UpdateProductRequest for updating products. Nil fields are left as-is.
type UpdateProductRequest struct {
	Code        *string          `json:"code"`
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Description *string          `json:"description"`
}

// ApplyTo applies non-nil fields to an existing product.
func (r UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
}

// AdjustStockRequest applies a signed stock delta.
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ProductResponse is a catalog product.
type ProductResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromProduct creates ProductResponse from a product.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID.String(),
		Code:        p.Code,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// FromProducts creates a slice of ProductResponse.
func FromProducts(products []*product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}

// StockResponse reports a product's current stock.
type StockResponse struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}
