// Package reports provides read-only sales and inventory reporting.
package reports

import (
	"time"

	"librepos/internal/core/types"
)

// SalesSummary aggregates sales over a period.
type SalesSummary struct {
	From  time.Time   `json:"from"`
	To    time.Time   `json:"to"`
	Count int64       `json:"count"`
	Total types.Money `json:"total"`
}

// InventoryRow is one product's stock position.
type InventoryRow struct {
	ProductID string      `db:"product_id" json:"productId"`
	Code      string      `db:"code" json:"code"`
	Name      string      `db:"name" json:"name"`
	Category  string      `db:"category" json:"category"`
	Price     types.Money `db:"price" json:"price"`
	Stock     int         `db:"stock" json:"stock"`
}

// InventoryFilter narrows the inventory report.
type InventoryFilter struct {
	Category string
	MaxStock *int // inclusive; set to report low-stock items only
}
