package dto

import (
	"time"

	"librepos/internal/domain/reports"
)

// DailyTotalResponse is the sum of sales for one calendar day.
type DailyTotalResponse struct {
	Date  string `json:"date"`
	Total string `json:"total"`
}

// SalesSummaryResponse aggregates sales over a period.
type SalesSummaryResponse struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Count int64     `json:"count"`
	Total string    `json:"total"`
}

// FromSalesSummary creates SalesSummaryResponse from the domain summary.
func FromSalesSummary(s reports.SalesSummary) SalesSummaryResponse {
	return SalesSummaryResponse{
		From:  s.From,
		To:    s.To,
		Count: s.Count,
		Total: s.Total.String(),
	}
}

// InventoryRowResponse is one product's stock position.
type InventoryRowResponse struct {
	ProductID string `json:"productId"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Price     string `json:"price"`
	Stock     int    `json:"stock"`
}

// FromInventoryRows creates the inventory report response.
func FromInventoryRows(rows []reports.InventoryRow) []InventoryRowResponse {
	out := make([]InventoryRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, InventoryRowResponse{
			ProductID: r.ProductID,
			Code:      r.Code,
			Name:      r.Name,
			Category:  r.Category,
			Price:     r.Price.String(),
			Stock:     r.Stock,
		})
	}
	return out
}
