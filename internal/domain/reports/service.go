package reports

import (
	"context"
	"time"

	"librepos/internal/core/types"
)

// Service provides reporting operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// DailyTotal returns the sum of sale totals for the calendar day of t.
func (s *Service) DailyTotal(ctx context.Context, t time.Time) (types.Money, error) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	summary, err := s.repo.SummarizeSales(ctx, start, end)
	if err != nil {
		return types.ZeroMoney(), err
	}
	return summary.Total, nil
}

// SalesSummary aggregates sales over an arbitrary period.
func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	return s.repo.SummarizeSales(ctx, from, to)
}

// Inventory returns current stock positions, optionally filtered.
func (s *Service) Inventory(ctx context.Context, filter InventoryFilter) ([]InventoryRow, error) {
	return s.repo.InventorySnapshot(ctx, filter)
}
