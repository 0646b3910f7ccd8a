package product

import (
	"context"
	"fmt"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/pkg/logger"
)

// Service provides business operations for the product catalog.
type Service struct {
	repo  Repository
	stock StockGateway
}

// NewService creates a new product service.
func NewService(repo Repository, stock StockGateway) *Service {
	return &Service{
		repo:  repo,
		stock: stock,
	}
}

// Create validates and persists a new product.
// A product code is generated when the caller does not supply one.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	if p.Code == "" {
		code, err := s.repo.NextCode(ctx)
		if err != nil {
			return fmt.Errorf("generate product code: %w", err)
		}
		p.Code = code
	} else if existing, err := s.repo.GetByCode(ctx, p.Code); err == nil && existing.ID != p.ID {
		return apperror.NewDuplicate("product", "code", p.Code)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "id", p.ID, "code", p.Code)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// Update validates and persists product changes.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	p.Touch()
	return s.repo.Update(ctx, p)
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	return s.repo.Delete(ctx, productID)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}

// AdjustStock applies a signed stock delta to a product.
func (s *Service) AdjustStock(ctx context.Context, productID id.ID, delta int) error {
	if err := s.stock.ApplyDelta(ctx, productID, delta); err != nil {
		return err
	}
	logger.Info(ctx, "stock adjusted", "product_id", productID, "delta", delta)
	return nil
}

// Availability returns current stock for a product.
func (s *Service) Availability(ctx context.Context, productID id.ID) (int, error) {
	return s.stock.GetStock(ctx, productID)
}
