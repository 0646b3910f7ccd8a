package sale

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/core/tx"
	"librepos/internal/domain/product"
	"librepos/internal/domain/sequence"
	"librepos/pkg/logger"
)

// LineRequest identifies a product and quantity in a sale request.
// The unit price is never caller-supplied; it is snapshotted from the
// product's current price during validation.
type LineRequest struct {
	ProductID id.ID
	Quantity  int
}

// PlaceSaleRequest is the input for placing a sale.
type PlaceSaleRequest struct {
	PaymentMethod string

	// Timestamp of the sale; zero means now.
	Timestamp time.Time

	Lines []LineRequest
}

// Service is the sale transaction coordinator. It validates a request,
// obtains a sale number, persists the sale atomically, then applies
// stock deltas for each line.
//
// Sales are append-only: Update and Delete always fail.
type Service struct {
	repo      Repository
	products  product.Repository
	stock     product.StockGateway
	generator sequence.Generator
	txManager tx.Manager

	// genMu makes number generation mutually exclusive across concurrent
	// callers: only one caller may be between "read max number for today"
	// and "insert the row using that number" at a time. One process-wide
	// lock, deliberately coarse; sale creation is not a hot path.
	genMu sync.Mutex

	// now is replaceable in tests to pin the generation day.
	now func() time.Time
}

// NewService creates a new sale coordinator.
func NewService(
	repo Repository,
	products product.Repository,
	stock product.StockGateway,
	generator sequence.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		stock:     stock,
		generator: generator,
		txManager: txManager,
		now:       time.Now,
	}
}

// PlaceSale validates the request, persists the sale with a generated
// number in one transaction, then applies a negative stock delta per line.
//
// Validation is fail-fast in request order: empty basket, missing payment
// method, then per-line stock availability; the first insufficient line
// aborts with an error naming the product and later lines are not checked.
//
// The stock adjustment happens after commit, outside the sale's
// transaction. If a delta fails, the returned Sale is non-nil and remains
// committed, and the error is a distinct STOCK_ADJUSTMENT_ERROR so the
// caller can tell "sale failed" from "sale succeeded, stock inconsistent".
func (s *Service) PlaceSale(ctx context.Context, req PlaceSaleRequest) (*Sale, error) {
	candidate, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	s.genMu.Lock()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		res, err := s.generator.Next(ctx, s.now())
		if err != nil {
			return err
		}
		if res.SuffixReset {
			logger.Warn(ctx, "stored sale number had malformed suffix, sequence reset",
				"number", res.Number,
			)
		}

		candidate.ID = id.New()
		candidate.Number = res.Number
		for i := range candidate.Lines {
			candidate.Lines[i].SaleID = candidate.ID
		}

		if err := s.repo.CreateHeader(ctx, candidate); err != nil {
			return fmt.Errorf("create sale header: %w", err)
		}
		if err := s.repo.InsertLines(ctx, candidate.ID, candidate.Lines); err != nil {
			return fmt.Errorf("insert sale lines: %w", err)
		}
		return nil
	})
	s.genMu.Unlock()

	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewPersistence(err)
	}

	logger.Info(ctx, "sale created",
		"id", candidate.ID,
		"number", candidate.Number,
		"total", candidate.Total,
		"lines", len(candidate.Lines),
	)

	// Stock deltas run after commit and are not atomic with the sale
	// write. A failure here leaves the sale committed.
	for _, line := range candidate.Lines {
		if err := s.stock.ApplyDelta(ctx, line.ProductID, -line.Quantity); err != nil {
			logger.Error(ctx, "stock adjustment failed after sale commit",
				"sale_number", candidate.Number,
				"product_id", line.ProductID,
				"error", err,
			)
			return candidate, apperror.NewStockAdjustment(
				candidate.Number, line.ProductID.String(), err,
			)
		}
	}

	return candidate, nil
}

// validate checks the request in order (basket, payment method, per-line
// stock) and builds the candidate sale with unit prices snapshotted from
// current product prices. The first failure wins.
func (s *Service) validate(ctx context.Context, req PlaceSaleRequest) (*Sale, error) {
	if len(req.Lines) == 0 {
		return nil, apperror.NewValidation("sale must have at least one line item").
			WithDetail("field", "lines")
	}

	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, apperror.NewValidation("payment method is required").
			WithDetail("field", "paymentMethod")
	}

	candidate := NewCandidate(req.PaymentMethod, req.Timestamp)

	for i, lr := range req.Lines {
		if lr.Quantity <= 0 {
			return nil, apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}

		p, err := s.products.GetByID(ctx, lr.ProductID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewValidation("unknown product in sale").
					WithDetail("productId", lr.ProductID.String()).
					WithDetail("lineNo", i+1)
			}
			return nil, err
		}

		ok, err := s.stock.HasAvailable(ctx, p.ID, lr.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewValidation(
				fmt.Sprintf("insufficient stock for product %s", p.Name),
			).
				WithDetail("productId", p.ID.String()).
				WithDetail("requested", lr.Quantity)
		}

		candidate.AddLine(p.ID, lr.Quantity, p.Price)
	}

	if err := candidate.Validate(ctx); err != nil {
		return nil, err
	}

	return candidate, nil
}

// GetByID retrieves a sale with lines and resolved product snapshots.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	found, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := s.loadDetails(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

// ListAll retrieves all sales ordered by timestamp descending.
func (s *Service) ListAll(ctx context.Context) ([]*Sale, error) {
	sales, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, sl := range sales {
		if err := s.loadDetails(ctx, sl); err != nil {
			return nil, err
		}
	}
	return sales, nil
}

// ListByDateRange retrieves sales in [from, to] ordered by timestamp descending.
func (s *Service) ListByDateRange(ctx context.Context, from, to time.Time) ([]*Sale, error) {
	sales, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, sl := range sales {
		if err := s.loadDetails(ctx, sl); err != nil {
			return nil, err
		}
	}
	return sales, nil
}

// Update always fails: sales are append-only.
func (s *Service) Update(ctx context.Context, _ *Sale) error {
	return apperror.NewUnsupported("sales cannot be updated")
}

// Delete always fails: sales are append-only.
func (s *Service) Delete(ctx context.Context, _ id.ID) error {
	return apperror.NewUnsupported("sales cannot be deleted")
}

// loadDetails attaches lines and current product snapshots, then
// recomputes the total from the lines. The stored total column is a
// cache only; reads always derive it.
func (s *Service) loadDetails(ctx context.Context, sl *Sale) error {
	lines, err := s.repo.GetLines(ctx, sl.ID)
	if err != nil {
		return fmt.Errorf("get lines for sale %s: %w", sl.ID, err)
	}

	for i := range lines {
		p, err := s.products.GetByID(ctx, lines[i].ProductID)
		if err != nil {
			if apperror.IsNotFound(err) {
				// Product removed from the catalog after the sale; price
				// and quantity on the line are still authoritative.
				continue
			}
			return err
		}
		lines[i].Product = p
	}

	sl.Lines = lines
	sl.RecalculateTotal()
	return nil
}
