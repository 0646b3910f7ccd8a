// Package sale_repo provides the PostgreSQL implementation of the sale
// repository.
package sale_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/domain/sale"
	"librepos/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sales"
	saleLinesTable = "sale_lines"
)

var saleColumns = []string{"id", "number", "timestamp", "total", "payment_method"}

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	txm *postgres.TxManager
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{txm: txm}
}

var _ sale.Repository = (*SaleRepo)(nil)

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *SaleRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateHeader inserts the sale header row.
func (r *SaleRepo) CreateHeader(ctx context.Context, s *sale.Sale) error {
	q := r.Builder().
		Insert(salesTable).
		Columns(saleColumns...).
		Values(s.ID, s.Number, s.Timestamp, s.Total, s.PaymentMethod)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("sale", "number", s.Number)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	return nil
}

// InsertLines bulk-inserts the sale's lines.
func (r *SaleRepo) InsertLines(ctx context.Context, saleID id.ID, lines []sale.Line) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(saleLinesTable).
		Columns("id", "sale_id", "line_no", "product_id", "quantity", "unit_price")

	for _, line := range lines {
		q = q.Values(line.ID, saleID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}

	return nil
}

// GetByID retrieves a sale header by id.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": saleID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale by id: %w", err)
	}

	return &s, nil
}

// GetLines retrieves a sale's lines ordered by line number.
func (r *SaleRepo) GetLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	q := r.Builder().
		Select("id", "sale_id", "line_no", "product_id", "quantity", "unit_price").
		From(saleLinesTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []sale.Line
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}

	return lines, nil
}

// ListAll retrieves all sale headers, newest first.
func (r *SaleRepo) ListAll(ctx context.Context) ([]*sale.Sale, error) {
	q := r.baseSelect().OrderBy("timestamp DESC")
	return r.selectSales(ctx, q)
}

// ListByDateRange retrieves sale headers within [from, to], newest first.
func (r *SaleRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*sale.Sale, error) {
	q := r.baseSelect().
		Where(squirrel.GtOrEq{"timestamp": from}).
		Where(squirrel.LtOrEq{"timestamp": to}).
		OrderBy("timestamp DESC")
	return r.selectSales(ctx, q)
}

func (r *SaleRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(saleColumns...).
		From(salesTable)
}

func (r *SaleRepo) selectSales(ctx context.Context, q squirrel.SelectBuilder) ([]*sale.Sale, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sales []*sale.Sale
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sales, sql, args...); err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}

	return sales, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
