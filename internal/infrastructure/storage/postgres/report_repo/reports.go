// Package report_repo provides the PostgreSQL implementation of the
// read-only report queries.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"librepos/internal/domain/reports"
	"librepos/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ reports.Repository = (*ReportRepo)(nil)

// SummarizeSales aggregates sale count and total over [from, to].
// The total is recomputed from the lines, not read from the cached
// header column, so drifted caches cannot skew the report.
func (r *ReportRepo) SummarizeSales(ctx context.Context, from, to time.Time) (reports.SalesSummary, error) {
	summary := reports.SalesSummary{From: from, To: to}

	const query = `
		SELECT
			COUNT(DISTINCT s.id) AS count,
			COALESCE(SUM(l.unit_price * l.quantity), 0) AS total
		FROM sales s
		LEFT JOIN sale_lines l ON l.sale_id = s.id
		WHERE s.timestamp >= $1 AND s.timestamp <= $2`

	querier := r.txm.GetQuerier(ctx)

	var total decimal.Decimal
	if err := querier.QueryRow(ctx, query, from, to).Scan(&summary.Count, &total); err != nil {
		return summary, fmt.Errorf("summarize sales: %w", err)
	}
	summary.Total = total

	return summary, nil
}

// InventorySnapshot lists current product stock positions.
func (r *ReportRepo) InventorySnapshot(ctx context.Context, filter reports.InventoryFilter) ([]reports.InventoryRow, error) {
	q := r.builder.
		Select("id AS product_id", "code", "name", "category", "price", "stock").
		From("products")

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	if filter.MaxStock != nil {
		q = q.Where(squirrel.LtOrEq{"stock": *filter.MaxStock})
	}

	q = q.OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []reports.InventoryRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("inventory snapshot: %w", err)
	}

	return rows, nil
}
