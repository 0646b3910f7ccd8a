// Package sequence provides the PostgreSQL-backed sale number generator.
package sequence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"librepos/internal/core/apperror"
	"librepos/internal/domain/sequence"
	"librepos/internal/infrastructure/storage/postgres"
)

// QuerierProvider yields the executor bound to the ambient transaction.
type QuerierProvider interface {
	GetQuerier(ctx context.Context) postgres.Executor
}

// Generator produces day-scoped sequential sale numbers by reading the
// highest number issued for the day. It must be called inside the same
// transaction that persists the sale, under the coordinator's lock, so
// two concurrent sales cannot observe the same maximum.
type Generator struct {
	provider QuerierProvider
}

// NewGenerator creates a Generator over the given querier provider.
func NewGenerator(provider QuerierProvider) *Generator {
	return &Generator{provider: provider}
}

var _ sequence.Generator = (*Generator)(nil)

// Next returns the next sale number for the day of now.
func (g *Generator) Next(ctx context.Context, now time.Time) (sequence.Result, error) {
	q := g.provider.GetQuerier(ctx)
	prefix := sequence.DayPrefix(now)

	var last string
	err := q.QueryRow(ctx,
		`SELECT number FROM sales WHERE number LIKE $1 ORDER BY number DESC LIMIT 1`,
		prefix+"-%",
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return sequence.Result{Number: sequence.Format(now, 1)}, nil
	}
	if err != nil {
		return sequence.Result{}, apperror.NewGeneration(err)
	}

	suffix, err := sequence.ParseSuffix(last)
	if err != nil {
		// A malformed number in the table must not block new sales;
		// restart the day's sequence and let the caller log it.
		return sequence.Result{Number: sequence.Format(now, 1), SuffixReset: true}, nil
	}

	return sequence.Result{Number: sequence.Format(now, suffix+1)}, nil
}
