// Package product_repo provides the PostgreSQL implementation of the
// product catalog repository and the stock gateway.
package product_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/domain/product"
	"librepos/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// codeFormat is the shape of generated product codes.
const codeFormat = "P%06d"

var productColumns = []string{
	"id", "code", "name", "category", "price",
	"stock", "description", "created_at", "updated_at",
}

// ProductRepo implements product.Repository and product.StockGateway.
type ProductRepo struct {
	txm *postgres.TxManager
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txm: txm}
}

var (
	_ product.Repository   = (*ProductRepo)(nil)
	_ product.StockGateway = (*ProductRepo)(nil)
)

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ProductRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.Builder().
		Insert(productsTable).
		Columns(productColumns...).
		Values(p.ID, p.Code, p.Name, p.Category, p.Price,
			p.Stock, p.Description, p.CreatedAt, p.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	return r.getOne(ctx, q, productID.String())
}

// GetByCode retrieves a product by code.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"code": code}).
		Limit(1)

	return r.getOne(ctx, q, code)
}

// Update modifies an existing product.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.Builder().
		Update(productsTable).
		Set("code", p.Code).
		Set("name", p.Name).
		Set("category", p.Category).
		Set("price", p.Price).
		Set("stock", p.Stock).
		Set("description", p.Description).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("product", "code", p.Code)
		}
		return fmt.Errorf("update product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID.String())
	}

	return nil
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	q := r.Builder().
		Delete(productsTable).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// List retrieves products with filtering.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) ([]*product.Product, error) {
	q := r.baseSelect()

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	if filter.MaxStock != nil {
		q = q.Where(squirrel.LtOrEq{"stock": *filter.MaxStock})
	}

	if filter.ModifiedFrom != nil {
		q = q.Where(squirrel.GtOrEq{"updated_at": *filter.ModifiedFrom})
	}

	q = q.OrderBy("code")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	return products, nil
}

// NextCode returns the next generated code, derived from the highest
// existing P-prefixed code. Manually assigned codes that do not match
// the generated shape are skipped.
func (r *ProductRepo) NextCode(ctx context.Context) (string, error) {
	querier := r.txm.GetQuerier(ctx)

	var last string
	err := querier.QueryRow(ctx,
		`SELECT code FROM products WHERE code ~ '^P[0-9]{6}$' ORDER BY code DESC LIMIT 1`,
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Sprintf(codeFormat, 1), nil
	}
	if err != nil {
		return "", fmt.Errorf("query last product code: %w", err)
	}

	var seq int
	if _, err := fmt.Sscanf(last, codeFormat, &seq); err != nil {
		return "", fmt.Errorf("parse product code %q: %w", last, err)
	}

	return fmt.Sprintf(codeFormat, seq+1), nil
}

// GetStock returns current stock for a product.
func (r *ProductRepo) GetStock(ctx context.Context, productID id.ID) (int, error) {
	querier := r.txm.GetQuerier(ctx)

	var stock int
	err := querier.QueryRow(ctx,
		`SELECT stock FROM products WHERE id = $1`, productID,
	).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NewNotFound("product", productID.String())
	}
	if err != nil {
		return 0, fmt.Errorf("get stock: %w", err)
	}

	return stock, nil
}

// HasAvailable reports whether quantity units are on hand.
func (r *ProductRepo) HasAvailable(ctx context.Context, productID id.ID, quantity int) (bool, error) {
	stock, err := r.GetStock(ctx, productID)
	if err != nil {
		return false, err
	}
	return stock >= quantity, nil
}

// ApplyDelta adjusts stock by signedQuantity in one atomic statement.
// The guard in the WHERE clause rejects adjustments that would drive
// stock negative without a separate read.
func (r *ProductRepo) ApplyDelta(ctx context.Context, productID id.ID, signedQuantity int) error {
	querier := r.txm.GetQuerier(ctx)

	result, err := querier.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now()
		 WHERE id = $1 AND stock + $2 >= 0`,
		productID, signedQuantity,
	)
	if err != nil {
		return fmt.Errorf("apply stock delta: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the product is missing or the guard rejected the delta.
		stock, getErr := r.GetStock(ctx, productID)
		if getErr != nil {
			return getErr
		}
		return apperror.NewInsufficientStock(productID.String(), -signedQuantity, stock)
	}

	return nil
}

func (r *ProductRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(productColumns...).
		From(productsTable)
}

func (r *ProductRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*product.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", key)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
