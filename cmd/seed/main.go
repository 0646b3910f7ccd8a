// Package main provides a CLI tool for creating the schema and seeding
// the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"librepos/internal/core/id"
	"librepos/internal/infrastructure/storage/postgres"
	"librepos/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
    id          UUID PRIMARY KEY,
    code        VARCHAR(32) NOT NULL UNIQUE,
    name        VARCHAR(255) NOT NULL,
    category    VARCHAR(100) NOT NULL,
    price       NUMERIC(12,2) NOT NULL CHECK (price > 0),
    stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sales (
    id             UUID PRIMARY KEY,
    number         VARCHAR(16) NOT NULL UNIQUE,
    timestamp      TIMESTAMPTZ NOT NULL DEFAULT now(),
    total          NUMERIC(14,2) NOT NULL,
    payment_method VARCHAR(50) NOT NULL
);

CREATE TABLE IF NOT EXISTS sale_lines (
    id         UUID PRIMARY KEY,
    sale_id    UUID NOT NULL REFERENCES sales(id),
    line_no    INTEGER NOT NULL,
    product_id UUID NOT NULL REFERENCES products(id),
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price >= 0),
    UNIQUE (sale_id, line_no)
);

CREATE INDEX IF NOT EXISTS idx_sales_timestamp ON sales (timestamp);
CREATE INDEX IF NOT EXISTS idx_sale_lines_sale_id ON sale_lines (sale_id);
CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);
`

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalw("failed to create schema", "error", err)
	}
	log.Info("schema created")

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoProducts(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo products", "error", err)
		}
		log.Info("demo products seeded")
	}

	log.Info("done")
}

type demoProduct struct {
	code     string
	name     string
	category string
	price    string
	stock    int
}

var demoProducts = []demoProduct{
	{"P000001", "Cien anos de soledad", "Novela", "25.50", 40},
	{"P000002", "El principito", "Infantil", "12.00", 60},
	{"P000003", "Don Quijote de la Mancha", "Clasicos", "30.00", 25},
	{"P000004", "Rayuela", "Novela", "22.75", 15},
	{"P000005", "Cuaderno A5", "Papeleria", "3.50", 200},
	{"P000006", "Boligrafo azul", "Papeleria", "1.25", 500},
}

func seedDemoProducts(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	for _, p := range demoProducts {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return fmt.Errorf("parse price for %s: %w", p.code, err)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO products (id, code, name, category, price, stock)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (code) DO NOTHING`,
			id.New(), p.code, p.name, p.category, price, p.stock,
		)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.code, err)
		}

		log.Infow("seeded product", "code", p.code, "name", p.name)
	}
	return nil
}
