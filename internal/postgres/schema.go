package postgres

import (
	"context"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// order_lines.variant_id is not a foreign key: the importer may drop
// variants that old orders still reference.
const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	slug        TEXT,
	images      JSONB NOT NULL DEFAULT '[]',
	featured    BOOLEAN NOT NULL DEFAULT false,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE products ADD COLUMN IF NOT EXISTS featured BOOLEAN NOT NULL DEFAULT false;
CREATE INDEX IF NOT EXISTS products_featured_idx ON products(created_at, id) WHERE featured;

CREATE TABLE IF NOT EXISTS product_categories (
	product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	PRIMARY KEY (product_id, category_id)
);

CREATE TABLE IF NOT EXISTS variants (
	id         TEXT PRIMARY KEY,
	product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	position   INT NOT NULL DEFAULT 0,
	name       TEXT NOT NULL DEFAULT '',
	price      BIGINT NOT NULL,
	inhouse    INT NOT NULL DEFAULT 0 CHECK (inhouse >= 0),
	image      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS variants_product_idx ON variants(product_id, position);

CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	external_id TEXT UNIQUE,
	name        TEXT NOT NULL,
	phone       TEXT NOT NULL,
	email       TEXT NOT NULL,
	address     TEXT NOT NULL,
	status      TEXT NOT NULL,
	total       BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_lines (
	order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position   INT NOT NULL,
	variant_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	price      BIGINT NOT NULL,
	quantity   INT NOT NULL CHECK (quantity >= 1),
	PRIMARY KEY (order_id, position)
);
`

// Migrate creates the storefront tables if they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, schema); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
