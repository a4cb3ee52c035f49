package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied at boot and by the test suites. CHECK constraints back up
// the ledgers' guarded updates; the unique dedup_key index is what makes the
// payment reconciler idempotent under at-least-once webhook delivery.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT 'CUSTOMER',
	points     INT  NOT NULL DEFAULT 0 CHECK (points >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name       TEXT NOT NULL,
	image      TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS product_variants (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	product_id UUID NOT NULL REFERENCES products(id),
	name       TEXT NOT NULL DEFAULT '',
	sku        TEXT NOT NULL UNIQUE,
	price      NUMERIC(10,2) NOT NULL,
	cost_price NUMERIC(10,2) NOT NULL DEFAULT 0,
	stock      INT NOT NULL DEFAULT 0 CHECK (stock >= 0)
);

CREATE TABLE IF NOT EXISTS orders (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id),
	status     TEXT NOT NULL DEFAULT 'PENDING',
	total      NUMERIC(10,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	order_id      UUID NOT NULL REFERENCES orders(id),
	variant_id    UUID NOT NULL REFERENCES product_variants(id),
	product_name  TEXT NOT NULL,
	product_image TEXT NOT NULL DEFAULT '',
	quantity      INT NOT NULL CHECK (quantity >= 1),
	price         NUMERIC(10,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	order_id       UUID NOT NULL REFERENCES orders(id),
	dedup_key      TEXT NOT NULL,
	gateway_status TEXT NOT NULL,
	payment_method TEXT NOT NULL DEFAULT '',
	amount         NUMERIC(10,2) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS transactions_dedup_key ON transactions (dedup_key);
CREATE INDEX IF NOT EXISTS order_items_order_id ON order_items (order_id);
CREATE INDEX IF NOT EXISTS orders_created_at ON orders (created_at DESC);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
