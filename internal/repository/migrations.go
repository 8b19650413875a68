package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const CurrentSchemaVersion = "1.1.0"

// Migration bodies use {{JSON}} and {{TIMESTAMP}} for the column types
// that differ between postgres and SQLite.
type Migration struct {
	Version string
	Up      string
}

var AllMigrations = []Migration{
	{Version: "1.0.0", Up: migrationV1Up},
	{Version: "1.1.0", Up: migrationV1_1Up},
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at {{TIMESTAMP}} DEFAULT CURRENT_TIMESTAMP
)`

const migrationV1Up = `
CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    category_id TEXT NOT NULL,
    short_description TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    images {{JSON}} NOT NULL,
    tags {{JSON}} NOT NULL,
    rating NUMERIC(3,2) NOT NULL DEFAULT 0,
    reviews_count INTEGER NOT NULL DEFAULT 0,
    is_featured BOOLEAN NOT NULL DEFAULT FALSE,
    created_at {{TIMESTAMP}} NOT NULL,
    updated_at {{TIMESTAMP}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_created ON products(created_at);

CREATE TABLE IF NOT EXISTS product_variants (
    id TEXT NOT NULL,
    product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    pack TEXT NOT NULL,
    price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
    mrp NUMERIC(12,2),
    stock INTEGER NOT NULL CHECK (stock >= 0),
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (product_id, id)
);

CREATE TABLE IF NOT EXISTS carts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    created_at {{TIMESTAMP}} NOT NULL,
    updated_at {{TIMESTAMP}} NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
    cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    product_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity >= 1),
    price NUMERIC(12,2) NOT NULL,
    name TEXT NOT NULL,
    pack TEXT NOT NULL,
    image TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (cart_id, product_id, variant_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    order_number TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    items {{JSON}} NOT NULL,
    shipping_address {{JSON}} NOT NULL,
    payment_method TEXT NOT NULL,
    payment_result {{JSON}},
    items_price NUMERIC(12,2) NOT NULL,
    shipping_price NUMERIC(12,2) NOT NULL,
    tax_price NUMERIC(12,2) NOT NULL,
    total_price NUMERIC(12,2) NOT NULL,
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    paid_at {{TIMESTAMP}},
    order_status TEXT NOT NULL,
    delivered_at {{TIMESTAMP}},
    created_at {{TIMESTAMP}} NOT NULL,
    updated_at {{TIMESTAMP}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(order_status);
`

const migrationV1_1Up = `
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    recipient TEXT NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    failure_reason TEXT NOT NULL DEFAULT '',
    created_at {{TIMESTAMP}} NOT NULL,
    sent_at {{TIMESTAMP}}
);

CREATE INDEX IF NOT EXISTS idx_notifications_order ON notifications(order_id);
`

func renderMigration(d Dialect, body string) string {
	jsonType, tsType := "TEXT", "TIMESTAMP"
	if d == Postgres {
		jsonType, tsType = "JSONB", "TIMESTAMPTZ"
	}
	return strings.NewReplacer("{{JSON}}", jsonType, "{{TIMESTAMP}}", tsType).Replace(body)
}

// ApplyMigrations brings the schema up to CurrentSchemaVersion. Each
// migration runs in its own transaction together with its version row.
func ApplyMigrations(ctx context.Context, db *DB) error {
	if _, err := db.exec(ctx, renderMigration(db.dialect, schemaVersionTable)); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range AllMigrations {
		version, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}
		if !current.LessThan(version) {
			continue
		}

		err = db.inTx(ctx, func(tx conn) error {
			if _, err := tx.exec(ctx, renderMigration(db.dialect, migration.Up)); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
			}
			if _, err := tx.exec(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		current = version
	}

	return nil
}

// SchemaVersion returns the highest applied version, or 0.0.0.
func SchemaVersion(ctx context.Context, db *DB) (*semver.Version, error) {
	rows, err := db.query(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}
	defer rows.Close()

	current := semver.MustParse("0.0.0")
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan schema_version: %w", err)
		}
		parsed, err := semver.NewVersion(v)
		if err != nil {
			return nil, fmt.Errorf("invalid schema version %s: %w", v, err)
		}
		if parsed.GreaterThan(current) {
			current = parsed
		}
	}
	return current, rows.Err()
}
