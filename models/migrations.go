package models

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is written in the subset of SQL shared by postgres and sqlite so
// the same statements back production and tests.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS product (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sku TEXT NOT NULL,
		code TEXT,
		brand TEXT,
		model TEXT,
		description TEXT,
		quantity BIGINT NOT NULL DEFAULT 0,
		restock_level BIGINT NOT NULL DEFAULT 0,
		optimal_level BIGINT NOT NULL DEFAULT 0,
		cost BIGINT NOT NULL DEFAULT 0,
		price BIGINT NOT NULL DEFAULT 0,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT product_sku_unique UNIQUE (sku)
	)`,
	`CREATE TABLE IF NOT EXISTS category (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS image (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		file_key TEXT NOT NULL,
		product_id TEXT NOT NULL REFERENCES product (id) ON DELETE CASCADE,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS product_category (
		product_id TEXT NOT NULL REFERENCES product (id) ON DELETE CASCADE,
		category_id TEXT NOT NULL REFERENCES category (id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (product_id, category_id)
	)`,
	`CREATE INDEX IF NOT EXISTS product_user_id_idx ON product (user_id)`,
	`CREATE INDEX IF NOT EXISTS product_name_idx ON product (name)`,
	`CREATE INDEX IF NOT EXISTS category_user_id_idx ON category (user_id)`,
	`CREATE INDEX IF NOT EXISTS category_name_idx ON category (name)`,
	`CREATE INDEX IF NOT EXISTS image_product_id_idx ON image (product_id)`,
	`CREATE INDEX IF NOT EXISTS image_is_primary_idx ON image (is_primary)`,
	`CREATE INDEX IF NOT EXISTS product_category_product_id_idx ON product_category (product_id)`,
	`CREATE INDEX IF NOT EXISTS product_category_category_id_idx ON product_category (category_id)`,
}

// Migrate creates the inventory tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
