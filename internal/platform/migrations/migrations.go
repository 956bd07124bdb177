// Package migrations creates the database schema on startup. Statements are
// idempotent so Apply can run on every boot.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		roles TEXT[] NOT NULL DEFAULT '{}',
		create_user_id UUID,
		update_user_id UUID,
		delete_user_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		create_user_id UUID,
		update_user_id UUID,
		delete_user_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		image TEXT,
		price BIGINT NOT NULL,
		description TEXT,
		create_user_id UUID,
		update_user_id UUID,
		delete_user_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS payment_profiles (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users (id),
		payment_method TEXT NOT NULL,
		data JSONB NOT NULL DEFAULT '{}',
		create_user_id UUID,
		update_user_id UUID,
		delete_user_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		customer_id UUID NOT NULL REFERENCES customers (id),
		payment_profile_id UUID REFERENCES payment_profiles (id),
		status TEXT NOT NULL,
		total_value BIGINT NOT NULL,
		create_user_id UUID,
		update_user_id UUID,
		delete_user_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders (id),
		product_id UUID NOT NULL REFERENCES products (id),
		quantity INTEGER NOT NULL,
		unit_value BIGINT NOT NULL,
		total_value BIGINT NOT NULL,
		create_user_id UUID,
		update_user_id UUID,
		delete_user_id UUID,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
}

// Apply runs every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
