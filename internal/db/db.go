package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the shared pgx pool. It is created once in the composition root
// and handed to every store that needs it.
type DB struct {
	Pool *pgxpool.Pool
}

// Connect opens the Postgres pool and bootstraps the schema.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Println("Connected to Postgres successfully")

	d := &DB{Pool: pool}
	d.ensureExtensions(ctx)
	d.ensureUsersTable(ctx)
	d.ensureSellersTable(ctx)
	d.ensureRequestsTable(ctx)
	return d, nil
}

// Close releases the pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// ensureExtensions enables cube/earthdistance used by the proximity queries.
func (d *DB) ensureExtensions(ctx context.Context) {
	if _, err := d.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS cube`); err != nil {
		log.Printf("failed to enable cube extension: %v", err)
	}
	if _, err := d.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS earthdistance`); err != nil {
		log.Printf("failed to enable earthdistance extension: %v", err)
	}
}

// ensureUsersTable creates the minimal users table backing auth identity,
// author display info and the device-token fallback.
func (d *DB) ensureUsersTable(ctx context.Context) {
	_, err := d.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'seller', 'admin')),
			push_token TEXT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		log.Printf("failed to create users table: %v", err)
	}
}

// ensureSellersTable creates the sellers table with the geospatial index the
// matching engine queries against.
func (d *DB) ensureSellersTable(ctx context.Context) {
	_, err := d.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sellers (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
			business_name TEXT NOT NULL,
			description TEXT,
			phone TEXT,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			address TEXT,
			city TEXT,
			postal_code TEXT,
			service_radius_km INTEGER NOT NULL DEFAULT 10,
			specialties JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'suspended', 'inactive')),
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			total_requests INTEGER NOT NULL DEFAULT 0,
			responded_requests INTEGER NOT NULL DEFAULT 0,
			successful_deals INTEGER NOT NULL DEFAULT 0,
			avg_response_time_mins DOUBLE PRECISION NOT NULL DEFAULT 0,
			rating DOUBLE PRECISION NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			last_active_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			push_token TEXT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		log.Printf("failed to create sellers table: %v", err)
		return
	}
	if _, err := d.Pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_sellers_earth ON sellers USING gist (ll_to_earth(lat, lng))`); err != nil {
		log.Printf("failed to create sellers geo index: %v", err)
	}
	if _, err := d.Pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_sellers_specialties ON sellers USING gin (specialties)`); err != nil {
		log.Printf("failed to create sellers specialties index: %v", err)
	}
}

// ensureRequestsTable creates the requests table.
func (d *DB) ensureRequestsTable(ctx context.Context) {
	_, err := d.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS requests (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			sub_category TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			address TEXT,
			city TEXT,
			postal_code TEXT,
			radius_km INTEGER NOT NULL CHECK (radius_km BETWEEN 1 AND 100),
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'cancelled', 'expired')),
			priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
			budget_min DOUBLE PRECISION NULL,
			budget_max DOUBLE PRECISION NULL,
			photos JSONB NOT NULL DEFAULT '[]',
			tags JSONB NOT NULL DEFAULT '[]',
			responses_count INTEGER NOT NULL DEFAULT 0,
			views_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`)
	if err != nil {
		log.Printf("failed to create requests table: %v", err)
		return
	}
	if _, err := d.Pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_requests_status_category ON requests(status, category)`); err != nil {
		log.Printf("failed to create requests index: %v", err)
	}
	if _, err := d.Pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_requests_earth ON requests USING gist (ll_to_earth(lat, lng))`); err != nil {
		log.Printf("failed to create requests geo index: %v", err)
	}
}
