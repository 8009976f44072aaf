// Package postgres provides a PostgreSQL implementation of the
// inapp.KeyValueStore interface. Values live in a single key-value table
// written with upserts.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage implements inapp.KeyValueStore using PostgreSQL.
type Storage struct {
	pool  *pgxpool.Pool
	table string
}

// Config holds PostgreSQL storage configuration.
type Config struct {
	// Table is the key-value table name (default: "inapp_kv").
	Table string
}

// New creates a new PostgreSQL storage adapter on an existing pool.
func New(pool *pgxpool.Pool, config Config) (*Storage, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	if config.Table == "" {
		config.Table = "inapp_kv"
	}
	return &Storage{pool: pool, table: config.Table}, nil
}

// Migrate creates the key-value table if it does not exist.
func (s *Storage) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Get implements inapp.KeyValueStore.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", s.table)
	var value string
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres get: %w", err)
	}
	return value, true, nil
}

// Set implements inapp.KeyValueStore.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, s.table)
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}

// Delete implements inapp.KeyValueStore.
func (s *Storage) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", s.table)
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}
