// Copyright 2025 Alexander Kappner.
//
// Package store provides an optional PostgreSQL-backed cache of discovered
// DOP2 tree walks, so a repeated walk of a slow-to-enumerate appliance can
// be served from the last successful run instead of re-querying every leaf.
// Nothing in pkg/dop2 or pkg/transport depends on this package; callers that
// don't need persistence never import it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	"github.com/akappner/mielecrypto/pkg/apperr"
	"github.com/akappner/mielecrypto/pkg/dop2"
)

// WalkCache persists the result of dop2.Walk keyed by appliance route.
type WalkCache struct {
	db *sql.DB
}

// Open connects to a Postgres instance and ensures the backing table exists.
func Open(ctx context.Context, dataSourceName string) (*WalkCache, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, apperr.Wrap(apperr.Usage, "STORE_OPEN_FAILED", "could not open walk cache database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, apperr.Wrap(apperr.Transport, "STORE_PING_FAILED", "could not reach walk cache database", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS dop2_walk_cache (
	route      TEXT PRIMARY KEY,
	result     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, apperr.Wrap(apperr.Transport, "STORE_SCHEMA_FAILED", "could not ensure walk cache schema", err)
	}

	return &WalkCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *WalkCache) Close() error {
	return c.db.Close()
}

// Put stores the most recent walk result for route, overwriting any prior
// entry.
func (c *WalkCache) Put(ctx context.Context, route string, result map[string]dop2.LeafOutcome, now time.Time) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return apperr.Wrap(apperr.Usage, "STORE_ENCODE_FAILED", "could not encode walk result", err)
	}

	const upsert = `
INSERT INTO dop2_walk_cache (route, result, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (route) DO UPDATE SET result = EXCLUDED.result, updated_at = EXCLUDED.updated_at`
	if _, err := c.db.ExecContext(ctx, upsert, route, encoded, now.UTC()); err != nil {
		return apperr.Wrap(apperr.Transport, "STORE_WRITE_FAILED", "could not write walk result", err)
	}
	return nil
}

// Get returns the most recently cached walk for route, the time it was
// recorded, and whether one was found.
func (c *WalkCache) Get(ctx context.Context, route string) (map[string]dop2.LeafOutcome, time.Time, bool, error) {
	const query = `SELECT result, updated_at FROM dop2_walk_cache WHERE route = $1`

	var (
		raw       []byte
		updatedAt time.Time
	)
	err := c.db.QueryRowContext(ctx, query, route).Scan(&raw, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, apperr.Wrap(apperr.Transport, "STORE_READ_FAILED", "could not read walk result", err)
	}

	var result map[string]dop2.LeafOutcome
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, time.Time{}, false, apperr.Wrap(apperr.Protocol, "STORE_DECODE_FAILED", "could not decode cached walk result", err)
	}
	return result, updatedAt, true, nil
}
