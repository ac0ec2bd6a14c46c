package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Protocol-Lattice/research-agent/src/search"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS search_cache (
    key        TEXT PRIMARY KEY,
    results    JSONB NOT NULL,
    expires_at TIMESTAMPTZ
);`

// Postgres stores results in a jsonb column keyed by request hash.
type Postgres struct {
	DB  *pgxpool.Pool
	ttl time.Duration
	now func() time.Time
}

// NewPostgres connects and creates the cache table if needed.
func NewPostgres(ctx context.Context, connStr string, ttl time.Duration) (*Postgres, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create search_cache table: %w", err)
	}
	return &Postgres{DB: db, ttl: ttl, now: time.Now}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]search.Result, bool, error) {
	var raw []byte
	err := p.DB.QueryRow(ctx, `
        SELECT results::text FROM search_cache
        WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2);
        `, key, p.now().UTC()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var results []search.Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false, fmt.Errorf("decode cached results: %w", err)
	}
	return results, true, nil
}

func (p *Postgres) Put(ctx context.Context, key string, results []search.Result) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return err
	}
	_, err = p.DB.Exec(ctx, `
        INSERT INTO search_cache (key, results, expires_at)
        VALUES ($1, $2::jsonb, $3)
        ON CONFLICT (key) DO UPDATE SET results = EXCLUDED.results, expires_at = EXCLUDED.expires_at;
        `, key, string(raw), expiry(p.now(), p.ttl))
	return err
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.DB.Close()
}

var _ search.Store = (*Postgres)(nil)
