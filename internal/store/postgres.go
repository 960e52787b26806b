package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/thewisemo/al-eairy-ota/config"
	"github.com/thewisemo/al-eairy-ota/internal/models"
)

// ErrNotConfigured indicates the mirror has no pool.
var ErrNotConfigured = errors.New("store: database not configured")

const (
	schemaSQL = `
CREATE TABLE IF NOT EXISTS ota_snapshots (
    run_id     UUID PRIMARY KEY,
    run_date   DATE NOT NULL,
    check_in   DATE NOT NULL,
    check_out  DATE NOT NULL,
    currency   TEXT NOT NULL,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ota_listings (
    run_id        UUID NOT NULL REFERENCES ota_snapshots (run_id),
    check_in      DATE NOT NULL,
    city          TEXT NOT NULL,
    provider      TEXT NOT NULL,
    position      INT NOT NULL,
    provider_rank INT,
    hotel         TEXT NOT NULL,
    url           TEXT NOT NULL,
    lowest_price  NUMERIC(12,2),
    currency      TEXT NOT NULL,
    is_brand      BOOLEAN NOT NULL,
    guaranteed    BOOLEAN NOT NULL,
    units         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS ota_listings_city_idx ON ota_listings (city, check_in);`

	insertSnapshotSQL = `INSERT INTO ota_snapshots (run_id, run_date, check_in, check_out, currency, payload)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (run_id) DO NOTHING;`

	brandHistorySQL = `SELECT check_in::text, provider, lowest_price::text
    FROM ota_listings
    WHERE city = $1 AND is_brand AND check_in >= $2
    ORDER BY check_in, provider, position;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

var listingColumns = []string{
	"run_id", "check_in", "city", "provider", "position", "provider_rank", "hotel",
	"url", "lowest_price", "currency", "is_brand", "guaranteed", "units",
}

// NewPool configures a pgx pool from the database section.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, ErrNotConfigured
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return pool, nil
}

// PGMirror appends every snapshot to Postgres: the document as JSONB and one row per
// listing for SQL analysis. Rows are never updated.
type PGMirror struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPGMirror(pool *pgxpool.Pool, logger zerolog.Logger) *PGMirror {
	return &PGMirror{pool: pool, log: logger.With().Str("component", "pg_mirror").Logger()}
}

func (m *PGMirror) Close() {
	if m == nil || m.pool == nil {
		return
	}
	m.pool.Close()
}

func (m *PGMirror) EnsureSchema(ctx context.Context) error {
	if m == nil || m.pool == nil {
		return ErrNotConfigured
	}
	if _, err := m.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Mirror inserts snap and its listings in one transaction. A run id already present
// is left untouched.
func (m *PGMirror) Mirror(ctx context.Context, snap *models.RunSnapshot) error {
	if m == nil || m.pool == nil {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	rows, err := listingRows(snap)
	if err != nil {
		return err
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, insertSnapshotSQL, snap.RunID, snap.Date, snap.CheckIn, snap.CheckOut, snap.Currency, payload)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		m.log.Debug().Str("run_id", snap.RunID).Msg("snapshot already mirrored")
		return nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"ota_listings"}, listingColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy listings: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	m.log.Info().Str("run_id", snap.RunID).Int64("listings", n).Msg("snapshot mirrored")
	return nil
}

// BrandPoint is one mirrored brand price observation.
type BrandPoint struct {
	CheckIn  string       `json:"checkIn"`
	Provider string       `json:"provider"`
	Price    models.Price `json:"price"`
}

// BrandHistory returns brand prices for city with check-in on or after since.
func (m *PGMirror) BrandHistory(ctx context.Context, city string, since time.Time) ([]BrandPoint, error) {
	if m == nil || m.pool == nil {
		return nil, ErrNotConfigured
	}
	rows, err := m.pool.Query(ctx, brandHistorySQL, city, since.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query brand history: %w", err)
	}
	defer rows.Close()

	var out []BrandPoint
	for rows.Next() {
		var p BrandPoint
		var price *string
		if err := rows.Scan(&p.CheckIn, &p.Provider, &price); err != nil {
			return nil, fmt.Errorf("scan brand history: %w", err)
		}
		if price != nil {
			if err := p.Price.UnmarshalJSON([]byte(*price)); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TryAdvisoryLock takes a session-level advisory lock so only one daemon runs a
// given schedule slot. The returned func releases it.
func (m *PGMirror) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	if m == nil || m.pool == nil {
		return nil, false, ErrNotConfigured
	}
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}
	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}
	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, advisoryUnlockSQL, key); err != nil {
			m.log.Warn().Err(err).Int64("key", key).Msg("advisory unlock")
		}
		conn.Release()
	}
	return unlock, true, nil
}

// listingRows flattens snap into ota_listings rows. position is the 1-based place in
// the provider's final list; unknown prices and ranks become NULL.
func listingRows(snap *models.RunSnapshot) ([][]any, error) {
	var rows [][]any
	for _, city := range snap.Cities {
		for _, pr := range city.Providers {
			for i, l := range pr.Listings {
				units := l.Units
				if units == nil {
					units = []models.Unit{}
				}
				unitsJSON, err := json.Marshal(units)
				if err != nil {
					return nil, fmt.Errorf("encode units: %w", err)
				}
				var price, rank any
				if l.LowestPrice.Known {
					price = l.LowestPrice.Amount.String()
				}
				if l.Rank > 0 {
					rank = int32(l.Rank)
				}
				rows = append(rows, []any{
					snap.RunID, snap.CheckIn, city.City, pr.Provider, int32(i + 1), rank, l.Hotel,
					l.URL, price, l.Currency, l.IsTrackedBrand, l.Guaranteed, unitsJSON,
				})
			}
		}
	}
	return rows, nil
}
