// Package store persists funding rates and per-venue fetch status to
// PostgreSQL.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fundingflow/internal/model"
	"fundingflow/logger"
)

const (
	createFundingRatesTable = `
CREATE TABLE IF NOT EXISTS funding_rates (
	time                    TIMESTAMPTZ      NOT NULL,
	exchange_id             TEXT             NOT NULL,
	symbol                  TEXT             NOT NULL,
	raw_symbol              TEXT             NOT NULL,
	funding_rate            DOUBLE PRECISION NOT NULL,
	funding_rate_annualized DOUBLE PRECISION NOT NULL,
	next_funding_time       TIMESTAMPTZ,
	mark_price              DOUBLE PRECISION,
	index_price             DOUBLE PRECISION,
	open_interest           DOUBLE PRECISION,
	PRIMARY KEY (time, exchange_id, symbol)
)`

	createFetchStatusTable = `
CREATE TABLE IF NOT EXISTS fetch_status (
	exchange_id       TEXT PRIMARY KEY,
	last_fetch_time   TIMESTAMPTZ,
	last_success_time TIMESTAMPTZ,
	last_error        TEXT,
	rate_count        INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'ok'
)`

	upsertFundingRate = `
INSERT INTO funding_rates (
	time, exchange_id, symbol, raw_symbol, funding_rate,
	funding_rate_annualized, next_funding_time, mark_price,
	index_price, open_interest
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (time, exchange_id, symbol) DO UPDATE SET
	funding_rate = EXCLUDED.funding_rate,
	funding_rate_annualized = EXCLUDED.funding_rate_annualized,
	next_funding_time = EXCLUDED.next_funding_time,
	mark_price = EXCLUDED.mark_price,
	index_price = EXCLUDED.index_price,
	open_interest = EXCLUDED.open_interest`

	upsertFetchStatus = `
INSERT INTO fetch_status (exchange_id, last_fetch_time, last_success_time, last_error, rate_count, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (exchange_id) DO UPDATE SET
	last_fetch_time = $2,
	last_success_time = CASE WHEN $3::timestamptz IS NOT NULL THEN $3 ELSE fetch_status.last_success_time END,
	last_error = $4,
	rate_count = $5,
	status = $6`
)

// Postgres wraps a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	log  *logger.Entry
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	cfg.MaxConns = 20

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log := logger.GetLogger().WithComponent("store")
	log.Info("connected to postgres")

	return &Postgres{pool: pool, log: log}, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createFundingRatesTable, createFetchStatusTable} {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// UpsertRates writes one batch of funding rates, replacing rows that share
// the (time, exchange, symbol) key.
func (p *Postgres) UpsertRates(ctx context.Context, rates []model.FundingRate) error {
	if len(rates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rates {
		batch.Queue(upsertFundingRate,
			r.Timestamp, r.Exchange, r.Symbol, r.RawSymbol,
			r.FundingRate, r.FundingRateAnnualized,
			r.NextFundingTime, r.MarkPrice, r.IndexPrice, r.OpenInterest)
	}

	start := time.Now()
	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting funding rates: %w", err)
		}
	}

	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		p.log.WithFields(logger.Fields{"rows": len(rates), "elapsed_ms": elapsed.Milliseconds()}).Warn("slow rate upsert")
	}
	return nil
}

// UpsertStatus records the outcome of one venue fetch. successTime is nil
// for failed fetches so the previous success timestamp survives.
func (p *Postgres) UpsertStatus(ctx context.Context, exchangeID string, fetchTime time.Time, successTime *time.Time, lastErr string, rateCount int) error {
	status := "ok"
	if lastErr != "" {
		status = "error"
	}
	var errVal *string
	if lastErr != "" {
		errVal = &lastErr
	}

	_, err := p.pool.Exec(ctx, upsertFetchStatus, exchangeID, fetchTime, successTime, errVal, rateCount, status)
	if err != nil {
		return fmt.Errorf("upserting fetch status: %w", err)
	}
	return nil
}

// QueryHistorical returns rates for one canonical symbol over the trailing
// window, newest first, optionally restricted to specific venues.
func (p *Postgres) QueryHistorical(ctx context.Context, symbol string, exchangeIDs []string, sinceHours int) ([]model.FundingRate, error) {
	sql, args := buildHistoricalQuery(symbol, exchangeIDs, sinceHours)

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying historical rates: %w", err)
	}
	defer rows.Close()

	var rates []model.FundingRate
	for rows.Next() {
		var r model.FundingRate
		if err := rows.Scan(
			&r.Timestamp, &r.Exchange, &r.Symbol, &r.RawSymbol,
			&r.FundingRate, &r.FundingRateAnnualized,
			&r.NextFundingTime, &r.MarkPrice, &r.IndexPrice, &r.OpenInterest,
		); err != nil {
			return nil, fmt.Errorf("scanning historical rate: %w", err)
		}
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

func buildHistoricalQuery(symbol string, exchangeIDs []string, sinceHours int) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT time, exchange_id, symbol, raw_symbol, funding_rate,
	funding_rate_annualized, next_funding_time, mark_price, index_price, open_interest
FROM funding_rates
WHERE symbol = $1 AND time > NOW() - ($2 * INTERVAL '1 hour')`)

	args := []interface{}{symbol, sinceHours}
	if len(exchangeIDs) > 0 {
		sb.WriteString(" AND exchange_id = ANY($3)")
		args = append(args, exchangeIDs)
	}
	sb.WriteString(" ORDER BY time DESC")
	return sb.String(), args
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
