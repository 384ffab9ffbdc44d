// Package dbpool owns the conceptmap PostgreSQL pool shared by the stores,
// the migrator and the health endpoints.
package dbpool

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName = "conceptmap"

	// minConns keeps one connection for the ingest commit and one for reads.
	minConns = 2

	// statementTimeout bounds any single statement server-side, in milliseconds.
	statementTimeout = "30000"
)

// Pool is the connection pool behind every store. Callers reach the
// database only through the query and transaction methods below.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to databaseURL and verifies the connection with a ping.
// maxConns below minConns is raised to minConns.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*Pool, error) {
	cfg, err := poolConfig(databaseURL, maxConns)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening conceptmap pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("reaching conceptmap database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

func poolConfig(databaseURL string, maxConns int32) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	cfg.ConnConfig.RuntimeParams["statement_timeout"] = statementTimeout
	cfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	cfg.MaxConns = max(maxConns, minConns)
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return cfg, nil
}

func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Begin opens the read-committed transaction an article commit runs in.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

// BeginTx opens a transaction with explicit isolation, used for snapshot reads.
func (p *Pool) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) { //nolint:gocritic // pgx passes TxOptions by value.
	return p.pool.BeginTx(ctx, opts)
}

// HealthCheck round-trips a trivial query for the readiness endpoint.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}

	return nil
}

// Stats feeds the pool gauges on the metrics endpoint.
func (p *Pool) Stats() (acquired, idle int32) {
	s := p.pool.Stat()

	return s.AcquiredConns(), s.IdleConns()
}

// ConnString is the DSN the migrator reopens through database/sql.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

func (p *Pool) Close() {
	p.pool.Close()
}
