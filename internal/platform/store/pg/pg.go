// Package pg opens the pgx pool behind the store's Postgres adapter
package pg

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool lifetimes when the DSN leaves them unset
const (
	DefaultMaxConnLifetime = 30 * time.Minute
	DefaultMaxConnIdle     = 5 * time.Minute
	DefaultHealthCheck     = 30 * time.Second
)

// Config configures the pool
type Config struct {
	URL      string
	AppName  string
	MaxConns int32
	SlowMs   int
}

// PG is the pool plus the tracer the adapter reports through
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	SlowMs int
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL, applies cfg and the package defaults, then mut, and dials
// dsn pool_* parameters win over the defaults but not over mut
func Open(ctx context.Context, cfg Config, tracer QueryTracer, mut func(*pgxpool.Config)) (*PG, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.AppName != "" {
		pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	applyDefaults(pcfg, cfg.URL)
	if mut != nil {
		mut(pcfg)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &PG{Pool: pool, Tracer: tracer, SlowMs: cfg.SlowMs}, nil
}

func applyDefaults(pcfg *pgxpool.Config, dsn string) {
	if !strings.Contains(dsn, "pool_max_conn_lifetime") {
		pcfg.MaxConnLifetime = DefaultMaxConnLifetime
	}
	if !strings.Contains(dsn, "pool_max_conn_idle_time") {
		pcfg.MaxConnIdleTime = DefaultMaxConnIdle
	}
	if !strings.Contains(dsn, "pool_health_check_period") {
		pcfg.HealthCheckPeriod = DefaultHealthCheck
	}
}

// Close closes the pool; nil safe
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
