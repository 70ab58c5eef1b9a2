package db

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ParsePoolConfig parses a PostgreSQL URL and applies pool settings sized
// for a small service: conversions are short single-row writes.
func ParsePoolConfig(databaseURL string, maxConns int32) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	if maxConns < 1 {
		maxConns = 5
	}
	config.MaxConns = maxConns
	config.MinConns = min(2, maxConns)
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second
	config.HealthCheckPeriod = 1 * time.Minute

	return config, nil
}
