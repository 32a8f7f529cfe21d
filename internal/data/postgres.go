// Package data provides low-level data clients and connection factories.
package data

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roguepikachu/snipsnap/internal/config"
)

// PostgresDSN returns the connection string for c, preferring PostgresURL.
func PostgresDSN(c config.Config) string {
	if c.PostgresURL != "" {
		return c.PostgresURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     c.PostgresHost + ":" + c.PostgresPort,
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=" + url.QueryEscape(c.PostgresSSLMode),
	}
	return u.String()
}

// NewPostgresPool creates a new pgx connection pool based on the given configuration.
func NewPostgresPool(ctx context.Context, c config.Config) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(PostgresDSN(c))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.MaxConnLifetime = 30 * time.Minute
	if c.PostgresMaxConns > 0 {
		cfg.MaxConns = int32(c.PostgresMaxConns)
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}
