// Package db provides a pgxpool-based connection pool with schema bootstrap,
// prepared statement registration, and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padelwatch/padelwatch/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. The schema is created if
// missing before any prepared statement is registered.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Bootstrap the schema on a plain connection first: prepared
	// statements referencing missing tables fail at prepare time.
	if err := ensureSchema(ctx, poolCfg.ConnConfig.Copy()); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// ensureSchema creates the application tables when missing. court_types and
// predicate are stored in canonical JSON form, so the UNIQUE constraint on
// subscriptions catches logical duplicates exactly.
func ensureSchema(ctx context.Context, connCfg *pgx.ConnConfig) error {
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id    BIGINT PRIMARY KEY,
			chat_id    BIGINT NOT NULL,
			username   TEXT,
			first_name TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id          BIGSERIAL PRIMARY KEY,
			user_id     BIGINT NOT NULL REFERENCES users (user_id),
			location    TEXT NOT NULL,
			hour        INT NOT NULL,
			court_types JSONB NOT NULL,
			predicate   JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, location, hour, court_types, predicate)
		)`,
		`CREATE TABLE IF NOT EXISTS admins (
			user_id  BIGINT PRIMARY KEY,
			added_by BIGINT,
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range ddl {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// registerPreparedStatements registers all statements the bot, API, and
// monitoring layers use. Prepared statements eliminate parse overhead on the
// per-cycle subscription collection query.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Users
		"upsert_user": `INSERT INTO users (user_id, chat_id, username, first_name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE
			SET chat_id = EXCLUDED.chat_id, username = EXCLUDED.username, first_name = EXCLUDED.first_name`,
		"count_users": "SELECT COUNT(*) FROM users",
		"list_users":  "SELECT user_id, chat_id, username, first_name FROM users ORDER BY created_at DESC",

		// Subscriptions
		"insert_subscription": `INSERT INTO subscriptions (user_id, location, hour, court_types, predicate)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING`,
		"subscriptions_by_user": `SELECT id, user_id, location, hour, court_types, predicate, created_at
			FROM subscriptions WHERE user_id = $1
			ORDER BY location, predicate, hour`,
		"all_monitored": `SELECT s.id, s.user_id, u.chat_id, s.location, s.hour, s.court_types, s.predicate, s.created_at
			FROM subscriptions s JOIN users u ON u.user_id = s.user_id`,
		"delete_subscription":       "DELETE FROM subscriptions WHERE id = $1",
		"delete_user_subscriptions": "DELETE FROM subscriptions WHERE user_id = $1",
		"count_subscriptions":       "SELECT COUNT(*) FROM subscriptions",

		// Admins
		"is_admin":     "SELECT 1 FROM admins WHERE user_id = $1",
		"add_admin":    "INSERT INTO admins (user_id, added_by) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		"remove_admin": "DELETE FROM admins WHERE user_id = $1",
		"list_admins":  "SELECT user_id FROM admins ORDER BY added_at",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
