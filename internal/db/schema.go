package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements is applied in order on startup. Everything is IF NOT
// EXISTS so repeated boots and multiple instances racing at startup are
// harmless.
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS users`,
	`CREATE SCHEMA IF NOT EXISTS game`,

	`CREATE TABLE IF NOT EXISTS users.accounts (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT false,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS users.sessions (
		token      TEXT PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users.accounts(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_idx ON users.sessions (user_id)`,

	`CREATE TABLE IF NOT EXISTS game.ship_types (
		id                   BIGSERIAL PRIMARY KEY,
		name                 TEXT NOT NULL UNIQUE,
		cost_cents           BIGINT NOT NULL,
		harvest_amount       DOUBLE PRECISION NOT NULL,
		operating_cost_cents BIGINT NOT NULL,
		display_order        INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS game.fishing_areas (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL UNIQUE,
		area_type     TEXT NOT NULL,
		fish_type     TEXT NOT NULL,
		current_stock DOUBLE PRECISION NOT NULL,
		max_stock     DOUBLE PRECISION NOT NULL,
		price_cents   BIGINT NOT NULL,
		regen_rate    DOUBLE PRECISION NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS game.fleet (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users.accounts(id) ON DELETE CASCADE,
		ship_type_id BIGINT NOT NULL REFERENCES game.ship_types(id),
		area_id      BIGINT REFERENCES game.fishing_areas(id) ON DELETE SET NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS fleet_user_idx ON game.fleet (user_id)`,
	`CREATE INDEX IF NOT EXISTS fleet_area_idx ON game.fleet (area_id) WHERE area_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS game.balances (
		user_id       BIGINT PRIMARY KEY REFERENCES users.accounts(id) ON DELETE CASCADE,
		balance_cents BIGINT NOT NULL DEFAULT 0,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS game.ticks (
		id              BIGSERIAL PRIMARY KEY,
		trigger         TEXT NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		ships_processed INT NOT NULL DEFAULT 0,
		ships_skipped   INT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS game.settlements (
		id              BIGSERIAL PRIMARY KEY,
		tick_id         BIGINT NOT NULL REFERENCES game.ticks(id),
		user_id         BIGINT NOT NULL REFERENCES users.accounts(id) ON DELETE CASCADE,
		area_id         BIGINT NOT NULL REFERENCES game.fishing_areas(id),
		fleet_id        BIGINT NOT NULL,
		ship_type_id    BIGINT NOT NULL REFERENCES game.ship_types(id),
		nominal_harvest DOUBLE PRECISION NOT NULL,
		actual_harvest  DOUBLE PRECISION NOT NULL,
		revenue_cents   BIGINT NOT NULL,
		profit_cents    BIGINT NOT NULL,
		stock_before    DOUBLE PRECISION NOT NULL,
		stock_after     DOUBLE PRECISION NOT NULL,
		processed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS settlements_user_tick_idx ON game.settlements (user_id, tick_id DESC)`,
	`CREATE INDEX IF NOT EXISTS settlements_tick_idx ON game.settlements (tick_id)`,

	`CREATE TABLE IF NOT EXISTS game.clans (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		creator_id BIGINT NOT NULL REFERENCES users.accounts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS game.clan_members (
		user_id   BIGINT PRIMARY KEY REFERENCES users.accounts(id) ON DELETE CASCADE,
		clan_id   BIGINT NOT NULL REFERENCES game.clans(id) ON DELETE CASCADE,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS clan_members_clan_idx ON game.clan_members (clan_id)`,

	`CREATE TABLE IF NOT EXISTS game.idempotency_keys (
		user_id    BIGINT NOT NULL REFERENCES users.accounts(id) ON DELETE CASCADE,
		key        TEXT NOT NULL,
		action     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, key)
	)`,
}

// EnsureSchema creates all schemas, tables and indexes the server needs.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
