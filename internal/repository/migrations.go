package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Migrate applies the database schema. Statements are idempotent and safe
// to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Users are global; names are optional and stored as empty strings.
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			firstname VARCHAR(255) NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// One row per chat; winner name and run day are independent per game.
	// A run day of 0 means the game has never run.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chats (
			chat_id BIGINT PRIMARY KEY,
			user_winner VARCHAR(255) NOT NULL DEFAULT '',
			user_run_day INT NOT NULL DEFAULT 0,
			pidor_winner VARCHAR(255) NOT NULL DEFAULT '',
			pidor_run_day INT NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: chats table created")

	// UNIQUE(chat_id, user_id) enforces at most one roster entry per pair.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS memberships (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL REFERENCES chats(chat_id),
			user_id BIGINT NOT NULL REFERENCES users(user_id),
			user_count INT NOT NULL DEFAULT 0,
			pidor_count INT NOT NULL DEFAULT 0,
			CONSTRAINT unique_chat_user UNIQUE (chat_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_memberships_chat ON memberships(chat_id, user_count DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: memberships table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
