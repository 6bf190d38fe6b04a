package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SeedPlayer is one historical roster entry with preset win counters.
type SeedPlayer struct {
	UserID     int64  `mapstructure:"user_id"`
	Username   string `mapstructure:"username"`
	FirstName  string `mapstructure:"firstname"`
	UserCount  int    `mapstructure:"user_count"`
	PidorCount int    `mapstructure:"pidor_count"`
}

// SeedData is the contents of a seed file: one chat with its players.
type SeedData struct {
	ChatID  int64        `mapstructure:"chat_id"`
	Players []SeedPlayer `mapstructure:"players"`
}

// LoadSeedFile reads seed data from a YAML file.
func LoadSeedFile(path string) (*SeedData, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var data SeedData
	if err := v.Unmarshal(&data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed data: %w", err)
	}
	if data.ChatID == 0 {
		return nil, fmt.Errorf("seed file %s: chat_id is required", path)
	}

	return &data, nil
}

// SeedIfEmpty bulk-inserts historical users and memberships when the users
// table is empty. Inserts use ON CONFLICT DO NOTHING, so the membership
// uniqueness constraint holds the same way it does for registration.
func SeedIfEmpty(ctx context.Context, pool *pgxpool.Pool, data *SeedData) error {
	var hasUsers bool
	err := pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users)`).Scan(&hasUsers)
	if err != nil {
		return fmt.Errorf("failed to check users table: %w", err)
	}
	if hasUsers {
		log.Info().Msg("Database already contains data, skipping seed")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chats (chat_id) VALUES ($1)
		ON CONFLICT (chat_id) DO NOTHING
	`, data.ChatID)
	if err != nil {
		return fmt.Errorf("failed to seed chat: %w", err)
	}

	for _, p := range data.Players {
		_, err = tx.Exec(ctx, `
			INSERT INTO users (user_id, username, firstname)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO NOTHING
		`, p.UserID, p.Username, p.FirstName)
		if err != nil {
			return fmt.Errorf("failed to seed user %d: %w", p.UserID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO memberships (chat_id, user_id, user_count, pidor_count)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (chat_id, user_id) DO NOTHING
		`, data.ChatID, p.UserID, p.UserCount, p.PidorCount)
		if err != nil {
			return fmt.Errorf("failed to seed membership for user %d: %w", p.UserID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed data: %w", err)
	}

	log.Info().
		Int64("chat_id", data.ChatID).
		Int("players", len(data.Players)).
		Msg("Seed data loaded")

	return nil
}
