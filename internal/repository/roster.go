// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"user-of-the-day-bot/internal/model"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// RegisterOutcome reports how a registration attempt resolved.
type RegisterOutcome int

const (
	// RegisterFailed means the transaction rolled back with no writes.
	RegisterFailed RegisterOutcome = iota
	// RegisterAdmitted means the user joined the chat's roster.
	RegisterAdmitted
	// RegisterAlreadyMember means the pair already existed; nothing was written.
	RegisterAlreadyMember
)

// RosterRepository handles user and membership persistence.
type RosterRepository struct {
	pool *pgxpool.Pool
}

// NewRosterRepository creates a new RosterRepository instance.
func NewRosterRepository(pool *pgxpool.Pool) *RosterRepository {
	return &RosterRepository{pool: pool}
}

// Register admits a user into a chat's roster exactly once. The user and
// chat rows are upserted and the membership inserted in a single
// transaction; on any failure everything rolls back. A duplicate
// registration performs no mutation and reports RegisterAlreadyMember,
// so stored names are only ever written by the first registration.
func (r *RosterRepository) Register(ctx context.Context, chatID, userID int64, username, firstName string) (RegisterOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return RegisterFailed, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM memberships WHERE chat_id = $1 AND user_id = $2)`,
		chatID, userID,
	).Scan(&exists)
	if err != nil {
		return RegisterFailed, fmt.Errorf("failed to check membership: %w", err)
	}
	if exists {
		return RegisterAlreadyMember, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (user_id, username, firstname)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET username = EXCLUDED.username, firstname = EXCLUDED.firstname
	`, userID, username, firstName)
	if err != nil {
		return RegisterFailed, fmt.Errorf("failed to upsert user: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO chats (chat_id) VALUES ($1)
		ON CONFLICT (chat_id) DO NOTHING
	`, chatID)
	if err != nil {
		return RegisterFailed, fmt.Errorf("failed to upsert chat: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO memberships (chat_id, user_id) VALUES ($1, $2)
	`, chatID, userID)
	if err != nil {
		// A concurrent registration may insert the pair between our check
		// and this insert; the unique constraint settles the race.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return RegisterAlreadyMember, nil
		}
		return RegisterFailed, fmt.Errorf("failed to insert membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return RegisterFailed, fmt.Errorf("failed to commit registration: %w", err)
	}

	log.Info().
		Int64("chat_id", chatID).
		Int64("user_id", userID).
		Str("username", username).
		Msg("User registered")

	return RegisterAdmitted, nil
}

// ListPlayers returns the chat's roster with both win counters, ordered by
// descending user-of-the-day counter. Statistics views inherit this order
// for tie-breaking, so the ordering is part of the contract.
// Returns an empty slice for unknown or empty chats.
func (r *RosterRepository) ListPlayers(ctx context.Context, chatID int64) ([]model.Player, error) {
	const query = `
		SELECT u.user_id, u.username, u.firstname, m.user_count, m.pidor_count
		FROM users u
		JOIN memberships m ON u.user_id = m.user_id
		WHERE m.chat_id = $1
		ORDER BY m.user_count DESC
	`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		err := rows.Scan(
			&p.User.ID,
			&p.User.Username,
			&p.User.FirstName,
			&p.UserCount,
			&p.PidorCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// GetUser retrieves a user by ID. Returns pgx.ErrNoRows wrapped when absent.
func (r *RosterRepository) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	const query = `SELECT user_id, username, firstname FROM users WHERE user_id = $1`

	var u model.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Username, &u.FirstName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
