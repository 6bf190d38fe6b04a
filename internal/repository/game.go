package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"user-of-the-day-bot/internal/model"
)

// Common errors for game-run persistence.
var (
	// ErrAlreadyCommitted is returned when a winner was already committed
	// for the same chat, game and day by a concurrent run.
	ErrAlreadyCommitted = errors.New("winner already committed for this day")
	// ErrNotMember is returned when the winner has no membership row in the chat.
	ErrNotMember = errors.New("winner is not a member of the chat")
)

// GameRepository handles per-chat daily game state persistence.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// chatColumns maps a game type to its chat-row column pair. The winner name
// and run day for the two games are independent fields on the same row.
func chatColumns(game model.GameType) (winnerCol, runDayCol string) {
	switch game {
	case model.GamePidorOfDay:
		return "pidor_winner", "pidor_run_day"
	default:
		return "user_winner", "user_run_day"
	}
}

// counterColumn maps a game type to its membership counter column.
func counterColumn(game model.GameType) string {
	switch game {
	case model.GamePidorOfDay:
		return "pidor_count"
	default:
		return "user_count"
	}
}

// HasRunToday reports whether the game's stored run day for the chat equals
// the given day-of-year. Unknown chats have never run.
func (r *GameRepository) HasRunToday(ctx context.Context, chatID int64, day int, game model.GameType) (bool, error) {
	_, runDayCol := chatColumns(game)
	query := fmt.Sprintf(`SELECT %s FROM chats WHERE chat_id = $1`, runDayCol)

	var runDay int
	err := r.pool.QueryRow(ctx, query, chatID).Scan(&runDay)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check run day: %w", err)
	}

	return runDay == day, nil
}

// CurrentWinner returns the last recorded winner display string for the
// game, or "" if the game has never run in the chat.
func (r *GameRepository) CurrentWinner(ctx context.Context, chatID int64, game model.GameType) (string, error) {
	winnerCol, _ := chatColumns(game)
	query := fmt.Sprintf(`SELECT %s FROM chats WHERE chat_id = $1`, winnerCol)

	var winner string
	err := r.pool.QueryRow(ctx, query, chatID).Scan(&winner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get current winner: %w", err)
	}

	return winner, nil
}

// CommitWinner atomically records the day's winner on the chat row and
// increments the matching membership counter. The chat row is locked for
// the duration of the transaction and the run day is re-checked under the
// lock, so two concurrent commits for the same day resolve to exactly one
// counter increment; the loser gets ErrAlreadyCommitted.
func (r *GameRepository) CommitWinner(ctx context.Context, chatID, userID int64, winnerName string, day int, game model.GameType) error {
	winnerCol, runDayCol := chatColumns(game)
	counterCol := counterColumn(game)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The chat row may not exist yet when the first run happens before any
	// registration created it.
	_, err = tx.Exec(ctx, `
		INSERT INTO chats (chat_id) VALUES ($1)
		ON CONFLICT (chat_id) DO NOTHING
	`, chatID)
	if err != nil {
		return fmt.Errorf("failed to ensure chat: %w", err)
	}

	var storedDay int
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM chats WHERE chat_id = $1 FOR UPDATE`, runDayCol),
		chatID,
	).Scan(&storedDay)
	if err != nil {
		return fmt.Errorf("failed to lock chat row: %w", err)
	}
	if storedDay == day {
		return ErrAlreadyCommitted
	}

	_, err = tx.Exec(ctx,
		fmt.Sprintf(`UPDATE chats SET %s = $2, %s = $3 WHERE chat_id = $1`, winnerCol, runDayCol),
		chatID, winnerName, day,
	)
	if err != nil {
		return fmt.Errorf("failed to record winner: %w", err)
	}

	result, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE memberships SET %s = %s + 1 WHERE chat_id = $1 AND user_id = $2`, counterCol, counterCol),
		chatID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotMember
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit winner: %w", err)
	}

	log.Info().
		Int64("chat_id", chatID).
		Int64("user_id", userID).
		Int("day", day).
		Stringer("game", game).
		Msg("Winner committed")

	return nil
}
