package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"user-of-the-day-bot/internal/config"
	"user-of-the-day-bot/internal/messages"
	"user-of-the-day-bot/internal/model"
	"user-of-the-day-bot/internal/pkg/lock"
	"user-of-the-day-bot/internal/repository"
)

// GameStore is the persistence surface the daily-run state machine needs.
// CommitWinner implementations return repository.ErrAlreadyCommitted when
// the day's winner was committed by a concurrent run.
type GameStore interface {
	ListPlayers(ctx context.Context, chatID int64) ([]model.Player, error)
	HasRunToday(ctx context.Context, chatID int64, day int, game model.GameType) (bool, error)
	CurrentWinner(ctx context.Context, chatID int64, game model.GameType) (string, error)
	CommitWinner(ctx context.Context, chatID, userID int64, winnerName string, day int, game model.GameType) error
}

// RunOutcome reports how a game run resolved.
type RunOutcome int

const (
	// RunFailed means persistence failed; the day stays unresolved and a
	// later retry is expected to settle it.
	RunFailed RunOutcome = iota
	// RunAlreadyToday means the game already ran today; the stored winner
	// is re-announced and no state changes.
	RunAlreadyToday
	// RunNoPlayers means the chat has an empty roster; nothing changes.
	RunNoPlayers
	// RunSelected means a winner was selected and committed.
	RunSelected
)

// RunResult is the outcome of one run command.
type RunResult struct {
	Outcome    RunOutcome
	WinnerName string
}

// GameService is the daily-run state machine: at most one selection and one
// counter increment happen per (chat, game, day).
type GameService struct {
	store GameStore
	locks *lock.ChatGameLock
	rules []config.OverrideRule
	randn func(n int) int
	now   func() time.Time
}

// NewGameService creates a new GameService instance. Override rules come
// from configuration; an empty slice disables the special-case path.
func NewGameService(store GameStore, locks *lock.ChatGameLock, rules []config.OverrideRule) *GameService {
	return &GameService{
		store: store,
		locks: locks,
		rules: rules,
		randn: rand.Intn,
		now:   time.Now,
	}
}

// WithClock replaces the time source. For tests.
func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

// WithRand replaces the random index source. For tests.
func (s *GameService) WithRand(randn func(n int) int) *GameService {
	s.randn = randn
	return s
}

// Run executes one run command for the chat and game. The per-chat-game
// lock serializes concurrent runs in this process; the store's conditional
// commit settles races across processes. A failed commit leaves the day
// unresolved so a manual retry can complete it.
func (s *GameService) Run(ctx context.Context, chatID int64, game model.GameType) (*RunResult, error) {
	s.locks.Lock(chatID, game)
	defer s.locks.Unlock(chatID, game)

	now := s.now()
	day := now.YearDay()

	ran, err := s.store.HasRunToday(ctx, chatID, day, game)
	if err != nil {
		return &RunResult{Outcome: RunFailed}, fmt.Errorf("failed to check run state: %w", err)
	}
	if ran {
		return s.announceExisting(ctx, chatID, game)
	}

	players, err := s.store.ListPlayers(ctx, chatID)
	if err != nil {
		return &RunResult{Outcome: RunFailed}, fmt.Errorf("failed to list players: %w", err)
	}
	if len(players) == 0 {
		return &RunResult{Outcome: RunNoPlayers}, nil
	}

	winner := s.pickWinner(players, game, now)
	winnerName := winner.User.DisplayName()

	err = s.store.CommitWinner(ctx, chatID, winner.User.ID, winnerName, day, game)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCommitted) {
			// Lost a cross-process race; someone else's winner stands.
			return s.announceExisting(ctx, chatID, game)
		}
		log.Error().Err(err).
			Int64("chat_id", chatID).
			Stringer("game", game).
			Msg("Failed to commit winner")
		return &RunResult{Outcome: RunFailed}, fmt.Errorf("failed to commit winner: %w", err)
	}

	log.Info().
		Int64("chat_id", chatID).
		Stringer("game", game).
		Str("winner", winnerName).
		Msg("Winner selected")

	return &RunResult{Outcome: RunSelected, WinnerName: winnerName}, nil
}

// announceExisting re-reads the stored winner for re-announcement.
// Read-only: no new selection, no counter change.
func (s *GameService) announceExisting(ctx context.Context, chatID int64, game model.GameType) (*RunResult, error) {
	winner, err := s.store.CurrentWinner(ctx, chatID, game)
	if err != nil {
		return &RunResult{Outcome: RunFailed}, fmt.Errorf("failed to get current winner: %w", err)
	}
	if winner == "" {
		winner = messages.UnknownWinner
	}
	return &RunResult{Outcome: RunAlreadyToday, WinnerName: winner}, nil
}

// pickWinner applies the configured override rules before falling back to
// uniform random selection. An active rule whose username is absent from
// the roster falls back to random and logs the miss.
func (s *GameService) pickWinner(players []model.Player, game model.GameType, now time.Time) model.Player {
	for _, rule := range s.rules {
		if !rule.Active(game, now) {
			continue
		}
		for _, p := range players {
			if p.User.Username == rule.Username {
				log.Info().
					Str("username", rule.Username).
					Stringer("game", game).
					Msg("Override rule matched, selecting pinned winner")
				return p
			}
		}
		log.Warn().
			Str("username", rule.Username).
			Stringer("game", game).
			Msg("Override rule active but username not on roster, selecting randomly")
		break
	}

	return players[s.randn(len(players))]
}
