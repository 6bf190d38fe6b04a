package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"user-of-the-day-bot/internal/model"
)

// ErrNoPlayers is returned when a chat has an empty roster.
var ErrNoPlayers = errors.New("no players registered in chat")

// PlayerLister provides roster reads for the statistics view.
type PlayerLister interface {
	ListPlayers(ctx context.Context, chatID int64) ([]model.Player, error)
}

// StatsService builds ranked win-count tables over a chat's roster.
type StatsService struct {
	roster PlayerLister
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(roster PlayerLister) *StatsService {
	return &StatsService{roster: roster}
}

// Ranking returns the chat's members ordered by descending win count for
// the given game, with 1-based ranks. The sort is stable: ties keep the
// store's return order, which the store orders by the user-of-the-day
// counter regardless of the requested game.
func (s *StatsService) Ranking(ctx context.Context, chatID int64, game model.GameType) ([]model.RankedPlayer, error) {
	players, err := s.roster.ListPlayers(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	if len(players) == 0 {
		return nil, ErrNoPlayers
	}

	sorted := make([]model.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count(game) > sorted[j].Count(game)
	})

	ranked := make([]model.RankedPlayer, len(sorted))
	for i, p := range sorted {
		ranked[i] = model.RankedPlayer{
			Rank:        i + 1,
			DisplayName: p.User.DisplayName(),
			Count:       p.Count(game),
		}
	}

	return ranked, nil
}
