package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"user-of-the-day-bot/internal/messages"
	"user-of-the-day-bot/internal/model"
	"user-of-the-day-bot/internal/service"
)

// StatsHandler handles the statistics commands.
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// HandleUserStats handles /stat_user and /stats.
func (h *StatsHandler) HandleUserStats(c tele.Context) error {
	return h.sendStats(c, model.GameUserOfDay, messages.StatUserHeader)
}

// HandlePidorStats handles /stat_pidor and /pidorstats.
func (h *StatsHandler) HandlePidorStats(c tele.Context) error {
	return h.sendStats(c, model.GamePidorOfDay, messages.StatPidorHeader)
}

func (h *StatsHandler) sendStats(c tele.Context, game model.GameType, header string) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	ranked, err := h.statsService.Ranking(ctx, chat.ID, game)
	if err != nil {
		if errors.Is(err, service.ErrNoPlayers) {
			return c.Send(messages.NoPlayers)
		}
		return c.Send(messages.RunFailed)
	}

	var b strings.Builder
	b.WriteString(header)
	for _, row := range ranked {
		fmt.Fprintf(&b, messages.StatRow, row.Rank, row.DisplayName, row.Count)
	}

	return c.Send(b.String())
}
