package handler

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v3"

	"user-of-the-day-bot/internal/messages"
	"user-of-the-day-bot/internal/model"
	"user-of-the-day-bot/internal/service"
)

// GameHandler handles the daily game run commands.
type GameHandler struct {
	gameService *service.GameService
	delay       time.Duration
}

// NewGameHandler creates a new GameHandler. The delay separates the
// suspense messages of a fresh announcement.
func NewGameHandler(gameService *service.GameService, delay time.Duration) *GameHandler {
	return &GameHandler{gameService: gameService, delay: delay}
}

// HandleUserOfDay handles the /run command.
func (h *GameHandler) HandleUserOfDay(c tele.Context) error {
	return h.runGame(c, model.GameUserOfDay, messages.UserOfDay)
}

// HandlePidorOfDay handles the /pidor command.
func (h *GameHandler) HandlePidorOfDay(c tele.Context) error {
	return h.runGame(c, model.GamePidorOfDay, messages.PidorOfDay)
}

// runGame executes one run command and delivers the result. A game that
// already ran today re-announces its winner with no suspense sequence.
func (h *GameHandler) runGame(c tele.Context, game model.GameType, sequence []string) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	result, err := h.gameService.Run(ctx, chat.ID, game)
	if err != nil {
		return c.Send(messages.RunFailed)
	}

	switch result.Outcome {
	case service.RunAlreadyToday:
		return c.Send(sequence[0] + result.WinnerName)
	case service.RunNoPlayers:
		return c.Send(messages.NoPlayers)
	case service.RunSelected:
		return h.announce(c, sequence, result.WinnerName)
	default:
		return c.Send(messages.RunFailed)
	}
}

// announce sends the suspense lines with a pause between them, then the
// winner line last.
func (h *GameHandler) announce(c tele.Context, sequence []string, winnerName string) error {
	for _, msg := range sequence[1:] {
		if err := c.Send(msg); err != nil {
			return err
		}
		time.Sleep(h.delay)
	}
	return c.Send(sequence[0] + winnerName)
}
