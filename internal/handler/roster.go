// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"user-of-the-day-bot/internal/service"
)

// RosterHandler handles game registration commands.
type RosterHandler struct {
	rosterService *service.RosterService
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(rosterService *service.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

// HandleRegister handles the /reg command: admits the sender into the
// chat's game. Duplicate attempts get told so; store failures degrade to
// a generic reply.
func (h *RosterHandler) HandleRegister(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	_, msg, _ := h.rosterService.Register(ctx, chat.ID, sender.ID, sender.Username, sender.FirstName)
	return c.Send(msg)
}
