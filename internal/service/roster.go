// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"user-of-the-day-bot/internal/messages"
	"user-of-the-day-bot/internal/repository"
)

// RosterService handles game registration.
type RosterService struct {
	roster *repository.RosterRepository
}

// NewRosterService creates a new RosterService instance.
func NewRosterService(roster *repository.RosterRepository) *RosterService {
	return &RosterService{roster: roster}
}

// Register admits a user into a chat's game. Repeated attempts leave the
// stored state untouched; the reply tells the user why. Stored names are
// never refreshed by a duplicate attempt.
// Returns:
// - admitted: whether a new roster entry was created
// - message: the user-facing reply text
// - error: the underlying cause when registration failed
func (s *RosterService) Register(ctx context.Context, chatID, userID int64, username, firstName string) (bool, string, error) {
	outcome, err := s.roster.Register(ctx, chatID, userID, username, firstName)
	if err != nil {
		log.Error().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Msg("Registration failed")
		return false, messages.RegistrationFailed, err
	}

	switch outcome {
	case repository.RegisterAlreadyMember:
		return false, messages.RegistrationAlready, nil
	case repository.RegisterAdmitted:
		name := firstName
		if name == "" {
			name = username
		}
		return true, fmt.Sprintf(messages.RegistrationDone, name), nil
	default:
		return false, messages.RegistrationFailed, nil
	}
}
