package bot

import (
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"user-of-the-day-bot/internal/config"
	"user-of-the-day-bot/internal/messages"
)

// AllowlistMiddleware drops updates from chats outside the configured
// allowlist. The game core is only ever invoked for allowed chats.
func AllowlistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Info().
					Int64("chat_id", chat.ID).
					Msg("Access denied for chat")
				return nil
			}

			return next(c)
		}
	}
}

// GroupOnlyMiddleware rejects commands sent in private chats; every game
// command is chat-scoped.
func GroupOnlyMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			if chat == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				return c.Send(messages.GroupOnly)
			}

			return next(c)
		}
	}
}

// LoggingMiddleware logs all incoming messages.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received message")

			return next(c)
		}
	}
}

// RecoveryMiddleware recovers from panics in handlers.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					_ = c.Send(messages.RunFailed)
				}
			}()
			return next(c)
		}
	}
}
