// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"user-of-the-day-bot/internal/config"
	"user-of-the-day-bot/internal/handler"
	"user-of-the-day-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	rosterHandler *handler.RosterHandler
	gameHandler   *handler.GameHandler
	statsHandler  *handler.StatsHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config        *config.Config
	RosterService *service.RosterService
	GameService   *service.GameService
	StatsService  *service.StatsService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.rosterHandler = handler.NewRosterHandler(deps.RosterService)
	b.gameHandler = handler.NewGameHandler(deps.GameService, deps.Config.Messages.Delay)
	b.statsHandler = handler.NewStatsHandler(deps.StatsService)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(GroupOnlyMiddleware())
	b.bot.Use(AllowlistMiddleware(b.cfg))
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/reg", b.rosterHandler.HandleRegister)

	b.bot.Handle("/run", b.gameHandler.HandleUserOfDay)
	b.bot.Handle("/pidor", b.gameHandler.HandlePidorOfDay)

	b.bot.Handle("/stat_user", b.statsHandler.HandleUserStats)
	b.bot.Handle("/stats", b.statsHandler.HandleUserStats)
	b.bot.Handle("/stat_pidor", b.statsHandler.HandlePidorStats)
	b.bot.Handle("/pidorstats", b.statsHandler.HandlePidorStats)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
