// Package main is the entry point for the daily-winner bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"user-of-the-day-bot/internal/bot"
	"user-of-the-day-bot/internal/config"
	"user-of-the-day-bot/internal/pkg/db"
	"user-of-the-day-bot/internal/pkg/lock"
	"user-of-the-day-bot/internal/repository"
	"user-of-the-day-bot/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Int("allowed_chats", len(cfg.Allowlist.Chats)).
		Int("override_rules", len(cfg.Overrides)).
		Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	if cfg.Seed.File != "" {
		seed, err := repository.LoadSeedFile(cfg.Seed.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Seed.File).Msg("Failed to load seed file")
		}
		if err := repository.SeedIfEmpty(ctx, dbPool.Pool, seed); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed database")
		}
	}

	store := repository.NewStore(dbPool.Pool)
	gameLocks := lock.New()

	rosterService := service.NewRosterService(store.RosterRepository)
	gameService := service.NewGameService(store, gameLocks, cfg.Overrides)
	statsService := service.NewStatsService(store.RosterRepository)

	deps := &bot.Dependencies{
		Config:        cfg,
		RosterService: rosterService,
		GameService:   gameService,
		StatsService:  statsService,
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}
