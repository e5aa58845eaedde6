// main.go
//
// Entry point for the Hangman Go server.
// Startup order: .env → config → logging → telemetry → database + migrations
// → word lists → game session store → HTTP server. Shuts down gracefully on
// SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/internal/account"
	"github.com/robalobadob/hangman/internal/config"
	"github.com/robalobadob/hangman/internal/credentials"
	"github.com/robalobadob/hangman/internal/database"
	"github.com/robalobadob/hangman/internal/httpserver"
	"github.com/robalobadob/hangman/internal/stats"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/telemetry"
	"github.com/robalobadob/hangman/internal/words"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOtel, err := telemetry.InitOtel(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init telemetry")
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown")
		}
	}()
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	src, err := words.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}
	medium, long := src.Counts()
	log.Info().Int("medium", medium).Int("long", long).Msg("word lists loaded")

	games, closeGames, err := openGameStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open game store")
	}
	defer closeGames()

	srv := httpserver.New(cfg, httpserver.Deps{
		Accounts: account.NewService(credentials.NewStore(db)),
		Games:    games,
		Words:    src,
		Stats:    stats.NewStore(db),
		Metrics:  metrics,
	})
	hs := srv.HTTPServer(":" + cfg.Port)

	go func() {
		log.Info().Str("port", cfg.Port).Str("db", cfg.DBDriver).Str("store", cfg.StoreBackend).Msg("starting hangman server")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openGameStore builds the configured session store and its cleanup.
func openGameStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.StoreBackend != "redis" {
		return store.NewMemoryStore(cfg.GameTTL), func() {}, nil
	}
	rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return store.NewRedisStore(rdb, cfg.GameTTL), func() { _ = rdb.Close() }, nil
}
