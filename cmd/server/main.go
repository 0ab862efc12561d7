package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbellot/parley/internal/adapters"
	router "github.com/mbellot/parley/internal/adapters/http"
	"github.com/mbellot/parley/internal/app"
	"github.com/mbellot/parley/internal/auth"
	"github.com/mbellot/parley/internal/config"
	"github.com/mbellot/parley/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := store.Open(cfg.BadgerPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open badger")
	}
	defer db.Close()

	users := store.NewUserStore(db)
	rooms := store.NewRoomStore(db)
	messages := store.NewMessageStore(db, cfg.HistoryPageSize)

	registry := app.NewRegistry()
	channels := app.NewChannelSet()
	presence := app.NewPresence(registry, users)
	limiter := app.NewRateLimiter(cfg.MsgRateLimit, cfg.MsgRateInterval)
	chatRouter := app.NewRouter(registry, channels, presence, users, rooms, messages, limiter)

	issuer := auth.NewTokenIssuer(cfg.Secret, cfg.TokenTTL)
	handlers := &router.Handlers{Users: users, Rooms: rooms, Messages: messages, Issuer: issuer}
	ws := adapters.NewWSController(chatRouter, issuer, cfg)

	r := router.SetupRouter(ctx, cfg, handlers, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("parley server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
