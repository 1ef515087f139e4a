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

	"github.com/ldmay/flipside/internal/game"
	"github.com/ldmay/flipside/internal/gateway"
	"github.com/ldmay/flipside/internal/leaderboard"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Leaderboard store: Postgres when configured, in-memory otherwise.
	var store leaderboard.Store
	if config.Database.Enabled {
		pool, err := setupDatabase(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up database")
		}
		defer pool.Close()
		store = leaderboard.NewPostgresStore(pool)
	} else {
		log.Info().Msg("using in-memory leaderboard store")
		store = leaderboard.NewMemoryStore()
	}

	// Score event publisher: NATS JetStream when configured.
	var publisher leaderboard.Publisher
	if config.NATS.Enabled {
		jsCfg := leaderboard.DefaultJetStreamConfig()
		jsCfg.URL = getEnv("NATS_URL", config.NATS.URL)
		jsCfg.StreamName = config.NATS.StreamName
		jsCfg.SubjectPrefix = config.NATS.SubjectPrefix
		jsPublisher, err := leaderboard.NewJetStreamPublisher(jsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer jsPublisher.Close()
		publisher = jsPublisher
	}

	lb := leaderboard.New(store, publisher, config.Leaderboard.ID)

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.GameConfig = game.Config{Pairs: config.Game.Pairs}
	gatewayService := gateway.NewService(gatewayConfig, lb)

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	server := setupServer(config, gatewayService)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
