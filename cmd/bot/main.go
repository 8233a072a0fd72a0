// Command bot runs the Padel Watch service: the Telegram bot, the
// availability monitoring loop, and the Mini-App API server.
//
// Usage:
//
//	padelwatch-bot
//	API_PORT=8080 padelwatch-bot
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/padelwatch/padelwatch/internal/api"
	"github.com/padelwatch/padelwatch/internal/availability"
	"github.com/padelwatch/padelwatch/internal/bot"
	"github.com/padelwatch/padelwatch/internal/cache"
	"github.com/padelwatch/padelwatch/internal/config"
	"github.com/padelwatch/padelwatch/internal/db"
	"github.com/padelwatch/padelwatch/internal/monitor"
	"github.com/padelwatch/padelwatch/internal/notify"
	"github.com/padelwatch/padelwatch/internal/provider"
	"github.com/padelwatch/padelwatch/internal/subscription"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	tz, err := time.LoadLocation(config.VenueTimezone)
	if err != nil {
		logger.Error("Failed to load venue timezone", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	store := subscription.NewStore(pool.Pool, tz)

	// Provider adapters and availability aggregation
	registry := provider.DefaultRegistry(cfg, logger)
	aggregator := availability.NewAggregator(registry, logger)

	// Telegram bot
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("Failed to create bot API client", "error", err)
		os.Exit(1)
	}
	logger.Info("Bot authorized", "username", botAPI.Self.UserName)

	tgBot := bot.New(botAPI, store, aggregator, cfg, tz, logger)
	go func() {
		if err := tgBot.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Bot loop failed", "error", err)
		}
	}()

	// Availability monitoring loop
	notifier := notify.NewTelegramNotifier(botAPI)
	mon := monitor.New(cfg, store, aggregator, notifier, tz, logger)
	go func() {
		if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Monitoring loop failed", "error", err)
		}
	}()

	// Mini-App API server
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	router := api.NewRouter(pool, store, aggregator, appCache, cfg, tz, logger)
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Mini-App API", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Service stopped")
}
