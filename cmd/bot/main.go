package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivanoskov/wallet/internal/app"
	"github.com/ivanoskov/wallet/internal/bot"
	"github.com/ivanoskov/wallet/internal/config"
	"github.com/ivanoskov/wallet/internal/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.New(log.Config{}).Error("failed to load config", log.FieldError, err)
		os.Exit(1)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentApp})
	log.SetDefault(logger)

	if err := cfg.RequireTelegram(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", log.FieldError, err)
		os.Exit(1)
	}

	b, err := bot.NewBot(cfg.TelegramToken, a.BotDeps())
	if err != nil {
		logger.Error("failed to create bot", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil {
		logger.Error("bot stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}
