// Package app wires configuration, storage and services for the binaries.
package app

import (
	"fmt"
	"time"

	"github.com/ivanoskov/wallet/internal/analytics"
	"github.com/ivanoskov/wallet/internal/bot"
	"github.com/ivanoskov/wallet/internal/charts"
	"github.com/ivanoskov/wallet/internal/config"
	"github.com/ivanoskov/wallet/internal/format"
	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/repository"
	"github.com/ivanoskov/wallet/internal/service"
)

// App holds everything built from one Config.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend *repository.Backend
	Finance *service.ExpenseTracker
	Tasks   *service.TaskTracker
	Money   *format.Money
	Charts  *charts.ChartGenerator
}

// New validates cfg and builds the store and services. A nil logger logs to
// stdout at cfg.LogLevel.
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel)})
	}

	backend, err := repository.NewBackend(cfg, logger.WithComponent(log.ComponentStorage))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	money := format.NewMoney(cfg.Currency, cfg.CurrencyFraction)
	opts := service.Options{
		Analytics: analytics.Options{
			WindowDays: cfg.WindowDays,
			TopN:       cfg.TopN,
			Policy:     analytics.PolicyIncome,
			Colors:     analytics.HashColor,
		},
		Geometry: charts.GeometryForSize(float64(cfg.ChartSize)),
		CacheTTL: cfg.ReportCacheTTL,
		Now:      time.Now,
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Backend: backend,
		Finance: service.NewExpenseTracker(backend, opts, logger),
		Tasks:   service.NewTaskTracker(backend, time.Now, logger),
		Money:   money,
		// raster charts are drawn larger than the vector geometry
		Charts: charts.NewChartGenerator(4*cfg.ChartSize, money.Format),
	}, nil
}

// BotDeps returns the services the Telegram bot needs.
func (a *App) BotDeps() bot.Deps {
	return bot.Deps{
		Finance: a.Finance,
		Tasks:   a.Tasks,
		Money:   a.Money,
		Charts:  a.Charts,
		Logger:  a.Logger,
		Now:     time.Now,
	}
}
