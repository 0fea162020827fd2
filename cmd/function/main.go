package main

import (
	"context"
	"net/http"

	"github.com/ivanoskov/wallet/internal/app"
	"github.com/ivanoskov/wallet/internal/bot"
	"github.com/ivanoskov/wallet/internal/config"
	"github.com/ivanoskov/wallet/internal/log"
)

// Request is the API Gateway event carrying a Telegram update.
type Request struct {
	Body string `json:"body"`
}

// Response is returned to API Gateway.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Handler serves one webhook call. Every call builds its own wiring, so the
// function holds no state between invocations.
func Handler(ctx context.Context, request Request) (*Response, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return errorResponse(err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		return errorResponse(err)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), Component: log.ComponentApp})
	a, err := app.New(cfg, logger)
	if err != nil {
		return errorResponse(err)
	}

	b, err := bot.NewBot(cfg.TelegramToken, a.BotDeps())
	if err != nil {
		return errorResponse(err)
	}

	if err := b.HandleWebhook(ctx, []byte(request.Body)); err != nil {
		logger.ErrorContext(ctx, "failed to handle webhook", log.FieldError, err)
		return errorResponse(err)
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func errorResponse(err error) (*Response, error) {
	return &Response{
		StatusCode: http.StatusInternalServerError,
		Body:       err.Error(),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, nil
}

func main() {
	// The function runtime calls Handler directly.
}
