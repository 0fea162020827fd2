package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ivanoskov/wallet/internal/busy"
	"github.com/ivanoskov/wallet/internal/charts"
	"github.com/ivanoskov/wallet/internal/format"
	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/service"
)

// maxInFlight bounds the updates handled at the same time.
const maxInFlight = 16

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the services behind the bot.
type Deps struct {
	Finance *service.ExpenseTracker
	Tasks   *service.TaskTracker
	Money   *format.Money
	Charts  *charts.ChartGenerator
	Logger  *log.Logger
	Now     func() time.Time
}

type Bot struct {
	api    *tgbotapi.BotAPI
	sender Sender
	deps   Deps
	logger *log.Logger

	mu     sync.Mutex
	states map[int64]*model.UserState
	busy   map[int64]*busy.Tracker
}

// NewBot connects to Telegram with token.
func NewBot(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	b := NewWithSender(api, deps)
	b.api = api
	return b, nil
}

// NewWithSender builds a bot that sends through s. Start needs a bot created
// by NewBot; webhooks work with any sender.
func NewWithSender(s Sender, deps Deps) *Bot {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Money == nil {
		deps.Money = format.NewMoney("USD", -1)
	}
	if deps.Charts == nil {
		deps.Charts = charts.NewChartGenerator(0, deps.Money.Format)
	}
	return &Bot{
		sender: s,
		deps:   deps,
		logger: deps.Logger.WithComponent(log.ComponentBot),
		states: make(map[int64]*model.UserState),
		busy:   make(map[int64]*busy.Tracker),
	}
}

// Start runs long polling until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("long polling needs a bot created with NewBot")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.InfoContext(ctx, "bot started", log.FieldOperation, log.OpStartup)
	return b.serve(ctx, updates)
}

// serve handles updates concurrently, at most maxInFlight at a time, until
// ctx is cancelled or updates is closed. It waits for running handlers.
func (b *Bot) serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var g errgroup.Group
	g.SetLimit(maxInFlight)
	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				if err := b.HandleUpdate(ctx, update); err != nil {
					b.logger.ErrorContext(ctx, "failed to handle update", log.FieldError, err)
				}
				return nil
			})
		}
	}
}

// HandleWebhook handles one update delivered as a webhook body.
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("invalid update: %w", err)
	}
	return b.HandleUpdate(ctx, update)
}

// HandleUpdate routes a single update. Updates arriving while the same chat
// is still being served are dropped.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	var chatID int64
	switch {
	case update.Message != nil && update.Message.Chat != nil && update.Message.From != nil:
		chatID = update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.From != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
	default:
		return nil
	}

	end, ok := b.tracker(chatID).TryBegin()
	if !ok {
		if update.CallbackQuery != nil {
			_, _ = b.sender.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "Still working on it…"))
		}
		b.logger.DebugContext(ctx, "chat busy, update dropped", log.FieldChatID, chatID)
		return nil
	}
	defer end()

	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message.IsCommand():
		return b.handleCommand(ctx, update.Message)
	default:
		return b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) tracker(chatID int64) *busy.Tracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.busy[chatID]
	if !ok {
		t = &busy.Tracker{}
		b.busy[chatID] = t
	}
	return t
}

func (b *Bot) state(chatID int64) (model.UserState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.states[chatID]
	if !ok {
		return model.UserState{}, false
	}
	return *s, true
}

func (b *Bot) setState(chatID int64, s model.UserState) {
	s.UpdatedAt = b.deps.Now()
	b.mu.Lock()
	b.states[chatID] = &s
	b.mu.Unlock()
}

func (b *Bot) clearState(chatID int64) {
	b.mu.Lock()
	delete(b.states, chatID)
	b.mu.Unlock()
}

func userID(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		b.logger.Error("failed to send message", log.FieldError, err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.reply(chatID, "❌ "+text)
}
