package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/wallet/internal/analytics"
	"github.com/ivanoskov/wallet/internal/format"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/repository"
	"github.com/ivanoskov/wallet/internal/service"
)

type fakeSender struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	callbacks []tgbotapi.CallbackConfig

	// onSend runs before a message is recorded; tests use it to hold a handler.
	onSend func(c tgbotapi.Chattable)
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.onSend != nil {
		f.onSend(c)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.callbacks = append(f.callbacks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.PhotoConfig:
			out = append(out, m.Caption)
		}
	}
	return out
}

func (f *fakeSender) last() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

const (
	testChat = int64(42)
	testUser = int64(7)
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestBot(t *testing.T) (*Bot, *fakeSender, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	clock := testNow.Add(-time.Hour)
	repo.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	now := func() time.Time { return testNow }
	sender := &fakeSender{}
	b := NewWithSender(sender, Deps{
		Finance: service.NewExpenseTracker(repo, service.Options{Analytics: analytics.DefaultOptions(), Now: now}, nil),
		Tasks:   service.NewTaskTracker(repo, now, nil),
		Money:   format.NewMoney("USD", -1),
		Now:     now,
	})
	return b, sender, repo
}

func textUpdate(text string) tgbotapi.Update {
	return textUpdateIn(testChat, text)
}

func textUpdateIn(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUser},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: testUser},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    data,
	}}
}

func handle(t *testing.T, b *Bot, u tgbotapi.Update) {
	t.Helper()
	if err := b.HandleUpdate(context.Background(), u); err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}
}

func TestBot_Start(t *testing.T) {
	b, sender, _ := newTestBot(t)
	handle(t, b, textUpdate("/start"))

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	msg := sender.sent[0].(tgbotapi.MessageConfig)
	if _, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Fatalf("start should show the main keyboard, got %T", msg.ReplyMarkup)
	}
}

func TestBot_ExpenseFlow(t *testing.T) {
	ctx := context.Background()
	b, sender, repo := newTestBot(t)

	handle(t, b, textUpdate(buttonExpense))
	msg := sender.sent[0].(tgbotapi.MessageConfig)
	if _, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Fatalf("expected category keyboard, got %T", msg.ReplyMarkup)
	}

	handle(t, b, callbackUpdate("cat:Food"))
	if len(sender.callbacks) != 1 {
		t.Fatalf("callback not answered")
	}

	handle(t, b, textUpdate("abc"))
	if !strings.Contains(sender.last(), "amount") {
		t.Fatalf("bad amount reply = %q", sender.last())
	}

	handle(t, b, textUpdate("1200,5 lunch with team"))
	if got := sender.last(); got != "Saved -$1,200.50 Food · lunch with team ✅" {
		t.Fatalf("reply = %q", got)
	}

	txs, _ := repo.GetTransactions(ctx, "7", model.TransactionFilter{})
	if len(txs) != 1 || txs[0].Note != "Food|lunch with team" || txs[0].Type != model.Expense {
		t.Fatalf("stored = %+v", txs)
	}
	if _, ok := b.state(testChat); ok {
		t.Fatal("state should be cleared after saving")
	}
}

func TestBot_ReportSendsChart(t *testing.T) {
	b, sender, _ := newTestBot(t)

	handle(t, b, textUpdate("/report"))
	if !strings.Contains(sender.last(), "No expenses yet") {
		t.Fatalf("empty report = %q", sender.last())
	}

	handle(t, b, textUpdate("/income"))
	handle(t, b, textUpdate("1000 salary"))
	handle(t, b, callbackUpdate("cat:Food"))
	handle(t, b, textUpdate("250"))
	handle(t, b, textUpdate("/report"))

	photo, ok := sender.sent[len(sender.sent)-1].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("report sent %T, want a photo", sender.sent[len(sender.sent)-1])
	}
	for _, want := range []string{"Last 30 days", "• Food: $250.00 (25.0%)", "• Remaining: $750.00 (75.0%)"} {
		if !strings.Contains(photo.Caption, want) {
			t.Fatalf("caption %q missing %q", photo.Caption, want)
		}
	}
	file, ok := photo.File.(tgbotapi.FileBytes)
	if !ok || len(file.Bytes) == 0 {
		t.Fatalf("photo file = %T", photo.File)
	}
}

func TestBot_BusyChatDropsUpdates(t *testing.T) {
	ctx := context.Background()
	b, sender, _ := newTestBot(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	sender.onSend = func(tgbotapi.Chattable) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	done := make(chan error, 1)
	go func() { done <- b.HandleUpdate(ctx, textUpdate("/start")) }()
	<-entered

	handle(t, b, textUpdate("/help"))
	handle(t, b, callbackUpdate("back"))
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("HandleUpdate: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("busy chat got %d messages, want only the first reply", len(sender.sent))
	}
	if len(sender.callbacks) != 1 || sender.callbacks[0].Text != "Still working on it…" {
		t.Fatalf("busy callback answers = %+v", sender.callbacks)
	}

	handle(t, b, textUpdate("/start"))
	if len(sender.sent) != 2 {
		t.Fatalf("after release sent %d messages", len(sender.sent))
	}
}

func TestBot_ServeHandlesChatsConcurrently(t *testing.T) {
	const slowChat, fastChat = int64(1), int64(2)
	b, sender, _ := newTestBot(t)

	release := make(chan struct{})
	fastSent := make(chan struct{})
	var fastOnce sync.Once
	sender.onSend = func(c tgbotapi.Chattable) {
		msg, ok := c.(tgbotapi.MessageConfig)
		if !ok {
			return
		}
		switch msg.ChatID {
		case slowChat:
			<-release
		case fastChat:
			fastOnce.Do(func() { close(fastSent) })
		}
	}

	updates := make(chan tgbotapi.Update, 2)
	updates <- textUpdateIn(slowChat, "/start")
	updates <- textUpdateIn(fastChat, "/start")
	close(updates)

	errc := make(chan error, 1)
	go func() { errc <- b.serve(context.Background(), updates) }()

	select {
	case <-fastSent:
	case <-time.After(2 * time.Second):
		t.Fatal("second chat waited for the first one")
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
}

func TestBot_CardsAndSalary(t *testing.T) {
	ctx := context.Background()
	b, sender, repo := newTestBot(t)

	handle(t, b, textUpdate("/addcard Main card 4111-1111-1111-4242 12/27 default"))
	if got := sender.last(); got != "Card Main card •••• 4242 added ✅" {
		t.Fatalf("reply = %q", got)
	}
	cards, _ := repo.GetCards(ctx, "7")
	if len(cards) != 1 || cards[0].ExpYear != 2027 || !cards[0].IsDefault {
		t.Fatalf("cards = %+v", cards)
	}

	handle(t, b, textUpdate("/addcard x 4242 13/27"))
	if !strings.Contains(sender.last(), service.ErrInvalidExpMonth.Error()) {
		t.Fatalf("reply = %q", sender.last())
	}

	handle(t, b, textUpdate("/salary"))
	if !strings.Contains(sender.last(), "No salary set for 2024-06") {
		t.Fatalf("reply = %q", sender.last())
	}
	handle(t, b, textUpdate("/salary 3000"))
	handle(t, b, textUpdate("/salary"))
	if got := sender.last(); got != "Salary for 2024-06: $3,000.00" {
		t.Fatalf("reply = %q", got)
	}
}

func TestBot_Tasks(t *testing.T) {
	ctx := context.Background()
	b, sender, repo := newTestBot(t)

	handle(t, b, textUpdate("/task Pay rent | June rent | 900 | Rent"))
	if got := sender.last(); got != "Task 'Pay rent' added ✅" {
		t.Fatalf("reply = %q", got)
	}
	tasks, _ := repo.GetTasks(ctx, "7", nil)
	if len(tasks) != 1 || tasks[0].Amount == nil || *tasks[0].Amount != 900 {
		t.Fatalf("tasks = %+v", tasks)
	}

	handle(t, b, callbackUpdate("done:"+tasks[0].ID))
	open, _ := repo.GetTasks(ctx, "7", ptr(false))
	if len(open) != 0 {
		t.Fatalf("open tasks = %+v", open)
	}

	handle(t, b, textUpdate("/task only a title"))
	if !strings.HasPrefix(sender.last(), "❌") {
		t.Fatalf("reply = %q", sender.last())
	}
}

func TestParseCardArgs(t *testing.T) {
	tests := []struct {
		args    string
		want    service.CardInput
		wantErr bool
	}{
		{args: "Visa 4242 01/2030", want: service.CardInput{Label: "Visa", Number: "4242", ExpMonth: 1, ExpYear: 2030}},
		{args: "4242 1/29 DEFAULT", want: service.CardInput{Number: "4242", ExpMonth: 1, ExpYear: 2029, IsDefault: true}},
		{args: "4242", wantErr: true},
		{args: "Visa 4242 1229", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseCardArgs(tt.args)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseCardArgs(%q) err = %v", tt.args, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("parseCardArgs(%q) = %+v, want %+v", tt.args, got, tt.want)
		}
	}
}

func TestCallbackDataIsBounded(t *testing.T) {
	long := strings.Repeat("é", 40)
	data := callbackData(callbackCategory, long)
	if len(data) > maxCallbackData {
		t.Fatalf("len = %d", len(data))
	}
	if !strings.HasPrefix(data, "cat:é") || strings.ContainsRune(data, '�') {
		t.Fatalf("data = %q", data)
	}
}

func ptr[T any](v T) *T { return &v }
