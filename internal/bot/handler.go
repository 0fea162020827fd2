package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivanoskov/wallet/internal/charts"
	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/notes"
	"github.com/ivanoskov/wallet/internal/service"
)

// Awaited inputs.
const (
	awaitAmount       = "amount"
	awaitCategoryName = "new_category"
	awaitTask         = "new_task"
)

const historySize = 10

const helpText = "Commands:\n" +
	"/add – add an expense\n" +
	"/income – add income\n" +
	"/report – category breakdown\n" +
	"/summary – balance and default card\n" +
	"/history – latest transactions\n" +
	"/categories – your categories\n" +
	"/cards – your cards\n" +
	"/addcard <label> <number> <MM/YY> [default]\n" +
	"/salary [amount] – this month's salary\n" +
	"/tasks – open tasks\n" +
	"/task <title> | <description> [| amount [| category]]\n" +
	"/cancel – stop the current input"

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	cmd := message.Command()
	b.logger.DebugContext(ctx, "command", log.FieldChatID, message.Chat.ID, log.FieldCommand, cmd)

	switch cmd {
	case "start":
		b.handleStart(message)
	case "help":
		b.reply(message.Chat.ID, helpText)
	case "add":
		return b.handleAddExpense(ctx, message.Chat.ID, message.From)
	case "income":
		b.handleAddIncome(message.Chat.ID, message.From)
	case "report":
		return b.handleReport(ctx, message.Chat.ID, message.From)
	case "summary":
		return b.handleSummary(ctx, message.Chat.ID, message.From)
	case "history":
		return b.handleHistory(ctx, message.Chat.ID, message.From)
	case "categories":
		return b.handleCategories(ctx, message.Chat.ID, message.From)
	case "cards":
		return b.handleCards(ctx, message.Chat.ID, message.From)
	case "addcard":
		return b.handleAddCard(ctx, message)
	case "salary":
		return b.handleSalary(ctx, message)
	case "tasks":
		return b.handleTasks(ctx, message.Chat.ID, message.From)
	case "task":
		return b.createTask(ctx, message.Chat.ID, message.From, message.CommandArguments())
	case "cancel":
		b.clearState(message.Chat.ID)
		b.showMenu(message.Chat.ID, "Cancelled.")
	default:
		b.reply(message.Chat.ID, "Unknown command. "+helpText)
	}
	return nil
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	b.clearState(message.Chat.ID)
	b.showMenu(message.Chat.ID,
		"Welcome to Wallet! 💰\n\n"+
			"I keep track of your income and expenses:\n\n"+
			"• add income and expenses by category\n"+
			"• show where the money went this month\n"+
			"• keep cards, a monthly salary and a task list\n\n"+
			"Pick an action:")
}

func (b *Bot) showMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = getMainKeyboard()
	b.send(msg)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch text {
	case buttonExpense:
		return b.handleAddExpense(ctx, chatID, message.From)
	case buttonIncome:
		b.handleAddIncome(chatID, message.From)
		return nil
	case buttonReport:
		return b.handleReport(ctx, chatID, message.From)
	case buttonSummary:
		return b.handleSummary(ctx, chatID, message.From)
	case buttonCategories:
		return b.handleCategories(ctx, chatID, message.From)
	case buttonTasks:
		return b.handleTasks(ctx, chatID, message.From)
	}

	state, ok := b.state(chatID)
	if !ok {
		b.showMenu(chatID, "Pick an action:")
		return nil
	}

	switch state.AwaitingAction {
	case awaitAmount:
		return b.saveTransaction(ctx, chatID, state, text)
	case awaitCategoryName:
		if err := b.deps.Finance.AddCategory(ctx, state.UserID, text); err != nil {
			return b.fail(ctx, chatID, "Could not create the category", err)
		}
		b.clearState(chatID)
		b.reply(chatID, fmt.Sprintf("Category '%s' created ✅", strings.TrimSpace(text)))
		return b.handleCategories(ctx, chatID, message.From)
	case awaitTask:
		b.clearState(chatID)
		return b.createTask(ctx, chatID, message.From, text)
	}

	b.clearState(chatID)
	b.showMenu(chatID, "Pick an action:")
	return nil
}

// parseAmountNote reads "<amount> [note]". A comma works as the decimal separator.
func parseAmountNote(text string) (float64, string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, "", service.ErrInvalidAmount
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil {
		return 0, "", service.ErrInvalidAmount
	}
	return amount, strings.Join(fields[1:], " "), nil
}

func (b *Bot) saveTransaction(ctx context.Context, chatID int64, state model.UserState, text string) error {
	amount, note, err := parseAmountNote(text)
	if err != nil {
		b.sendErrorMessage(chatID, "Send the amount first, for example: 1200 lunch")
		return nil
	}

	tx, err := b.deps.Finance.AddTransaction(ctx, state.UserID, service.TransactionInput{
		Type:     state.TransactionType,
		Amount:   amount,
		Category: state.Category,
		Note:     note,
	})
	if errors.Is(err, service.ErrInvalidAmount) {
		b.sendErrorMessage(chatID, "The amount must be a positive number")
		return nil
	}
	if err != nil {
		return b.fail(ctx, chatID, "Could not save the transaction", err)
	}

	b.clearState(chatID)
	b.showMenu(chatID, fmt.Sprintf("Saved %s ✅", b.describe(*tx)))
	return nil
}

func (b *Bot) handleAddExpense(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	choices, err := b.deps.Finance.CategoryChoices(ctx, userID(from))
	if err != nil {
		return b.fail(ctx, chatID, "Could not load categories", err)
	}
	msg := tgbotapi.NewMessage(chatID, "Pick an expense category:")
	msg.ReplyMarkup = getCategoriesKeyboard(choices)
	b.send(msg)
	return nil
}

func (b *Bot) handleAddIncome(chatID int64, from *tgbotapi.User) {
	b.setState(chatID, model.UserState{
		UserID:          userID(from),
		AwaitingAction:  awaitAmount,
		TransactionType: model.Income,
	})
	b.reply(chatID, "Send the amount and an optional note, for example:\n250000 June salary")
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	uid := userID(callback.From)
	defer func() {
		// stops the loading indicator on the button
		_, _ = b.sender.Request(tgbotapi.NewCallback(callback.ID, ""))
	}()

	prefix, value, _ := strings.Cut(callback.Data, ":")
	switch prefix {
	case callbackCategory:
		b.setState(chatID, model.UserState{
			UserID:          uid,
			AwaitingAction:  awaitAmount,
			TransactionType: model.Expense,
			Category:        value,
		})
		b.reply(chatID, fmt.Sprintf("Category: %s\nSend the amount and an optional note, for example:\n1200 lunch", value))
	case callbackNewCategory:
		b.setState(chatID, model.UserState{UserID: uid, AwaitingAction: awaitCategoryName})
		b.reply(chatID, "Send the name of the new category:")
	case callbackDefaultCard:
		if err := b.deps.Finance.SetDefaultCard(ctx, uid, value); err != nil {
			return b.fail(ctx, chatID, "Could not change the default card", err)
		}
		b.reply(chatID, "Default card updated ✅")
	case callbackTaskDone:
		if err := b.deps.Tasks.SetTaskComplete(ctx, uid, value, true); err != nil {
			return b.fail(ctx, chatID, "Could not update the task", err)
		}
		b.reply(chatID, "Task completed ✅")
	case callbackNewTask:
		b.setState(chatID, model.UserState{UserID: uid, AwaitingAction: awaitTask})
		b.reply(chatID, "Send the task as: title | description [| amount [| category]]")
	case callbackBack:
		b.clearState(chatID)
		b.showMenu(chatID, "Pick an action:")
	}
	return nil
}

func (b *Bot) handleReport(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	report, err := b.deps.Finance.Breakdown(ctx, userID(from))
	if err != nil {
		return b.fail(ctx, chatID, "Could not build the report", err)
	}

	days := int(report.Until.Sub(report.Since).Hours() / 24)
	title := fmt.Sprintf("Last %d days", days)
	if report.Empty() {
		b.reply(chatID, "📊 "+title+"\n\nNo expenses yet.")
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s\n\n💰 Income: %s\n💸 Expenses: %s\n\n",
		title, b.deps.Money.Format(report.TotalIncome), b.deps.Money.Format(report.TotalExpense))
	for _, s := range report.Slices {
		fmt.Fprintf(&sb, "• %s: %s (%.1f%%)\n", s.Label, b.deps.Money.Format(s.Value), 100*s.Value/report.TotalBase)
	}

	img, err := b.deps.Charts.GenerateMonthlyDonut(report.Result, title, charts.PNG)
	if err != nil {
		b.logger.WarnContext(ctx, "chart rendering failed, sending text only", log.FieldChatID, chatID, log.FieldError, err)
		b.reply(chatID, sb.String())
		return nil
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "report.png", Bytes: img})
	photo.Caption = sb.String()
	b.send(photo)
	return nil
}

func (b *Bot) handleSummary(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	summary, err := b.deps.Finance.Summary(ctx, userID(from))
	if err != nil {
		return b.fail(ctx, chatID, "Could not load the summary", err)
	}
	card := "none"
	if c := summary.DefaultCard; c != nil {
		card = fmt.Sprintf("%s %s •••• %s", c.Label, c.Brand, c.Last4)
	}
	b.reply(chatID, fmt.Sprintf("💵 Balance: %s\n💰 Income: %s\n💸 Expenses: %s\n💳 Default card: %s",
		b.deps.Money.Format(summary.Balance),
		b.deps.Money.Format(summary.TotalIncome),
		b.deps.Money.Format(summary.TotalExpense),
		card,
	))
	return nil
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	txs, err := b.deps.Finance.ListTransactions(ctx, userID(from), historySize)
	if err != nil {
		return b.fail(ctx, chatID, "Could not load transactions", err)
	}
	if len(txs) == 0 {
		b.reply(chatID, "No transactions yet.")
		return nil
	}
	var sb strings.Builder
	sb.WriteString("🧾 Latest transactions:\n\n")
	for _, tx := range txs {
		date := ""
		if at, ok := model.ParseTimestamp(tx.CreatedAt); ok {
			date = at.In(b.deps.Now().Location()).Format("02 Jan") + " "
		}
		fmt.Fprintf(&sb, "%s%s\n", date, b.describe(tx))
	}
	b.reply(chatID, sb.String())
	return nil
}

// describe renders a transaction as "+$10.00 salary" or "-$5.00 Food · lunch".
func (b *Bot) describe(tx model.Transaction) string {
	amount := b.deps.Money.Signed(tx)
	if tx.Type != model.Expense {
		if tx.Note == "" {
			return amount
		}
		return amount + " " + tx.Note
	}
	n := notes.Decode(tx.Note)
	if n.Detail == "" {
		return amount + " " + n.Category
	}
	return amount + " " + n.Category + " · " + n.Detail
}

func (b *Bot) handleCategories(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	names, err := b.deps.Finance.Categories(ctx, userID(from))
	if err != nil {
		return b.fail(ctx, chatID, "Could not load categories", err)
	}
	var sb strings.Builder
	if len(names) == 0 {
		sb.WriteString("You have no categories yet. The built-in list is used when adding expenses.")
	} else {
		sb.WriteString("📋 Your categories:\n\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "• %s\n", name)
		}
	}
	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = getCategoryManagementKeyboard()
	b.send(msg)
	return nil
}

func (b *Bot) handleCards(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	cards, err := b.deps.Finance.ListCards(ctx, userID(from))
	if err != nil {
		return b.fail(ctx, chatID, "Could not load cards", err)
	}
	if len(cards) == 0 {
		b.reply(chatID, "No cards yet. Add one with /addcard <label> <number> <MM/YY> [default]")
		return nil
	}
	var sb strings.Builder
	sb.WriteString("💳 Your cards:\n\n")
	for _, c := range cards {
		mark := ""
		if c.IsDefault {
			mark = " ⭐"
		}
		fmt.Fprintf(&sb, "• %s %s •••• %s  %02d/%d%s\n", c.Label, c.Brand, c.Last4, c.ExpMonth, c.ExpYear, mark)
	}
	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = getCardsKeyboard(cards)
	b.send(msg)
	return nil
}

// parseCardArgs reads "<label words> <number> <MM/YY|MM/YYYY> [default]".
func parseCardArgs(args string) (service.CardInput, error) {
	fields := strings.Fields(args)
	var in service.CardInput
	if n := len(fields); n > 0 && strings.EqualFold(fields[n-1], "default") {
		in.IsDefault = true
		fields = fields[:n-1]
	}
	if len(fields) < 2 {
		return in, errors.New("usage: /addcard <label> <number> <MM/YY> [default]")
	}

	month, year, ok := strings.Cut(fields[len(fields)-1], "/")
	if !ok {
		return in, errors.New("expiry must look like MM/YY")
	}
	var err error
	if in.ExpMonth, err = strconv.Atoi(month); err != nil {
		return in, service.ErrInvalidExpMonth
	}
	if in.ExpYear, err = strconv.Atoi(year); err != nil {
		return in, service.ErrInvalidExpYear
	}
	if len(year) == 2 {
		in.ExpYear += 2000
	}
	in.Number = fields[len(fields)-2]
	in.Label = strings.Join(fields[:len(fields)-2], " ")
	return in, nil
}

func (b *Bot) handleAddCard(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	in, err := parseCardArgs(message.CommandArguments())
	if err != nil {
		b.sendErrorMessage(chatID, err.Error())
		return nil
	}
	card, err := b.deps.Finance.AddCard(ctx, userID(message.From), in)
	if err != nil {
		if isValidation(err) {
			b.sendErrorMessage(chatID, err.Error())
			return nil
		}
		return b.fail(ctx, chatID, "Could not add the card", err)
	}
	b.reply(chatID, fmt.Sprintf("Card %s •••• %s added ✅", card.Label, card.Last4))
	return nil
}

func (b *Bot) handleSalary(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	uid := userID(message.From)
	month := model.MonthKey(b.deps.Now())

	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		salary, err := b.deps.Finance.MonthlySalary(ctx, uid, month)
		if err != nil {
			return b.fail(ctx, chatID, "Could not load the salary", err)
		}
		if salary == nil {
			b.reply(chatID, fmt.Sprintf("No salary set for %s. Set it with /salary <amount>", month))
			return nil
		}
		b.reply(chatID, fmt.Sprintf("Salary for %s: %s", month, b.deps.Money.Format(*salary)))
		return nil
	}

	amount, _, err := parseAmountNote(args)
	if err == nil {
		err = b.deps.Finance.SetMonthlySalary(ctx, uid, month, amount)
	}
	if err != nil {
		if isValidation(err) {
			b.sendErrorMessage(chatID, service.ErrInvalidSalary.Error())
			return nil
		}
		return b.fail(ctx, chatID, "Could not save the salary", err)
	}
	b.reply(chatID, fmt.Sprintf("Salary for %s set to %s ✅", month, b.deps.Money.Format(amount)))
	return nil
}

func (b *Bot) handleTasks(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	tasks, err := b.deps.Tasks.ListTasksByStatus(ctx, userID(from), false)
	if err != nil {
		return b.fail(ctx, chatID, "Could not load tasks", err)
	}
	var sb strings.Builder
	if len(tasks) == 0 {
		sb.WriteString("No open tasks 🎉")
	} else {
		sb.WriteString("✅ Open tasks:\n\n")
		for _, t := range tasks {
			fmt.Fprintf(&sb, "• %s – %s", t.Title, t.Description)
			if t.Amount != nil {
				fmt.Fprintf(&sb, " (%s)", b.deps.Money.Format(*t.Amount))
			}
			sb.WriteString("\n")
		}
	}
	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = getTasksKeyboard(tasks)
	b.send(msg)
	return nil
}

// parseTaskArgs reads "title | description [| amount [| category]]".
func parseTaskArgs(text string) (service.TaskInput, error) {
	parts := strings.Split(text, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return service.TaskInput{}, errors.New("send the task as: title | description [| amount [| category]]")
	}
	in := service.TaskInput{Title: parts[0], Description: parts[1]}
	if len(parts) > 2 && parts[2] != "" {
		amount, _, err := parseAmountNote(parts[2])
		if err != nil {
			return in, err
		}
		in.Amount = &amount
	}
	if len(parts) > 3 {
		in.Category = parts[3]
	}
	return in, nil
}

func (b *Bot) createTask(ctx context.Context, chatID int64, from *tgbotapi.User, text string) error {
	in, err := parseTaskArgs(text)
	if err != nil {
		b.sendErrorMessage(chatID, err.Error())
		return nil
	}
	task, err := b.deps.Tasks.AddTask(ctx, userID(from), in)
	if err != nil {
		if isValidation(err) {
			b.sendErrorMessage(chatID, err.Error())
			return nil
		}
		return b.fail(ctx, chatID, "Could not save the task", err)
	}
	b.reply(chatID, fmt.Sprintf("Task '%s' added ✅", task.Title))
	return nil
}

func isValidation(err error) bool {
	for _, target := range []error{
		service.ErrInvalidAmount,
		service.ErrInvalidLast4,
		service.ErrInvalidExpMonth,
		service.ErrInvalidExpYear,
		service.ErrInvalidSalary,
		service.ErrCategoryName,
		service.ErrTaskTitle,
		service.ErrTaskDescription,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// fail logs err and tells the user something went wrong. Validation errors are
// shown as they are.
func (b *Bot) fail(ctx context.Context, chatID int64, text string, err error) error {
	if isValidation(err) {
		b.sendErrorMessage(chatID, err.Error())
		return nil
	}
	b.logger.ErrorContext(ctx, text, log.FieldChatID, chatID, log.FieldError, err)
	b.sendErrorMessage(chatID, text)
	return nil
}
