package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ivanoskov/wallet/internal/account"
	"github.com/ivanoskov/wallet/internal/app"
	"github.com/ivanoskov/wallet/internal/charts"
	"github.com/ivanoskov/wallet/internal/lock"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/notes"
	"github.com/ivanoskov/wallet/internal/service"
)

// localUser owns the records when there is no account backend.
const localUser = "local"

var (
	errUsage        = errors.New("invalid arguments")
	errNeedsAccount = errors.New("account commands need the supabase backend")
	errLocked       = errors.New("wallet is locked")
)

type cli struct {
	app      *app.App
	accounts *account.Service
	prompt   *prompter
	gate     *lock.Gate
	out      io.Writer
	now      func() time.Time
}

func newCLI(a *app.App, accounts *account.Service, p *prompter, out io.Writer) *cli {
	return &cli{
		app:      a,
		accounts: accounts,
		prompt:   p,
		gate:     lock.NewGate(a.Backend, passwordAuth{accounts: accounts, prompt: p}, a.Logger),
		out:      out,
		now:      time.Now,
	}
}

func (c *cli) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return c.register(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "google":
		return c.google(ctx)
	case "logout":
		return c.logout(ctx)
	case "passwd":
		return c.passwd(ctx)
	case "profile":
		return c.profile(ctx, rest)
	}

	uid, err := c.user(ctx)
	if err != nil {
		return err
	}
	switch cmd {
	case "add":
		return c.add(ctx, uid, rest)
	case "list":
		return c.list(ctx, uid, rest)
	case "summary":
		return c.summary(ctx, uid)
	case "breakdown":
		return c.breakdown(ctx, uid, rest)
	case "cards":
		return c.cards(ctx, uid)
	case "addcard":
		return c.addCard(ctx, uid, rest)
	case "salary":
		return c.salary(ctx, uid, rest)
	case "tasks":
		return c.tasks(ctx, uid)
	case "task":
		return c.task(ctx, uid, rest)
	case "lock":
		return c.lock(ctx, uid, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// user resumes the saved session and passes the unlock gate.
func (c *cli) user(ctx context.Context) (string, error) {
	if c.accounts == nil {
		return localUser, nil
	}
	ok, err := c.accounts.Restore(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: run wallet login", account.ErrNotSignedIn)
	}
	uid := c.accounts.UserID()
	if c.gate.Start(ctx, uid) == lock.Locked {
		return "", errLocked
	}
	return uid, nil
}

func (c *cli) needAccounts() error {
	if c.accounts == nil {
		return errNeedsAccount
	}
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	if err := c.needAccounts(); err != nil {
		return err
	}
	if len(args) != 2 {
		return errUsage
	}
	pw, err := c.prompt.secret("Password: ")
	if err != nil {
		return err
	}
	p, err := c.accounts.Register(ctx, account.RegisterInput{Name: args[0], Email: args[1], Password: pw})
	if errors.Is(err, account.ErrConfirmationRequired) {
		fmt.Fprintln(c.out, "Check your inbox to confirm the address, then run wallet login.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Welcome, %s.\n", p.Name)
	return c.offerUnlock(ctx)
}

func (c *cli) login(ctx context.Context, args []string) error {
	if err := c.needAccounts(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errUsage
	}
	pw, err := c.prompt.secret("Password: ")
	if err != nil {
		return err
	}
	if err := c.accounts.Login(ctx, args[0], pw); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s.\n", c.accounts.Email())
	return c.offerUnlock(ctx)
}

func (c *cli) google(ctx context.Context) error {
	if err := c.needAccounts(); err != nil {
		return err
	}
	g, err := c.accounts.BeginGoogleLogin(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Open this address and sign in:\n\n  %s\n\n", g.URL)
	code, err := c.prompt.line("Code: ")
	if err != nil {
		return err
	}
	if err := c.accounts.CompleteGoogleLogin(ctx, code, g.Verifier); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s.\n", c.accounts.Email())
	return nil
}

// offerUnlock asks once whether to require the password on later runs.
func (c *cli) offerUnlock(ctx context.Context) error {
	uid := c.accounts.UserID()
	need, err := c.gate.NeedsSetup(ctx, uid)
	if err != nil || !need || !c.prompt.tty {
		return err
	}
	answer, err := c.prompt.line("Ask for the password on every start? [y/N] ")
	if err != nil {
		return err
	}
	if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
		return c.gate.Enable(ctx, uid)
	}
	return c.gate.Disable(ctx, uid)
}

func (c *cli) logout(ctx context.Context) error {
	if err := c.needAccounts(); err != nil {
		return err
	}
	if _, err := c.accounts.Restore(ctx); err != nil {
		return err
	}
	if err := c.accounts.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out.")
	return nil
}

func (c *cli) passwd(ctx context.Context) error {
	if err := c.needAccounts(); err != nil {
		return err
	}
	if _, err := c.user(ctx); err != nil {
		return err
	}
	current, err := c.prompt.secret("Current password: ")
	if err != nil {
		return err
	}
	next, err := c.prompt.secret("New password: ")
	if err != nil {
		return err
	}
	if err := c.accounts.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Password changed.")
	return nil
}

func (c *cli) profile(ctx context.Context, args []string) error {
	if err := c.needAccounts(); err != nil {
		return err
	}
	if _, err := c.user(ctx); err != nil {
		return err
	}
	if len(args) > 0 {
		name := strings.Join(args, " ")
		if err := c.accounts.UpdateProfile(ctx, &name, nil); err != nil {
			return err
		}
	}
	p, err := c.accounts.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s <%s> (%s)\n", p.Name, p.Email, p.Role)
	return nil
}

func (c *cli) add(ctx context.Context, uid string, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	in := service.TransactionInput{Type: model.TransactionType(args[0]), Amount: amount}
	rest := args[2:]
	if in.Type == model.Expense && len(rest) > 0 {
		in.Category, rest = rest[0], rest[1:]
	}
	in.Note = strings.Join(rest, " ")

	tx, err := c.app.Finance.AddTransaction(ctx, uid, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Saved %s %s\n", c.app.Money.Signed(*tx), noteText(*tx))
	return nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, service.ErrInvalidAmount
	}
	return v, nil
}

func noteText(tx model.Transaction) string {
	if tx.Type != model.Expense {
		return tx.Note
	}
	n := notes.Decode(tx.Note)
	if n.Detail == "" {
		return n.Category
	}
	return n.Category + " · " + n.Detail
}

func (c *cli) list(ctx context.Context, uid string, args []string) error {
	limit := service.DefaultListLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return errUsage
		}
		limit = n
	}
	txs, err := c.app.Finance.ListTransactions(ctx, uid, limit)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(c.out, "No transactions yet.")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tNOTE\tID")
	for _, tx := range txs {
		date := tx.CreatedAt
		if t, ok := model.ParseTimestamp(tx.CreatedAt); ok {
			date = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", date, c.app.Money.Signed(tx), noteText(tx), tx.ID)
	}
	return w.Flush()
}

func (c *cli) summary(ctx context.Context, uid string) error {
	s, err := c.app.Finance.Summary(ctx, uid)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Balance:  %s\nIncome:   %s\nExpenses: %s\n",
		c.app.Money.Format(s.Balance), c.app.Money.Format(s.TotalIncome), c.app.Money.Format(s.TotalExpense))
	if s.DefaultCard != nil {
		fmt.Fprintf(c.out, "Card:     %s •••• %s\n", s.DefaultCard.Label, s.DefaultCard.Last4)
	}
	return nil
}

func (c *cli) breakdown(ctx context.Context, uid string, args []string) error {
	b, err := c.app.Finance.Breakdown(ctx, uid)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Last %d days: income %s, expenses %s\n",
		c.app.Config.WindowDays, c.app.Money.Format(b.TotalIncome), c.app.Money.Format(b.TotalExpense))
	if b.Empty() {
		fmt.Fprintln(c.out, "No expenses yet.")
	} else {
		for _, s := range b.Slices {
			fmt.Fprintf(c.out, "  %s %-12s %s (%.1f%%)\n", s.Color, s.Label, c.app.Money.Format(s.Value), 100*s.Value/b.TotalBase)
		}
	}
	if len(args) == 0 {
		return nil
	}

	path := args[0]
	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		data = b.Donut.SVG()
	case ".png":
		data, err = c.app.Charts.GenerateMonthlyDonut(b.Result, "Expenses", charts.PNG)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: chart file must end in .svg or .png", errUsage)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	fmt.Fprintf(c.out, "Chart written to %s\n", path)
	return nil
}

func (c *cli) cards(ctx context.Context, uid string) error {
	cards, err := c.app.Finance.ListCards(ctx, uid)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		fmt.Fprintln(c.out, "No cards yet.")
		return nil
	}
	for _, card := range cards {
		mark := " "
		if card.IsDefault {
			mark = "*"
		}
		fmt.Fprintf(c.out, "%s %s %s •••• %s %02d/%d\n", mark, card.Label, card.Brand, card.Last4, card.ExpMonth, card.ExpYear)
	}
	return nil
}

func (c *cli) addCard(ctx context.Context, uid string, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return errUsage
	}
	in := service.CardInput{Label: args[0], Number: args[1]}
	month, year, ok := strings.Cut(args[2], "/")
	if !ok {
		return fmt.Errorf("%w: expiry must be MM/YY", errUsage)
	}
	var err error
	if in.ExpMonth, err = strconv.Atoi(month); err != nil {
		return service.ErrInvalidExpMonth
	}
	if in.ExpYear, err = strconv.Atoi(year); err != nil {
		return service.ErrInvalidExpYear
	}
	if in.ExpYear < 100 {
		in.ExpYear += 2000
	}
	if len(args) == 4 {
		if !strings.EqualFold(args[3], "default") {
			return errUsage
		}
		in.IsDefault = true
	}
	card, err := c.app.Finance.AddCard(ctx, uid, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Card %s •••• %s added.\n", card.Label, card.Last4)
	return nil
}

func (c *cli) salary(ctx context.Context, uid string, args []string) error {
	month := model.MonthKey(c.now())
	if len(args) > 0 && strings.Contains(args[0], "-") {
		month, args = args[0], args[1:]
	}
	if len(args) > 0 {
		v, err := parseAmount(args[0])
		if err != nil {
			return service.ErrInvalidSalary
		}
		if err := c.app.Finance.SetMonthlySalary(ctx, uid, month, v); err != nil {
			return err
		}
	}
	v, err := c.app.Finance.MonthlySalary(ctx, uid, month)
	if err != nil {
		return err
	}
	if v == nil {
		fmt.Fprintf(c.out, "No salary set for %s.\n", month)
		return nil
	}
	fmt.Fprintf(c.out, "Salary for %s: %s\n", month, c.app.Money.Format(*v))
	return nil
}

func (c *cli) tasks(ctx context.Context, uid string) error {
	tasks, err := c.app.Tasks.ListTasks(ctx, uid)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(c.out, "No tasks yet.")
		return nil
	}
	for _, t := range tasks {
		mark := "[ ]"
		if t.IsComplete {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s: %s", mark, t.Title, t.Description)
		if t.Amount != nil {
			line += " (" + c.app.Money.Format(*t.Amount) + ")"
		}
		fmt.Fprintf(c.out, "%s  %s\n", line, t.ID)
	}
	return nil
}

func (c *cli) task(ctx context.Context, uid string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		if len(args) < 3 || len(args) > 5 {
			return errUsage
		}
		in := service.TaskInput{Title: args[1], Description: args[2]}
		if len(args) > 3 {
			v, err := parseAmount(args[3])
			if err != nil {
				return err
			}
			in.Amount = &v
		}
		if len(args) > 4 {
			in.Category = args[4]
		}
		t, err := c.app.Tasks.AddTask(ctx, uid, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Task '%s' added.\n", t.Title)
	case "done":
		if len(args) != 2 {
			return errUsage
		}
		if err := c.app.Tasks.SetTaskComplete(ctx, uid, args[1], true); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Task completed.")
	default:
		return errUsage
	}
	return nil
}

func (c *cli) lock(ctx context.Context, uid string, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	switch args[0] {
	case "enable":
		if err := c.gate.Enable(ctx, uid); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Password unlock enabled.")
	case "disable":
		if err := c.gate.Disable(ctx, uid); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Password unlock disabled.")
	case "status":
		on, err := c.gate.Enabled(ctx, uid)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Password unlock: %t\n", on)
	default:
		return errUsage
	}
	return nil
}
