package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ivanoskov/wallet/internal/analytics"
	"github.com/ivanoskov/wallet/internal/charts"
	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/notes"
	"github.com/ivanoskov/wallet/internal/repository"
)

const (
	// DefaultListLimit is the page size of ListTransactions.
	DefaultListLimit = 50

	summaryWindow = 250
)

var (
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrInvalidType     = errors.New("type must be income or expense")
	ErrInvalidLast4    = errors.New("card last 4 must be 4 digits")
	ErrInvalidExpMonth = errors.New("invalid expiry month")
	ErrInvalidExpYear  = errors.New("invalid expiry year")
	ErrCategoryName    = errors.New("category name is required")
	ErrInvalidSalary   = errors.New("salary must be zero or a positive number")
	ErrInvalidMonthKey = errors.New("month must look like YYYY-MM")
	ErrNoUser          = errors.New("user not authenticated")
)

// Options configures an ExpenseTracker. Zero values fall back to defaults.
type Options struct {
	Analytics analytics.Options
	Geometry  charts.Geometry
	CacheTTL  time.Duration
	Now       func() time.Time
}

// ExpenseTracker is the finance service: cards, transactions, categories,
// monthly salary and the category breakdown.
type ExpenseTracker struct {
	repo    repository.Repository
	opts    Options
	logger  *log.Logger
	reports *cache.Cache
}

func NewExpenseTracker(repo repository.Repository, opts Options, logger *log.Logger) *ExpenseTracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Geometry.OuterRadius <= 0 {
		opts.Geometry = charts.DefaultGeometry()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseTracker{
		repo:    repo,
		opts:    opts,
		logger:  logger.WithComponent(log.ComponentFinance),
		reports: cache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNoUser
	}
	return nil
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// invalidate drops the cached breakdown after any write to the user's transactions.
func (s *ExpenseTracker) invalidate(userID string) {
	s.reports.Delete(userID)
}

// CardInput is the add-card form. Number may be a full number or just the
// last four digits, with any separators.
type CardInput struct {
	Label     string
	Brand     string
	Number    string
	ExpMonth  int
	ExpYear   int
	IsDefault bool
}

func lastFour(number string) string {
	var digits []rune
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return string(digits)
}

func (s *ExpenseTracker) AddCard(ctx context.Context, userID string, in CardInput) (*model.Card, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	last4 := lastFour(in.Number)
	if len(last4) != 4 {
		return nil, ErrInvalidLast4
	}
	if in.ExpMonth < 1 || in.ExpMonth > 12 {
		return nil, ErrInvalidExpMonth
	}
	if in.ExpYear < 2000 || in.ExpYear > 2100 {
		return nil, ErrInvalidExpYear
	}

	if in.IsDefault {
		if err := s.repo.ClearDefaultCards(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to clear default cards: %w", err)
		}
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = "Card"
	}
	card := &model.Card{
		UserID:    userID,
		Label:     label,
		Brand:     model.ParseCardBrand(strings.ToUpper(strings.TrimSpace(in.Brand))),
		Last4:     last4,
		ExpMonth:  in.ExpMonth,
		ExpYear:   in.ExpYear,
		IsDefault: in.IsDefault,
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	s.logger.InfoContext(ctx, "card added", log.FieldOperation, log.OpCreate, log.FieldUserID, userID, log.FieldRecordID, card.ID)
	return card, nil
}

// ListCards returns the user's cards, newest first.
func (s *ExpenseTracker) ListCards(ctx context.Context, userID string) ([]model.Card, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cards, err := s.repo.GetCards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	return cards, nil
}

// SetDefaultCard flags cardID as the only default card.
func (s *ExpenseTracker) SetDefaultCard(ctx context.Context, userID, cardID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	cards, err := s.repo.GetCards(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get cards: %w", err)
	}
	found := false
	for _, c := range cards {
		if c.ID == cardID {
			found = true
			break
		}
	}
	if !found {
		return repository.ErrNotFound
	}
	if err := s.repo.ClearDefaultCards(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear default cards: %w", err)
	}
	if err := s.repo.SetCardDefault(ctx, cardID, userID, true); err != nil {
		return fmt.Errorf("failed to set default card: %w", err)
	}
	return nil
}

// TransactionInput is a new income or expense. Category only applies to
// expenses and is stored inside the note.
type TransactionInput struct {
	Type     model.TransactionType
	Amount   float64
	Category string
	Note     string
	CardID   string
}

func (s *ExpenseTracker) AddTransaction(ctx context.Context, userID string, in TransactionInput) (*model.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if !validAmount(in.Amount) {
		return nil, ErrInvalidAmount
	}

	note := strings.TrimSpace(in.Note)
	if in.Type == model.Expense {
		note = notes.Encode(in.Category, in.Note)
	}

	cardID := in.CardID
	if cardID == "" {
		cards, err := s.repo.GetCards(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get cards: %w", err)
		}
		if c := defaultCard(cards); c != nil {
			cardID = c.ID
		}
	}

	tx := &model.Transaction{
		UserID: userID,
		Type:   in.Type,
		Amount: in.Amount,
		Note:   note,
		CardID: cardID,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	s.invalidate(userID)
	s.logger.InfoContext(ctx, "transaction added",
		log.FieldOperation, log.OpCreate,
		log.FieldUserID, userID,
		log.FieldRecordID, tx.ID,
		log.FieldAmount, tx.Amount,
	)
	return tx, nil
}

// TransactionUpdate changes some fields of a transaction. Category and Detail
// rewrite the corresponding half of an expense note.
type TransactionUpdate struct {
	Type     *model.TransactionType
	Amount   *float64
	Category *string
	Detail   *string
	CardID   *string
}

func (s *ExpenseTracker) UpdateTransaction(ctx context.Context, userID, id string, in TransactionUpdate) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if in.Type != nil && !in.Type.Valid() {
		return ErrInvalidType
	}
	if in.Amount != nil && !validAmount(*in.Amount) {
		return ErrInvalidAmount
	}

	patch := model.TransactionPatch{Type: in.Type, Amount: in.Amount, CardID: in.CardID}
	if in.Category != nil || in.Detail != nil || in.Type != nil {
		current, err := s.repo.GetTransaction(ctx, id, userID)
		if err != nil {
			return fmt.Errorf("failed to get transaction: %w", err)
		}
		if note, changed := rewriteNote(*current, in); changed {
			patch.Note = &note
		}
	}

	if err := s.repo.UpdateTransaction(ctx, id, userID, patch); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// rewriteNote recomputes the stored note for an update.
func rewriteNote(tx model.Transaction, in TransactionUpdate) (string, bool) {
	oldType := tx.Type
	newType := oldType
	if in.Type != nil {
		newType = *in.Type
	}

	var category, detail string
	if oldType == model.Expense {
		n := notes.Decode(tx.Note)
		category, detail = n.Category, n.Detail
	} else {
		category, detail = notes.DefaultCategory, tx.Note
	}
	if in.Category != nil {
		category = *in.Category
	}
	if in.Detail != nil {
		detail = *in.Detail
	}

	var note string
	if newType == model.Expense {
		note = notes.Encode(category, detail)
	} else {
		note = strings.TrimSpace(detail)
	}
	return note, note != tx.Note
}

func (s *ExpenseTracker) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	s.invalidate(userID)
	s.logger.InfoContext(ctx, "transaction deleted", log.FieldOperation, log.OpDelete, log.FieldUserID, userID, log.FieldRecordID, id)
	return nil
}

// ListTransactions returns the newest transactions. limit <= 0 uses DefaultListLimit.
func (s *ExpenseTracker) ListTransactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	txs, err := s.repo.GetTransactions(ctx, userID, model.TransactionFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txs, nil
}

// defaultCard is the flagged card, or the only card when none is flagged.
func defaultCard(cards []model.Card) *model.Card {
	for i := range cards {
		if cards[i].IsDefault {
			return &cards[i]
		}
	}
	if len(cards) == 1 {
		return &cards[0]
	}
	return nil
}

// Summary totals the latest transactions and picks the default card.
func (s *ExpenseTracker) Summary(ctx context.Context, userID string) (*model.Summary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var (
		cards []model.Card
		txs   []model.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = s.repo.GetCards(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get cards: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.repo.GetTransactions(gctx, userID, model.TransactionFilter{Limit: summaryWindow})
		if err != nil {
			return fmt.Errorf("failed to get transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		amount := analytics.Amount(tx.Amount)
		switch tx.Type {
		case model.Income:
			income = income.Add(amount)
		case model.Expense:
			expense = expense.Add(amount)
		}
	}

	summary := &model.Summary{
		Balance:      income.Sub(expense).InexactFloat64(),
		TotalIncome:  income.InexactFloat64(),
		TotalExpense: expense.InexactFloat64(),
	}
	if c := defaultCard(cards); c != nil {
		card := *c
		summary.DefaultCard = &card
	}
	return summary, nil
}

// Categories returns the user's category names, unique and sorted.
func (s *ExpenseTracker) Categories(ctx context.Context, userID string) ([]string, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	stored, err := s.repo.GetCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	seen := make(map[string]bool, len(stored))
	names := make([]string, 0, len(stored))
	for _, c := range stored {
		name := strings.TrimSpace(c.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CategoryChoices is Categories, or the built-in list for users without any.
func (s *ExpenseTracker) CategoryChoices(ctx context.Context, userID string) ([]string, error) {
	names, err := s.Categories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return append([]string(nil), model.DefaultCategories...), nil
	}
	return names, nil
}

// AddCategory upserts a category; names differing only in case or spacing
// share one record.
func (s *ExpenseTracker) AddCategory(ctx context.Context, userID, name string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	clean := strings.TrimSpace(name)
	if clean == "" {
		return ErrCategoryName
	}
	category := &model.Category{
		ID:     model.CategoryID(userID, clean),
		UserID: userID,
		Name:   clean,
	}
	if err := s.repo.UpsertCategory(ctx, category); err != nil {
		return fmt.Errorf("error creating category %s: %w", clean, err)
	}
	return nil
}

func validMonthKey(key string) bool {
	_, err := time.Parse("2006-01", key)
	return err == nil
}

// MonthlySalary returns nil when no salary was set for the month.
func (s *ExpenseTracker) MonthlySalary(ctx context.Context, userID, monthKey string) (*float64, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !validMonthKey(monthKey) {
		return nil, ErrInvalidMonthKey
	}
	budget, err := s.repo.GetBudget(ctx, model.BudgetID(userID, monthKey), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	if math.IsNaN(budget.Salary) || math.IsInf(budget.Salary, 0) {
		return nil, nil
	}
	salary := budget.Salary
	return &salary, nil
}

func (s *ExpenseTracker) SetMonthlySalary(ctx context.Context, userID, monthKey string, salary float64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if !validMonthKey(monthKey) {
		return ErrInvalidMonthKey
	}
	if math.IsNaN(salary) || math.IsInf(salary, 0) || salary < 0 {
		return ErrInvalidSalary
	}
	budget := &model.MonthlyBudget{
		ID:       model.BudgetID(userID, monthKey),
		UserID:   userID,
		MonthKey: monthKey,
		Salary:   salary,
	}
	if err := s.repo.UpsertBudget(ctx, budget); err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}
	return nil
}
