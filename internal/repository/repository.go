package repository

import (
	"context"
	"errors"

	"github.com/ivanoskov/wallet/internal/model"
)

// ErrNotFound is returned when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("record not found")

// Tables
const (
	TableProfiles       = "profiles"
	TableCards          = "cards"
	TableTransactions   = "transactions"
	TableTasks          = "tasks"
	TableCategories     = "categories"
	TableMonthlyBudgets = "monthly_budgets"
	TableUserSettings   = "user_settings"
)

type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *model.Transaction) error
	GetTransaction(ctx context.Context, id, userID string) (*model.Transaction, error)
	// GetTransactions returns the user's transactions, newest first.
	GetTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, id, userID string, patch model.TransactionPatch) error
	DeleteTransaction(ctx context.Context, id, userID string) error
}

type CardStore interface {
	CreateCard(ctx context.Context, card *model.Card) error
	// GetCards returns the user's cards, newest first.
	GetCards(ctx context.Context, userID string) ([]model.Card, error)
	SetCardDefault(ctx context.Context, id, userID string, isDefault bool) error
	ClearDefaultCards(ctx context.Context, userID string) error
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id, userID string) (*model.Task, error)
	// GetTasks lists tasks newest first. A nil complete matches every task.
	GetTasks(ctx context.Context, userID string, complete *bool) ([]model.Task, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id, userID string) error
}

type CategoryStore interface {
	UpsertCategory(ctx context.Context, category *model.Category) error
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)
}

type BudgetStore interface {
	UpsertBudget(ctx context.Context, budget *model.MonthlyBudget) error
	GetBudget(ctx context.Context, id, userID string) (*model.MonthlyBudget, error)
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) error
}

type SettingsStore interface {
	// GetSettings returns zero-valued settings for users that never saved any.
	GetSettings(ctx context.Context, userID string) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
}

// Repository is the full remote store.
type Repository interface {
	TransactionStore
	CardStore
	TaskStore
	CategoryStore
	BudgetStore
	ProfileStore
	SettingsStore
}
