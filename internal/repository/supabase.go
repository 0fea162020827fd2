package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
)

var newestFirst = &postgrest.OrderOpts{Ascending: false}

// SupabaseRepository stores records in Supabase tables through PostgREST.
// Row level security scopes every query to the signed-in user; the explicit
// user_id filters keep service-key deployments (the bot) correct as well.
type SupabaseRepository struct {
	client *supabase.Client
	logger *log.Logger
}

func NewSupabaseRepository(url, key string, logger *log.Logger) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return NewSupabaseRepositoryFromClient(client, logger), nil
}

// NewSupabaseRepositoryFromClient shares an existing client, so a session set
// on it by the account service also authorises these queries.
func NewSupabaseRepositoryFromClient(client *supabase.Client, logger *log.Logger) *SupabaseRepository {
	if logger == nil {
		logger = log.Discard()
	}
	return &SupabaseRepository{client: client, logger: logger.WithComponent(log.ComponentStorage)}
}

// Client exposes the underlying client for the account service.
func (r *SupabaseRepository) Client() *supabase.Client {
	return r.client
}

func (r *SupabaseRepository) insert(ctx context.Context, table string, value, created any) error {
	data, _, err := r.client.From(table).Insert(value, false, "", "representation", "").Execute()
	if err != nil {
		r.logger.ErrorContext(ctx, "insert failed", log.FieldTable, table, log.FieldError, err)
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	if created != nil {
		if err := json.Unmarshal(data, created); err != nil {
			return fmt.Errorf("failed to parse created %s row: %w", table, err)
		}
	}
	r.logger.DebugContext(ctx, "row inserted", log.FieldTable, table)
	return nil
}

func (r *SupabaseRepository) upsert(ctx context.Context, table, onConflict string, value any) error {
	if _, _, err := r.client.From(table).Upsert(value, onConflict, "minimal", "").Execute(); err != nil {
		r.logger.ErrorContext(ctx, "upsert failed", log.FieldTable, table, log.FieldError, err)
		return fmt.Errorf("failed to upsert into %s: %w", table, err)
	}
	return nil
}

func (r *SupabaseRepository) CreateTransaction(ctx context.Context, tx *model.Transaction) error {
	tx.GenerateID()
	if tx.CreatedAt == "" {
		tx.CreatedAt = model.Timestamp(time.Now())
	}
	var created []model.Transaction
	if err := r.insert(ctx, TableTransactions, tx, &created); err != nil {
		return err
	}
	if len(created) > 0 {
		tx.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (r *SupabaseRepository) GetTransaction(ctx context.Context, id, userID string) (*model.Transaction, error) {
	var transactions []model.Transaction
	data, _, err := r.client.From(TableTransactions).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	if len(transactions) == 0 {
		return nil, ErrNotFound
	}
	return &transactions[0], nil
}

func (r *SupabaseRepository) GetTransactions(ctx context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	var transactions []model.Transaction
	query := r.client.From(TableTransactions).
		Select("*", "", false).
		Eq("user_id", userID)

	if filter.Since != nil {
		query = query.Gte("created_at", model.Timestamp(*filter.Since))
	}
	if filter.Type != "" {
		query = query.Eq("type", string(filter.Type))
	}
	query = query.Order("created_at", newestFirst)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse transactions: %w", err)
	}
	r.logger.DebugContext(ctx, "transactions loaded", log.FieldUserID, userID, log.FieldCount, len(transactions))
	return transactions, nil
}

func (r *SupabaseRepository) UpdateTransaction(ctx context.Context, id, userID string, patch model.TransactionPatch) error {
	_, _, err := r.client.From(TableTransactions).
		Update(patch, "minimal", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) DeleteTransaction(ctx context.Context, id, userID string) error {
	_, _, err := r.client.From(TableTransactions).
		Delete("minimal", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) CreateCard(ctx context.Context, card *model.Card) error {
	card.GenerateID()
	if card.CreatedAt == "" {
		card.CreatedAt = model.Timestamp(time.Now())
	}
	return r.insert(ctx, TableCards, card, nil)
}

func (r *SupabaseRepository) GetCards(ctx context.Context, userID string) ([]model.Card, error) {
	var cards []model.Card
	data, _, err := r.client.From(TableCards).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", newestFirst).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to parse cards: %w", err)
	}
	return cards, nil
}

func (r *SupabaseRepository) SetCardDefault(ctx context.Context, id, userID string, isDefault bool) error {
	_, _, err := r.client.From(TableCards).
		Update(map[string]bool{"is_default": isDefault}, "minimal", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) ClearDefaultCards(ctx context.Context, userID string) error {
	_, _, err := r.client.From(TableCards).
		Update(map[string]bool{"is_default": false}, "minimal", "").
		Eq("user_id", userID).
		Eq("is_default", "true").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to clear default cards: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) CreateTask(ctx context.Context, task *model.Task) error {
	task.GenerateID()
	if task.CreatedAt == "" {
		task.CreatedAt = model.Timestamp(time.Now())
	}
	return r.insert(ctx, TableTasks, task, nil)
}

func (r *SupabaseRepository) GetTask(ctx context.Context, id, userID string) (*model.Task, error) {
	var tasks []model.Task
	data, _, err := r.client.From(TableTasks).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return &tasks[0], nil
}

func (r *SupabaseRepository) GetTasks(ctx context.Context, userID string, complete *bool) ([]model.Task, error) {
	var tasks []model.Task
	query := r.client.From(TableTasks).
		Select("*", "", false).
		Eq("user_id", userID)
	if complete != nil {
		query = query.Eq("is_complete", strconv.FormatBool(*complete))
	}
	data, _, err := query.Order("created_at", newestFirst).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse tasks: %w", err)
	}
	return tasks, nil
}

func (r *SupabaseRepository) UpdateTask(ctx context.Context, task *model.Task) error {
	_, _, err := r.client.From(TableTasks).
		Update(task, "minimal", "").
		Eq("id", task.ID).
		Eq("user_id", task.UserID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) DeleteTask(ctx context.Context, id, userID string) error {
	_, _, err := r.client.From(TableTasks).
		Delete("minimal", "").
		Eq("id", id).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) UpsertCategory(ctx context.Context, category *model.Category) error {
	if category.UpdatedAt == "" {
		category.UpdatedAt = model.Timestamp(time.Now())
	}
	return r.upsert(ctx, TableCategories, "id", category)
}

func (r *SupabaseRepository) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	var categories []model.Category
	data, _, err := r.client.From(TableCategories).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}
	return categories, nil
}

func (r *SupabaseRepository) UpsertBudget(ctx context.Context, budget *model.MonthlyBudget) error {
	if budget.UpdatedAt == "" {
		budget.UpdatedAt = model.Timestamp(time.Now())
	}
	return r.upsert(ctx, TableMonthlyBudgets, "id", budget)
}

func (r *SupabaseRepository) GetBudget(ctx context.Context, id, userID string) (*model.MonthlyBudget, error) {
	var budgets []model.MonthlyBudget
	data, _, err := r.client.From(TableMonthlyBudgets).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly budget: %w", err)
	}
	if err := json.Unmarshal(data, &budgets); err != nil {
		return nil, fmt.Errorf("failed to parse monthly budget: %w", err)
	}
	if len(budgets) == 0 {
		return nil, ErrNotFound
	}
	return &budgets[0], nil
}

func (r *SupabaseRepository) CreateProfile(ctx context.Context, profile *model.Profile) error {
	if profile.CreatedAt == "" {
		profile.CreatedAt = model.Timestamp(time.Now())
	}
	return r.upsert(ctx, TableProfiles, "user_id", profile)
}

func (r *SupabaseRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var profiles []model.Profile
	data, _, err := r.client.From(TableProfiles).
		Select("*", "", false).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

func (r *SupabaseRepository) UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) error {
	_, _, err := r.client.From(TableProfiles).
		Update(patch, "minimal", "").
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) GetSettings(ctx context.Context, userID string) (model.Settings, error) {
	var settings []model.Settings
	data, _, err := r.client.From(TableUserSettings).
		Select("*", "", false).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if len(settings) == 0 {
		return model.Settings{UserID: userID}, nil
	}
	return settings[0], nil
}

func (r *SupabaseRepository) SaveSettings(ctx context.Context, settings model.Settings) error {
	return r.upsert(ctx, TableUserSettings, "user_id", settings)
}
