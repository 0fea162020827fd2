package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ivanoskov/wallet/internal/model"
)

// MemoryRepository keeps every record in process memory. It backs
// DATA_BACKEND=memory and the service tests.
type MemoryRepository struct {
	mu  sync.Mutex
	now func() time.Time
	seq int

	transactions []memRow[model.Transaction]
	cards        []memRow[model.Card]
	tasks        []memRow[model.Task]
	categories   map[string]model.Category
	budgets      map[string]model.MonthlyBudget
	profiles     map[string]model.Profile
	settings     map[string]model.Settings
}

type memRow[T any] struct {
	seq int
	v   T
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:        time.Now,
		categories: make(map[string]model.Category),
		budgets:    make(map[string]model.MonthlyBudget),
		profiles:   make(map[string]model.Profile),
		settings:   make(map[string]model.Settings),
	}
}

// SetClock replaces the clock used to stamp new records.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryRepository) stamp(ts *string) int {
	if *ts == "" {
		*ts = model.Timestamp(m.now())
	}
	m.seq++
	return m.seq
}

// newestFirstRows orders by creation time, breaking ties by insertion order.
func newestFirstRows[T any](rows []memRow[T], createdAt func(T) string) []T {
	sorted := append([]memRow[T](nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, _ := model.ParseTimestamp(createdAt(sorted[i].v))
		tj, _ := model.ParseTimestamp(createdAt(sorted[j].v))
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return sorted[i].seq > sorted[j].seq
	})
	out := make([]T, len(sorted))
	for i, r := range sorted {
		out[i] = r.v
	}
	return out
}

func (m *MemoryRepository) CreateTransaction(_ context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx.GenerateID()
	seq := m.stamp(&tx.CreatedAt)
	m.transactions = append(m.transactions, memRow[model.Transaction]{seq: seq, v: *tx})
	return nil
}

func (m *MemoryRepository) findTransaction(id, userID string) int {
	for i, r := range m.transactions {
		if r.v.ID == id && r.v.UserID == userID {
			return i
		}
	}
	return -1
}

func (m *MemoryRepository) GetTransaction(_ context.Context, id, userID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findTransaction(id, userID)
	if i < 0 {
		return nil, ErrNotFound
	}
	tx := m.transactions[i].v
	return &tx, nil
}

func (m *MemoryRepository) GetTransactions(_ context.Context, userID string, filter model.TransactionFilter) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []memRow[model.Transaction]
	for _, r := range m.transactions {
		if r.v.UserID != userID {
			continue
		}
		if filter.Type != "" && r.v.Type != filter.Type {
			continue
		}
		if filter.Since != nil {
			at, ok := model.ParseTimestamp(r.v.CreatedAt)
			if !ok || at.Before(*filter.Since) {
				continue
			}
		}
		rows = append(rows, r)
	}
	out := newestFirstRows(rows, func(t model.Transaction) string { return t.CreatedAt })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) UpdateTransaction(_ context.Context, id, userID string, patch model.TransactionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findTransaction(id, userID)
	if i < 0 {
		return ErrNotFound
	}
	tx := &m.transactions[i].v
	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Note != nil {
		tx.Note = *patch.Note
	}
	if patch.CardID != nil {
		tx.CardID = *patch.CardID
	}
	return nil
}

func (m *MemoryRepository) DeleteTransaction(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findTransaction(id, userID)
	if i < 0 {
		return ErrNotFound
	}
	m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
	return nil
}

func (m *MemoryRepository) CreateCard(_ context.Context, card *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	card.GenerateID()
	seq := m.stamp(&card.CreatedAt)
	m.cards = append(m.cards, memRow[model.Card]{seq: seq, v: *card})
	return nil
}

func (m *MemoryRepository) GetCards(_ context.Context, userID string) ([]model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []memRow[model.Card]
	for _, r := range m.cards {
		if r.v.UserID == userID {
			rows = append(rows, r)
		}
	}
	return newestFirstRows(rows, func(c model.Card) string { return c.CreatedAt }), nil
}

func (m *MemoryRepository) SetCardDefault(_ context.Context, id, userID string, isDefault bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cards {
		if m.cards[i].v.ID == id && m.cards[i].v.UserID == userID {
			m.cards[i].v.IsDefault = isDefault
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) ClearDefaultCards(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cards {
		if m.cards[i].v.UserID == userID {
			m.cards[i].v.IsDefault = false
		}
	}
	return nil
}

func (m *MemoryRepository) CreateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task.GenerateID()
	seq := m.stamp(&task.CreatedAt)
	m.tasks = append(m.tasks, memRow[model.Task]{seq: seq, v: cloneTask(*task)})
	return nil
}

func (m *MemoryRepository) findTask(id, userID string) int {
	for i, r := range m.tasks {
		if r.v.ID == id && r.v.UserID == userID {
			return i
		}
	}
	return -1
}

func (m *MemoryRepository) GetTask(_ context.Context, id, userID string) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findTask(id, userID)
	if i < 0 {
		return nil, ErrNotFound
	}
	task := cloneTask(m.tasks[i].v)
	return &task, nil
}

func (m *MemoryRepository) GetTasks(_ context.Context, userID string, complete *bool) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []memRow[model.Task]
	for _, r := range m.tasks {
		if r.v.UserID != userID {
			continue
		}
		if complete != nil && r.v.IsComplete != *complete {
			continue
		}
		rows = append(rows, memRow[model.Task]{seq: r.seq, v: cloneTask(r.v)})
	}
	return newestFirstRows(rows, func(t model.Task) string { return t.CreatedAt }), nil
}

func (m *MemoryRepository) UpdateTask(_ context.Context, task *model.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findTask(task.ID, task.UserID)
	if i < 0 {
		return ErrNotFound
	}
	m.tasks[i].v = cloneTask(*task)
	return nil
}

func (m *MemoryRepository) DeleteTask(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.findTask(id, userID)
	if i < 0 {
		return ErrNotFound
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func cloneTask(t model.Task) model.Task {
	if t.Amount != nil {
		amount := *t.Amount
		t.Amount = &amount
	}
	return t
}

func (m *MemoryRepository) UpsertCategory(_ context.Context, category *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	category.UpdatedAt = model.Timestamp(m.now())
	m.categories[category.ID] = *category
	return nil
}

func (m *MemoryRepository) GetCategories(_ context.Context, userID string) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) UpsertBudget(_ context.Context, budget *model.MonthlyBudget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	budget.UpdatedAt = model.Timestamp(m.now())
	m.budgets[budget.ID] = *budget
	return nil
}

func (m *MemoryRepository) GetBudget(_ context.Context, id, userID string) (*model.MonthlyBudget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *MemoryRepository) CreateProfile(_ context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&profile.CreatedAt)
	m.profiles[profile.UserID] = *profile
	return nil
}

func (m *MemoryRepository) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) UpdateProfile(_ context.Context, userID string, patch model.ProfilePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.PhotoBase64 != nil {
		p.PhotoBase64 = *patch.PhotoBase64
	}
	m.profiles[userID] = p
	return nil
}

func (m *MemoryRepository) GetSettings(_ context.Context, userID string) (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return model.Settings{UserID: userID}, nil
	}
	return s, nil
}

func (m *MemoryRepository) SaveSettings(_ context.Context, settings model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = settings
	return nil
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*SupabaseRepository)(nil)
)
