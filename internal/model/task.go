package model

import "github.com/google/uuid"

// Task is a to-do item that may record money spent on it.
type Task struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IsComplete  bool     `json:"is_complete"`
	Amount      *float64 `json:"amount,omitempty"`
	Category    string   `json:"category,omitempty"`
	SpentAt     string   `json:"spent_at,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

func (t *Task) GenerateID() {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
}
