package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType is either income or expense.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is a single income or expense record. Expense notes carry the
// category as "<category>|<detail>".
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      TransactionType `json:"type"`
	Amount    float64         `json:"amount"`
	Note      string          `json:"note"`
	CardID    string          `json:"card_id,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// GenerateID assigns a new UUID if the transaction has none yet.
func (t *Transaction) GenerateID() {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
}

// TransactionFilter narrows a transaction listing. Results are always newest first.
type TransactionFilter struct {
	Since *time.Time
	Type  TransactionType
	Limit int
}

// TransactionPatch is a partial update; nil fields are left untouched.
type TransactionPatch struct {
	Type   *TransactionType `json:"type,omitempty"`
	Amount *float64         `json:"amount,omitempty"`
	Note   *string          `json:"note,omitempty"`
	CardID *string          `json:"card_id,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 variants the store emits. Values without
// a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp formats t the way records store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
