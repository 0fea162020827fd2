package model

import "time"

// MonthlyBudget stores the salary recorded for one calendar month.
type MonthlyBudget struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	MonthKey  string  `json:"month_key"`
	Salary    float64 `json:"salary"`
	UpdatedAt string  `json:"updated_at"`
}

// MonthKey returns "YYYY-MM" for t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// BudgetID is the document id for a user's month.
func BudgetID(userID, monthKey string) string {
	return userID + "_" + monthKey
}
