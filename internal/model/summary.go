package model

// Summary is the dashboard header: balance over recent history and the card to pay with.
type Summary struct {
	Balance      float64 `json:"balance"`
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	DefaultCard  *Card   `json:"default_card,omitempty"`
}
