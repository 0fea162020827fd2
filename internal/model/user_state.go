package model

import "time"

// UserState is the bot conversation state of one chat.
type UserState struct {
	UserID          string          `json:"user_id"`
	AwaitingAction  string          `json:"awaiting_action"`
	TransactionType TransactionType `json:"transaction_type"`
	Category        string          `json:"category"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
