package model

import "strings"

// Category is a user-defined expense category. ID is "<user>_<key>".
type Category struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	UpdatedAt string `json:"updated_at"`
}

// DefaultCategories are offered before the user has created any.
var DefaultCategories = []string{
	"Food & Drinks",
	"Transport",
	"Bills",
	"Shopping",
	"Groceries",
	"Entertainment",
	"Health",
	"Education",
	"Rent",
	"Travel",
	"Personal Care",
	"Gifts & Donations",
	"EMI / Loans",
	"Other",
}

// CategoryKey lower-cases the name and joins its words with hyphens.
func CategoryKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// CategoryID is the document id of a user's category.
func CategoryID(userID, name string) string {
	return userID + "_" + CategoryKey(name)
}
