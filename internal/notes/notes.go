// Package notes encodes an expense category and free-text detail into a
// transaction note, and reads them back.
package notes

import "strings"

// DefaultCategory is used whenever a note carries no category.
const DefaultCategory = "Other"

const separator = "|"

// Note is the decoded form of a transaction note.
type Note struct {
	Category string
	Detail   string
}

// Encode builds "<category>|<detail>", or just the category when detail is blank.
func Encode(category, detail string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return category
	}
	return category + separator + detail
}

// Decode splits raw on its first "|". It never fails.
func Decode(raw string) Note {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Note{Category: DefaultCategory}
	}
	left, right, found := strings.Cut(raw, separator)
	if !found {
		return Note{Category: raw}
	}
	category := strings.TrimSpace(left)
	if category == "" {
		category = DefaultCategory
	}
	return Note{Category: category, Detail: strings.TrimSpace(right)}
}

// String re-encodes the note.
func (n Note) String() string {
	return Encode(n.Category, n.Detail)
}
