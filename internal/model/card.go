package model

import "github.com/google/uuid"

// CardBrand is the payment network printed on a card.
type CardBrand string

const (
	BrandVisa       CardBrand = "VISA"
	BrandMastercard CardBrand = "MASTERCARD"
	BrandAmex       CardBrand = "AMEX"
	BrandOther      CardBrand = "OTHER"
)

// ParseCardBrand maps free text to a brand. Empty input is VISA, unknown input OTHER.
func ParseCardBrand(s string) CardBrand {
	switch CardBrand(s) {
	case "":
		return BrandVisa
	case BrandVisa, BrandMastercard, BrandAmex, BrandOther:
		return CardBrand(s)
	}
	return BrandOther
}

type Card struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Label     string    `json:"label"`
	Brand     CardBrand `json:"brand"`
	Last4     string    `json:"last4"`
	ExpMonth  int       `json:"exp_month"`
	ExpYear   int       `json:"exp_year"`
	IsDefault bool      `json:"is_default"`
	CreatedAt string    `json:"created_at"`
}

func (c *Card) GenerateID() {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
}
