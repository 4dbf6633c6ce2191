package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single cleaned purchase from the retail ledger.
type Transaction struct {
	CustomerID string          `json:"customer_id"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Rating     *float64        `json:"rating,omitempty"` // nil when the purchase was not rated

	// Informational columns carried from the source export.
	Item          string `json:"item,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// HasRating reports whether the purchase carries a review rating.
func (t Transaction) HasRating() bool {
	return t.Rating != nil
}

// RawTransaction is a ledger row as read from a source, before cleaning.
// Amount is invalid when the source cell was empty.
type RawTransaction struct {
	CustomerID    string              `json:"customer_id"`
	Date          time.Time           `json:"date"`
	Amount        decimal.NullDecimal `json:"amount"`
	Rating        *float64            `json:"rating,omitempty"`
	Item          string              `json:"item,omitempty"`
	PaymentMethod string              `json:"payment_method,omitempty"`
}

// Transaction converts a raw row whose amount is known.
func (r RawTransaction) Transaction() Transaction {
	return Transaction{
		CustomerID:    r.CustomerID,
		Date:          r.Date,
		Amount:        r.Amount.Decimal,
		Rating:        r.Rating,
		Item:          r.Item,
		PaymentMethod: r.PaymentMethod,
	}
}
