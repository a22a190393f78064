package models

import "github.com/shopspring/decimal"

// PaymentRecord is a payment as reported by the payment record service
type PaymentRecord struct {
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"paymentMethod"`
	Date          string          `json:"date"` // Format: YYYY-MM-DD
	Amount        decimal.Decimal `json:"amount"`
	PaymentFrom   string          `json:"paymentFrom"`
	PaymentTo     string          `json:"paymentTo"`
}

// AssetSummary is an asset with its spending for the current month
type AssetSummary struct {
	Asset    AssetDTO        `json:"asset"`
	Spending decimal.Decimal `json:"spending"`
}
