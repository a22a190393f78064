package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest moves value between two named assets, or applies a signed
// delta to one asset when Asset is set.
type TransferRequest struct {
	From          string           `json:"paymentFrom,omitempty"`
	To            string           `json:"paymentTo,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	EstimateValue *decimal.Decimal `json:"estimateValue,omitempty"`

	Asset string           `json:"asset,omitempty"`
	Delta *decimal.Decimal `json:"delta,omitempty"`

	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	Date          string `json:"date,omitempty"` // Format: YYYY-MM-DD
}

// SingleSided reports whether the request targets one asset by delta
func (r TransferRequest) SingleSided() bool {
	return r.Asset != ""
}

// Value is the figure applied to balances: the estimate when given, else the amount
func (r TransferRequest) Value() decimal.Decimal {
	if r.EstimateValue != nil {
		return *r.EstimateValue
	}
	return r.Amount
}

// TransferResult reports the legs that were applied
type TransferResult struct {
	AssetFrom        *AssetDTO       `json:"assetFrom,omitempty"`
	AssetTo          *AssetDTO       `json:"assetTo,omitempty"`
	TransactionValue decimal.Decimal `json:"transactionValue"`
}

// ReverseRequest pairs a previously applied transfer with its correction
type ReverseRequest struct {
	Original TransferRequest `json:"original"`
	Reversal TransferRequest `json:"reversal"`
}

// TransferMessage is the payload delivered on the payment record queue
type TransferMessage struct {
	TransferID *uuid.UUID       `json:"transferId,omitempty"`
	UID        string           `json:"uid"`
	Email      string           `json:"email,omitempty"`
	Request    *TransferRequest `json:"request_record"`
	Reverse    *TransferRequest `json:"reverse_record,omitempty"`
	Cancel     bool             `json:"cancel,omitempty"`
}
