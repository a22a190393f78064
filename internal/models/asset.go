package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset represents a named balance owned by a user
type Asset struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UID       string          `json:"uid"`
	Email     string          `json:"email"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AssetDTO is the transfer object exposed over HTTP and in messages
type AssetDTO struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

// AssetHistory is a daily snapshot of an asset balance
type AssetHistory struct {
	Name    string          `json:"name"`
	UID     string          `json:"uid"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
	Date    time.Time       `json:"date"`
}

// HistoricalBalance is a single dated balance in a history response
type HistoricalBalance struct {
	Date    string          `json:"date"` // Format: YYYY-MM-DD
	Balance decimal.Decimal `json:"balance"`
}

// ToDTO maps an asset to its transfer object; nil maps to nil
func ToDTO(a *Asset) *AssetDTO {
	if a == nil {
		return nil
	}
	return &AssetDTO{Name: a.Name, Type: a.Type, Balance: a.Balance}
}

// ToDTOList maps a slice of assets
func ToDTOList(assets []*Asset) []AssetDTO {
	out := make([]AssetDTO, 0, len(assets))
	for _, a := range assets {
		out = append(out, *ToDTO(a))
	}
	return out
}

// FromDTO builds an asset owned by uid/email from a transfer object
func FromDTO(dto AssetDTO, uid, email string) *Asset {
	return &Asset{
		Name:    dto.Name,
		UID:     uid,
		Email:   email,
		Type:    dto.Type,
		Balance: dto.Balance,
	}
}
