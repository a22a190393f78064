package models

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// BaseResponse carries the fields common to every API response
type BaseResponse struct {
	Status      string `json:"status"`
	RequestTime string `json:"requestTime"`
}

// ErrorResponse is returned on any failed request
type ErrorResponse struct {
	BaseResponse
	HTTPStatus int    `json:"httpStatus"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// AssetResponse wraps a single asset
type AssetResponse struct {
	BaseResponse
	Asset *AssetDTO `json:"asset"`
}

// AssetListResponse wraps the assets of one owner
type AssetListResponse struct {
	BaseResponse
	Assets []AssetDTO `json:"assets"`
}

// UpdateAssetResponse wraps the result of a transfer
type UpdateAssetResponse struct {
	BaseResponse
	TransferResult
}

// AssetSummaryResponse wraps an asset summary
type AssetSummaryResponse struct {
	BaseResponse
	AssetSummary
}

// HistoricalAssetResponse lists dated balances of one asset
type HistoricalAssetResponse struct {
	BaseResponse
	Name    string              `json:"name"`
	History []HistoricalBalance `json:"history"`
}

// PaymentRecordResponse is the payment record service reply
type PaymentRecordResponse struct {
	BaseResponse
	QueryPaymentRecord []PaymentRecord `json:"queryPaymentRecord"`
}
