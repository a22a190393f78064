package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dan9191/asset-service/internal/middleware"
	"github.com/Dan9191/asset-service/internal/models"
	"github.com/Dan9191/asset-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const requestTimeLayout = "2006-01-02T15:04:05"

// AssetService is the business API the handlers drive; *service.Service implements it
type AssetService interface {
	CreateAsset(ctx context.Context, uid, email string, dto models.AssetDTO) (*models.AssetDTO, error)
	GetAsset(ctx context.Context, uid, name string) (*models.AssetDTO, error)
	ListAssets(ctx context.Context, uid, email string) ([]models.AssetDTO, error)
	DeleteAsset(ctx context.Context, uid, name string) error
	GetAssetSummary(ctx context.Context, uid, name string) (*models.AssetSummary, error)
	GetAssetHistory(ctx context.Context, uid, name string) ([]models.HistoricalBalance, error)
	ApplyTransfer(ctx context.Context, uid string, req models.TransferRequest, mode service.LegMode) (*models.TransferResult, error)
	AdjustAsset(ctx context.Context, uid, name string, delta *decimal.Decimal) (*models.AssetDTO, error)
	ReverseTransfer(ctx context.Context, uid string, original, reversal models.TransferRequest) error
	CancelTransaction(ctx context.Context, uid string, req models.TransferRequest) error
}

// Handler serves the asset HTTP API
type Handler struct {
	svc AssetService
	log *logrus.Logger
	now func() time.Time
}

// NewHandler initializes a new handler
func NewHandler(svc AssetService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log, now: time.Now}
}

// Register mounts every asset route on r
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1/asset").Subrouter()
	api.HandleFunc("", h.CreateAsset).Methods(http.MethodPost)
	api.HandleFunc("", h.GetAsset).Methods(http.MethodGet)
	api.HandleFunc("", h.UpdateAsset).Methods(http.MethodPut)
	api.HandleFunc("", h.DeleteAsset).Methods(http.MethodDelete)
	api.HandleFunc("/summary", h.GetAssetSummary).Methods(http.MethodGet)
	api.HandleFunc("/history", h.GetAssetHistory).Methods(http.MethodGet)
	api.HandleFunc("/cancel", h.CancelTransaction).Methods(http.MethodPost)
	api.HandleFunc("/reverse", h.ReverseTransfer).Methods(http.MethodPost)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.success())
}

// CreateAsset handles asset creation
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req models.AssetDTO
	if !h.decode(w, r, &req) {
		return
	}
	owner := middleware.OwnerFromContext(r.Context())
	h.log.Infof("Creating new asset: %s", req.Name)

	asset, err := h.svc.CreateAsset(r.Context(), owner.UID, owner.Email, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.AssetResponse{BaseResponse: h.success(), Asset: asset})
}

// GetAsset returns one asset when assetName is given, otherwise every asset of the owner
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())

	if name := r.URL.Query().Get("assetName"); name != "" {
		h.log.Infof("Getting asset: %s", name)
		asset, err := h.svc.GetAsset(r.Context(), owner.UID, name)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, models.AssetResponse{BaseResponse: h.success(), Asset: asset})
		return
	}

	h.log.Infof("Getting asset for user: %s", owner.Email)
	assets, err := h.svc.ListAssets(r.Context(), owner.UID, owner.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.AssetListResponse{BaseResponse: h.success(), Assets: assets})
}

// UpdateAsset applies a transfer, or a single-sided delta when the body names one asset
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	owner := middleware.OwnerFromContext(r.Context())

	if req.SingleSided() {
		h.log.Infof("Adjusting asset: %s", req.Asset)
		asset, err := h.svc.AdjustAsset(r.Context(), owner.UID, req.Asset, req.Delta)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, models.AssetResponse{BaseResponse: h.success(), Asset: asset})
		return
	}

	h.log.Infof("Updating asset: %s -> %s", req.From, req.To)
	result, err := h.svc.ApplyTransfer(r.Context(), owner.UID, req, service.Strict)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.UpdateAssetResponse{BaseResponse: h.success(), TransferResult: *result})
}

// DeleteAsset handles asset removal
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	var req models.AssetDTO
	if !h.decode(w, r, &req) {
		return
	}
	owner := middleware.OwnerFromContext(r.Context())
	h.log.Infof("Deleting asset: %s", req.Name)

	if err := h.svc.DeleteAsset(r.Context(), owner.UID, req.Name); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.success())
}

// GetAssetSummary returns an asset with its spending this month
func (h *Handler) GetAssetSummary(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	name := r.URL.Query().Get("assetName")

	summary, err := h.svc.GetAssetSummary(r.Context(), owner.UID, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.AssetSummaryResponse{BaseResponse: h.success(), AssetSummary: *summary})
}

// GetAssetHistory returns the daily balances of an asset
func (h *Handler) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	name := r.URL.Query().Get("assetName")

	history, err := h.svc.GetAssetHistory(r.Context(), owner.UID, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.HistoricalAssetResponse{BaseResponse: h.success(), Name: name, History: history})
}

// CancelTransaction undoes a transfer by its exact amount
func (h *Handler) CancelTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	owner := middleware.OwnerFromContext(r.Context())
	h.log.Infof("Cancelling transfer: %s -> %s", req.From, req.To)

	if err := h.svc.CancelTransaction(r.Context(), owner.UID, req); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.success())
}

// ReverseTransfer applies a corrective transfer against an original one
func (h *Handler) ReverseTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.ReverseRequest
	if !h.decode(w, r, &req) {
		return
	}
	owner := middleware.OwnerFromContext(r.Context())
	h.log.Infof("Reversing transfer: %s -> %s", req.Original.From, req.Original.To)

	if err := h.svc.ReverseTransfer(r.Context(), owner.UID, req.Original, req.Reversal); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.success())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Warnf("Invalid request body: %v", err)
		h.writeFailure(w, http.StatusBadRequest, "0041", "Invalid request")
		return false
	}
	return true
}

func (h *Handler) success() models.BaseResponse {
	return models.BaseResponse{Status: models.StatusSuccess, RequestTime: h.now().Format(requestTimeLayout)}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *service.Error
	if !errors.As(err, &apiErr) {
		h.log.Errorf("Server error occurred: %v", err)
		h.writeFailure(w, http.StatusInternalServerError, "9999", "Internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrExternal):
		status = http.StatusBadGateway
	}
	h.log.Warnf("Request failed with %d: %s", status, apiErr.Message)
	h.writeFailure(w, status, apiErr.Code, apiErr.Message)
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, models.ErrorResponse{
		BaseResponse: models.BaseResponse{Status: models.StatusFailed, RequestTime: h.now().Format(requestTimeLayout)},
		HTTPStatus:   status,
		Code:         code,
		Message:      message,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to write response: %v", err)
	}
}
