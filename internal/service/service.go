package service

import (
	"context"
	"time"

	"github.com/Dan9191/asset-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the service needs; *repository.Repository implements it
type Store interface {
	CreateAsset(ctx context.Context, asset *models.Asset) error
	FindAssetByNameAndUID(ctx context.Context, name, uid string) (*models.Asset, error)
	FindAssetByName(ctx context.Context, name string) (*models.Asset, error)
	FindAssetsByUID(ctx context.Context, uid, email string) ([]*models.Asset, error)
	UpdateAssetBalance(ctx context.Context, asset *models.Asset) error
	DeleteAsset(ctx context.Context, name, uid string) error
	SnapshotBalances(ctx context.Context, date time.Time) (int64, error)
	FindAssetHistory(ctx context.Context, name, uid string) ([]*models.AssetHistory, error)
	IsTransferProcessed(ctx context.Context, id uuid.UUID) (bool, error)
	MarkTransferProcessed(ctx context.Context, id uuid.UUID) error
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentRecords queries payments made in a given month
type PaymentRecords interface {
	QueryPaymentRecords(ctx context.Context, year, month int, assetName string) ([]models.PaymentRecord, error)
}

// Notifier tells an owner that one of their balances changed
type Notifier interface {
	SendBalanceNotification(to string, asset *models.Asset, delta decimal.Decimal) error
}

// Service handles business logic
type Service struct {
	store    Store
	records  PaymentRecords
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

// NewService initializes a new service. notifier may be nil.
func NewService(store Store, records PaymentRecords, notifier Notifier, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		records:  records,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}
