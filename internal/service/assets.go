package service

import (
	"context"
	"errors"

	"github.com/Dan9191/asset-service/internal/models"
	"github.com/Dan9191/asset-service/internal/repository"
	"github.com/shopspring/decimal"
)

// CreateAsset creates an asset for the owner, rejecting a name the owner already uses
func (s *Service) CreateAsset(ctx context.Context, uid, email string, dto models.AssetDTO) (*models.AssetDTO, error) {
	if uid == "" || email == "" {
		return nil, errMissingUser
	}
	if dto.Name == "" || dto.Type == "" {
		return nil, errInvalidRequest
	}

	asset := models.FromDTO(dto, uid, email)
	err := s.store.CreateAsset(ctx, asset)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, errAssetExists
	}
	if err != nil {
		return nil, err
	}

	s.log.Infof("Asset created for user %s: %s", uid, asset.Name)
	return models.ToDTO(asset), nil
}

// GetAsset fetches one asset by name, scoped to the owner when uid is set
func (s *Service) GetAsset(ctx context.Context, uid, name string) (*models.AssetDTO, error) {
	asset, err := s.findAsset(ctx, uid, name)
	if err != nil {
		return nil, err
	}
	return models.ToDTO(asset), nil
}

// ListAssets returns every asset of the owner
func (s *Service) ListAssets(ctx context.Context, uid, email string) ([]models.AssetDTO, error) {
	if uid == "" || email == "" {
		return nil, errMissingUser
	}
	assets, err := s.store.FindAssetsByUID(ctx, uid, email)
	if err != nil {
		return nil, err
	}
	return models.ToDTOList(assets), nil
}

// DeleteAsset removes an owner's asset
func (s *Service) DeleteAsset(ctx context.Context, uid, name string) error {
	if uid == "" {
		return errMissingUser
	}
	if name == "" {
		return errInvalidRequest
	}
	err := s.store.DeleteAsset(ctx, name, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return errAssetNotFound
	}
	if err != nil {
		return err
	}
	s.log.Infof("Asset deleted for user %s: %s", uid, name)
	return nil
}

// GetAssetSummary returns the asset together with what was paid out of it this month
func (s *Service) GetAssetSummary(ctx context.Context, uid, name string) (*models.AssetSummary, error) {
	asset, err := s.findAsset(ctx, uid, name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	records, err := s.records.QueryPaymentRecords(ctx, now.Year(), int(now.Month()), name)
	if err != nil {
		s.log.Errorf("Payment record query for %s failed: %v", name, err)
		return nil, errExternalCall
	}

	spending := decimal.Zero
	for _, r := range records {
		if r.PaymentFrom == name {
			spending = spending.Add(r.Amount)
		}
	}

	return &models.AssetSummary{Asset: *models.ToDTO(asset), Spending: spending}, nil
}

// GetAssetHistory lists the daily balance snapshots of an owner's asset
func (s *Service) GetAssetHistory(ctx context.Context, uid, name string) ([]models.HistoricalBalance, error) {
	if uid == "" {
		return nil, errMissingUser
	}
	if name == "" {
		return nil, errInvalidRequest
	}
	history, err := s.store.FindAssetHistory(ctx, name, uid)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errNoRecord
	}
	out := make([]models.HistoricalBalance, 0, len(history))
	for _, h := range history {
		out = append(out, models.HistoricalBalance{Date: h.Date.Format("2006-01-02"), Balance: h.Balance})
	}
	return out, nil
}

// SnapshotBalances records today's balance of every asset
func (s *Service) SnapshotBalances(ctx context.Context) (int64, error) {
	n, err := s.store.SnapshotBalances(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.log.Infof("Snapshot stored for %d assets", n)
	return n, nil
}

func (s *Service) findAsset(ctx context.Context, uid, name string) (*models.Asset, error) {
	if name == "" {
		return nil, errInvalidRequest
	}
	var (
		asset *models.Asset
		err   error
	)
	if uid == "" {
		asset, err = s.store.FindAssetByName(ctx, name)
	} else {
		asset, err = s.store.FindAssetByNameAndUID(ctx, name, uid)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return asset, nil
}
