package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/asset-service/internal/models"
	"github.com/Dan9191/asset-service/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LegMode decides what happens when one side of a transfer has no asset
type LegMode int

const (
	// Strict reports missing legs as not found (HTTP path)
	Strict LegMode = iota
	// Lenient skips missing legs silently (message path)
	Lenient
)

// ApplyTransfer debits From and credits To by the request value.
// The two legs are applied independently: a missing asset on one side never
// stops the other side. In Strict mode a missing leg is reported after the
// other leg has been saved, and the partial result is returned with the error.
func (s *Service) ApplyTransfer(ctx context.Context, uid string, req models.TransferRequest, mode LegMode) (*models.TransferResult, error) {
	if uid == "" {
		return nil, errMissingUser
	}
	if req.From == "" || req.To == "" || req.Amount.IsNegative() {
		return nil, errInvalidRequest
	}
	if req.EstimateValue != nil && req.EstimateValue.IsNegative() {
		return nil, errInvalidRequest
	}

	value := req.Value()
	result := &models.TransferResult{TransactionValue: req.Amount}
	var missing []string

	from, err := s.applyLeg(ctx, uid, req.From, value.Neg())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		missing = append(missing, req.From)
	case err != nil:
		return nil, err
	default:
		result.AssetFrom = models.ToDTO(from)
	}

	to, err := s.applyLeg(ctx, uid, req.To, value)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		missing = append(missing, req.To)
	case err != nil:
		return nil, err
	default:
		result.AssetTo = models.ToDTO(to)
	}

	if len(missing) > 0 {
		if mode == Strict {
			return result, newError(ErrNotFound, errAssetNotFound.Code,
				fmt.Sprintf("%s: %s", errAssetNotFound.Message, strings.Join(missing, ", ")))
		}
		s.log.WithFields(logrus.Fields{"uid": uid, "assets": missing}).Info("Skipping transfer legs without asset")
	}
	return result, nil
}

// AdjustAsset adds a signed delta to a single asset
func (s *Service) AdjustAsset(ctx context.Context, uid, name string, delta *decimal.Decimal) (*models.AssetDTO, error) {
	if uid == "" {
		return nil, errMissingUser
	}
	if name == "" || delta == nil {
		return nil, errInvalidRequest
	}
	asset, err := s.applyLeg(ctx, uid, name, *delta)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return models.ToDTO(asset), nil
}

// ReverseTransfer undoes a previously applied transfer with a corrective one
// running the opposite way. Both original assets must exist and both legs
// are written in one transaction.
func (s *Service) ReverseTransfer(ctx context.Context, uid string, original, reversal models.TransferRequest) error {
	if uid == "" {
		return errMissingUser
	}
	if original.From == "" || original.To == "" {
		return errInvalidRequest
	}
	if reversal.From != original.To || reversal.To != original.From || reversal.Amount.IsNegative() {
		return errInvalidReverse
	}

	err := s.atomically(ctx, func(ctx context.Context) error {
		from, to, err := s.findPair(ctx, uid, original.From, original.To, errInvalidReverse)
		if err != nil {
			return err
		}
		value := reversal.Value()
		if err := s.saveLeg(ctx, from, value); err != nil {
			return err
		}
		return s.saveLeg(ctx, to, value.Neg())
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"uid": uid, "from": original.From, "to": original.To}).
		Infof("Reversed transfer by %s", reversal.Value())
	return nil
}

// CancelTransaction applies the exact inverse of a transfer. Both assets must
// exist; the two legs commit together.
func (s *Service) CancelTransaction(ctx context.Context, uid string, req models.TransferRequest) error {
	if uid == "" {
		return errMissingUser
	}
	if req.From == "" || req.To == "" || req.Amount.IsNegative() {
		return errInvalidRequest
	}

	value := req.Value()
	err := s.atomically(ctx, func(ctx context.Context) error {
		from, to, err := s.findPair(ctx, uid, req.From, req.To, errAssetNotFound)
		if err != nil {
			return err
		}
		if err := s.saveLeg(ctx, from, value); err != nil {
			return err
		}
		return s.saveLeg(ctx, to, value.Neg())
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"uid": uid, "from": req.From, "to": req.To}).
		Infof("Cancelled transfer of %s", value)
	return nil
}

// applyLeg loads one asset and adds delta to it. A missing asset is returned
// as repository.ErrNotFound.
func (s *Service) applyLeg(ctx context.Context, uid, name string, delta decimal.Decimal) (*models.Asset, error) {
	asset, err := s.store.FindAssetByNameAndUID(ctx, name, uid)
	if err != nil {
		return nil, err
	}
	if err := s.saveLeg(ctx, asset, delta); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *Service) saveLeg(ctx context.Context, asset *models.Asset, delta decimal.Decimal) error {
	asset.Balance = asset.Balance.Add(delta)
	if err := s.store.UpdateAssetBalance(ctx, asset); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"uid": asset.UID, "delta": delta.String()}).
		Infof("Updating asset: %s", asset.Name)
	s.notify(ctx, asset, delta)
	return nil
}

// findPair loads both assets before any write, failing with missingErr if either is absent
func (s *Service) findPair(ctx context.Context, uid, fromName, toName string, missingErr *Error) (*models.Asset, *models.Asset, error) {
	from, err := s.store.FindAssetByNameAndUID(ctx, fromName, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, missingErr
	}
	if err != nil {
		return nil, nil, err
	}
	if fromName == toName {
		return from, from, nil
	}
	to, err := s.store.FindAssetByNameAndUID(ctx, toName, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, missingErr
	}
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

type pendingKey struct{}

type notification struct {
	asset models.Asset
	delta decimal.Decimal
}

// atomically runs fn in one store transaction. Balance notifications raised
// inside fn are held back until the outermost transaction commits.
func (s *Service) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pendingKey{}).(*[]notification); ok {
		return s.store.InTx(ctx, fn)
	}
	var pending []notification
	if err := s.store.InTx(context.WithValue(ctx, pendingKey{}, &pending), fn); err != nil {
		return err
	}
	for i := range pending {
		s.send(&pending[i].asset, pending[i].delta)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, asset *models.Asset, delta decimal.Decimal) {
	if pending, ok := ctx.Value(pendingKey{}).(*[]notification); ok {
		*pending = append(*pending, notification{asset: *asset, delta: delta})
		return
	}
	s.send(asset, delta)
}

func (s *Service) send(asset *models.Asset, delta decimal.Decimal) {
	if s.notifier == nil || asset.Email == "" {
		return
	}
	if err := s.notifier.SendBalanceNotification(asset.Email, asset, delta); err != nil {
		s.log.Warnf("Failed to notify %s about asset %s: %v", asset.Email, asset.Name, err)
	}
}
