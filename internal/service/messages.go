package service

import (
	"context"

	"github.com/Dan9191/asset-service/internal/models"
	"github.com/sirupsen/logrus"
)

// ProcessMessage applies a queued transfer. Missing assets are skipped rather
// than reported. A message carrying a transfer id that was already applied is
// acknowledged without touching any balance.
func (s *Service) ProcessMessage(ctx context.Context, msg models.TransferMessage) error {
	if msg.UID == "" {
		return errMissingUser
	}
	if msg.Request == nil {
		return errInvalidRequest
	}

	log := s.log.WithField("uid", msg.UID)
	if msg.TransferID != nil {
		log = log.WithField("transfer_id", msg.TransferID.String())
	}

	// the dedupe check, every leg and the processed mark commit together
	skipped := false
	err := s.atomically(ctx, func(ctx context.Context) error {
		if msg.TransferID != nil {
			processed, err := s.store.IsTransferProcessed(ctx, *msg.TransferID)
			if err != nil {
				return err
			}
			if processed {
				skipped = true
				return nil
			}
		}
		if err := s.dispatch(ctx, msg); err != nil {
			return err
		}
		if msg.TransferID != nil {
			return s.store.MarkTransferProcessed(ctx, *msg.TransferID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if skipped {
		log.Info("Transfer already processed, skipping")
		return nil
	}
	log.WithFields(logrus.Fields{"from": msg.Request.From, "to": msg.Request.To}).Info("Message processed")
	return nil
}

func (s *Service) dispatch(ctx context.Context, msg models.TransferMessage) error {
	switch {
	case msg.Cancel:
		return s.CancelTransaction(ctx, msg.UID, *msg.Request)
	case msg.Reverse != nil:
		return s.ReverseTransfer(ctx, msg.UID, *msg.Request, *msg.Reverse)
	default:
		_, err := s.ApplyTransfer(ctx, msg.UID, *msg.Request, Lenient)
		return err
	}
}
