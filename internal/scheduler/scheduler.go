package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const snapshotTimeout = time.Minute

// Snapshotter stores the current balance of every asset
type Snapshotter interface {
	SnapshotBalances(ctx context.Context) (int64, error)
}

// Scheduler runs the daily balance snapshot
type Scheduler struct {
	cron *cron.Cron
	svc  Snapshotter
	log  *logrus.Logger
}

// NewScheduler registers the snapshot job on the given cron spec
func NewScheduler(spec string, svc Snapshotter, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		svc:  svc,
		log:  log,
	}
	if _, err := s.cron.AddFunc(spec, s.runSnapshot); err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Balance snapshot scheduler started")
}

// Stop waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if _, err := s.svc.SnapshotBalances(ctx); err != nil {
		s.log.Errorf("Balance snapshot failed: %v", err)
	}
}
