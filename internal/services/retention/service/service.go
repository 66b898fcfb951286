// Package service provides the retention implementation
package service

import (
	"context"
	"time"

	"torrenthealth/internal/modkit/repokit"
	"torrenthealth/internal/platform/logger"
	retdom "torrenthealth/internal/services/retention/domain"
	statdom "torrenthealth/internal/services/stats/domain"
)

// Config controls the prune cadence and horizon
type Config struct {
	// Horizon is how far back samples are kept; defaults to the monthly
	// reporting window so no live aggregate ever loses rows
	Horizon time.Duration

	// Interval is the prune period
	Interval time.Duration
}

// Service wires TxRunner + Binder into the prune operations
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[retdom.StorageRepo]
	cfg    Config
	log    logger.Logger

	// now is a seam for tests
	now func() time.Time
}

// New constructs the retention service
func New(db repokit.TxRunner, binder repokit.Binder[retdom.StorageRepo], cfg Config, log logger.Logger) *Service {
	if db == nil {
		panic("retention.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("retention.Service requires a non nil Repo binder")
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = time.Duration(statdom.MonthlyWindow) * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &Service{db: db, binder: binder, cfg: cfg, log: log, now: time.Now}
}

// PruneOnce deletes every sample older than the retention horizon.
// Both tables are pruned in one transaction so a reader never sees the
// availability rows outlive their peer samples
func (s *Service) PruneOnce(ctx context.Context) (retdom.PruneStats, error) {
	stats := retdom.PruneStats{
		Cutoff: s.now().UTC().Add(-s.cfg.Horizon).Unix(),
	}

	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		n, err := repo.DeletePeersBefore(ctx, stats.Cutoff)
		if err != nil {
			return err
		}
		stats.PeersDeleted = n

		n, err = repo.DeleteAvailabilityBefore(ctx, stats.Cutoff)
		if err != nil {
			return err
		}
		stats.AvailabilityDeleted = n
		return nil
	})
	if err != nil {
		return stats, err
	}

	s.log.Info().
		Int64("cutoff", stats.Cutoff).
		Int64("peers_deleted", stats.PeersDeleted).
		Int64("availability_deleted", stats.AvailabilityDeleted).
		Msg("retention: prune complete")
	return stats, nil
}

// Run prunes immediately, then on every tick. Prune errors are logged
// and the cadence carries on
func (s *Service) Run(ctx context.Context) error {
	run := func() {
		if _, err := s.PruneOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("retention: prune failed; retrying next tick")
		}
	}

	run()

	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			run()
		}
	}
}
