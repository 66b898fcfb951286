// Package service provides the stats implementation
package service

import (
	"context"
	"sort"
	"time"

	"torrenthealth/internal/core/infohash"
	"torrenthealth/internal/modkit/repokit"
	statdom "torrenthealth/internal/services/stats/domain"
)

// Service wires TxRunner + Binder into the read operations
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[statdom.StorageRepo]

	// now is a seam for tests
	now func() time.Time
}

// New constructs the stats service
func New(db repokit.TxRunner, binder repokit.Binder[statdom.StorageRepo]) *Service {
	if db == nil {
		panic("stats.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("stats.Service requires a non nil Repo binder")
	}
	return &Service{db: db, binder: binder, now: time.Now}
}

// cutoffs derives the epoch lower bound per reporting window
func (s *Service) cutoffs() statdom.Cutoffs {
	now := s.now().UTC().Unix()
	return statdom.Cutoffs{
		Daily:   now - statdom.DailyWindow,
		Weekly:  now - statdom.WeeklyWindow,
		Monthly: now - statdom.MonthlyWindow,
	}
}

// Summary returns every identifier's window counts ordered by ascending
// daily DHT count, least healthy first
func (s *Service) Summary(ctx context.Context) ([]statdom.TorrentStats, error) {
	rows, err := s.binder.Bind(s.db).Summary(ctx, s.cutoffs())
	if err != nil {
		return nil, err
	}
	// The repo already orders; re-assert here so the contract does not
	// depend on which storage implementation is bound
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DHT.Daily != rows[j].DHT.Daily {
			return rows[i].DHT.Daily < rows[j].DHT.Daily
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// Torrent returns one identifier's window counts; hex and base32 forms
// are accepted
func (s *Service) Torrent(ctx context.Context, hash string) (statdom.TorrentStats, error) {
	canon, err := infohash.Canonical(hash)
	if err != nil {
		return statdom.TorrentStats{}, err
	}
	return s.binder.Bind(s.db).Torrent(ctx, canon, s.cutoffs())
}
