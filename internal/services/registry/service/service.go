// Package service provides the registry implementation
package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"torrenthealth/internal/core/infohash"
	"torrenthealth/internal/core/magnet"
	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/logger"
	regdom "torrenthealth/internal/services/registry/domain"
)

// Service wires TxRunner + Binder into the registry operations
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[regdom.StorageRepo]
	log    logger.Logger
}

// New constructs the registry service
func New(db repokit.TxRunner, binder repokit.Binder[regdom.StorageRepo], log logger.Logger) *Service {
	if db == nil {
		panic("registry.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("registry.Service requires a non nil Repo binder")
	}
	return &Service{db: db, binder: binder, log: log}
}

// Add registers one torrent from its magnet link. Re-adding an already
// known identifier is a no-op for the torrent row; new trackers from the
// link are still merged in
func (s *Service) Add(ctx context.Context, in regdom.AddInput) (regdom.Torrent, error) {
	link, err := magnet.Parse(in.Magnet)
	if err != nil {
		return regdom.Torrent{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = link.DisplayName
	}
	if name == "" {
		name = link.InfoHash
	}

	t := regdom.Torrent{Hash: link.InfoHash, Name: name, Magnet: strings.TrimSpace(in.Magnet)}

	err = repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		repo := s.binder.Bind(q)
		inserted, err := repo.UpsertTorrent(ctx, t)
		if err != nil {
			return err
		}
		if _, err := repo.UpsertTrackers(ctx, t.Hash, link.Trackers); err != nil {
			return err
		}
		if inserted {
			s.log.Info().Str("hash", t.Hash).Str("name", t.Name).Msg("registry: torrent added")
		}
		return nil
	})
	if err != nil {
		return regdom.Torrent{}, err
	}
	return t, nil
}

// ImportCSV bulk-registers torrents from a name,magnet CSV stream.
// A leading "name,magnet" header row is tolerated. Bad rows are counted
// and skipped; only the stream itself failing is an error
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (regdom.ImportStats, error) {
	var stats regdom.ImportStats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read csv")
		}

		if stats.Rows == 0 && len(rec) >= 2 &&
			strings.EqualFold(strings.TrimSpace(rec[0]), "name") &&
			strings.EqualFold(strings.TrimSpace(rec[1]), "magnet") {
			continue
		}
		stats.Rows++

		if len(rec) < 2 {
			stats.Failed++
			s.log.Warn().Int("row", stats.Rows).Msg("registry: csv row missing magnet column")
			continue
		}

		in := regdom.AddInput{Name: rec[0], Magnet: rec[1]}
		existing, err := s.isKnown(ctx, in.Magnet)
		if err != nil {
			stats.Failed++
			s.log.Warn().Int("row", stats.Rows).Err(err).Msg("registry: csv row duplicate check failed")
			continue
		}
		if _, err := s.Add(ctx, in); err != nil {
			stats.Failed++
			s.log.Warn().Int("row", stats.Rows).Err(err).Msg("registry: csv row rejected")
			continue
		}
		if existing {
			stats.Skipped++
		} else {
			stats.Added++
		}
	}
	return stats, nil
}

// isKnown reports whether the magnet's identifier is already registered
func (s *Service) isKnown(ctx context.Context, rawMagnet string) (bool, error) {
	link, err := magnet.Parse(rawMagnet)
	if err != nil {
		return false, err
	}
	_, err = s.binder.Bind(s.db).GetTorrent(ctx, link.InfoHash)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns every registered torrent
func (s *Service) List(ctx context.Context) ([]regdom.Torrent, error) {
	return s.binder.Bind(s.db).ListTorrents(ctx)
}

// Get returns one torrent by identifier; hex and base32 forms are accepted
func (s *Service) Get(ctx context.Context, hash string) (regdom.Torrent, error) {
	canon, err := infohash.Canonical(hash)
	if err != nil {
		return regdom.Torrent{}, err
	}
	return s.binder.Bind(s.db).GetTorrent(ctx, canon)
}

// TrackersFor returns the announce endpoints known for an identifier
func (s *Service) TrackersFor(ctx context.Context, hash string) ([]string, error) {
	canon, err := infohash.Canonical(hash)
	if err != nil {
		return nil, err
	}
	return s.binder.Bind(s.db).ListTrackers(ctx, canon)
}
