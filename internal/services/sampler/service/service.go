// Package service provides the sampler implementation.
//
// The sampler runs two independent poll loops against the same identifier
// registry: a DHT loop and a tracker loop. Each cycle stamps a single epoch
// before any network work so every identifier sampled in that cycle shares
// the stamp, regardless of how long the lookups take.
//
// Failure policy: a failing identifier never aborts its cycle, a failing
// cycle never stops the loop. Only startup configuration problems are fatal,
// and those are caught before Run is ever called
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"torrenthealth/internal/core/anonymize"
	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/logger"
	samdom "torrenthealth/internal/services/sampler/domain"
)

// Config controls the poll cadence
type Config struct {
	// Settle is how long to wait before the first DHT cycle so the
	// node's routing table has something in it
	Settle time.Duration

	// Interval is the DHT poll period
	Interval time.Duration

	// TrackerInterval is the tracker poll period; 0 disables the loop
	TrackerInterval time.Duration
}

// Service wires the lookup adapters and storage into the sampling loops
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[samdom.StorageRepo]
	dht    samdom.LookupPort
	trk    samdom.AnnouncePort
	anon   anonymize.Anonymizer
	cfg    Config
	log    logger.Logger

	// now is a seam for tests
	now func() time.Time
}

// New constructs the sampler service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[samdom.StorageRepo],
	dht samdom.LookupPort,
	trk samdom.AnnouncePort,
	anon anonymize.Anonymizer,
	cfg Config,
	log logger.Logger,
) *Service {
	if db == nil {
		panic("sampler.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("sampler.Service requires a non nil Repo binder")
	}
	if dht == nil {
		panic("sampler.Service requires a lookup port")
	}
	return &Service{
		db:     db,
		binder: binder,
		dht:    dht,
		trk:    trk,
		anon:   anon,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Run blocks until ctx ends: settle delay, then both poll loops
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Settle > 0 {
		s.log.Info().Dur("settle", s.cfg.Settle).Msg("sampler: waiting for routing table to settle")
		t := time.NewTimer(s.cfg.Settle)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop(ctx, s.cfg.Interval, "dht", func(ctx context.Context) (samdom.CycleStats, error) {
			return s.RunDHTOnce(ctx)
		})
	}()

	if s.trk != nil && s.cfg.TrackerInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, s.cfg.TrackerInterval, "trackers", func(ctx context.Context) (samdom.CycleStats, error) {
				return s.RunTrackersOnce(ctx)
			})
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// loop runs one cycle immediately, then on every tick. Cycle errors are
// logged and swallowed; the cadence carries on
func (s *Service) loop(
	ctx context.Context,
	every time.Duration,
	name string,
	cycle func(context.Context) (samdom.CycleStats, error),
) {
	run := func() {
		start := time.Now()
		stats, err := cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error().Err(err).Str("loop", name).Msg("sampler: cycle failed; epoch lost")
			return
		}
		s.log.Info().
			Str("loop", name).
			Int64("epoch", stats.Epoch).
			Int("identifiers", stats.Identifiers).
			Int("failed", stats.Failed).
			Int("peers", stats.Peers).
			Int("inserted", stats.Inserted).
			Dur("took", time.Since(start)).
			Msg("sampler: cycle complete")
	}

	run()

	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			run()
		}
	}
}

// RunDHTOnce samples every registered identifier against the DHT under a
// single epoch stamp
func (s *Service) RunDHTOnce(ctx context.Context) (samdom.CycleStats, error) {
	stats := samdom.CycleStats{Epoch: s.now().UTC().Unix()}

	repo := s.binder.Bind(s.db)
	ids, err := repo.ListIdentifiers(ctx)
	if err != nil {
		return stats, err
	}
	stats.Identifiers = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		addrs, err := s.dht.Lookup(ctx, id)
		if err != nil {
			stats.Failed++
			s.log.Warn().Err(err).Str("hash", id).Msg("sampler: dht lookup failed; identifier skipped")
			continue
		}
		stats.Peers += len(addrs)

		n, err := s.insert(ctx, repo, id, stats.Epoch, s.anon.Tokens(addrs), true)
		if err != nil {
			stats.Failed++
			s.log.Error().Err(err).Str("hash", id).Msg("sampler: store rejected samples; identifier lost this epoch")
			continue
		}
		stats.Inserted += n
	}
	return stats, nil
}

// RunTrackersOnce announces every identifier to its known trackers under a
// single epoch stamp. Announces for one identifier run concurrently; the
// store writes happen from this goroutine once all answers are in
func (s *Service) RunTrackersOnce(ctx context.Context) (samdom.CycleStats, error) {
	if s.trk == nil {
		return samdom.CycleStats{}, perr.Configf("tracker sampling not configured")
	}

	stats := samdom.CycleStats{Epoch: s.now().UTC().Unix()}

	repo := s.binder.Bind(s.db)
	byID, err := repo.TrackersByIdentifier(ctx)
	if err != nil {
		return stats, err
	}
	stats.Identifiers = len(byID)

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		type answer struct {
			tracker string
			addrs   []string
			err     error
		}

		answers := make([]answer, len(byID[id]))
		var wg sync.WaitGroup
		for i, tr := range byID[id] {
			wg.Add(1)
			go func(i int, tr string) {
				defer wg.Done()
				addrs, err := s.trk.Announce(ctx, tr, id)
				answers[i] = answer{tracker: tr, addrs: addrs, err: err}
			}(i, tr)
		}
		wg.Wait()

		union := make(map[string]struct{})
		for _, a := range answers {
			if a.err != nil {
				s.log.Warn().Err(a.err).Str("hash", id).Str("tracker", a.tracker).
					Msg("sampler: tracker announce failed")
				continue
			}
			if err := repo.MarkTrackerAvailable(ctx, id, stats.Epoch, a.tracker); err != nil {
				s.log.Error().Err(err).Str("hash", id).Str("tracker", a.tracker).
					Msg("sampler: availability write failed")
			}
			for _, addr := range a.addrs {
				union[addr] = struct{}{}
			}
		}
		stats.Peers += len(union)

		n, err := s.insert(ctx, repo, id, stats.Epoch, s.anon.Tokens(union), false)
		if err != nil {
			stats.Failed++
			s.log.Error().Err(err).Str("hash", id).Msg("sampler: store rejected samples; identifier lost this epoch")
			continue
		}
		stats.Inserted += n
	}
	return stats, nil
}

// insert lands one identifier's tokens in deterministic order. Transient
// store errors (contention, reconnects) are retried briefly; anything
// else surfaces immediately
func (s *Service) insert(
	ctx context.Context,
	repo samdom.StorageRepo,
	hash string,
	epoch int64,
	tokens map[string]struct{},
	dht bool,
) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	batch := make([]string, 0, len(tokens))
	for tok := range tokens {
		batch = append(batch, tok)
	}
	sort.Strings(batch)

	var n int
	write := func() error {
		var err error
		n, err = repo.InsertPeerSamples(ctx, hash, epoch, batch, dht)
		if err != nil && !perr.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 3 * time.Second
	if err := backoff.Retry(write, backoff.WithContext(bo, ctx)); err != nil {
		return 0, err
	}
	return n, nil
}
