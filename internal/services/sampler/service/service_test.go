package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"torrenthealth/internal/core/anonymize"
	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/logger"
	samdom "torrenthealth/internal/services/sampler/domain"
)

type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	panic("unexpected Exec")
}
func (fakeTx) Query(context.Context, string, ...any) (repokit.Rows, error) {
	panic("unexpected Query")
}
func (fakeTx) QueryRow(context.Context, string, ...any) repokit.Row {
	panic("unexpected QueryRow")
}
func (f fakeTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error { return fn(f) }

type insertCall struct {
	hash   string
	epoch  int64
	tokens []string
	dht    bool
}

type fakeRepo struct {
	ids      []string
	idsErr   error
	trackers map[string][]string

	inserts    []insertCall
	insertErr  map[string]error // per hash, permanent
	flaky      map[string]int   // per hash, fail this many calls then succeed
	availCalls []string
}

func (f *fakeRepo) ListIdentifiers(context.Context) ([]string, error) {
	return f.ids, f.idsErr
}

func (f *fakeRepo) TrackersByIdentifier(context.Context) (map[string][]string, error) {
	return f.trackers, nil
}

func (f *fakeRepo) InsertPeerSamples(
	_ context.Context, hash string, epoch int64, tokens []string, dht bool,
) (int, error) {
	if err := f.insertErr[hash]; err != nil {
		return 0, err
	}
	if f.flaky[hash] > 0 {
		f.flaky[hash]--
		return 0, errors.New("dial tcp: connection refused")
	}
	f.inserts = append(f.inserts, insertCall{hash: hash, epoch: epoch, tokens: tokens, dht: dht})
	return len(tokens), nil
}

func (f *fakeRepo) MarkTrackerAvailable(_ context.Context, hash string, _ int64, tracker string) error {
	f.availCalls = append(f.availCalls, hash+"|"+tracker)
	return nil
}

type fakeLookup struct {
	peers map[string][]string
	fail  map[string]error
}

func (f *fakeLookup) Lookup(_ context.Context, canonical string) (map[string]struct{}, error) {
	if err := f.fail[canonical]; err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	for _, p := range f.peers[canonical] {
		out[p] = struct{}{}
	}
	return out, nil
}

type fakeAnnounce struct {
	peers map[string][]string // key tracker|hash
	fail  map[string]error
}

func (f *fakeAnnounce) Announce(_ context.Context, trackerURL, canonical string) ([]string, error) {
	key := trackerURL + "|" + canonical
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	return f.peers[key], nil
}

func newTestService(t *testing.T, repo *fakeRepo, dht samdom.LookupPort, trk samdom.AnnouncePort) *Service {
	t.Helper()
	anon, err := anonymize.New("test-salt")
	if err != nil {
		t.Fatalf("anonymize.New: %v", err)
	}
	binder := repokit.BindFunc[samdom.StorageRepo](func(repokit.Queryer) samdom.StorageRepo { return repo })
	svc := New(fakeTx{}, binder, dht, trk, anon, Config{
		Interval:        time.Minute,
		TrackerInterval: time.Minute,
	}, *logger.Get())
	svc.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return svc
}

func TestRunDHTOnce_SingleEpochAcrossIdentifiers(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{ids: []string{"aaaa", "bbbb"}}
	lookup := &fakeLookup{peers: map[string][]string{
		"aaaa": {"203.0.113.1", "203.0.113.2"},
		"bbbb": {"203.0.113.1"},
	}}
	svc := newTestService(t, repo, lookup, nil)

	stats, err := svc.RunDHTOnce(context.Background())
	if err != nil {
		t.Fatalf("RunDHTOnce: %v", err)
	}
	if stats.Epoch != 1_700_000_000 {
		t.Fatalf("epoch = %d", stats.Epoch)
	}
	if len(repo.inserts) != 2 {
		t.Fatalf("inserts = %d, want 2", len(repo.inserts))
	}
	for _, in := range repo.inserts {
		if in.epoch != stats.Epoch {
			t.Fatalf("insert epoch %d differs from cycle epoch %d", in.epoch, stats.Epoch)
		}
		if !in.dht {
			t.Fatal("dht flag not set")
		}
	}
	if stats.Inserted != 3 || stats.Peers != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRunDHTOnce_TokensAreAnonymized(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{ids: []string{"aaaa"}}
	lookup := &fakeLookup{peers: map[string][]string{"aaaa": {"203.0.113.1"}}}
	svc := newTestService(t, repo, lookup, nil)

	if _, err := svc.RunDHTOnce(context.Background()); err != nil {
		t.Fatalf("RunDHTOnce: %v", err)
	}
	tok := repo.inserts[0].tokens[0]
	if tok == "203.0.113.1" {
		t.Fatal("raw address persisted")
	}
	if len(tok) != anonymize.TokenLen {
		t.Fatalf("token length = %d", len(tok))
	}
}

func TestRunDHTOnce_LookupFailureIsolated(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{ids: []string{"aaaa", "bbbb"}}
	lookup := &fakeLookup{
		peers: map[string][]string{"bbbb": {"203.0.113.1"}},
		fail:  map[string]error{"aaaa": perr.LookupFailuref("boom")},
	}
	svc := newTestService(t, repo, lookup, nil)

	stats, err := svc.RunDHTOnce(context.Background())
	if err != nil {
		t.Fatalf("cycle must survive a per-identifier failure, got %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("failed = %d, want 1", stats.Failed)
	}
	if len(repo.inserts) != 1 || repo.inserts[0].hash != "bbbb" {
		t.Fatalf("inserts = %+v", repo.inserts)
	}
}

func TestRunDHTOnce_StoreFailureIsolated(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		ids:       []string{"aaaa", "bbbb"},
		insertErr: map[string]error{"aaaa": perr.Unavailablef("pg down")},
	}
	lookup := &fakeLookup{peers: map[string][]string{
		"aaaa": {"203.0.113.1"},
		"bbbb": {"203.0.113.2"},
	}}
	svc := newTestService(t, repo, lookup, nil)

	stats, err := svc.RunDHTOnce(context.Background())
	if err != nil {
		t.Fatalf("cycle must survive a store failure, got %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("failed = %d, want 1", stats.Failed)
	}
	if len(repo.inserts) != 1 || repo.inserts[0].hash != "bbbb" {
		t.Fatalf("inserts = %+v", repo.inserts)
	}
}

func TestRunDHTOnce_TransientStoreErrorRetried(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		ids:   []string{"aaaa"},
		flaky: map[string]int{"aaaa": 2},
	}
	lookup := &fakeLookup{peers: map[string][]string{"aaaa": {"203.0.113.1"}}}
	svc := newTestService(t, repo, lookup, nil)

	stats, err := svc.RunDHTOnce(context.Background())
	if err != nil {
		t.Fatalf("RunDHTOnce: %v", err)
	}
	if stats.Failed != 0 || stats.Inserted != 1 {
		t.Fatalf("transient write errors must be retried away, stats = %+v", stats)
	}
	if len(repo.inserts) != 1 {
		t.Fatalf("inserts = %+v", repo.inserts)
	}
}

func TestRunDHTOnce_EmptySwarmIsNotAFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{ids: []string{"aaaa"}}
	svc := newTestService(t, repo, &fakeLookup{}, nil)

	stats, err := svc.RunDHTOnce(context.Background())
	if err != nil {
		t.Fatalf("RunDHTOnce: %v", err)
	}
	if stats.Failed != 0 || stats.Inserted != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(repo.inserts) != 0 {
		t.Fatalf("empty swarm must not write, got %+v", repo.inserts)
	}
}

func TestRunDHTOnce_ListFailurePropagates(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{idsErr: perr.Unavailablef("pg down")}
	svc := newTestService(t, repo, &fakeLookup{}, nil)

	if _, err := svc.RunDHTOnce(context.Background()); err == nil {
		t.Fatal("expected error when identifier listing fails")
	}
}

func TestRunTrackersOnce(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{trackers: map[string][]string{
		"aaaa": {"udp://one", "udp://two"},
	}}
	ann := &fakeAnnounce{
		peers: map[string][]string{
			"udp://one|aaaa": {"203.0.113.1", "203.0.113.2"},
		},
		fail: map[string]error{
			"udp://two|aaaa": perr.LookupFailuref("timeout"),
		},
	}
	svc := newTestService(t, repo, &fakeLookup{}, ann)

	stats, err := svc.RunTrackersOnce(context.Background())
	if err != nil {
		t.Fatalf("RunTrackersOnce: %v", err)
	}
	if len(repo.availCalls) != 1 || repo.availCalls[0] != "aaaa|udp://one" {
		t.Fatalf("availability = %v, only the answering tracker should be marked", repo.availCalls)
	}
	if len(repo.inserts) != 1 {
		t.Fatalf("inserts = %+v", repo.inserts)
	}
	if repo.inserts[0].dht {
		t.Fatal("tracker samples must carry dht=false")
	}
	if stats.Inserted != 2 {
		t.Fatalf("inserted = %d, want 2", stats.Inserted)
	}
}

func TestRunTrackersOnce_NotConfigured(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeRepo{}, &fakeLookup{}, nil)
	if _, err := svc.RunTrackersOnce(context.Background()); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("expected Config error, got %v", err)
	}
}

func TestRun_CancelDuringSettle(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeRepo{}, &fakeLookup{}, nil)
	svc.cfg.Settle = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
}

func TestRun_LoopSurvivesCycleErrors(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{idsErr: perr.Unavailablef("pg down")}
	svc := newTestService(t, repo, &fakeLookup{}, nil)
	svc.cfg.Settle = 0
	svc.cfg.Interval = 10 * time.Millisecond
	svc.cfg.TrackerInterval = 0

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Run returned %v, want deadline exceeded after surviving cycle errors", err)
	}
}
