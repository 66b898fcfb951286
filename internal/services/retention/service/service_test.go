package service

import (
	"context"
	"testing"
	"time"

	"torrenthealth/internal/modkit/repokit"
	perr "torrenthealth/internal/platform/errors"
	"torrenthealth/internal/platform/logger"
	retdom "torrenthealth/internal/services/retention/domain"
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

type fakeRepo struct {
	peersCutoff int64
	availCutoff int64
	peersErr    error
}

func (f *fakeRepo) DeletePeersBefore(_ context.Context, cutoff int64) (int64, error) {
	if f.peersErr != nil {
		return 0, f.peersErr
	}
	f.peersCutoff = cutoff
	return 7, nil
}

func (f *fakeRepo) DeleteAvailabilityBefore(_ context.Context, cutoff int64) (int64, error) {
	f.availCutoff = cutoff
	return 3, nil
}

func newTestService(repo *fakeRepo, cfg Config) *Service {
	binder := repokit.BindFunc[retdom.StorageRepo](func(repokit.Queryer) retdom.StorageRepo { return repo })
	svc := New(fakeTx{}, binder, cfg, *logger.Get())
	svc.now = func() time.Time { return time.Unix(10_000_000, 0) }
	return svc
}

func TestPruneOnce_MonthlyHorizonDefault(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, Config{})

	stats, err := svc.PruneOnce(context.Background())
	if err != nil {
		t.Fatalf("PruneOnce: %v", err)
	}
	want := int64(10_000_000 - 2_592_000)
	if stats.Cutoff != want {
		t.Fatalf("cutoff = %d, want %d", stats.Cutoff, want)
	}
	if repo.peersCutoff != want || repo.availCutoff != want {
		t.Fatalf("repo cutoffs = %d / %d", repo.peersCutoff, repo.availCutoff)
	}
	if stats.PeersDeleted != 7 || stats.AvailabilityDeleted != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPruneOnce_ErrorAbortsTransaction(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{peersErr: perr.Unavailablef("pg down")}
	svc := newTestService(repo, Config{})

	if _, err := svc.PruneOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if repo.availCutoff != 0 {
		t.Fatal("availability prune ran after peers prune failed")
	}
}

func TestRun_SurvivesPruneErrors(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{peersErr: perr.Unavailablef("pg down")}
	svc := newTestService(repo, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Run returned %v, want deadline exceeded after surviving prune errors", err)
	}
}
