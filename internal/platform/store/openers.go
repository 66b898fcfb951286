package store

import (
	"context"
	"fmt"
	"time"

	"torrenthealth/internal/platform/store/pg"

	"github.com/cenkalti/backoff/v4"
)

// openPG opens pg and wraps it with our sql adapter.
// The pool is pinged with exponential backoff before the adapter is published,
// so a store handed to services is known-healthy at least once
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer)
	if err != nil {
		return nil, err
	}

	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	budget := cfg.PG.PingBudget
	if budget <= 0 {
		budget = time.Minute
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 150 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = budget

	ping := func() error {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return p.Pool.Ping(toCtx) // pool directly: no adapter, no SQL trace line
	}

	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres ping failed after %s: %w", budget, err)
	}

	a := newPGAdapter(p) // publish adapter only after the pool is healthy
	s.PG = a
	return a, nil
}
