// torrenthealth-sampler polls the DHT and trackers for every registered
// identifier and lands anonymized peer samples in Postgres. The retention
// sweep runs in the same process on its own cadence
package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"torrenthealth/internal/modkit"
	"torrenthealth/internal/modkit/repokit"
	"torrenthealth/internal/platform/config"
	"torrenthealth/internal/platform/logger"
	"torrenthealth/internal/platform/store"

	regrepo "torrenthealth/internal/services/registry/repo"
	retmod "torrenthealth/internal/services/retention/module"
	sammod "torrenthealth/internal/services/sampler/module"
	samrepo "torrenthealth/internal/services/sampler/repo"
)

func main() {
	_ = godotenv.Load()

	l := logger.Get()
	root := config.New()
	pgCfg := root.Prefix("PG_")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "torrenthealth-sampler",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	// Registry tables first; the sampler reads them and the time-series
	// tables have no other dependency
	if err := regrepo.EnsureSchema(ctx, st.PG); err != nil {
		l.Fatal().Err(err).Msg("registry schema failed")
	}
	if err := samrepo.EnsureSchema(ctx, st.PG); err != nil {
		l.Fatal().Err(err).Msg("sampler schema failed")
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, Log: *l}

	sampler, err := sammod.New(deps)
	if err != nil {
		l.Fatal().Err(err).Msg("sampler wiring failed")
	}
	defer func() { _ = sampler.Close() }()

	retention := retmod.New(deps)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := sampler.Ports().Runner.Run(ctx); err != nil && ctx.Err() == nil {
			l.Error().Err(err).Msg("sampler loop exited")
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		if err := retention.Ports().Runner.Run(ctx); err != nil && ctx.Err() == nil {
			l.Error().Err(err).Msg("retention loop exited")
			stop()
		}
	}()
	wg.Wait()

	l.Info().Msg("sampler: shutdown complete")
}
