// torrenthealth-api serves the registry and availability stats over HTTP
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"torrenthealth/internal/modkit"
	"torrenthealth/internal/modkit/repokit"
	"torrenthealth/internal/platform/config"
	"torrenthealth/internal/platform/logger"
	"torrenthealth/internal/platform/store"

	"torrenthealth/internal/services/api"
	regmod "torrenthealth/internal/services/registry/module"
	regrepo "torrenthealth/internal/services/registry/repo"
	samrepo "torrenthealth/internal/services/sampler/repo"
	statmod "torrenthealth/internal/services/stats/module"
)

func main() {
	_ = godotenv.Load()

	l := logger.Get()
	root := config.New()
	pgCfg := root.Prefix("PG_")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "torrenthealth-api",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
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

	// The API can come up before the sampler ever has; make sure every
	// table it reads exists
	if err := regrepo.EnsureSchema(ctx, st.PG); err != nil {
		l.Fatal().Err(err).Msg("registry schema failed")
	}
	if err := samrepo.EnsureSchema(ctx, st.PG); err != nil {
		l.Fatal().Err(err).Msg("sampler schema failed")
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, Log: *l}

	registry := regmod.New(deps)
	stats := statmod.New(deps)

	srv := api.New(deps, api.FromConfig(deps), registry.Ports().Registry, stats.Ports().Stats, st.Guard)

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		l.Fatal().Err(err).Msg("api server failed")
	}
	l.Info().Msg("api: shutdown complete")
}
