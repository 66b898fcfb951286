// torrenthealth-torrents is the operator CLI for the identifier registry:
// add a single magnet link, bulk-import a name,magnet CSV, or list what is
// currently tracked
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"torrenthealth/internal/modkit"
	"torrenthealth/internal/modkit/repokit"
	"torrenthealth/internal/platform/config"
	"torrenthealth/internal/platform/logger"
	"torrenthealth/internal/platform/store"

	regdom "torrenthealth/internal/services/registry/domain"
	regmod "torrenthealth/internal/services/registry/module"
	regrepo "torrenthealth/internal/services/registry/repo"
)

func main() {
	_ = godotenv.Load()

	var (
		fMagnet = flag.String("magnet", "", "magnet link to register")
		fName   = flag.String("name", "", "display name (defaults to the magnet dn)")
		fCSV    = flag.String("csv", "", "path to a name,magnet CSV to bulk import")
		fList   = flag.Bool("list", false, "list registered torrents and exit")
	)
	flag.Parse()

	l := logger.Get()
	root := config.New()
	pgCfg := root.Prefix("PG_")

	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{
		AppName: "torrenthealth-torrents",
		PG: store.PGConfig{
			Enabled:  true,
			URL:      pgCfg.MustString("DBURL"),
			MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 2)),
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

	if err := regrepo.EnsureSchema(ctx, st.PG); err != nil {
		l.Fatal().Err(err).Msg("registry schema failed")
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, Log: *l}
	registry := regmod.New(deps).Ports().Registry

	switch {
	case *fList:
		torrents, err := registry.List(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("list failed")
		}
		for _, t := range torrents {
			fmt.Printf("%s  %s\n", t.Hash, t.Name)
		}

	case *fCSV != "":
		f, err := os.Open(*fCSV)
		if err != nil {
			l.Fatal().Err(err).Str("path", *fCSV).Msg("cannot open csv")
		}
		defer func() { _ = f.Close() }()

		stats, err := registry.ImportCSV(ctx, f)
		if err != nil {
			l.Fatal().Err(err).Msg("import failed")
		}
		l.Info().
			Int("rows", stats.Rows).
			Int("added", stats.Added).
			Int("skipped", stats.Skipped).
			Int("failed", stats.Failed).
			Msg("import complete")

	case *fMagnet != "":
		t, err := registry.Add(ctx, regdom.AddInput{Name: *fName, Magnet: *fMagnet})
		if err != nil {
			l.Fatal().Err(err).Msg("add failed")
		}
		l.Info().Str("hash", t.Hash).Str("name", t.Name).Msg("registered")

	default:
		flag.Usage()
		os.Exit(2)
	}
}
