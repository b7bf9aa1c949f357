// @title         Galactly API
// @version       0.1.0
// @description   Lead scoring, claims, quotas and source allocation
// @BasePath      /api/v1

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"galactly/internal/modkit"
	"galactly/internal/modkit/repokit"
	"galactly/internal/platform/config"
	"galactly/internal/platform/logger"
	phttp "galactly/internal/platform/net/http"
	"galactly/internal/platform/store"
	"galactly/internal/platform/store/schema"

	"galactly/internal/services/api"
)

func main() {
	migrate := flag.Bool("migrate", false, "apply the embedded schema before serving")
	flag.Parse()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// backends without a DBURL stay disabled; the engine then runs from memory
	pgURL := pgCfg.MayString("DBURL", "")
	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		AppName: "galactly-api",
		PG: store.PGConfig{
			Enabled:     pgURL != "",
			URL:         pgURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    "galactly",
			Tag:     "api",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(ctx, st)

	if *migrate {
		if err := applySchema(ctx, st); err != nil {
			l.Panic().Err(err).Msg("schema migration failed")
		}
		l.Info().Msg("schema applied")
	}

	deps := modkit.Deps{Log: *l, Cfg: root, PG: st.PG, CH: st.CH}

	// http server (reads CORE_API_API_PORT etc)
	srv := phttp.NewServer(apiCfg)
	mods := api.Mount(srv.Router(), api.OptionsFrom(deps))

	if err := modkit.LoadAll(ctx, mods...); err != nil {
		l.Panic().Err(err).Msg("warm load failed")
	}

	if err := serve(ctx, srv, mods); err != nil {
		l.Error().Err(err).Msg("api stopped")
		return
	}
	l.Info().Msg("api stopped")
}

// serve runs HTTP and every module loop until ctx ends or one of them fails
func serve(ctx context.Context, srv *phttp.Server, mods []modkit.Module) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	for _, r := range modkit.Runners(mods...) {
		g.Go(func() error { return r.Run(gctx) })
	}
	return g.Wait()
}

func applySchema(ctx context.Context, st *store.Store) error {
	if st.PG != nil {
		if err := schema.ApplyPG(ctx, st.PG); err != nil {
			return err
		}
	}
	if st.CH != nil {
		if err := schema.ApplyCH(ctx, st.CH); err != nil {
			return err
		}
	}
	return nil
}
