package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"galactly/internal/modkit"
	"galactly/internal/platform/config"
	"galactly/internal/platform/logger"
	"galactly/internal/platform/store"

	allocatormod "galactly/internal/services/allocator/module"
)

func main() {
	def := config.New().Prefix("ALLOCATOR_").MayEnum("MODE", "once", "once", "loop")
	mode := flag.String("mode", def, "once runs a single pass, loop reallocates on ALLOCATOR_EVERY (default from ALLOCATOR_MODE)")
	flag.Parse()
	if err := run(*mode); err != nil {
		logger.Named("allocator").Error().Err(err).Msg("allocator failed")
		os.Exit(1)
	}
}

func run(mode string) error {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	l := logger.Named("allocator")

	if mode != "once" && mode != "loop" {
		return fmt.Errorf("-mode must be once or loop, got %q", mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// claim outcomes come from ClickHouse when configured, otherwise from Postgres
	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(ctx, store.Config{
		AppName: "galactly-allocator",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustURL("DBURL").String(),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    "galactly",
			Tag:     "allocator",
		},
	}, store.WithLogger(*l))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := st.Guard(ctx); err != nil {
		return fmt.Errorf("guard: %w", err)
	}

	deps := modkit.Deps{Log: *l, Cfg: root, PG: st.PG, CH: st.CH}
	m := allocatormod.New(deps).(*allocatormod.Module)
	if err := m.Load(ctx); err != nil {
		return err
	}

	if mode == "loop" {
		return m.Run(ctx)
	}

	res, err := m.Reallocate(ctx)
	if err != nil {
		return err
	}
	l.Info().
		Int("updated_sources", res.UpdatedSources).
		Int("activated", res.ActivatedCount).
		Time("since", res.Since).
		Msg("reallocation done")
	return nil
}
