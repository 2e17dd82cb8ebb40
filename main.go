// The main package for the ufc-ranker executable. It runs the
// ingestion scheduler and the read API in one process, or a single
// named task with -once.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/api"
	"github.com/fightdata/ufc-ranker/internal/config"
	"github.com/fightdata/ufc-ranker/internal/fetch"
	"github.com/fightdata/ufc-ranker/internal/ingest"
	"github.com/fightdata/ufc-ranker/internal/logging"
	"github.com/fightdata/ufc-ranker/internal/metrics"
	"github.com/fightdata/ufc-ranker/internal/resolve"
	"github.com/fightdata/ufc-ranker/internal/runner"
	"github.com/fightdata/ufc-ranker/internal/scrape/fightru"
	"github.com/fightdata/ufc-ranker/internal/scrape/ufcstats"
	"github.com/fightdata/ufc-ranker/internal/scrape/wikipedia"
	"github.com/fightdata/ufc-ranker/internal/source"
	"github.com/fightdata/ufc-ranker/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath = flag.String("config", "", "path to a config file")
		once    = flag.String("once", "", "run one task (rankings|fighters|events|fight_stats|analytics|cleanup) and exit")
	)
	flag.Parse()

	// A local .env is optional; the environment wins over it.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer log.Sync()
	metrics.Init()

	db, err := store.Open(cfg.DB, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SeedWeightClasses(context.Background(), wikipedia.Divisions()); err != nil {
		return err
	}

	fetchCfg := fetch.Config{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.FetchTimeout(),
		Delay:     cfg.FetchDelay(),
		CacheDir:  cfg.Fetch.CacheDir,
	}
	wikiClient, err := fetch.New(wikipedia.Name, fetchCfg, log)
	if err != nil {
		return err
	}
	// fight.ru and ufc.stats fetches are almost all detail pages, so
	// those clients pace at the slower detail delay.
	detailCfg := fetchCfg
	detailCfg.Delay = cfg.DetailDelay()
	fruClient, err := fetch.New(fightru.Name, detailCfg, log)
	if err != nil {
		return err
	}
	statsClient, err := fetch.New(ufcstats.Name, detailCfg, log)
	if err != nil {
		return err
	}

	resolver := resolve.New(db, log)
	sources := source.NewManager(db, log)
	ing := ingest.New(db, resolver, sources,
		wikipedia.New(wikiClient, log),
		fightru.New(fruClient, log),
		ufcstats.New(statsClient, nil, log),
		[]*fetch.Client{wikiClient, fruClient, statsClient},
		log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ing.RegisterSources(ctx); err != nil {
		return err
	}

	if *once != "" {
		task, ok := ing.Task(*once)
		if !ok {
			return fmt.Errorf("unknown task %q", *once)
		}
		log.Info("running one task", zap.String("task", *once))
		return task(ctx)
	}

	r := runner.New(cfg.Tasks, log)
	if err := ing.ScheduleAll(r, cfg.Schedule); err != nil {
		return err
	}
	r.Start(ctx)
	defer r.Stop()

	srv := api.New(db, sources, log)
	return srv.Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
}
