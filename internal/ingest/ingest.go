// Package ingest wires the scrapers, the entity resolver and the
// store into the periodic refresh tasks. Per-row failures are logged
// and skipped so a batch always commits the rows that did succeed.
package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/config"
	"github.com/fightdata/ufc-ranker/internal/fetch"
	"github.com/fightdata/ufc-ranker/internal/resolve"
	"github.com/fightdata/ufc-ranker/internal/runner"
	"github.com/fightdata/ufc-ranker/internal/scrape/fightru"
	"github.com/fightdata/ufc-ranker/internal/scrape/ufcstats"
	"github.com/fightdata/ufc-ranker/internal/scrape/wikipedia"
	"github.com/fightdata/ufc-ranker/internal/source"
	"github.com/fightdata/ufc-ranker/internal/store"
)

// How many event pages one refresh will follow into their card
// detail. Keeps a cold start from hammering Wikipedia.
const maxEventDetails = 25

// How many fighter profile pages one refresh will fetch.
const maxProfileFetches = 50

// Ingester owns the refresh tasks the runner schedules.
type Ingester struct {
	store     *store.Store
	resolver  *resolve.Resolver
	sources   *source.Manager
	wikipedia *wikipedia.Scraper
	fightru   *fightru.Scraper
	ufcstats  *ufcstats.Importer
	clients   []*fetch.Client
	log       *zap.Logger
}

func New(s *store.Store, res *resolve.Resolver, mgr *source.Manager,
	wiki *wikipedia.Scraper, fru *fightru.Scraper, stats *ufcstats.Importer,
	clients []*fetch.Client, log *zap.Logger) *Ingester {
	return &Ingester{
		store:     s,
		resolver:  res,
		sources:   mgr,
		wikipedia: wiki,
		fightru:   fru,
		ufcstats:  stats,
		clients:   clients,
		log:       log.Named("ingest"),
	}
}

// RegisterSources declares who can supply what, restoring persisted
// priorities and success rates.
func (in *Ingester) RegisterSources(ctx context.Context) error {
	for _, src := range []source.Source{
		{
			Name:     wikipedia.Name,
			Priority: source.PriorityHigh,
			Capabilities: []source.DataType{
				source.DataRankings, source.DataFighters, source.DataEvents,
			},
		},
		{
			Name:     fightru.Name,
			Priority: source.PriorityMedium,
			Capabilities: []source.DataType{
				source.DataRankings, source.DataFighters,
			},
		},
		{
			Name:         ufcstats.Name,
			Priority:     source.PriorityMedium,
			Capabilities: []source.DataType{source.DataFightStats},
		},
	} {
		if err := in.sources.Register(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleAll registers every periodic task with the runner.
func (in *Ingester) ScheduleAll(r *runner.Runner, sched config.ScheduleConfig) error {
	tasks := []struct {
		spec string
		name string
		fn   runner.TaskFunc
	}{
		{sched.Rankings, "rankings", in.RefreshRankings},
		{sched.Fighters, "fighters", in.RefreshFighters},
		{sched.Events, "events", in.RefreshEvents},
		{sched.FightStats, "fight_stats", in.RefreshFightStats},
		{sched.Analytics, "analytics", in.RefreshAnalytics},
		{sched.Cleanup, "cleanup", in.Cleanup},
	}
	for _, t := range tasks {
		if err := r.Schedule(t.spec, t.name, t.fn); err != nil {
			return err
		}
	}
	return nil
}

// Task looks a refresh task up by name for one-shot runs.
func (in *Ingester) Task(name string) (runner.TaskFunc, bool) {
	switch name {
	case "rankings":
		return in.RefreshRankings, true
	case "fighters":
		return in.RefreshFighters, true
	case "events":
		return in.RefreshEvents, true
	case "fight_stats":
		return in.RefreshFightStats, true
	case "analytics":
		return in.RefreshAnalytics, true
	case "cleanup":
		return in.Cleanup, true
	}
	return nil, false
}
