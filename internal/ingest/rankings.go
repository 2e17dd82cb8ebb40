package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/metrics"
	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
	"github.com/fightdata/ufc-ranker/internal/scrape/fightru"
	"github.com/fightdata/ufc-ranker/internal/scrape/wikipedia"
	"github.com/fightdata/ufc-ranker/internal/source"
)

// RefreshRankings pulls divisional rankings from the best available
// source and rewrites the whole snapshot atomically.
func (in *Ingester) RefreshRankings(ctx context.Context) error {
	if err := in.store.SeedWeightClasses(ctx, wikipedia.Divisions()); err != nil {
		return err
	}
	in.resolver.Refresh()

	_, _, err := in.sources.Fetch(ctx, source.DataRankings, map[string]source.FetchFunc{
		wikipedia.Name: func(ctx context.Context) (int, error) {
			tables, err := in.wikipedia.Rankings(ctx)
			if err != nil {
				return 0, err
			}
			return in.applyRankings(ctx, wikipedia.Name, tables)
		},
		fightru.Name: func(ctx context.Context) (int, error) {
			tables, err := in.fightru.Rankings(ctx)
			if err != nil {
				return 0, err
			}
			return in.applyRankings(ctx, fightru.Name, tables)
		},
	})
	return err
}

// applyRankings resolves every entry and swaps the whole rankings
// snapshot in one shot, so divisions the source dropped disappear
// with it. Rankings sources own their fighter rows, so unresolved
// names become stub fighters.
func (in *Ingester) applyRankings(ctx context.Context, sourceName string, tables []scrape.RankingTable) (int, error) {
	var all []model.Ranking
	for _, table := range tables {
		weightClass := in.resolver.WeightClass(ctx, table.WeightClass)
		if weightClass == table.WeightClass && fightru.IsP4P(table.WeightClass) {
			// Long pound-for-pound section titles collapse to one key.
			weightClass = "Pound for Pound"
		}

		var rows []model.Ranking
		for _, e := range table.Entries {
			stub := model.Fighter{WeightClass: weightClass}
			if sourceName == fightru.Name {
				stub.NameRU = e.Name
				stub.ProfileURL = e.ProfileURL
			} else {
				stub.NameEN = e.Name
				stub.ProfileURL = e.ProfileURL
			}
			if rec, err := normalize.ParseRecord(e.Record); err == nil && rec.Wins+rec.Losses > 0 {
				stub.Wins, stub.Losses = rec.Wins, rec.Losses
				stub.Draws, stub.NoContests = rec.Draws, rec.NoContests
			}
			id, err := in.resolver.FighterOrCreate(ctx, stub)
			if err != nil {
				in.log.Warn("ranking row skipped",
					zap.String("fighter", e.Name),
					zap.String("weight_class", weightClass),
					zap.Error(err))
				metrics.RowProcessed("ranking", "skipped")
				continue
			}
			rows = append(rows, model.Ranking{
				FighterID:    id,
				WeightClass:  weightClass,
				RankPosition: e.Rank,
				IsChampion:   e.Champion,
				RankChange:   e.RankChange,
			})
			metrics.RowProcessed("ranking", "ok")
		}
		if len(rows) == 0 {
			continue
		}
		all = append(all, rows...)
		in.log.Info("division resolved",
			zap.String("source", sourceName),
			zap.String("weight_class", weightClass),
			zap.Int("rows", len(rows)))
	}
	if len(all) == 0 {
		return 0, nil
	}
	if err := in.store.ReplaceRankings(ctx, all); err != nil {
		return 0, err
	}
	return len(all), nil
}
