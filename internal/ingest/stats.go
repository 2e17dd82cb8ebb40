package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/metrics"
	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/resolve"
	"github.com/fightdata/ufc-ranker/internal/scrape/ufcstats"
	"github.com/fightdata/ufc-ranker/internal/source"
	"github.com/fightdata/ufc-ranker/internal/store"
)

// RefreshFightStats imports the per-round statistics dump and attaches
// each line to a stored fight. Rows whose event, fighter or fight are
// unknown are logged and skipped; the events task has to run first for
// them to land.
func (in *Ingester) RefreshFightStats(ctx context.Context) error {
	_, _, err := in.sources.Fetch(ctx, source.DataFightStats, map[string]source.FetchFunc{
		ufcstats.Name: in.importFightStats,
	})
	return err
}

func (in *Ingester) importFightStats(ctx context.Context) (int, error) {
	rows, err := in.ufcstats.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	// Event and fight lookups repeat heavily across rounds, so both
	// are memoized for the batch.
	eventIDs := map[string]int64{}
	fightIDs := map[[2]int64]int64{}
	misses := map[string]struct{}{}

	count := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		eventID, ok := eventIDs[row.EventName]
		if !ok {
			id, err := in.resolver.Event(ctx, row.EventName)
			if err != nil {
				if _, seen := misses[row.EventName]; !seen {
					misses[row.EventName] = struct{}{}
					in.logStatSkip("event unknown", row, err)
				}
				metrics.RowProcessed("fight_stats", "skipped")
				continue
			}
			eventID = id
			eventIDs[row.EventName] = id
		}

		fighterID, err := in.resolver.Fighter(ctx, row.Fighter)
		if err != nil {
			in.logStatSkip("fighter unknown", row, err)
			metrics.RowProcessed("fight_stats", "skipped")
			continue
		}

		key := [2]int64{eventID, fighterID}
		fightID, ok := fightIDs[key]
		if !ok {
			fight, err := in.store.FindFightByParticipant(ctx, eventID, fighterID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					return count, err
				}
				in.logStatSkip("fight unknown", row, err)
				metrics.RowProcessed("fight_stats", "skipped")
				continue
			}
			fightID = fight.ID
			fightIDs[key] = fight.ID
		}

		st := statsFromRow(row)
		st.FightID = fightID
		st.FighterID = fighterID
		if _, err := in.store.UpsertFightStats(ctx, st); err != nil {
			in.logStatSkip("upsert failed", row, err)
			metrics.RowProcessed("fight_stats", "skipped")
			continue
		}
		metrics.RowProcessed("fight_stats", "ok")
		count++
	}
	return count, nil
}

func statsFromRow(row ufcstats.Row) model.FightStats {
	return model.FightStats{
		RoundNumber:                 row.Round,
		Knockdowns:                  row.Knockdowns,
		SignificantStrikesLanded:    row.SignificantStrikesLanded,
		SignificantStrikesAttempted: row.SignificantStrikesAttempted,
		SignificantStrikesRate:      row.SignificantStrikesRate,
		TotalStrikesLanded:          row.TotalStrikesLanded,
		TotalStrikesAttempted:       row.TotalStrikesAttempted,
		TakedownSuccessful:          row.TakedownSuccessful,
		TakedownAttempted:           row.TakedownAttempted,
		TakedownRate:                row.TakedownRate,
		SubmissionAttempt:           row.SubmissionAttempt,
		Reversals:                   row.Reversals,
		HeadLanded:                  row.HeadLanded,
		HeadAttempted:               row.HeadAttempted,
		BodyLanded:                  row.BodyLanded,
		BodyAttempted:               row.BodyAttempted,
		LegLanded:                   row.LegLanded,
		LegAttempted:                row.LegAttempted,
		DistanceLanded:              row.DistanceLanded,
		DistanceAttempted:           row.DistanceAttempted,
		ClinchLanded:                row.ClinchLanded,
		ClinchAttempted:             row.ClinchAttempted,
		GroundLanded:                row.GroundLanded,
		GroundAttempted:             row.GroundAttempted,
		Result:                      row.Result,
		LastRound:                   row.LastRound,
		Time:                        row.Time,
		Winner:                      row.Winner,
	}
}

func (in *Ingester) logStatSkip(reason string, row ufcstats.Row, err error) {
	if errors.Is(err, resolve.ErrResolutionMiss) || errors.Is(err, store.ErrNotFound) {
		in.log.Debug("stat row skipped",
			zap.String("reason", reason),
			zap.String("event", row.EventName),
			zap.String("fighter", row.Fighter))
		return
	}
	in.log.Warn("stat row skipped",
		zap.String("reason", reason),
		zap.String("event", row.EventName),
		zap.String("fighter", row.Fighter),
		zap.Error(err))
}
