package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RefreshAnalytics rebuilds the derived fight-record columns from
// stored fight results.
func (in *Ingester) RefreshAnalytics(ctx context.Context) error {
	updated, err := in.store.RecomputeDerivedRecords(ctx)
	if err != nil {
		return err
	}
	in.log.Info("derived records rebuilt", zap.Int("fighters", updated))
	return nil
}

// Cleanup snapshots the database, sweeps rows that no longer resolve
// and clears the page caches so the next scrapes fetch fresh HTML.
func (in *Ingester) Cleanup(ctx context.Context) error {
	if path, err := in.store.Backup(ctx); err != nil {
		return err
	} else if path != "" {
		in.log.Info("backup written", zap.String("path", path))
	}

	orphans, err := in.store.DeleteOrphanRankings(ctx)
	if err != nil {
		return err
	}
	stale, err := in.store.DeleteStaleUpcomingFights(ctx, time.Now())
	if err != nil {
		return err
	}
	in.log.Info("cleanup done",
		zap.Int64("orphan_rankings", orphans),
		zap.Int64("stale_upcoming", stale))

	for _, c := range in.clients {
		if err := c.ClearCache(); err != nil {
			in.log.Warn("cache clear failed", zap.Error(err))
		}
	}
	return nil
}
