package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/normalize"
)

type methodTally struct {
	winsKO, lossKO     int
	winsSub, lossSub   int
	winsDec, lossDec   int
	winsDQ, lossDQ     int
	fightSeconds       int
	fightsWithDuration int
}

// RecomputeDerivedRecords rebuilds the method breakdown and average
// fight time on fight_records from stored fight results. Scraped
// win/loss totals are left alone; only derived columns change.
func (s *Store) RecomputeDerivedRecords(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fighter1_id, fighter2_id, winner_id, method, round, time
		 FROM fights WHERE winner_id IS NOT NULL AND method <> ''`)
	if err != nil {
		return 0, fmt.Errorf("%w: load fights for analytics: %v", ErrStore, err)
	}
	defer rows.Close()

	tallies := map[int64]*methodTally{}
	get := func(id int64) *methodTally {
		t, ok := tallies[id]
		if !ok {
			t = &methodTally{}
			tallies[id] = t
		}
		return t
	}

	for rows.Next() {
		var (
			f1, f2, winner int64
			method, clock  string
			round          *int
		)
		if err := rows.Scan(&f1, &f2, &winner, &method, &round, &clock); err != nil {
			return 0, fmt.Errorf("%w: scan fight for analytics: %v", ErrStore, err)
		}
		loser := f1
		if winner == f1 {
			loser = f2
		}
		w, l := get(winner), get(loser)
		switch classifyMethod(method) {
		case "ko":
			w.winsKO++
			l.lossKO++
		case "submission":
			w.winsSub++
			l.lossSub++
		case "decision":
			w.winsDec++
			l.lossDec++
		case "dq":
			w.winsDQ++
			l.lossDQ++
		}
		if round != nil && clock != "" {
			if secs, err := normalize.MMSSToSeconds(clock); err == nil {
				total := (*round-1)*300 + secs
				for _, t := range []*methodTally{w, l} {
					t.fightSeconds += total
					t.fightsWithDuration++
				}
			}
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: iterate fights for analytics: %v", ErrStore, err)
	}

	updated := 0
	for fighterID, t := range tallies {
		var avg *float64
		if t.fightsWithDuration > 0 {
			v := float64(t.fightSeconds) / float64(t.fightsWithDuration)
			avg = &v
		}
		if err := s.applyDerivedRecord(ctx, fighterID, t, avg); err != nil {
			s.log.Warn("derived record update failed",
				zap.Int64("fighter_id", fighterID), zap.Error(err))
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *Store) applyDerivedRecord(ctx context.Context, fighterID int64, t *methodTally, avg *float64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE fight_records SET wins_by_ko = ?, losses_by_ko = ?,
			wins_by_submission = ?, losses_by_submission = ?,
			wins_by_decision = ?, losses_by_decision = ?,
			wins_by_dq = ?, losses_by_dq = ?,
			avg_fight_time_seconds = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE fighter_id = ?`),
		t.winsKO, t.lossKO, t.winsSub, t.lossSub, t.winsDec, t.lossDec,
		t.winsDQ, t.lossDQ, avg, fighterID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO fight_records (fighter_id, wins, losses, draws, no_contests,
			wins_by_ko, losses_by_ko, wins_by_submission, losses_by_submission,
			wins_by_decision, losses_by_decision, wins_by_dq, losses_by_dq,
			avg_fight_time_seconds)
		 VALUES (?, 0, 0, 0, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		fighterID, t.winsKO, t.lossKO, t.winsSub, t.lossSub,
		t.winsDec, t.lossDec, t.winsDQ, t.lossDQ, avg)
	return err
}

func classifyMethod(method string) string {
	m := strings.ToLower(method)
	switch {
	case strings.Contains(m, "disqualification") || strings.Contains(m, "dq"):
		return "dq"
	case strings.Contains(m, "submission"):
		return "submission"
	case strings.Contains(m, "decision"):
		return "decision"
	case strings.Contains(m, "ko") || strings.Contains(m, "knockout"):
		return "ko"
	}
	return ""
}
