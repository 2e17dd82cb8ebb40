package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fightdata/ufc-ranker/internal/model"
)

// ReplaceRankings rewrites the whole rankings table in one
// transaction: readers never see a half-refreshed snapshot, and
// divisions absent from the new snapshot are purged with it.
func (s *Store) ReplaceRankings(ctx context.Context, rankings []model.Ranking) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rankings`); err != nil {
			return fmt.Errorf("clear rankings: %w", err)
		}
		for _, r := range rankings {
			_, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO rankings (fighter_id, weight_class, rank_position, is_champion, rank_change)
				 VALUES (?, ?, ?, ?, ?)`),
				r.FighterID, r.WeightClass, r.RankPosition, r.IsChampion, r.RankChange)
			if err != nil {
				return fmt.Errorf("insert ranking for fighter %d: %w", r.FighterID, err)
			}
		}
		return nil
	})
}

// RankedFighter is a ranking row joined with its fighter.
type RankedFighter struct {
	model.Ranking
	Fighter model.Fighter `json:"fighter"`
}

// ListRankings returns a weight class ordered champion first, then by
// rank position.
func (s *Store) ListRankings(ctx context.Context, weightClass string) ([]RankedFighter, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT r.id, r.fighter_id, r.weight_class, r.rank_position, r.is_champion, r.rank_change,
		        `+prefixCols("f", fighterCols)+`
		 FROM rankings r
		 JOIN fighters f ON f.id = r.fighter_id
		 WHERE r.weight_class = ?
		 ORDER BY r.is_champion DESC, r.rank_position ASC`), weightClass)
	if err != nil {
		return nil, fmt.Errorf("%w: list rankings: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []RankedFighter
	for rows.Next() {
		var rf RankedFighter
		if err := scanRankedFighter(rows, &rf); err != nil {
			return nil, fmt.Errorf("%w: scan ranking: %v", ErrStore, err)
		}
		out = append(out, rf)
	}
	return out, rows.Err()
}

// Champion returns a weight class's champion row, or ErrNotFound when
// the division is vacant.
func (s *Store) Champion(ctx context.Context, weightClass string) (RankedFighter, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT r.id, r.fighter_id, r.weight_class, r.rank_position, r.is_champion, r.rank_change,
		        `+prefixCols("f", fighterCols)+`
		 FROM rankings r
		 JOIN fighters f ON f.id = r.fighter_id
		 WHERE r.weight_class = ? AND r.is_champion = ?
		 LIMIT 1`), weightClass, true)
	var rf RankedFighter
	if err := scanRankedFighter(row, &rf); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RankedFighter{}, ErrNotFound
		}
		return RankedFighter{}, fmt.Errorf("%w: champion: %v", ErrStore, err)
	}
	return rf, nil
}

// CountRankings reports the total ranking rows and how many of them
// are champions.
func (s *Store) CountRankings(ctx context.Context) (total, champions int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_champion THEN 1 ELSE 0 END), 0) FROM rankings`).
		Scan(&total, &champions)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: count rankings: %v", ErrStore, err)
	}
	return total, champions, nil
}

// DeleteOrphanRankings removes rows whose fighter is gone. Cascades
// normally cover this; the cleanup task runs it as a safety sweep for
// databases created before foreign keys were enforced.
func (s *Store) DeleteOrphanRankings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM rankings WHERE fighter_id NOT IN (SELECT id FROM fighters)`)
	if err != nil {
		return 0, fmt.Errorf("%w: delete orphan rankings: %v", ErrStore, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanRankedFighter(r rowScanner, rf *RankedFighter) error {
	var birth sql.NullTime
	f := &rf.Fighter
	err := r.Scan(&rf.Ranking.ID, &rf.FighterID, &rf.Ranking.WeightClass, &rf.RankPosition,
		&rf.IsChampion, &rf.RankChange,
		&f.ID, &f.NameEN, &f.NameRU, &f.FullName, &f.Nickname, &f.Country,
		&f.CountryFlagURL, &f.ImageURL, &f.ProfileURL, &f.HeightCm, &f.WeightKg, &f.ReachCm,
		&f.Age, &birth, &f.BirthPlace, &f.WeightClass, &f.Stance, &f.Team, &f.Trainer,
		&f.BeltRank, &f.YearsActive, &f.FightingOutOf, &f.Career, &f.UFCRecord, &f.MMARecord,
		&f.Wins, &f.Losses, &f.Draws, &f.NoContests)
	if err != nil {
		return err
	}
	if birth.Valid {
		f.BirthDate = &birth.Time
	}
	return nil
}
