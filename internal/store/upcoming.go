package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fightdata/ufc-ranker/internal/model"
)

// UpsertUpcomingFight dedupes on the unordered fighter pair, keeping
// one announced bout per matchup.
func (s *Store) UpsertUpcomingFight(ctx context.Context, uf *model.UpcomingFight) (UpsertOutcome, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, fighter1_id, fighter2_id, weight_class, event_name, event_date, location,
		        is_main_event, is_title_fight
		 FROM upcoming_fights
		 WHERE (fighter1_id = ? AND fighter2_id = ?) OR (fighter1_id = ? AND fighter2_id = ?)
		 LIMIT 1`), uf.Fighter1ID, uf.Fighter2ID, uf.Fighter2ID, uf.Fighter1ID)
	existing, err := scanUpcoming(row)
	if errors.Is(err, sql.ErrNoRows) {
		id, err := s.insertReturningID(ctx,
			`INSERT INTO upcoming_fights (fighter1_id, fighter2_id, weight_class, event_name,
				event_date, location, is_main_event, is_title_fight)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uf.Fighter1ID, uf.Fighter2ID, uf.WeightClass, uf.EventName,
			uf.EventDate, uf.Location, uf.IsMainEvent, uf.IsTitleFight)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("%w: insert upcoming fight: %v", ErrStore, err)
		}
		uf.ID = id
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: find upcoming fight: %v", ErrStore, err)
	}

	merged := existing
	if uf.WeightClass != "" {
		merged.WeightClass = uf.WeightClass
	}
	if uf.EventName != "" {
		merged.EventName = uf.EventName
	}
	if uf.EventDate != nil {
		merged.EventDate = uf.EventDate
	}
	if uf.Location != "" {
		merged.Location = uf.Location
	}
	merged.IsMainEvent = merged.IsMainEvent || uf.IsMainEvent
	merged.IsTitleFight = merged.IsTitleFight || uf.IsTitleFight
	uf.ID = existing.ID
	if upcomingEqual(merged, existing) {
		return OutcomeSkipped, nil
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE upcoming_fights SET weight_class = ?, event_name = ?, event_date = ?,
			location = ?, is_main_event = ?, is_title_fight = ?
		 WHERE id = ?`),
		merged.WeightClass, merged.EventName, merged.EventDate,
		merged.Location, merged.IsMainEvent, merged.IsTitleFight, merged.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: update upcoming fight %d: %v", ErrStore, merged.ID, err)
	}
	*uf = merged
	return OutcomeUpdated, nil
}

// ListUpcomingFights returns announced bouts soonest first; bouts
// without a date sort last.
func (s *Store) ListUpcomingFights(ctx context.Context, limit int, mainEventOnly bool) ([]model.UpcomingFight, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, fighter1_id, fighter2_id, weight_class, event_name, event_date, location,
	                 is_main_event, is_title_fight
	          FROM upcoming_fights`
	var args []any
	if mainEventOnly {
		query += ` WHERE is_main_event = ?`
		args = append(args, true)
	}
	query += ` ORDER BY event_date IS NULL, event_date ASC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list upcoming fights: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []model.UpcomingFight
	for rows.Next() {
		uf, err := scanUpcoming(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan upcoming fight: %v", ErrStore, err)
		}
		out = append(out, uf)
	}
	return out, rows.Err()
}

// DeleteStaleUpcomingFights removes bouts dated before the cutoff.
// Undated bouts are kept.
func (s *Store) DeleteStaleUpcomingFights(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM upcoming_fights WHERE event_date IS NOT NULL AND event_date < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: delete stale upcoming fights: %v", ErrStore, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func scanUpcoming(r rowScanner) (model.UpcomingFight, error) {
	var (
		uf   model.UpcomingFight
		date sql.NullTime
	)
	err := r.Scan(&uf.ID, &uf.Fighter1ID, &uf.Fighter2ID, &uf.WeightClass, &uf.EventName,
		&date, &uf.Location, &uf.IsMainEvent, &uf.IsTitleFight)
	if err != nil {
		return model.UpcomingFight{}, err
	}
	if date.Valid {
		uf.EventDate = &date.Time
	}
	return uf, nil
}

func upcomingEqual(a, b model.UpcomingFight) bool {
	if !timePtrEq(a.EventDate, b.EventDate) {
		return false
	}
	a.EventDate, b.EventDate = nil, nil
	return a == b
}
