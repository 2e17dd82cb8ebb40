package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fightdata/ufc-ranker/internal/model"
)

// GetFightRecord returns the ledger for one fighter, ErrNotFound when
// none has been stored yet.
func (s *Store) GetFightRecord(ctx context.Context, fighterID int64) (model.FightRecord, error) {
	var r model.FightRecord
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, fighter_id, wins, losses, draws, no_contests,
			wins_by_ko, losses_by_ko, wins_by_submission, losses_by_submission,
			wins_by_decision, losses_by_decision, wins_by_dq, losses_by_dq,
			avg_fight_time_seconds
		 FROM fight_records WHERE fighter_id = ?`), fighterID).Scan(
		&r.ID, &r.FighterID, &r.Wins, &r.Losses, &r.Draws, &r.NoContests,
		&r.WinsByKO, &r.LossesByKO, &r.WinsBySubmission, &r.LossesBySubmission,
		&r.WinsByDecision, &r.LossesByDecision, &r.WinsByDQ, &r.LossesByDQ,
		&r.AvgFightTimeSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FightRecord{}, ErrNotFound
	}
	if err != nil {
		return model.FightRecord{}, fmt.Errorf("%w: get record: %v", ErrStore, err)
	}
	return r, nil
}

// UpsertFightRecord writes the ledger keyed by fighter_id.
func (s *Store) UpsertFightRecord(ctx context.Context, r model.FightRecord) (UpsertOutcome, error) {
	existing, err := s.GetFightRecord(ctx, r.FighterID)
	if errors.Is(err, ErrNotFound) {
		_, err := s.insertReturningID(ctx,
			`INSERT INTO fight_records (fighter_id, wins, losses, draws, no_contests,
				wins_by_ko, losses_by_ko, wins_by_submission, losses_by_submission,
				wins_by_decision, losses_by_decision, wins_by_dq, losses_by_dq,
				avg_fight_time_seconds)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.FighterID, r.Wins, r.Losses, r.Draws, r.NoContests,
			r.WinsByKO, r.LossesByKO, r.WinsBySubmission, r.LossesBySubmission,
			r.WinsByDecision, r.LossesByDecision, r.WinsByDQ, r.LossesByDQ,
			r.AvgFightTimeSeconds)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("%w: insert record: %v", ErrStore, err)
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	if recordsEqual(existing, r) {
		return OutcomeSkipped, nil
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE fight_records SET wins = ?, losses = ?, draws = ?, no_contests = ?,
			wins_by_ko = ?, losses_by_ko = ?, wins_by_submission = ?, losses_by_submission = ?,
			wins_by_decision = ?, losses_by_decision = ?, wins_by_dq = ?, losses_by_dq = ?,
			avg_fight_time_seconds = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE fighter_id = ?`),
		r.Wins, r.Losses, r.Draws, r.NoContests,
		r.WinsByKO, r.LossesByKO, r.WinsBySubmission, r.LossesBySubmission,
		r.WinsByDecision, r.LossesByDecision, r.WinsByDQ, r.LossesByDQ,
		r.AvgFightTimeSeconds, r.FighterID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: update record: %v", ErrStore, err)
	}
	return OutcomeUpdated, nil
}

func recordsEqual(a, b model.FightRecord) bool {
	if a.Wins != b.Wins || a.Losses != b.Losses || a.Draws != b.Draws || a.NoContests != b.NoContests {
		return false
	}
	return intPtrEq(a.WinsByKO, b.WinsByKO) && intPtrEq(a.LossesByKO, b.LossesByKO) &&
		intPtrEq(a.WinsBySubmission, b.WinsBySubmission) && intPtrEq(a.LossesBySubmission, b.LossesBySubmission) &&
		intPtrEq(a.WinsByDecision, b.WinsByDecision) && intPtrEq(a.LossesByDecision, b.LossesByDecision) &&
		intPtrEq(a.WinsByDQ, b.WinsByDQ) && intPtrEq(a.LossesByDQ, b.LossesByDQ) &&
		floatPtrEq(a.AvgFightTimeSeconds, b.AvgFightTimeSeconds)
}
