package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fightdata/ufc-ranker/internal/model"
)

const fightCols = `id, event_id, fighter1_id, fighter2_id, winner_id, weight_class,
	scheduled_rounds, method, method_details, round, time, fight_date, card_type,
	fight_order, referee, judges_score, notes, is_title_fight, is_main_event`

func scanFight(r rowScanner) (model.Fight, error) {
	var (
		f    model.Fight
		date sql.NullTime
	)
	err := r.Scan(&f.ID, &f.EventID, &f.Fighter1ID, &f.Fighter2ID, &f.WinnerID, &f.WeightClass,
		&f.ScheduledRounds, &f.Method, &f.MethodDetails, &f.Round, &f.Time, &date, &f.CardType,
		&f.FightOrder, &f.Referee, &f.JudgesScore, &f.Notes, &f.IsTitleFight, &f.IsMainEvent)
	if err != nil {
		return model.Fight{}, err
	}
	if date.Valid {
		f.FightDate = &date.Time
	}
	return f, nil
}

// FindFight matches on the event and the unordered fighter pair.
func (s *Store) FindFight(ctx context.Context, eventID, fighter1ID, fighter2ID int64) (model.Fight, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+fightCols+` FROM fights
		 WHERE event_id = ?
		   AND ((fighter1_id = ? AND fighter2_id = ?) OR (fighter1_id = ? AND fighter2_id = ?))
		 LIMIT 1`), eventID, fighter1ID, fighter2ID, fighter2ID, fighter1ID)
	f, err := scanFight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Fight{}, ErrNotFound
	}
	if err != nil {
		return model.Fight{}, fmt.Errorf("%w: find fight: %v", ErrStore, err)
	}
	return f, nil
}

// FindFightByParticipant locates a fight at an event that a fighter
// took part in, for stat rows that name only one side.
func (s *Store) FindFightByParticipant(ctx context.Context, eventID, fighterID int64) (model.Fight, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+fightCols+` FROM fights
		 WHERE event_id = ? AND (fighter1_id = ? OR fighter2_id = ?)
		 LIMIT 1`), eventID, fighterID, fighterID)
	f, err := scanFight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Fight{}, ErrNotFound
	}
	if err != nil {
		return model.Fight{}, fmt.Errorf("%w: find fight by participant: %v", ErrStore, err)
	}
	return f, nil
}

// ListFightsByEvent returns an event's card in fight order.
func (s *Store) ListFightsByEvent(ctx context.Context, eventID int64) ([]model.Fight, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+fightCols+` FROM fights WHERE event_id = ? ORDER BY card_type, fight_order, id`), eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: list fights: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []model.Fight
	for rows.Next() {
		f, err := scanFight(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan fight: %v", ErrStore, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertFight writes one bout deduplicated on (event, unordered
// fighter pair). The fight's ID is set on return.
func (s *Store) UpsertFight(ctx context.Context, f *model.Fight) (UpsertOutcome, error) {
	existing, err := s.FindFight(ctx, f.EventID, f.Fighter1ID, f.Fighter2ID)
	if errors.Is(err, ErrNotFound) {
		id, err := s.insertReturningID(ctx,
			`INSERT INTO fights (event_id, fighter1_id, fighter2_id, winner_id, weight_class,
				scheduled_rounds, method, method_details, round, time, fight_date, card_type,
				fight_order, referee, judges_score, notes, is_title_fight, is_main_event)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.EventID, f.Fighter1ID, f.Fighter2ID, f.WinnerID, f.WeightClass,
			f.ScheduledRounds, f.Method, f.MethodDetails, f.Round, f.Time, f.FightDate, f.CardType,
			f.FightOrder, f.Referee, f.JudgesScore, f.Notes, f.IsTitleFight, f.IsMainEvent)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("%w: insert fight: %v", ErrStore, err)
		}
		f.ID = id
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	merged := mergeFight(existing, *f)
	merged.ID = existing.ID
	f.ID = existing.ID
	if fightsEqual(merged, existing) {
		return OutcomeSkipped, nil
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE fights SET winner_id = ?, weight_class = ?, scheduled_rounds = ?, method = ?,
			method_details = ?, round = ?, time = ?, fight_date = ?, card_type = ?,
			fight_order = ?, referee = ?, judges_score = ?, notes = ?, is_title_fight = ?,
			is_main_event = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`),
		merged.WinnerID, merged.WeightClass, merged.ScheduledRounds, merged.Method,
		merged.MethodDetails, merged.Round, merged.Time, merged.FightDate, merged.CardType,
		merged.FightOrder, merged.Referee, merged.JudgesScore, merged.Notes, merged.IsTitleFight,
		merged.IsMainEvent, merged.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: update fight %d: %v", ErrStore, merged.ID, err)
	}
	*f = merged
	return OutcomeUpdated, nil
}

// mergeFight keeps the stored fighter orientation; only result and
// card detail fields are refreshed.
func mergeFight(old, in model.Fight) model.Fight {
	out := old
	if in.WinnerID != nil {
		out.WinnerID = in.WinnerID
	}
	if in.WeightClass != "" {
		out.WeightClass = in.WeightClass
	}
	if in.ScheduledRounds > 0 {
		out.ScheduledRounds = in.ScheduledRounds
	}
	if in.Method != "" {
		out.Method = in.Method
	}
	if in.MethodDetails != "" {
		out.MethodDetails = in.MethodDetails
	}
	if in.Round != nil {
		out.Round = in.Round
	}
	if in.Time != "" {
		out.Time = in.Time
	}
	if in.FightDate != nil {
		out.FightDate = in.FightDate
	}
	if in.CardType != "" {
		out.CardType = in.CardType
	}
	if in.FightOrder != nil {
		out.FightOrder = in.FightOrder
	}
	if in.Referee != "" {
		out.Referee = in.Referee
	}
	if in.JudgesScore != "" {
		out.JudgesScore = in.JudgesScore
	}
	if in.Notes != "" {
		out.Notes = in.Notes
	}
	out.IsTitleFight = out.IsTitleFight || in.IsTitleFight
	out.IsMainEvent = out.IsMainEvent || in.IsMainEvent
	return out
}

func fightsEqual(a, b model.Fight) bool {
	if !int64PtrEq(a.WinnerID, b.WinnerID) || !intPtrEq(a.Round, b.Round) ||
		!intPtrEq(a.FightOrder, b.FightOrder) || !timePtrEq(a.FightDate, b.FightDate) {
		return false
	}
	a.WinnerID, a.Round, a.FightOrder, a.FightDate = nil, nil, nil, nil
	b.WinnerID, b.Round, b.FightOrder, b.FightDate = nil, nil, nil, nil
	return a == b
}

// UpsertFightStats writes one fighter-round line keyed by
// (fight_id, fighter_id, round_number).
func (s *Store) UpsertFightStats(ctx context.Context, st model.FightStats) (UpsertOutcome, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM fight_stats WHERE fight_id = ? AND fighter_id = ? AND round_number = ?`),
		st.FightID, st.FighterID, st.RoundNumber).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := s.insertReturningID(ctx,
			`INSERT INTO fight_stats (fight_id, fighter_id, round_number, knockdowns,
				significant_strikes_landed, significant_strikes_attempted, significant_strikes_rate,
				total_strikes_landed, total_strikes_attempted, takedown_successful,
				takedown_attempted, takedown_rate, submission_attempt, reversals,
				head_landed, head_attempted, body_landed, body_attempted, leg_landed, leg_attempted,
				distance_landed, distance_attempted, clinch_landed, clinch_attempted,
				ground_landed, ground_attempted, result, last_round, time, winner)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.FightID, st.FighterID, st.RoundNumber, st.Knockdowns,
			st.SignificantStrikesLanded, st.SignificantStrikesAttempted, st.SignificantStrikesRate,
			st.TotalStrikesLanded, st.TotalStrikesAttempted, st.TakedownSuccessful,
			st.TakedownAttempted, st.TakedownRate, st.SubmissionAttempt, st.Reversals,
			st.HeadLanded, st.HeadAttempted, st.BodyLanded, st.BodyAttempted, st.LegLanded, st.LegAttempted,
			st.DistanceLanded, st.DistanceAttempted, st.ClinchLanded, st.ClinchAttempted,
			st.GroundLanded, st.GroundAttempted, st.Result, st.LastRound, st.Time, st.Winner)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("%w: insert fight stats: %v", ErrStore, err)
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: find fight stats: %v", ErrStore, err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE fight_stats SET knockdowns = ?, significant_strikes_landed = ?,
			significant_strikes_attempted = ?, significant_strikes_rate = ?,
			total_strikes_landed = ?, total_strikes_attempted = ?, takedown_successful = ?,
			takedown_attempted = ?, takedown_rate = ?, submission_attempt = ?, reversals = ?,
			head_landed = ?, head_attempted = ?, body_landed = ?, body_attempted = ?,
			leg_landed = ?, leg_attempted = ?, distance_landed = ?, distance_attempted = ?,
			clinch_landed = ?, clinch_attempted = ?, ground_landed = ?, ground_attempted = ?,
			result = ?, last_round = ?, time = ?, winner = ?
		 WHERE id = ?`),
		st.Knockdowns, st.SignificantStrikesLanded,
		st.SignificantStrikesAttempted, st.SignificantStrikesRate,
		st.TotalStrikesLanded, st.TotalStrikesAttempted, st.TakedownSuccessful,
		st.TakedownAttempted, st.TakedownRate, st.SubmissionAttempt, st.Reversals,
		st.HeadLanded, st.HeadAttempted, st.BodyLanded, st.BodyAttempted,
		st.LegLanded, st.LegAttempted, st.DistanceLanded, st.DistanceAttempted,
		st.ClinchLanded, st.ClinchAttempted, st.GroundLanded, st.GroundAttempted,
		st.Result, st.LastRound, st.Time, st.Winner, id)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: update fight stats: %v", ErrStore, err)
	}
	return OutcomeUpdated, nil
}

// CountFightStats reports how many stat lines a fight has.
func (s *Store) CountFightStats(ctx context.Context, fightID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM fight_stats WHERE fight_id = ?`), fightID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count fight stats: %v", ErrStore, err)
	}
	return n, nil
}
