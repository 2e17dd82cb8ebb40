package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fightdata/ufc-ranker/internal/model"
)

const fighterCols = `id, name_en, name_ru, full_name, nickname, country, country_flag_url,
	image_url, profile_url, height_cm, weight_kg, reach_cm, age, birth_date, birth_place,
	weight_class, stance, team, trainer, belt_rank, years_active, fighting_out_of, career,
	ufc_record, mma_record, wins, losses, draws, no_contests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFighter(r rowScanner) (model.Fighter, error) {
	var f model.Fighter
	var birth sql.NullTime
	err := r.Scan(&f.ID, &f.NameEN, &f.NameRU, &f.FullName, &f.Nickname, &f.Country,
		&f.CountryFlagURL, &f.ImageURL, &f.ProfileURL, &f.HeightCm, &f.WeightKg, &f.ReachCm,
		&f.Age, &birth, &f.BirthPlace, &f.WeightClass, &f.Stance, &f.Team, &f.Trainer,
		&f.BeltRank, &f.YearsActive, &f.FightingOutOf, &f.Career, &f.UFCRecord, &f.MMARecord,
		&f.Wins, &f.Losses, &f.Draws, &f.NoContests)
	if err != nil {
		return model.Fighter{}, err
	}
	if birth.Valid {
		f.BirthDate = &birth.Time
	}
	return f, nil
}

// GetFighter returns one fighter by id.
func (s *Store) GetFighter(ctx context.Context, id int64) (model.Fighter, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+fighterCols+` FROM fighters WHERE id = ?`), id)
	f, err := scanFighter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Fighter{}, ErrNotFound
	}
	if err != nil {
		return model.Fighter{}, fmt.Errorf("%w: get fighter: %v", ErrStore, err)
	}
	return f, nil
}

// FindFighterByName matches name_en or name_ru case-insensitively.
func (s *Store) FindFighterByName(ctx context.Context, name string) (model.Fighter, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+fighterCols+` FROM fighters
		 WHERE LOWER(name_en) = LOWER(?) OR LOWER(name_ru) = LOWER(?)
		 ORDER BY id LIMIT 1`), name, name)
	f, err := scanFighter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Fighter{}, ErrNotFound
	}
	if err != nil {
		return model.Fighter{}, fmt.Errorf("%w: find fighter: %v", ErrStore, err)
	}
	return f, nil
}

// ListFighters pages through fighters with optional search and
// country filters. Search matches name_en, name_ru and nickname.
func (s *Store) ListFighters(ctx context.Context, skip, limit int, search, country string) ([]model.Fighter, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + fighterCols + ` FROM fighters`
	var (
		conds []string
		args  []any
	)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		conds = append(conds, `(LOWER(name_en) LIKE ? OR LOWER(name_ru) LIKE ? OR LOWER(nickname) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if country != "" {
		conds = append(conds, `LOWER(country) = LOWER(?)`)
		args = append(args, country)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list fighters: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []model.Fighter
	for rows.Next() {
		f, err := scanFighter(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan fighter: %v", ErrStore, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertFighter inserts a fighter or updates the existing row matched
// by name. Incoming non-empty fields win; existing data is never
// blanked by a sparser source. The fighter's ID is set on return.
func (s *Store) UpsertFighter(ctx context.Context, f *model.Fighter) (UpsertOutcome, error) {
	existing, err := s.findExistingFighter(ctx, f)
	if errors.Is(err, ErrNotFound) {
		if err := s.insertFighter(ctx, f); err != nil {
			return OutcomeSkipped, err
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	merged := mergeFighter(existing, *f)
	merged.ID = existing.ID
	f.ID = existing.ID
	if fightersEqual(merged, existing) {
		return OutcomeSkipped, nil
	}
	if err := s.updateFighter(ctx, merged); err != nil {
		return OutcomeSkipped, err
	}
	*f = merged
	return OutcomeUpdated, nil
}

func (s *Store) findExistingFighter(ctx context.Context, f *model.Fighter) (model.Fighter, error) {
	if f.ID > 0 {
		return s.GetFighter(ctx, f.ID)
	}
	if f.NameEN != "" {
		if found, err := s.FindFighterByName(ctx, f.NameEN); err == nil {
			return found, nil
		} else if !errors.Is(err, ErrNotFound) {
			return model.Fighter{}, err
		}
	}
	if f.NameRU != "" {
		return s.FindFighterByName(ctx, f.NameRU)
	}
	return model.Fighter{}, ErrNotFound
}

func (s *Store) insertFighter(ctx context.Context, f *model.Fighter) error {
	id, err := s.insertReturningID(ctx,
		`INSERT INTO fighters (name_en, name_ru, full_name, nickname, country, country_flag_url,
			image_url, profile_url, height_cm, weight_kg, reach_cm, age, birth_date, birth_place,
			weight_class, stance, team, trainer, belt_rank, years_active, fighting_out_of, career,
			ufc_record, mma_record, wins, losses, draws, no_contests)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.NameEN, f.NameRU, f.FullName, f.Nickname, f.Country, f.CountryFlagURL,
		f.ImageURL, f.ProfileURL, f.HeightCm, f.WeightKg, f.ReachCm, f.Age, f.BirthDate, f.BirthPlace,
		f.WeightClass, f.Stance, f.Team, f.Trainer, f.BeltRank, f.YearsActive, f.FightingOutOf, f.Career,
		f.UFCRecord, f.MMARecord, f.Wins, f.Losses, f.Draws, f.NoContests)
	if err != nil {
		return fmt.Errorf("%w: insert fighter %q: %v", ErrStore, f.NameEN+f.NameRU, err)
	}
	f.ID = id
	return nil
}

func (s *Store) updateFighter(ctx context.Context, f model.Fighter) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE fighters SET name_en = ?, name_ru = ?, full_name = ?, nickname = ?, country = ?,
			country_flag_url = ?, image_url = ?, profile_url = ?, height_cm = ?, weight_kg = ?,
			reach_cm = ?, age = ?, birth_date = ?, birth_place = ?, weight_class = ?, stance = ?,
			team = ?, trainer = ?, belt_rank = ?, years_active = ?, fighting_out_of = ?, career = ?,
			ufc_record = ?, mma_record = ?, wins = ?, losses = ?, draws = ?, no_contests = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`),
		f.NameEN, f.NameRU, f.FullName, f.Nickname, f.Country,
		f.CountryFlagURL, f.ImageURL, f.ProfileURL, f.HeightCm, f.WeightKg,
		f.ReachCm, f.Age, f.BirthDate, f.BirthPlace, f.WeightClass, f.Stance,
		f.Team, f.Trainer, f.BeltRank, f.YearsActive, f.FightingOutOf, f.Career,
		f.UFCRecord, f.MMARecord, f.Wins, f.Losses, f.Draws, f.NoContests, f.ID)
	if err != nil {
		return fmt.Errorf("%w: update fighter %d: %v", ErrStore, f.ID, err)
	}
	return nil
}

// mergeFighter overlays incoming non-zero fields on the stored row.
func mergeFighter(old, in model.Fighter) model.Fighter {
	out := old
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst **int, v *int) {
		if v != nil {
			*dst = v
		}
	}
	setStr(&out.NameEN, in.NameEN)
	setStr(&out.NameRU, in.NameRU)
	setStr(&out.FullName, in.FullName)
	setStr(&out.Nickname, in.Nickname)
	setStr(&out.Country, in.Country)
	setStr(&out.CountryFlagURL, in.CountryFlagURL)
	setStr(&out.ImageURL, in.ImageURL)
	setStr(&out.ProfileURL, in.ProfileURL)
	setInt(&out.HeightCm, in.HeightCm)
	setInt(&out.WeightKg, in.WeightKg)
	setInt(&out.ReachCm, in.ReachCm)
	setInt(&out.Age, in.Age)
	if in.BirthDate != nil {
		out.BirthDate = in.BirthDate
	}
	setStr(&out.BirthPlace, in.BirthPlace)
	setStr(&out.WeightClass, in.WeightClass)
	setStr(&out.Stance, in.Stance)
	setStr(&out.Team, in.Team)
	setStr(&out.Trainer, in.Trainer)
	setStr(&out.BeltRank, in.BeltRank)
	setStr(&out.YearsActive, in.YearsActive)
	setStr(&out.FightingOutOf, in.FightingOutOf)
	setStr(&out.Career, in.Career)
	setStr(&out.UFCRecord, in.UFCRecord)
	setStr(&out.MMARecord, in.MMARecord)
	if in.Wins+in.Losses+in.Draws+in.NoContests > 0 {
		out.Wins, out.Losses, out.Draws, out.NoContests = in.Wins, in.Losses, in.Draws, in.NoContests
	}
	return out
}

// fightersEqual compares by value, dereferencing the optional fields.
func fightersEqual(a, b model.Fighter) bool {
	if !intPtrEq(a.HeightCm, b.HeightCm) || !intPtrEq(a.WeightKg, b.WeightKg) ||
		!intPtrEq(a.ReachCm, b.ReachCm) || !intPtrEq(a.Age, b.Age) || !timePtrEq(a.BirthDate, b.BirthDate) {
		return false
	}
	a.HeightCm, a.WeightKg, a.ReachCm, a.Age, a.BirthDate = nil, nil, nil, nil, nil
	b.HeightCm, b.WeightKg, b.ReachCm, b.Age, b.BirthDate = nil, nil, nil, nil, nil
	return a == b
}
