package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fightdata/ufc-ranker/internal/model"
)

// SeedWeightClasses upserts the canonical divisions keyed by name_en.
// Existing rows pick up Russian names and bounds they were missing.
func (s *Store) SeedWeightClasses(ctx context.Context, classes []model.WeightClass) error {
	for _, wc := range classes {
		if _, err := s.UpsertWeightClass(ctx, wc); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWeightClass writes one division keyed by name_en.
func (s *Store) UpsertWeightClass(ctx context.Context, wc model.WeightClass) (UpsertOutcome, error) {
	var existing model.WeightClass
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name_en, name_ru, weight_min_kg, weight_max_kg, gender, is_p4p
		 FROM weight_classes WHERE name_en = ?`), wc.NameEN).Scan(
		&existing.ID, &existing.NameEN, &existing.NameRU,
		&existing.WeightMinKg, &existing.WeightMaxKg, &existing.Gender, &existing.IsP4P)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := s.insertReturningID(ctx,
			`INSERT INTO weight_classes (name_en, name_ru, weight_min_kg, weight_max_kg, gender, is_p4p)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			wc.NameEN, wc.NameRU, wc.WeightMinKg, wc.WeightMaxKg, wc.Gender, wc.IsP4P)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("%w: insert weight class %q: %v", ErrStore, wc.NameEN, err)
		}
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: find weight class: %v", ErrStore, err)
	}

	merged := existing
	if wc.NameRU != "" {
		merged.NameRU = wc.NameRU
	}
	if wc.WeightMinKg != nil {
		merged.WeightMinKg = wc.WeightMinKg
	}
	if wc.WeightMaxKg != nil {
		merged.WeightMaxKg = wc.WeightMaxKg
	}
	if wc.Gender != "" {
		merged.Gender = wc.Gender
	}
	merged.IsP4P = merged.IsP4P || wc.IsP4P

	if merged.NameRU == existing.NameRU && merged.Gender == existing.Gender &&
		merged.IsP4P == existing.IsP4P &&
		intPtrEq(merged.WeightMinKg, existing.WeightMinKg) &&
		intPtrEq(merged.WeightMaxKg, existing.WeightMaxKg) {
		return OutcomeSkipped, nil
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE weight_classes SET name_ru = ?, weight_min_kg = ?, weight_max_kg = ?,
			gender = ?, is_p4p = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`),
		merged.NameRU, merged.WeightMinKg, merged.WeightMaxKg, merged.Gender, merged.IsP4P, existing.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: update weight class: %v", ErrStore, err)
	}
	return OutcomeUpdated, nil
}

// ListWeightClasses returns all divisions ordered by id.
func (s *Store) ListWeightClasses(ctx context.Context) ([]model.WeightClass, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name_en, name_ru, weight_min_kg, weight_max_kg, gender, is_p4p
		 FROM weight_classes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list weight classes: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []model.WeightClass
	for rows.Next() {
		var wc model.WeightClass
		if err := rows.Scan(&wc.ID, &wc.NameEN, &wc.NameRU, &wc.WeightMinKg, &wc.WeightMaxKg, &wc.Gender, &wc.IsP4P); err != nil {
			return nil, fmt.Errorf("%w: scan weight class: %v", ErrStore, err)
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

// GetWeightClass returns one division by id.
func (s *Store) GetWeightClass(ctx context.Context, id int64) (model.WeightClass, error) {
	var wc model.WeightClass
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name_en, name_ru, weight_min_kg, weight_max_kg, gender, is_p4p
		 FROM weight_classes WHERE id = ?`), id).Scan(
		&wc.ID, &wc.NameEN, &wc.NameRU, &wc.WeightMinKg, &wc.WeightMaxKg, &wc.Gender, &wc.IsP4P)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WeightClass{}, ErrNotFound
	}
	if err != nil {
		return model.WeightClass{}, fmt.Errorf("%w: get weight class: %v", ErrStore, err)
	}
	return wc, nil
}

// WeightClassTranslations returns the name_ru to name_en mapping used
// by the entity resolver.
func (s *Store) WeightClassTranslations(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name_ru, name_en FROM weight_classes WHERE name_ru != ''`)
	if err != nil {
		return nil, fmt.Errorf("%w: weight class translations: %v", ErrStore, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var ru, en string
		if err := rows.Scan(&ru, &en); err != nil {
			return nil, fmt.Errorf("%w: scan translation: %v", ErrStore, err)
		}
		out[ru] = en
	}
	return out, rows.Err()
}
