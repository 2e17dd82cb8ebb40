// Package resolve maps free-text names from scraped pages onto stored
// primary keys. Source data addresses entities by name; the resolver
// keeps the integer id as the only ownership key.
package resolve

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape/fightru"
	"github.com/fightdata/ufc-ranker/internal/store"
)

// ErrResolutionMiss marks a name that matched nothing. Callers decide
// whether a miss means "create a stub" or "skip the row".
var ErrResolutionMiss = errors.New("resolve: no match")

// Resolver answers name-to-id lookups against the store. The weight
// class translation table is loaded once and refreshed on demand.
type Resolver struct {
	store *store.Store
	log   *zap.Logger

	ruToEn map[string]string
}

func New(s *store.Store, log *zap.Logger) *Resolver {
	return &Resolver{store: s, log: log.Named("resolve")}
}

// Fighter resolves a free-text fighter name to an id. Matching is
// case-insensitive over name_en, name_ru and full_name: exact first,
// then prefix, then substring. Ties go to the oldest row.
func (r *Resolver) Fighter(ctx context.Context, name string) (int64, error) {
	name = normalize.CleanText(name)
	if name == "" {
		return 0, ErrResolutionMiss
	}
	lower := strings.ToLower(name)

	queries := []struct {
		cond string
		arg  string
	}{
		{`LOWER(name_en) = ? OR LOWER(name_ru) = ? OR LOWER(full_name) = ?`, lower},
		{`LOWER(name_en) LIKE ? OR LOWER(name_ru) LIKE ? OR LOWER(full_name) LIKE ?`, lower + "%"},
		{`LOWER(name_en) LIKE ? OR LOWER(name_ru) LIKE ? OR LOWER(full_name) LIKE ?`, "%" + lower + "%"},
	}
	for _, q := range queries {
		var id int64
		err := r.store.DB().QueryRowContext(ctx,
			`SELECT id FROM fighters WHERE `+q.cond+` ORDER BY id ASC LIMIT 1`,
			q.arg, q.arg, q.arg).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !isNoRows(err) {
			return 0, fmt.Errorf("resolve fighter %q: %w", name, err)
		}
	}
	return 0, ErrResolutionMiss
}

// FighterOrCreate resolves a name, creating a stub Fighter on a miss.
// Only scrapers that own a source of truth for fighters use this.
func (r *Resolver) FighterOrCreate(ctx context.Context, f model.Fighter) (int64, error) {
	name := f.NameEN
	if name == "" {
		name = f.NameRU
	}
	id, err := r.Fighter(ctx, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrResolutionMiss) {
		return 0, err
	}
	if _, err := r.store.UpsertFighter(ctx, &f); err != nil {
		return 0, err
	}
	r.log.Debug("created stub fighter", zap.String("name", name), zap.Int64("id", f.ID))
	return f.ID, nil
}

// Event resolves an event title to an id. An exact name match is
// preferred; otherwise a substring match, taking the most recent row.
func (r *Resolver) Event(ctx context.Context, name string) (int64, error) {
	name = normalize.CleanText(name)
	if name == "" {
		return 0, ErrResolutionMiss
	}
	ev, err := r.store.FindEvent(ctx, model.Event{Name: name})
	if err == nil {
		return ev.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}

	var id int64
	err = r.store.DB().QueryRowContext(ctx,
		`SELECT id FROM events WHERE LOWER(name) LIKE ? ORDER BY id DESC LIMIT 1`,
		"%"+strings.ToLower(name)+"%").Scan(&id)
	if err == nil {
		return id, nil
	}
	if !isNoRows(err) {
		return 0, fmt.Errorf("resolve event %q: %w", name, err)
	}
	return 0, ErrResolutionMiss
}

// WeightClass maps a division name, Russian or English, to its
// canonical name_en. Unknown values pass through unchanged so that
// downstream queries still work on the text key.
func (r *Resolver) WeightClass(ctx context.Context, text string) string {
	text = normalize.CleanText(text)
	if text == "" {
		return ""
	}
	if r.ruToEn == nil {
		m, err := r.store.WeightClassTranslations(ctx)
		if err != nil {
			r.log.Warn("weight class translations unavailable", zap.Error(err))
			m = map[string]string{}
		}
		r.ruToEn = make(map[string]string, len(m))
		for ru, en := range m {
			r.ruToEn[strings.ToLower(ru)] = en
		}
	}
	if en, ok := r.ruToEn[strings.ToLower(text)]; ok {
		return en
	}
	return fightru.TranslateWeightClass(text)
}

// Refresh drops the cached translation table so the next WeightClass
// call reloads it.
func (r *Resolver) Refresh() {
	r.ruToEn = nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
