package resolve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/config"
	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/store"
)

func newResolver(t *testing.T) (*Resolver, *store.Store) {
	t.Helper()
	cfg := config.DBConfig{
		DSN:          filepath.Join(t.TempDir(), "resolve.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	s, err := store.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, zap.NewNop()), s
}

func TestFighterExactBeforePrefixBeforeSubstring(t *testing.T) {
	r, s := newResolver(t)
	ctx := context.Background()

	jon := model.Fighter{NameEN: "Jon Jones", NameRU: "Джон Джонс"}
	jones := model.Fighter{NameEN: "Jones Smith"}
	_, err := s.UpsertFighter(ctx, &jon)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &jones)
	require.NoError(t, err)

	id, err := r.Fighter(ctx, "JON JONES")
	require.NoError(t, err)
	require.Equal(t, jon.ID, id)

	id, err = r.Fighter(ctx, "Джон Джонс")
	require.NoError(t, err)
	require.Equal(t, jon.ID, id)

	// Prefix beats substring: "Jones" starts Jones Smith but only
	// appears inside Jon Jones.
	id, err = r.Fighter(ctx, "Jones")
	require.NoError(t, err)
	require.Equal(t, jones.ID, id)

	// Substring fallback.
	id, err = r.Fighter(ctx, "n Jon")
	require.NoError(t, err)
	require.Equal(t, jon.ID, id)

	_, err = r.Fighter(ctx, "Francis Ngannou")
	require.ErrorIs(t, err, ErrResolutionMiss)

	_, err = r.Fighter(ctx, "")
	require.ErrorIs(t, err, ErrResolutionMiss)
}

func TestFighterTiesGoToOldestRow(t *testing.T) {
	r, s := newResolver(t)
	ctx := context.Background()

	first := model.Fighter{NameEN: "Bruno Silva", Country: "Brazil"}
	_, err := s.UpsertFighter(ctx, &first)
	require.NoError(t, err)
	second := model.Fighter{NameEN: "Bruno Silva", NameRU: "Бруно Силва"}
	require.NoError(t, insertDuplicate(ctx, s, &second))

	id, err := r.Fighter(ctx, "bruno silva")
	require.NoError(t, err)
	require.Equal(t, first.ID, id)
}

// insertDuplicate bypasses the upsert merge so two rows can share a
// name, which happens in practice when sources disagree.
func insertDuplicate(ctx context.Context, s *store.Store, f *model.Fighter) error {
	res, err := s.DB().ExecContext(ctx,
		`INSERT INTO fighters (name_en, name_ru) VALUES (?, ?)`, f.NameEN, f.NameRU)
	if err != nil {
		return err
	}
	f.ID, err = res.LastInsertId()
	return err
}

func TestFighterOrCreate(t *testing.T) {
	r, s := newResolver(t)
	ctx := context.Background()

	id, err := r.FighterOrCreate(ctx, model.Fighter{NameEN: "New Guy"})
	require.NoError(t, err)
	require.NotZero(t, id)

	// A second call resolves instead of creating another row.
	again, err := r.FighterOrCreate(ctx, model.Fighter{NameEN: "new guy"})
	require.NoError(t, err)
	require.Equal(t, id, again)

	got, err := s.ListFighters(ctx, 0, 10, "new guy", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestEventExactThenSubstring(t *testing.T) {
	r, s := newResolver(t)
	ctx := context.Background()

	old := model.Event{Name: "UFC Fight Night: Lewis vs. Teixeira", EventType: model.EventTypeFightNight, Status: model.EventStatusCompleted}
	_, err := s.UpsertEvent(ctx, &old)
	require.NoError(t, err)
	recent := model.Event{Name: "UFC Fight Night: Lewis vs. Nascimento", EventType: model.EventTypeFightNight, Status: model.EventStatusCompleted}
	_, err = s.UpsertEvent(ctx, &recent)
	require.NoError(t, err)

	id, err := r.Event(ctx, "UFC Fight Night: Lewis vs. Teixeira")
	require.NoError(t, err)
	require.Equal(t, old.ID, id)

	// Substring match takes the most recent candidate.
	id, err = r.Event(ctx, "Lewis")
	require.NoError(t, err)
	require.Equal(t, recent.ID, id)

	_, err = r.Event(ctx, "UFC 9999")
	require.ErrorIs(t, err, ErrResolutionMiss)
}

func TestWeightClassTranslation(t *testing.T) {
	r, s := newResolver(t)
	ctx := context.Background()

	_, err := s.UpsertWeightClass(ctx, model.WeightClass{
		NameEN: "Heavyweight", NameRU: "Тяжёлый вес", Gender: model.GenderMale,
	})
	require.NoError(t, err)

	require.Equal(t, "Heavyweight", r.WeightClass(ctx, "Тяжёлый вес"))
	require.Equal(t, "Heavyweight", r.WeightClass(ctx, "тяжёлый вес"))

	// Static fight.ru translations cover names not yet seeded.
	require.Equal(t, "Flyweight", r.WeightClass(ctx, "Наилегчайший вес"))

	// Unknown passes through.
	require.Equal(t, "Cruiserweight", r.WeightClass(ctx, "Cruiserweight"))
	require.Equal(t, "", r.WeightClass(ctx, ""))

	// Refresh picks up newly seeded rows.
	_, err = s.UpsertWeightClass(ctx, model.WeightClass{
		NameEN: "Openweight", NameRU: "Открытый вес", Gender: model.GenderMale,
	})
	require.NoError(t, err)
	r.Refresh()
	require.Equal(t, "Openweight", r.WeightClass(ctx, "открытый вес"))
}
