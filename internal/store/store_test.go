package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/config"
	"github.com/fightdata/ufc-ranker/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.DBConfig{
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	s, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int              { return &v }
func int64p(v int64) *int64        { return &v }
func timep(v time.Time) *time.Time { return &v }

func TestOpenMigratesIdempotently(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DBConfig{DSN: filepath.Join(dir, "twice.db"), MaxOpenConns: 1, MaxIdleConns: 1}

	s, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM fighters`).Scan(&n))
	require.Equal(t, 0, n)
}

func TestUpsertFighterOutcomes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Jon Jones", Country: "United States", HeightCm: intp(193)}
	out, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out)
	require.NotZero(t, f.ID)

	// Same data again must not count as a change.
	again := model.Fighter{NameEN: "Jon Jones", Country: "United States", HeightCm: intp(193)}
	out, err = s.UpsertFighter(ctx, &again)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, out)
	require.Equal(t, f.ID, again.ID)

	// New detail merges in without blanking existing fields.
	update := model.Fighter{NameEN: "Jon Jones", Nickname: "Bones"}
	out, err = s.UpsertFighter(ctx, &update)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)

	got, err := s.GetFighter(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, "Bones", got.Nickname)
	require.Equal(t, "United States", got.Country)
	require.Equal(t, 193, *got.HeightCm)
}

func TestFindFighterByNameCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Islam Makhachev", NameRU: "Ислам Махачев"}
	_, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)

	got, err := s.FindFighterByName(ctx, "islam makhachev")
	require.NoError(t, err)
	require.Equal(t, f.ID, got.ID)

	got, err = s.FindFighterByName(ctx, "Ислам Махачев")
	require.NoError(t, err)
	require.Equal(t, f.ID, got.ID)

	_, err = s.FindFighterByName(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFightersSearchAndCountry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, f := range []model.Fighter{
		{NameEN: "Alex Pereira", Nickname: "Poatan", Country: "Brazil"},
		{NameEN: "Charles Oliveira", Country: "Brazil"},
		{NameEN: "Tom Aspinall", Country: "England"},
	} {
		ff := f
		_, err := s.UpsertFighter(ctx, &ff)
		require.NoError(t, err)
	}

	got, err := s.ListFighters(ctx, 0, 10, "poatan", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Alex Pereira", got[0].NameEN)

	got, err = s.ListFighters(ctx, 0, 10, "", "brazil")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.ListFighters(ctx, 1, 1, "", "Brazil")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestUpsertFightRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Merab Dvalishvili"}
	_, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)

	rec := model.FightRecord{FighterID: f.ID, Wins: 19, Losses: 4, WinsByDecision: intp(12)}
	out, err := s.UpsertFightRecord(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out)

	out, err = s.UpsertFightRecord(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, out)

	rec.Wins = 20
	out, err = s.UpsertFightRecord(ctx, rec)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)

	got, err := s.GetFightRecord(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, 20, got.Wins)
	require.Equal(t, 12, *got.WinsByDecision)
}

func TestUpsertEventFindAndMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC)
	ev := model.Event{
		Name: "UFC 317", EventNumber: intp(317), EventType: model.EventTypeUFC,
		Date: timep(date), Location: "Las Vegas, Nevada", IsUpcoming: true,
		Status: model.EventStatusScheduled,
	}
	out, err := s.UpsertEvent(ctx, &ev)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out)

	// Re-scraped as completed with venue detail.
	done := model.Event{
		Name: "UFC 317", Venue: "T-Mobile Arena", Attendance: intp(19000),
		Status: model.EventStatusCompleted,
	}
	out, err = s.UpsertEvent(ctx, &done)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)
	require.Equal(t, ev.ID, done.ID)

	got, err := s.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, "T-Mobile Arena", got.Venue)
	require.False(t, got.IsUpcoming)
	require.Equal(t, model.EventStatusCompleted, got.Status)
	require.Equal(t, 317, *got.EventNumber)

	require.NoError(t, s.SetEventGateRevenue(ctx, ev.ID, 8102000))
	got, err = s.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, 8102000.0, *got.GateRevenue)
}

func TestUpsertFightUnorderedPairDedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f1 := model.Fighter{NameEN: "Fighter One"}
	f2 := model.Fighter{NameEN: "Fighter Two"}
	_, err := s.UpsertFighter(ctx, &f1)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &f2)
	require.NoError(t, err)
	ev := model.Event{Name: "UFC 100", EventType: model.EventTypeUFC, Status: model.EventStatusCompleted}
	_, err = s.UpsertEvent(ctx, &ev)
	require.NoError(t, err)

	fight := model.Fight{
		EventID: ev.ID, Fighter1ID: f1.ID, Fighter2ID: f2.ID,
		WinnerID: int64p(f1.ID), Method: "KO/TKO", Round: intp(2),
		CardType: model.CardMain,
	}
	out, err := s.UpsertFight(ctx, &fight)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out)

	// Same bout with the fighters swapped is the same row.
	swapped := model.Fight{
		EventID: ev.ID, Fighter1ID: f2.ID, Fighter2ID: f1.ID,
		WinnerID: int64p(f1.ID), Method: "KO/TKO", Round: intp(2),
		CardType: model.CardMain,
	}
	out, err = s.UpsertFight(ctx, &swapped)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, out)
	require.Equal(t, fight.ID, swapped.ID)

	fights, err := s.ListFightsByEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, fights, 1)
	require.Equal(t, f1.ID, fights[0].Fighter1ID)
}

func TestUpsertFightStatsKeyedByRound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f1 := model.Fighter{NameEN: "Striker"}
	f2 := model.Fighter{NameEN: "Grappler"}
	_, err := s.UpsertFighter(ctx, &f1)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &f2)
	require.NoError(t, err)
	ev := model.Event{Name: "UFC 200", EventType: model.EventTypeUFC, Status: model.EventStatusCompleted}
	_, err = s.UpsertEvent(ctx, &ev)
	require.NoError(t, err)
	fight := model.Fight{EventID: ev.ID, Fighter1ID: f1.ID, Fighter2ID: f2.ID}
	_, err = s.UpsertFight(ctx, &fight)
	require.NoError(t, err)

	st := model.FightStats{
		FightID: fight.ID, FighterID: f1.ID, RoundNumber: 1,
		SignificantStrikesLanded: 20, SignificantStrikesAttempted: 40, SignificantStrikesRate: 50,
		Winner: "W",
	}
	out, err := s.UpsertFightStats(ctx, st)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out)

	st.RoundNumber = 2
	out, err = s.UpsertFightStats(ctx, st)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out)

	// Re-import of round 1 overwrites in place.
	st.RoundNumber = 1
	st.SignificantStrikesLanded = 22
	out, err = s.UpsertFightStats(ctx, st)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)

	n, err := s.CountFightStats(ctx, fight.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestReplaceRankingsAtomicRefresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	classes := []string{
		"Heavyweight", "Light Heavyweight", "Middleweight", "Welterweight",
		"Lightweight", "Featherweight", "Bantamweight", "Flyweight",
		"Women's Bantamweight", "Women's Flyweight", "Women's Strawweight",
	}
	var ids []int64
	for i := 0; i < 11; i++ {
		f := model.Fighter{NameEN: fmt.Sprintf("Ranked Fighter %d", i)}
		_, err := s.UpsertFighter(ctx, &f)
		require.NoError(t, err)
		ids = append(ids, f.ID)
	}

	// One champion plus ten contenders per division, one snapshot.
	var snapshot []model.Ranking
	for _, wc := range classes {
		snapshot = append(snapshot, model.Ranking{FighterID: ids[0], WeightClass: wc, RankPosition: 0, IsChampion: true})
		for p := 1; p <= 10; p++ {
			snapshot = append(snapshot, model.Ranking{FighterID: ids[p%11], WeightClass: wc, RankPosition: p})
		}
	}
	require.NoError(t, s.ReplaceRankings(ctx, snapshot))

	total, champions, err := s.CountRankings(ctx)
	require.NoError(t, err)
	require.Equal(t, 121, total)
	require.Equal(t, 11, champions)

	// A second refresh replaces rather than accumulates.
	snapshot = snapshot[:0]
	for _, wc := range classes {
		snapshot = append(snapshot, model.Ranking{FighterID: ids[1], WeightClass: wc, RankPosition: 0, IsChampion: true})
		for p := 1; p <= 10; p++ {
			snapshot = append(snapshot, model.Ranking{FighterID: ids[(p+1)%11], WeightClass: wc, RankPosition: p, RankChange: 1})
		}
	}
	require.NoError(t, s.ReplaceRankings(ctx, snapshot))
	total, champions, err = s.CountRankings(ctx)
	require.NoError(t, err)
	require.Equal(t, 121, total)
	require.Equal(t, 11, champions)

	list, err := s.ListRankings(ctx, "Heavyweight")
	require.NoError(t, err)
	require.Len(t, list, 11)
	require.True(t, list[0].IsChampion)
	require.Equal(t, ids[1], list[0].FighterID)
	require.Equal(t, 1, list[1].RankPosition)

	champ, err := s.Champion(ctx, "Heavyweight")
	require.NoError(t, err)
	require.Equal(t, ids[1], champ.FighterID)

	_, err = s.Champion(ctx, "Super Heavyweight")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceRankingsRollsBackOnBadRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Only Fighter"}
	_, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceRankings(ctx, []model.Ranking{
		{FighterID: f.ID, WeightClass: "Lightweight", RankPosition: 0, IsChampion: true},
	}))

	// The second row violates the fighter FK, so the whole refresh
	// must roll back and the old row survive.
	err = s.ReplaceRankings(ctx, []model.Ranking{
		{FighterID: f.ID, WeightClass: "Lightweight", RankPosition: 1},
		{FighterID: 99999, WeightClass: "Lightweight", RankPosition: 2},
	})
	require.Error(t, err)

	list, err := s.ListRankings(ctx, "Lightweight")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].IsChampion)
}

func TestReplaceRankingsPurgesVanishedDivisions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Crossover Fighter"}
	_, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceRankings(ctx, []model.Ranking{
		{FighterID: f.ID, WeightClass: "Lightweight", RankPosition: 0, IsChampion: true},
		{FighterID: f.ID, WeightClass: "Super Heavyweight", RankPosition: 1},
	}))

	// The next snapshot no longer carries the retired division; its
	// rows must not survive the rewrite.
	require.NoError(t, s.ReplaceRankings(ctx, []model.Ranking{
		{FighterID: f.ID, WeightClass: "Lightweight", RankPosition: 0, IsChampion: true},
	}))

	gone, err := s.ListRankings(ctx, "Super Heavyweight")
	require.NoError(t, err)
	require.Empty(t, gone)

	kept, err := s.ListRankings(ctx, "Lightweight")
	require.NoError(t, err)
	require.Len(t, kept, 1)
}

func TestUpcomingFights(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f1 := model.Fighter{NameEN: "Headliner"}
	f2 := model.Fighter{NameEN: "Challenger"}
	_, err := s.UpsertFighter(ctx, &f1)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &f2)
	require.NoError(t, err)

	soon := time.Now().Add(30 * 24 * time.Hour).Truncate(24 * time.Hour)
	uf := model.UpcomingFight{
		Fighter1ID: f1.ID, Fighter2ID: f2.ID, WeightClass: "Heavyweight",
		EventName: "UFC 320", EventDate: timep(soon), IsMainEvent: true,
	}
	out, err := s.UpsertUpcomingFight(ctx, &uf)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out)

	// Reversed pair is the same announced bout.
	rev := model.UpcomingFight{Fighter1ID: f2.ID, Fighter2ID: f1.ID, IsTitleFight: true}
	out, err = s.UpsertUpcomingFight(ctx, &rev)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, out)
	require.Equal(t, uf.ID, rev.ID)

	list, err := s.ListUpcomingFights(ctx, 10, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].IsTitleFight)

	// A bout dated in the past is swept by the cleanup cutoff.
	f3 := model.Fighter{NameEN: "Retired"}
	_, err = s.UpsertFighter(ctx, &f3)
	require.NoError(t, err)
	past := model.UpcomingFight{
		Fighter1ID: f2.ID, Fighter2ID: f3.ID,
		EventDate: timep(time.Now().Add(-48 * time.Hour)),
	}
	_, err = s.UpsertUpcomingFight(ctx, &past)
	require.NoError(t, err)

	n, err := s.DeleteStaleUpcomingFights(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	list, err = s.ListUpcomingFights(ctx, 10, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSourceStateRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetSourceState(ctx, "wikipedia")
	require.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	st := SourceState{Name: "wikipedia", Priority: 1, Enabled: true, LastUpdate: timep(now), SuccessRate: 0.95}
	require.NoError(t, s.SaveSourceState(ctx, st))

	got, err := s.GetSourceState(ctx, "wikipedia")
	require.NoError(t, err)
	require.Equal(t, 1, got.Priority)
	require.True(t, got.Enabled)
	require.Equal(t, 0.95, got.SuccessRate)

	st.SuccessRate = 1.0
	st.Enabled = false
	require.NoError(t, s.SaveSourceState(ctx, st))
	require.NoError(t, s.SaveSourceState(ctx, SourceState{Name: "fight_ru", Priority: 2, Enabled: true, SuccessRate: 1.0}))

	list, err := s.ListSourceStates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "wikipedia", list[0].Name)
	require.False(t, list[0].Enabled)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, f := range []model.Fighter{
		{NameEN: "A", Country: "Brazil"},
		{NameEN: "B", Country: "Brazil"},
		{NameEN: "C", Country: "Russia"},
	} {
		ff := f
		_, err := s.UpsertFighter(ctx, &ff)
		require.NoError(t, err)
	}
	ev := model.Event{Name: "UFC 1", EventType: model.EventTypeUFC, Status: model.EventStatusCompleted}
	_, err := s.UpsertEvent(ctx, &ev)
	require.NoError(t, err)

	st, err := s.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, st.Fighters)
	require.Equal(t, 1, st.Events)
	require.Len(t, st.TopCountries, 2)
	require.Equal(t, "Brazil", st.TopCountries[0].Country)
	require.Equal(t, 2, st.TopCountries[0].Count)
}

func TestBackupCreatesTimestampedCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Backed Up"}
	_, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)

	path, err := s.Backup(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, path)
	require.True(t, strings.Contains(filepath.Base(path), "_backup_"))
	require.True(t, strings.HasSuffix(path, ".db"))
}

func TestBackupHonorsConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	cfg := config.DBConfig{
		DSN:          filepath.Join(dir, "store.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		BackupDir:    backups,
	}
	s, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	path, err := s.Backup(context.Background())
	require.NoError(t, err)
	require.Equal(t, backups, filepath.Dir(path))
	_, err = os.Stat(path)
	require.NoError(t, err)
}
