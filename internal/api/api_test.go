package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/config"
	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/source"
	"github.com/fightdata/ufc-ranker/internal/store"
)

func newServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	cfg := config.DBConfig{
		DSN:          filepath.Join(t.TempDir(), "api.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
	s, err := store.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, source.NewManager(s, zap.NewNop()), zap.NewNop()), s
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func intp(v int) *int { return &v }

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)
	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	require.Equal(t, "ok", body["status"])
}

func TestListFighters(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	for _, f := range []model.Fighter{
		{NameEN: "Alex Pereira", Country: "Brazil"},
		{NameEN: "Magomed Ankalaev", Country: "Russia"},
	} {
		ff := f
		_, err := s.UpsertFighter(ctx, &ff)
		require.NoError(t, err)
	}

	rec := get(t, srv, "/api/fighters")
	require.Equal(t, http.StatusOK, rec.Code)
	var fighters []model.Fighter
	decode(t, rec, &fighters)
	require.Len(t, fighters, 2)

	rec = get(t, srv, "/api/fighters?country=Brazil")
	decode(t, rec, &fighters)
	require.Len(t, fighters, 1)
	require.Equal(t, "Alex Pereira", fighters[0].NameEN)

	rec = get(t, srv, "/api/fighters?search=ankalaev")
	decode(t, rec, &fighters)
	require.Len(t, fighters, 1)

	// Empty result is a JSON array, not null.
	rec = get(t, srv, "/api/fighters?search=nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestGetFighterEmbedsRecord(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Ilia Topuria"}
	_, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)
	_, err = s.UpsertFightRecord(ctx, model.FightRecord{FighterID: f.ID, Wins: 17})
	require.NoError(t, err)

	rec := get(t, srv, "/api/fighters/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		model.Fighter
		FightRecord *model.FightRecord `json:"fight_record"`
	}
	decode(t, rec, &body)
	require.Equal(t, "Ilia Topuria", body.NameEN)
	require.NotNil(t, body.FightRecord)
	require.Equal(t, 17, body.FightRecord.Wins)

	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/fighters/999").Code)
	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/fighters/abc").Code)
}

func TestRankingsChampionFirst(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	_, err := s.UpsertWeightClass(ctx, model.WeightClass{NameEN: "Heavyweight", Gender: model.GenderMale})
	require.NoError(t, err)
	wcs, err := s.ListWeightClasses(ctx)
	require.NoError(t, err)
	require.Len(t, wcs, 1)
	wcID := wcs[0].ID

	champ := model.Fighter{NameEN: "Tom Aspinall"}
	contender := model.Fighter{NameEN: "Ciryl Gane"}
	_, err = s.UpsertFighter(ctx, &champ)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &contender)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceRankings(ctx, []model.Ranking{
		{FighterID: contender.ID, WeightClass: "Heavyweight", RankPosition: 1},
		{FighterID: champ.ID, WeightClass: "Heavyweight", RankPosition: 0, IsChampion: true},
	}))

	rec := get(t, srv, "/api/rankings/"+itoa(wcID))
	require.Equal(t, http.StatusOK, rec.Code)
	var rankings []store.RankedFighter
	decode(t, rec, &rankings)
	require.Len(t, rankings, 2)
	require.True(t, rankings[0].IsChampion)
	require.Equal(t, "Tom Aspinall", rankings[0].Fighter.NameEN)

	rec = get(t, srv, "/api/rankings/"+itoa(wcID)+"/champion")
	require.Equal(t, http.StatusOK, rec.Code)
	var one store.RankedFighter
	decode(t, rec, &one)
	require.Equal(t, champ.ID, one.FighterID)

	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/rankings/999").Code)
}

func TestChampionVacantReturnsNull(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	_, err := s.UpsertWeightClass(ctx, model.WeightClass{NameEN: "Flyweight", Gender: model.GenderMale})
	require.NoError(t, err)
	wcs, err := s.ListWeightClasses(ctx)
	require.NoError(t, err)

	rec := get(t, srv, "/api/rankings/"+itoa(wcs[0].ID)+"/champion")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "null\n", rec.Body.String())
}

func TestCompareDifferences(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	f1 := model.Fighter{NameEN: "Lightweight Guy", HeightCm: intp(178), WeightKg: intp(70), ReachCm: intp(180), Age: intp(32)}
	f2 := model.Fighter{NameEN: "Heavyweight Guy", HeightCm: intp(193), WeightKg: intp(120), ReachCm: intp(211), Age: intp(37)}
	_, err := s.UpsertFighter(ctx, &f1)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &f2)
	require.NoError(t, err)

	rec := get(t, srv, "/api/compare/"+itoa(f1.ID)+"/"+itoa(f2.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body compareResponse
	decode(t, rec, &body)
	require.Equal(t, -15, *body.Comparison.Height.Difference)
	require.Equal(t, -50, *body.Comparison.Weight.Difference)
	require.Equal(t, -31, *body.Comparison.Reach.Difference)
	require.Equal(t, -5, *body.Comparison.Age.Difference)

	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/compare/"+itoa(f1.ID)+"/999").Code)
}

func TestCompareMissingAttributeYieldsNullDifference(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	f1 := model.Fighter{NameEN: "Measured", HeightCm: intp(178)}
	f2 := model.Fighter{NameEN: "Unmeasured"}
	_, err := s.UpsertFighter(ctx, &f1)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &f2)
	require.NoError(t, err)

	var body compareResponse
	rec := get(t, srv, "/api/compare/"+itoa(f1.ID)+"/"+itoa(f2.ID))
	decode(t, rec, &body)
	require.Nil(t, body.Comparison.Height.Difference)
	require.Equal(t, 178, *body.Comparison.Height.Fighter1)
}

func TestUpcomingFightsFilter(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	f1 := model.Fighter{NameEN: "Main Eventer"}
	f2 := model.Fighter{NameEN: "Opponent"}
	f3 := model.Fighter{NameEN: "Prelim Guy"}
	for _, f := range []*model.Fighter{&f1, &f2, &f3} {
		_, err := s.UpsertFighter(ctx, f)
		require.NoError(t, err)
	}
	date := time.Now().Add(14 * 24 * time.Hour)
	for _, uf := range []model.UpcomingFight{
		{Fighter1ID: f1.ID, Fighter2ID: f2.ID, EventName: "UFC 321", EventDate: &date, IsMainEvent: true},
		{Fighter1ID: f1.ID, Fighter2ID: f3.ID, EventName: "UFC 321", EventDate: &date},
	} {
		u := uf
		_, err := s.UpsertUpcomingFight(ctx, &u)
		require.NoError(t, err)
	}

	var fights []model.UpcomingFight
	rec := get(t, srv, "/api/upcoming-fights")
	decode(t, rec, &fights)
	require.Len(t, fights, 2)

	rec = get(t, srv, "/api/upcoming-fights?main_event_only=true")
	decode(t, rec, &fights)
	require.Len(t, fights, 1)
	require.True(t, fights[0].IsMainEvent)
}

func TestStatsEndpoint(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	f := model.Fighter{NameEN: "Counter", Country: "Ireland"}
	_, err := s.UpsertFighter(ctx, &f)
	require.NoError(t, err)

	rec := get(t, srv, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats store.Stats
	decode(t, rec, &stats)
	require.Equal(t, 1, stats.Fighters)
	require.Equal(t, "Ireland", stats.TopCountries[0].Country)
}

func TestEventsEndpoints(t *testing.T) {
	srv, s := newServer(t)
	ctx := context.Background()

	f1 := model.Fighter{NameEN: "Winner"}
	f2 := model.Fighter{NameEN: "Loser"}
	_, err := s.UpsertFighter(ctx, &f1)
	require.NoError(t, err)
	_, err = s.UpsertFighter(ctx, &f2)
	require.NoError(t, err)

	ev := model.Event{Name: "UFC 300", EventType: model.EventTypeUFC, Status: model.EventStatusCompleted}
	_, err = s.UpsertEvent(ctx, &ev)
	require.NoError(t, err)
	fight := model.Fight{EventID: ev.ID, Fighter1ID: f1.ID, Fighter2ID: f2.ID, WinnerID: &f1.ID}
	_, err = s.UpsertFight(ctx, &fight)
	require.NoError(t, err)

	var events []model.Event
	rec := get(t, srv, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &events)
	require.Len(t, events, 1)

	rec = get(t, srv, "/api/events/"+itoa(ev.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		model.Event
		Fights []model.Fight `json:"fights"`
	}
	decode(t, rec, &detail)
	require.Equal(t, "UFC 300", detail.Name)
	require.Len(t, detail.Fights, 1)

	require.Equal(t, http.StatusNotFound, get(t, srv, "/api/events/999").Code)
}

func TestSourcesEndpoint(t *testing.T) {
	srv, _ := newServer(t)
	require.NoError(t, srv.sources.Register(context.Background(), source.Source{
		Name: "wikipedia", Priority: source.PriorityHigh,
		Capabilities: []source.DataType{source.DataRankings},
	}))

	rec := get(t, srv, "/api/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []source.Status
	decode(t, rec, &statuses)
	require.Len(t, statuses, 1)
	require.Equal(t, "wikipedia", statuses[0].Name)
	require.True(t, statuses[0].Enabled)
}

func TestMetricsExposed(t *testing.T) {
	srv, _ := newServer(t)
	rec := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
