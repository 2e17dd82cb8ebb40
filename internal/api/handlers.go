package api

import (
	"errors"
	"net/http"

	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/source"
	"github.com/fightdata/ufc-ranker/internal/store"
)

func (s *Server) handleListFighters(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)
	search := r.URL.Query().Get("search")
	country := r.URL.Query().Get("country")

	fighters, err := s.store.ListFighters(r.Context(), skip, limit, search, country)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if fighters == nil {
		fighters = []model.Fighter{}
	}
	s.writeJSON(w, http.StatusOK, fighters)
}

// fighterDetail embeds the fight record the way the listing does not.
type fighterDetail struct {
	model.Fighter
	FightRecord *model.FightRecord `json:"fight_record,omitempty"`
}

func (s *Server) handleGetFighter(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	fighter, err := s.store.GetFighter(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	detail := fighterDetail{Fighter: fighter}
	rec, err := s.store.GetFightRecord(r.Context(), id)
	switch {
	case err == nil:
		detail.FightRecord = &rec
	case !errors.Is(err, store.ErrNotFound):
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleWeightClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.store.ListWeightClasses(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if classes == nil {
		classes = []model.WeightClass{}
	}
	s.writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	wc, ok := s.weightClassFromPath(w, r)
	if !ok {
		return
	}
	rankings, err := s.store.ListRankings(r.Context(), wc.NameEN)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if rankings == nil {
		rankings = []store.RankedFighter{}
	}
	s.writeJSON(w, http.StatusOK, rankings)
}

func (s *Server) handleChampion(w http.ResponseWriter, r *http.Request) {
	wc, ok := s.weightClassFromPath(w, r)
	if !ok {
		return
	}
	champ, err := s.store.Champion(r.Context(), wc.NameEN)
	if errors.Is(err, store.ErrNotFound) {
		// A vacant title is not an error.
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, champ)
}

func (s *Server) weightClassFromPath(w http.ResponseWriter, r *http.Request) (model.WeightClass, bool) {
	id, ok := pathID(r, "weightClassID")
	if !ok {
		s.writeError(w, http.StatusNotFound, "not found")
		return model.WeightClass{}, false
	}
	wc, err := s.store.GetWeightClass(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return model.WeightClass{}, false
	}
	return wc, true
}

func (s *Server) handleUpcomingFights(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	mainOnly := queryBool(r, "main_event_only")
	fights, err := s.store.ListUpcomingFights(r.Context(), limit, mainOnly)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if fights == nil {
		fights = []model.UpcomingFight{}
	}
	s.writeJSON(w, http.StatusOK, fights)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)
	var upcoming *bool
	if raw := r.URL.Query().Get("upcoming"); raw != "" {
		v := queryBool(r, "upcoming")
		upcoming = &v
	}
	events, err := s.store.ListEvents(r.Context(), skip, limit, upcoming)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

// eventDetail is an event with its card attached.
type eventDetail struct {
	model.Event
	Fights []model.Fight `json:"fights"`
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	ev, err := s.store.GetEvent(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	fights, err := s.store.ListFightsByEvent(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if fights == nil {
		fights = []model.Fight{}
	}
	s.writeJSON(w, http.StatusOK, eventDetail{Event: ev, Fights: fights})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if s.sources == nil {
		s.writeJSON(w, http.StatusOK, []source.Status{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.sources.Statuses())
}
