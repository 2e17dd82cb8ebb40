package api

import (
	"net/http"

	"github.com/fightdata/ufc-ranker/internal/model"
)

// attributeDiff is one side-by-side attribute. Difference is fighter1
// minus fighter2; nil when either side lacks the value.
type attributeDiff struct {
	Fighter1   *int `json:"fighter1"`
	Fighter2   *int `json:"fighter2"`
	Difference *int `json:"difference"`
}

type comparison struct {
	Height attributeDiff `json:"height"`
	Weight attributeDiff `json:"weight"`
	Reach  attributeDiff `json:"reach"`
	Age    attributeDiff `json:"age"`
}

type compareResponse struct {
	Fighter1   model.Fighter `json:"fighter1"`
	Fighter2   model.Fighter `json:"fighter2"`
	Comparison comparison    `json:"comparison"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	id1, ok1 := pathID(r, "id1")
	id2, ok2 := pathID(r, "id2")
	if !ok1 || !ok2 {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	f1, err := s.store.GetFighter(r.Context(), id1)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	f2, err := s.store.GetFighter(r.Context(), id2)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, compareResponse{
		Fighter1: f1,
		Fighter2: f2,
		Comparison: comparison{
			Height: diff(f1.HeightCm, f2.HeightCm),
			Weight: diff(f1.WeightKg, f2.WeightKg),
			Reach:  diff(f1.ReachCm, f2.ReachCm),
			Age:    diff(f1.Age, f2.Age),
		},
	})
}

func diff(a, b *int) attributeDiff {
	d := attributeDiff{Fighter1: a, Fighter2: b}
	if a != nil && b != nil {
		v := *a - *b
		d.Difference = &v
	}
	return d
}
