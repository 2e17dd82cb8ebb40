// Package source orders the registered scrapers by priority and
// reliability and tracks their success rates across runs.
package source

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/metrics"
	"github.com/fightdata/ufc-ranker/internal/store"
)

// Priority levels. Lower is preferred.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// DataType names the kinds of data a source can supply.
type DataType string

const (
	DataRankings   DataType = "rankings"
	DataFighters   DataType = "fighters"
	DataEvents     DataType = "events"
	DataFightStats DataType = "fight_stats"
)

// ErrNoSource means every capable source was disabled, empty or
// failing.
var ErrNoSource = errors.New("source: no source produced data")

// FetchFunc pulls one data type from one source. A nil error with
// count 0 counts as an empty result and the manager moves on.
type FetchFunc func(ctx context.Context) (count int, err error)

// Source is one registered scraper with its capability tags.
type Source struct {
	Name         string
	Priority     int
	Capabilities []DataType

	enabled     bool
	lastUpdate  *time.Time
	successRate float64
}

// Status is the read-only snapshot served at /api/sources.
type Status struct {
	Name        string     `json:"name"`
	Priority    int        `json:"priority"`
	Enabled     bool       `json:"enabled"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
	SuccessRate float64    `json:"success_rate"`
	DataTypes   []DataType `json:"data_types"`
}

// Manager keeps the source registry. State survives restarts through
// the store's data_sources table.
type Manager struct {
	mu      sync.Mutex
	sources map[string]*Source
	store   *store.Store
	log     *zap.Logger
}

func NewManager(s *store.Store, log *zap.Logger) *Manager {
	return &Manager{
		sources: make(map[string]*Source),
		store:   s,
		log:     log.Named("source"),
	}
}

// Register adds a source, restoring any persisted state. A newly seen
// source starts enabled with a perfect rate.
func (m *Manager) Register(ctx context.Context, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src.enabled = true
	src.successRate = 1.0
	if m.store != nil {
		st, err := m.store.GetSourceState(ctx, src.Name)
		switch {
		case err == nil:
			src.Priority = st.Priority
			src.enabled = st.Enabled
			src.lastUpdate = st.LastUpdate
			src.successRate = st.SuccessRate
		case errors.Is(err, store.ErrNotFound):
			err = m.store.SaveSourceState(ctx, store.SourceState{
				Name: src.Name, Priority: src.Priority, Enabled: true, SuccessRate: 1.0,
			})
			if err != nil {
				return err
			}
		default:
			return err
		}
	}
	m.sources[src.Name] = &src
	return nil
}

// SetEnabled flips a source on or off and persists the change.
func (m *Manager) SetEnabled(ctx context.Context, name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[name]
	if !ok {
		return errors.New("source: unknown source " + name)
	}
	src.enabled = enabled
	return m.persistLocked(ctx, src)
}

// RecommendedSources returns the names of sources able to supply a
// data type, in invocation order.
func (m *Manager) RecommendedSources(dataType DataType) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, src := range m.candidatesLocked(dataType) {
		names = append(names, src.Name)
	}
	return names
}

// Fetch tries each capable source in preference order until one
// returns data. fetchers maps source names to their fetch functions
// for this data type.
func (m *Manager) Fetch(ctx context.Context, dataType DataType, fetchers map[string]FetchFunc) (string, int, error) {
	m.mu.Lock()
	candidates := m.candidatesLocked(dataType)
	m.mu.Unlock()

	var lastErr error
	for _, src := range candidates {
		fetch, ok := fetchers[src.Name]
		if !ok {
			continue
		}
		count, err := fetch(ctx)
		if err != nil {
			m.log.Warn("source failed",
				zap.String("source", src.Name),
				zap.String("data_type", string(dataType)),
				zap.Error(err))
			metrics.SourceAttempt(src.Name, "error")
			m.recordAttempt(ctx, src.Name, false)
			lastErr = err
			continue
		}
		if count == 0 {
			m.log.Info("source returned no data",
				zap.String("source", src.Name),
				zap.String("data_type", string(dataType)))
			metrics.SourceAttempt(src.Name, "empty")
			m.recordAttempt(ctx, src.Name, false)
			continue
		}
		metrics.SourceAttempt(src.Name, "ok")
		m.recordAttempt(ctx, src.Name, true)
		return src.Name, count, nil
	}
	if lastErr != nil {
		return "", 0, lastErr
	}
	return "", 0, ErrNoSource
}

// recordAttempt nudges the success rate: +0.1 on success, -0.05 on an
// empty or failed attempt, clamped to [0, 1].
func (m *Manager) recordAttempt(ctx context.Context, name string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, found := m.sources[name]
	if !found {
		return
	}
	if ok {
		src.successRate += 0.1
		if src.successRate > 1.0 {
			src.successRate = 1.0
		}
		now := time.Now()
		src.lastUpdate = &now
	} else {
		src.successRate -= 0.05
		if src.successRate < 0.0 {
			src.successRate = 0.0
		}
	}
	if err := m.persistLocked(ctx, src); err != nil {
		m.log.Warn("persisting source state failed", zap.String("source", name), zap.Error(err))
	}
}

// Statuses snapshots every registered source for diagnostics.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.sources))
	for _, src := range m.sources {
		out = append(out, Status{
			Name:        src.Name,
			Priority:    src.Priority,
			Enabled:     src.enabled,
			LastUpdate:  src.lastUpdate,
			SuccessRate: src.successRate,
			DataTypes:   append([]DataType(nil), src.Capabilities...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (m *Manager) candidatesLocked(dataType DataType) []*Source {
	var out []*Source
	for _, src := range m.sources {
		if !src.enabled || !src.supplies(dataType) {
			continue
		}
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		if out[i].successRate != out[j].successRate {
			return out[i].successRate > out[j].successRate
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (m *Manager) persistLocked(ctx context.Context, src *Source) error {
	if m.store == nil {
		return nil
	}
	return m.store.SaveSourceState(ctx, store.SourceState{
		Name:        src.Name,
		Priority:    src.Priority,
		Enabled:     src.enabled,
		LastUpdate:  src.lastUpdate,
		SuccessRate: src.successRate,
	})
}

func (s *Source) supplies(dataType DataType) bool {
	for _, c := range s.Capabilities {
		if c == dataType {
			return true
		}
	}
	return false
}
