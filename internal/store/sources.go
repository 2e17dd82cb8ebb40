package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SourceState is the persisted slice of a data source's registry
// entry. Capabilities and scraper wiring stay in memory.
type SourceState struct {
	Name        string     `json:"name"`
	Priority    int        `json:"priority"`
	Enabled     bool       `json:"enabled"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
	SuccessRate float64    `json:"success_rate"`
}

// GetSourceState loads one source's persisted state.
func (s *Store) GetSourceState(ctx context.Context, name string) (SourceState, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT name, priority, enabled, last_update, success_rate FROM data_sources WHERE name = ?`), name)
	st, err := scanSourceState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SourceState{}, ErrNotFound
	}
	if err != nil {
		return SourceState{}, fmt.Errorf("%w: get source state: %v", ErrStore, err)
	}
	return st, nil
}

// ListSourceStates loads every persisted source, highest priority
// (lowest number) first.
func (s *Store) ListSourceStates(ctx context.Context) ([]SourceState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, priority, enabled, last_update, success_rate FROM data_sources
		 ORDER BY priority ASC, success_rate DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list source states: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []SourceState
	for rows.Next() {
		st, err := scanSourceState(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan source state: %v", ErrStore, err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SaveSourceState inserts or overwrites a source's persisted state.
func (s *Store) SaveSourceState(ctx context.Context, st SourceState) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE data_sources SET priority = ?, enabled = ?, last_update = ?, success_rate = ?
		 WHERE name = ?`),
		st.Priority, st.Enabled, st.LastUpdate, st.SuccessRate, st.Name)
	if err != nil {
		return fmt.Errorf("%w: save source state: %v", ErrStore, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO data_sources (name, priority, enabled, last_update, success_rate)
		 VALUES (?, ?, ?, ?, ?)`),
		st.Name, st.Priority, st.Enabled, st.LastUpdate, st.SuccessRate)
	if err != nil {
		return fmt.Errorf("%w: insert source state: %v", ErrStore, err)
	}
	return nil
}

func scanSourceState(r rowScanner) (SourceState, error) {
	var (
		st   SourceState
		last sql.NullTime
	)
	err := r.Scan(&st.Name, &st.Priority, &st.Enabled, &last, &st.SuccessRate)
	if err != nil {
		return SourceState{}, err
	}
	if last.Valid {
		st.LastUpdate = &last.Time
	}
	return st, nil
}
