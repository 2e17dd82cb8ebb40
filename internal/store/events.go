package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fightdata/ufc-ranker/internal/model"
)

const eventCols = `id, name, event_number, event_type, date, venue, venue_url, location,
	location_url, event_url, reference_url, attendance, gate_revenue, is_upcoming, status`

func scanEvent(r rowScanner) (model.Event, error) {
	var (
		ev   model.Event
		date sql.NullTime
	)
	err := r.Scan(&ev.ID, &ev.Name, &ev.EventNumber, &ev.EventType, &date, &ev.Venue,
		&ev.VenueURL, &ev.Location, &ev.LocationURL, &ev.EventURL, &ev.ReferenceURL,
		&ev.Attendance, &ev.GateRevenue, &ev.IsUpcoming, &ev.Status)
	if err != nil {
		return model.Event{}, err
	}
	if date.Valid {
		ev.Date = &date.Time
	}
	return ev, nil
}

// GetEvent returns one event by id.
func (s *Store) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+eventCols+` FROM events WHERE id = ?`), id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: get event: %v", ErrStore, err)
	}
	return ev, nil
}

// ListEvents pages through events, newest first. upcoming narrows to
// scheduled or completed shows when non-nil.
func (s *Store) ListEvents(ctx context.Context, skip, limit int, upcoming *bool) ([]model.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT ` + eventCols + ` FROM events`
	var args []any
	if upcoming != nil {
		query += ` WHERE is_upcoming = ?`
		args = append(args, *upcoming)
	}
	query += ` ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", ErrStore, err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan event: %v", ErrStore, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// FindEvent matches the natural key: name, or the combination of
// event_number, event_type and date.
func (s *Store) FindEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+eventCols+` FROM events WHERE name = ? ORDER BY id DESC LIMIT 1`), ev.Name)
	found, err := scanEvent(row)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, fmt.Errorf("%w: find event: %v", ErrStore, err)
	}
	if ev.EventNumber == nil || ev.Date == nil {
		return model.Event{}, ErrNotFound
	}
	row = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+eventCols+` FROM events
		 WHERE event_number = ? AND event_type = ? AND date = ?
		 ORDER BY id DESC LIMIT 1`), *ev.EventNumber, ev.EventType, *ev.Date)
	found, err = scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: find event: %v", ErrStore, err)
	}
	return found, nil
}

// UpsertEvent writes one event, deduplicated on name or on
// (event_number, event_type, date). Rows whose fields match exactly
// are skipped. The event's ID is set on return.
func (s *Store) UpsertEvent(ctx context.Context, ev *model.Event) (UpsertOutcome, error) {
	existing, err := s.FindEvent(ctx, *ev)
	if errors.Is(err, ErrNotFound) {
		id, err := s.insertReturningID(ctx,
			`INSERT INTO events (name, event_number, event_type, date, venue, venue_url,
				location, location_url, event_url, reference_url, attendance, gate_revenue,
				is_upcoming, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.Name, ev.EventNumber, ev.EventType, ev.Date, ev.Venue, ev.VenueURL,
			ev.Location, ev.LocationURL, ev.EventURL, ev.ReferenceURL, ev.Attendance,
			ev.GateRevenue, ev.IsUpcoming, ev.Status)
		if err != nil {
			return OutcomeSkipped, fmt.Errorf("%w: insert event %q: %v", ErrStore, ev.Name, err)
		}
		ev.ID = id
		return OutcomeCreated, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	merged := mergeEvent(existing, *ev)
	merged.ID = existing.ID
	ev.ID = existing.ID
	if eventsEqual(merged, existing) {
		return OutcomeSkipped, nil
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`UPDATE events SET name = ?, event_number = ?, event_type = ?, date = ?, venue = ?,
			venue_url = ?, location = ?, location_url = ?, event_url = ?, reference_url = ?,
			attendance = ?, gate_revenue = ?, is_upcoming = ?, status = ?,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`),
		merged.Name, merged.EventNumber, merged.EventType, merged.Date, merged.Venue,
		merged.VenueURL, merged.Location, merged.LocationURL, merged.EventURL, merged.ReferenceURL,
		merged.Attendance, merged.GateRevenue, merged.IsUpcoming, merged.Status, merged.ID)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("%w: update event %d: %v", ErrStore, merged.ID, err)
	}
	*ev = merged
	return OutcomeUpdated, nil
}

// SetEventGateRevenue records the gate figure scraped off the detail
// page.
func (s *Store) SetEventGateRevenue(ctx context.Context, id int64, gate float64) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE events SET gate_revenue = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`), gate, id)
	if err != nil {
		return fmt.Errorf("%w: set gate revenue: %v", ErrStore, err)
	}
	return nil
}

func mergeEvent(old, in model.Event) model.Event {
	out := old
	if in.Name != "" {
		out.Name = in.Name
	}
	if in.EventNumber != nil {
		out.EventNumber = in.EventNumber
	}
	if in.EventType != "" {
		out.EventType = in.EventType
	}
	if in.Date != nil {
		out.Date = in.Date
	}
	if in.Venue != "" {
		out.Venue = in.Venue
	}
	if in.VenueURL != "" {
		out.VenueURL = in.VenueURL
	}
	if in.Location != "" {
		out.Location = in.Location
	}
	if in.LocationURL != "" {
		out.LocationURL = in.LocationURL
	}
	if in.EventURL != "" {
		out.EventURL = in.EventURL
	}
	if in.ReferenceURL != "" {
		out.ReferenceURL = in.ReferenceURL
	}
	if in.Attendance != nil {
		out.Attendance = in.Attendance
	}
	if in.GateRevenue != nil {
		out.GateRevenue = in.GateRevenue
	}
	if in.Status != "" {
		out.Status = in.Status
		out.IsUpcoming = in.Status == model.EventStatusScheduled
	}
	return out
}

func eventsEqual(a, b model.Event) bool {
	if !intPtrEq(a.EventNumber, b.EventNumber) || !timePtrEq(a.Date, b.Date) ||
		!intPtrEq(a.Attendance, b.Attendance) || !floatPtrEq(a.GateRevenue, b.GateRevenue) {
		return false
	}
	a.EventNumber, a.Date, a.Attendance, a.GateRevenue = nil, nil, nil, nil
	b.EventNumber, b.Date, b.Attendance, b.GateRevenue = nil, nil, nil, nil
	return a == b
}
