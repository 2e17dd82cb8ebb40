package ingest

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/metrics"
	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/resolve"
	"github.com/fightdata/ufc-ranker/internal/scrape"
	"github.com/fightdata/ufc-ranker/internal/scrape/wikipedia"
	"github.com/fightdata/ufc-ranker/internal/source"
)

// RefreshEvents pulls the event listings, upserts every event and
// follows a bounded number of event pages into their fight cards.
func (in *Ingester) RefreshEvents(ctx context.Context) error {
	_, _, err := in.sources.Fetch(ctx, source.DataEvents, map[string]source.FetchFunc{
		wikipedia.Name: in.refreshWikipediaEvents,
	})
	return err
}

func (in *Ingester) refreshWikipediaEvents(ctx context.Context) (int, error) {
	rows, err := in.wikipedia.Events(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		ev := eventFromRow(row)
		if _, err := in.store.UpsertEvent(ctx, &ev); err != nil {
			in.log.Warn("event row skipped", zap.String("event", row.Name), zap.Error(err))
			metrics.RowProcessed("event", "skipped")
			continue
		}
		metrics.RowProcessed("event", "ok")
		count++
	}
	if err := in.ingestEventDetails(ctx); err != nil {
		in.log.Warn("event detail pass incomplete", zap.Error(err))
	}
	if err := in.ingestUpcomingCards(ctx); err != nil {
		in.log.Warn("upcoming card pass incomplete", zap.Error(err))
	}
	return count, nil
}

func eventFromRow(row scrape.EventRow) model.Event {
	status := model.EventStatusCompleted
	if row.Upcoming {
		status = model.EventStatusScheduled
	}
	return model.Event{
		Name:         row.Name,
		EventNumber:  row.EventNumber,
		EventType:    row.EventType,
		Date:         row.Date,
		Venue:        row.Venue,
		VenueURL:     row.VenueURL,
		Location:     row.Location,
		LocationURL:  row.LocationURL,
		EventURL:     row.EventURL,
		ReferenceURL: row.ReferenceURL,
		Attendance:   row.Attendance,
		IsUpcoming:   row.Upcoming,
		Status:       status,
	}
}

// ingestEventDetails visits completed events that have a page but no
// stored fights yet, newest first.
func (in *Ingester) ingestEventDetails(ctx context.Context) error {
	rows, err := in.store.DB().QueryContext(ctx,
		`SELECT id, event_url FROM events
		 WHERE event_url <> '' AND NOT is_upcoming
		   AND id NOT IN (SELECT DISTINCT event_id FROM fights)
		 ORDER BY id DESC LIMIT ?`, maxEventDetails)
	if err != nil {
		return err
	}
	type pending struct {
		id  int64
		url string
	}
	var queue []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.url); err != nil {
			rows.Close()
			return err
		}
		queue = append(queue, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range queue {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail, err := in.wikipedia.EventDetail(ctx, p.url)
		if err != nil {
			in.log.Warn("event detail skipped",
				zap.Int64("event_id", p.id), zap.String("url", p.url), zap.Error(err))
			continue
		}
		in.applyEventDetail(ctx, p.id, detail)
	}
	return nil
}

// applyEventDetail stores an event page's fights and gate revenue.
// Card-detail rows never create stub fighters: an unresolved name is
// logged and its row skipped.
func (in *Ingester) applyEventDetail(ctx context.Context, eventID int64, detail scrape.EventDetail) {
	if detail.GateRevenue != nil {
		if err := in.store.SetEventGateRevenue(ctx, eventID, *detail.GateRevenue); err != nil {
			in.log.Warn("gate revenue update failed", zap.Int64("event_id", eventID), zap.Error(err))
		}
	}

	ev, err := in.store.GetEvent(ctx, eventID)
	if err != nil {
		in.log.Warn("event vanished during detail pass", zap.Int64("event_id", eventID), zap.Error(err))
		return
	}

	for _, row := range detail.Fights {
		f1, err := in.resolver.Fighter(ctx, row.Fighter1)
		if err != nil {
			in.logFightSkip(row, row.Fighter1, err)
			continue
		}
		f2, err := in.resolver.Fighter(ctx, row.Fighter2)
		if err != nil {
			in.logFightSkip(row, row.Fighter2, err)
			continue
		}

		order := row.FightOrder
		fight := model.Fight{
			EventID:       eventID,
			Fighter1ID:    f1,
			Fighter2ID:    f2,
			WeightClass:   in.resolver.WeightClass(ctx, row.WeightClass),
			Method:        row.Method,
			MethodDetails: row.MethodDetails,
			Round:         row.Round,
			Time:          row.Time,
			FightDate:     ev.Date,
			CardType:      row.CardType,
			FightOrder:    &order,
			Notes:         row.Notes,
			IsTitleFight:  row.TitleFight,
			IsMainEvent:   row.CardType == model.CardMain && row.FightOrder == 0,
		}
		switch row.Winner {
		case row.Fighter1:
			fight.WinnerID = &f1
		case row.Fighter2:
			fight.WinnerID = &f2
		}
		if _, err := in.store.UpsertFight(ctx, &fight); err != nil {
			in.log.Warn("fight row skipped",
				zap.Int64("event_id", eventID),
				zap.String("fighter1", row.Fighter1),
				zap.String("fighter2", row.Fighter2),
				zap.Error(err))
			metrics.RowProcessed("fight", "skipped")
			continue
		}
		metrics.RowProcessed("fight", "ok")
	}
}

// ingestUpcomingCards reads announced bouts off scheduled event pages.
// Only bouts whose fighters already resolve are stored.
func (in *Ingester) ingestUpcomingCards(ctx context.Context) error {
	upcoming := true
	events, err := in.store.ListEvents(ctx, 0, maxEventDetails, &upcoming)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.EventURL == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		detail, err := in.wikipedia.EventDetail(ctx, ev.EventURL)
		if err != nil {
			in.log.Info("upcoming card unavailable",
				zap.String("event", ev.Name), zap.Error(err))
			continue
		}
		for _, row := range detail.Fights {
			f1, err := in.resolver.Fighter(ctx, row.Fighter1)
			if err != nil {
				in.logFightSkip(row, row.Fighter1, err)
				continue
			}
			f2, err := in.resolver.Fighter(ctx, row.Fighter2)
			if err != nil {
				in.logFightSkip(row, row.Fighter2, err)
				continue
			}
			uf := model.UpcomingFight{
				Fighter1ID:   f1,
				Fighter2ID:   f2,
				WeightClass:  in.resolver.WeightClass(ctx, row.WeightClass),
				EventName:    ev.Name,
				EventDate:    ev.Date,
				Location:     ev.Location,
				IsMainEvent:  row.CardType == model.CardMain && row.FightOrder == 0,
				IsTitleFight: row.TitleFight,
			}
			if _, err := in.store.UpsertUpcomingFight(ctx, &uf); err != nil {
				in.log.Warn("upcoming fight skipped", zap.String("event", ev.Name), zap.Error(err))
				metrics.RowProcessed("upcoming_fight", "skipped")
				continue
			}
			metrics.RowProcessed("upcoming_fight", "ok")
		}
	}
	return nil
}

func (in *Ingester) logFightSkip(row scrape.FightRow, name string, err error) {
	if errors.Is(err, resolve.ErrResolutionMiss) {
		in.log.Info("fight skipped, fighter unknown",
			zap.String("fighter", name),
			zap.String("weight_class", row.WeightClass))
	} else {
		in.log.Warn("fight skipped", zap.String("fighter", name), zap.Error(err))
	}
	metrics.RowProcessed("fight", "skipped")
}
