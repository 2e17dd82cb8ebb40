package wikipedia

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

var (
	ufcNumberRe   = regexp.MustCompile(`(?i)UFC\s+(\d+)`)
	fightNightRe  = regexp.MustCompile(`(?i)UFC\s+Fight\s+Night\s+(\d+)`)
	ufcOnRe       = regexp.MustCompile(`(?i)UFC\s+on\s+\w+`)
	fightNightAny = regexp.MustCompile(`(?i)UFC\s+Fight\s+Night`)
)

// Events scrapes both the past and scheduled event listings.
func (s *Scraper) Events(ctx context.Context) ([]scrape.EventRow, error) {
	doc, err := s.client.GetDocument(ctx, eventsURL)
	if err != nil {
		return nil, err
	}
	past, err := s.ParsePastEvents(doc)
	if err != nil {
		return nil, err
	}
	scheduled, err := s.ParseScheduledEvents(doc)
	if err != nil {
		s.log.Warn("scheduled events missing", zap.Error(err))
	}
	return append(scheduled, past...), nil
}

// ParsePastEvents reads the table that follows the Past events
// heading. Columns: number, event, date, venue, location, attendance,
// reference.
func (s *Scraper) ParsePastEvents(doc *goquery.Document) ([]scrape.EventRow, error) {
	table := doc.Find("h2#Past_events").Closest("div").NextAllFiltered("table").First()
	if table.Length() == 0 {
		table = doc.Find("h2#Past_events").NextAll().Filter("table").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: past events table not found", scrape.ErrParse)
	}

	var out []scrape.EventRow
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		if ev, ok := s.parsePastEventRow(row); ok {
			out = append(out, ev)
		}
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: past events table empty", scrape.ErrParse)
	}
	return out, nil
}

func (s *Scraper) parsePastEventRow(row *goquery.Selection) (scrape.EventRow, bool) {
	cells := row.Find("td, th")
	if cells.Length() < 6 {
		return scrape.EventRow{}, false
	}

	name := normalize.CleanText(cells.Eq(1).Text())
	if name == "" {
		return scrape.EventRow{}, false
	}

	ev := scrape.EventRow{
		Name:        name,
		EventURL:    absoluteURL(cells.Eq(1).Find("a").First().AttrOr("href", "")),
		Venue:       normalize.CleanText(cells.Eq(3).Text()),
		VenueURL:    absoluteURL(cells.Eq(3).Find("a").First().AttrOr("href", "")),
		Location:    normalize.CleanText(cells.Eq(4).Text()),
		LocationURL: absoluteURL(cells.Eq(4).Find("a").First().AttrOr("href", "")),
	}

	if n, err := strconv.Atoi(normalize.CleanText(cells.Eq(0).Text())); err == nil {
		ev.EventNumber = &n
	}
	if d, err := normalize.ParseDate(cells.Eq(2).Text()); err == nil {
		ev.Date = &d
	}

	// A shifted row puts the date where the venue belongs.
	if _, err := normalize.ParseDate(ev.Venue); err == nil && ev.Venue != "" {
		s.log.Warn("venue cell holds a date, row likely shifted", zap.String("event", name), zap.String("venue", ev.Venue))
		ev.Venue = "unknown"
	}

	if n, err := normalize.ParseAttendance(cells.Eq(5).Text()); err == nil {
		ev.Attendance = &n
	}
	if cells.Length() > 6 {
		ev.ReferenceURL = absoluteURL(cells.Eq(6).Find("a").First().AttrOr("href", ""))
	}

	num, typ := ExtractEventInfo(name)
	ev.EventType = typ
	if ev.EventNumber == nil {
		ev.EventNumber = num
	}
	return ev, true
}

// ParseScheduledEvents reads the table after the Scheduled events
// heading. Columns: event, date, venue, location, reference.
func (s *Scraper) ParseScheduledEvents(doc *goquery.Document) ([]scrape.EventRow, error) {
	table := doc.Find("h2#Scheduled_events").Closest("div").NextAllFiltered("table").First()
	if table.Length() == 0 {
		table = doc.Find("h2#Scheduled_events").NextAll().Filter("table").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: scheduled events table not found", scrape.ErrParse)
	}

	var out []scrape.EventRow
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td, th")
		if cells.Length() < 4 {
			return
		}
		name := normalize.CleanText(cells.Eq(0).Text())
		if name == "" {
			return
		}
		ev := scrape.EventRow{
			Name:        name,
			EventURL:    absoluteURL(cells.Eq(0).Find("a").First().AttrOr("href", "")),
			Venue:       normalize.CleanText(cells.Eq(2).Text()),
			VenueURL:    absoluteURL(cells.Eq(2).Find("a").First().AttrOr("href", "")),
			Location:    normalize.CleanText(cells.Eq(3).Text()),
			LocationURL: absoluteURL(cells.Eq(3).Find("a").First().AttrOr("href", "")),
			Upcoming:    true,
		}
		if d, err := normalize.ParseDate(cells.Eq(1).Text()); err == nil {
			ev.Date = &d
		}
		if cells.Length() > 4 {
			ev.ReferenceURL = absoluteURL(cells.Eq(4).Find("a").First().AttrOr("href", ""))
		}
		ev.EventNumber, ev.EventType = ExtractEventInfo(name)
		out = append(out, ev)
	})
	return out, nil
}

// ExtractEventInfo classifies an event name and pulls the numbered
// series position out of it when present.
func ExtractEventInfo(name string) (*int, string) {
	if fightNightAny.MatchString(name) {
		if m := fightNightRe.FindStringSubmatch(name); m != nil {
			n, _ := strconv.Atoi(m[1])
			return &n, model.EventTypeFightNight
		}
		return nil, model.EventTypeFightNight
	}
	if ufcOnRe.MatchString(name) {
		return nil, model.EventTypeUFCOn
	}
	if strings.Contains(strings.ToLower(name), "ultimate fighter") {
		return nil, model.EventTypeTUF
	}
	if m := ufcNumberRe.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return &n, model.EventTypeUFC
	}
	return nil, model.EventTypeOther
}
