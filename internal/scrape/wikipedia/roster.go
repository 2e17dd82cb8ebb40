package wikipedia

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

// Roster scrapes the current-fighters listing.
func (s *Scraper) Roster(ctx context.Context) ([]scrape.RosterRow, error) {
	doc, err := s.client.GetDocument(ctx, rosterURL)
	if err != nil {
		return nil, err
	}
	return s.ParseRoster(doc)
}

// ParseRoster walks every divisional section. Each division heading
// carries a span anchor; the roster is the first table following the
// heading.
func (s *Scraper) ParseRoster(doc *goquery.Document) ([]scrape.RosterRow, error) {
	var out []scrape.RosterRow
	for _, d := range divisions {
		anchor := doc.Find("span[id='" + d.anchorID + "']")
		if anchor.Length() == 0 {
			s.log.Warn("roster section missing", zap.String("weight_class", d.class.NameEN))
			continue
		}
		table := anchor.Closest("div").NextAllFiltered("table").First()
		if table.Length() == 0 {
			s.log.Warn("roster table missing", zap.String("weight_class", d.class.NameEN))
			continue
		}
		n := 0
		table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
			if r, ok := parseRosterRow(row, d.class.NameEN); ok {
				out = append(out, r)
				n++
			}
		})
		s.log.Debug("roster section parsed", zap.String("weight_class", d.class.NameEN), zap.Int("fighters", n))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no roster rows found", scrape.ErrParse)
	}
	return out, nil
}

// Roster columns: country, name, age, height, nickname, weight,
// reach, UFC record, MMA record.
func parseRosterRow(row *goquery.Selection, weightClass string) (scrape.RosterRow, bool) {
	cells := row.Find("td")
	if cells.Length() < 9 {
		return scrape.RosterRow{}, false
	}

	nameLink := cells.Eq(1).Find("a").First()
	name := normalize.CleanText(nameLink.Text())
	if name == "" {
		name = normalize.CleanText(cells.Eq(1).Text())
	}
	if name == "" {
		return scrape.RosterRow{}, false
	}

	r := scrape.RosterRow{
		WeightClass: weightClass,
		Country:     normalize.CleanText(cells.Eq(0).Find("a[title]").First().AttrOr("title", "")),
		Name:        name,
		ProfileURL:  absoluteURL(nameLink.AttrOr("href", "")),
		Nickname:    normalize.CleanText(cells.Eq(4).Find("i").First().Text()),
		UFCRecord:   normalize.CleanText(cells.Eq(7).Text()),
		MMARecord:   normalize.CleanText(cells.Eq(8).Text()),
	}

	if age, ok := normalize.FirstInt(cells.Eq(2).Text()); ok {
		r.Age = &age
	}
	if cm, err := normalize.ParseHeight(cells.Eq(3).Text()); err == nil {
		r.HeightCm = &cm
	}
	if lb, ok := normalize.FirstInt(cells.Eq(5).Text()); ok {
		kg := normalize.PoundsToKg(float64(lb))
		r.WeightKg = &kg
	}
	if in, ok := normalize.FirstInt(cells.Eq(6).Text()); ok {
		cm := normalize.InchesToCm(float64(in))
		r.ReachCm = &cm
	}
	return r, true
}
