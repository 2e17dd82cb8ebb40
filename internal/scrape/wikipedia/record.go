package wikipedia

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

// parseRecordSection reads the two tables that follow the career
// record heading on a fighter page: the by-method summary first, the
// per-fight career table second. Pages without the section leave the
// profile untouched.
func parseRecordSection(doc *goquery.Document, p *scrape.Profile) {
	heading := doc.Find("h2#Mixed_martial_arts_record")
	if heading.Length() == 0 {
		return
	}
	tables := heading.Closest("div").NextAllFiltered("table")
	if tables.Length() == 0 {
		tables = heading.NextAll().Filter("table")
	}
	if tables.Length() == 0 {
		return
	}
	p.Breakdown = parseRecordBreakdown(tables.Eq(0))
	if tables.Length() > 1 {
		p.CareerFights = parseCareerTable(tables.Eq(1))
	}
}

// parseRecordBreakdown reads method/wins/losses triples. The header
// row drops out naturally because its count cells carry no digits.
func parseRecordBreakdown(table *goquery.Selection) *scrape.RecordBreakdown {
	var (
		bd    scrape.RecordBreakdown
		found bool
	)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 3 {
			return
		}
		wins, okW := normalize.FirstInt(cells.Eq(1).Text())
		losses, okL := normalize.FirstInt(cells.Eq(2).Text())
		if !okW || !okL {
			return
		}
		method := strings.ToLower(normalize.CleanText(cells.Eq(0).Text()))
		switch {
		case strings.Contains(method, "knockout") || strings.Contains(method, "ko"):
			bd.WinsByKO, bd.LossesByKO = wins, losses
		case strings.Contains(method, "submission"):
			bd.WinsBySubmission, bd.LossesBySubmission = wins, losses
		case strings.Contains(method, "decision"):
			bd.WinsByDecision, bd.LossesByDecision = wins, losses
		case strings.Contains(method, "disqualification") || strings.Contains(method, "dq"):
			bd.WinsByDQ, bd.LossesByDQ = wins, losses
		default:
			return
		}
		found = true
	})
	if !found {
		return nil
	}
	return &bd
}

// Career table columns: result, running record, opponent, method,
// event, date, round, time, location, notes.
func parseCareerTable(table *goquery.Selection) []scrape.CareerFight {
	var fights []scrape.CareerFight
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 9 {
			return
		}
		cf := scrape.CareerFight{
			Result:   normalize.CleanText(cells.Eq(0).Text()),
			Record:   normalize.CleanText(cells.Eq(1).Text()),
			Opponent: normalize.CleanText(cells.Eq(2).Text()),
			Event:    normalize.CleanText(cells.Eq(4).Text()),
			Location: normalize.CleanText(cells.Eq(8).Text()),
		}
		if cf.Result == "" || cf.Opponent == "" || cf.Event == "" {
			return
		}
		cf.Method, cf.MethodDetails = splitMethod(cells.Eq(3).Text())
		if d, err := normalize.ParseDate(normalize.CleanText(cells.Eq(5).Text())); err == nil {
			cf.Date = &d
		}
		if n, ok := normalize.FirstInt(cells.Eq(6).Text()); ok {
			cf.Round = &n
		}
		cf.Time = normalize.CleanText(cells.Eq(7).Text())
		if cells.Length() > 9 {
			cf.Notes = normalize.CleanText(cells.Eq(9).Text())
		}
		fights = append(fights, cf)
	})
	return fights
}
