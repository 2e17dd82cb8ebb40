package wikipedia

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

// EventDetail scrapes one event page for its results table and gate
// revenue.
func (s *Scraper) EventDetail(ctx context.Context, eventURL string) (scrape.EventDetail, error) {
	doc, err := s.client.GetDocument(ctx, eventURL)
	if err != nil {
		return scrape.EventDetail{}, err
	}
	return s.ParseEventDetail(doc)
}

// ParseEventDetail extracts the results table that follows the
// Results heading, plus a gate revenue figure when one is mentioned
// anywhere on the page.
func (s *Scraper) ParseEventDetail(doc *goquery.Document) (scrape.EventDetail, error) {
	detail := scrape.EventDetail{
		Name: normalize.CleanText(doc.Find("h1#firstHeading").Text()),
	}
	if gate, ok := extractGateRevenue(doc); ok {
		detail.GateRevenue = &gate
	}

	table := doc.Find("h2#Results").Closest("div").NextAllFiltered("table").First()
	if table.Length() == 0 {
		table = doc.Find("h2#Results").NextAll().Filter("table").First()
	}
	if table.Length() == 0 {
		return detail, fmt.Errorf("%w: results table not found", scrape.ErrParse)
	}

	cardType := ""
	order := 0
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if ct, ok := detectCardType(row); ok {
			cardType = ct
			order = 0
			return
		}
		if f, ok := parseFightRow(row, cardType, order); ok {
			detail.Fights = append(detail.Fights, f)
			order++
		}
	})
	if len(detail.Fights) == 0 {
		return detail, fmt.Errorf("%w: results table empty", scrape.ErrParse)
	}
	return detail, nil
}

// extractGateRevenue finds a dollar amount in any element that talks
// about the gate. Whole rows are scanned because the infobox keeps
// the label and the amount in separate cells.
func extractGateRevenue(doc *goquery.Document) (float64, bool) {
	var (
		gate  float64
		found bool
	)
	doc.Find("tr, p, li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		lower := strings.ToLower(text)
		if !strings.Contains(lower, "gate") && !strings.Contains(lower, "revenue") {
			return true
		}
		if v, err := normalize.ParseMoney(text); err == nil {
			gate, found = v, true
			return false
		}
		return true
	})
	return gate, found
}

// detectCardType recognizes the one-cell separator rows that label a
// card segment. The early prelims check runs first because its label
// contains the plain prelims label.
func detectCardType(row *goquery.Selection) (string, bool) {
	text := strings.ToLower(normalize.CleanText(row.Text()))
	switch {
	case strings.Contains(text, "early preliminary card"):
		return model.CardEarlyPrelim, true
	case strings.Contains(text, "preliminary card"):
		return model.CardPrelim, true
	case strings.Contains(text, "main card"):
		return model.CardMain, true
	}
	return "", false
}

// Results columns: weight class, fighter, result, fighter, method,
// round, time, notes.
func parseFightRow(row *goquery.Selection, cardType string, order int) (scrape.FightRow, bool) {
	cells := row.Find("td, th")
	if cells.Length() < 6 {
		return scrape.FightRow{}, false
	}

	f := scrape.FightRow{
		WeightClass: normalize.CleanText(cells.Eq(0).Text()),
		Fighter1:    normalize.CleanText(cells.Eq(1).Text()),
		Fighter2:    normalize.CleanText(cells.Eq(3).Text()),
		CardType:    cardType,
		FightOrder:  order,
	}
	if f.Fighter1 == "" || f.Fighter2 == "" {
		return scrape.FightRow{}, false
	}

	f.Method, f.MethodDetails = splitMethod(cells.Eq(4).Text())
	if n, ok := normalize.FirstInt(cells.Eq(5).Text()); ok {
		f.Round = &n
	}
	if cells.Length() > 6 {
		f.Time = normalize.CleanText(cells.Eq(6).Text())
	}
	if cells.Length() > 7 {
		f.Notes = normalize.CleanText(cells.Eq(7).Text())
	}

	result := normalize.CleanText(cells.Eq(2).Text())
	f.Winner = determineWinner(f.Fighter1, f.Fighter2, result)

	wc := strings.ToLower(f.WeightClass)
	f.TitleFight = strings.Contains(wc, "championship") || strings.Contains(wc, "title")
	return f, true
}

// splitMethod separates "Decision (unanimous)" into method and the
// parenthesized detail.
func splitMethod(text string) (string, string) {
	text = normalize.CleanText(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		return text, ""
	}
	end := strings.IndexByte(text[open:], ')')
	if end < 0 {
		return strings.TrimSpace(text[:open]), ""
	}
	details := text[open+1 : open+end]
	method := strings.TrimSpace(strings.Replace(text, text[open:open+end+1], "", 1))
	return method, details
}

// determineWinner reads the result cell. A "def." result means the
// first listed fighter won; otherwise the winner is whichever fighter
// the cell names. Draws and no contests have no winner.
func determineWinner(fighter1, fighter2, result string) string {
	lower := strings.ToLower(result)
	if strings.Contains(lower, "def.") {
		return fighter1
	}
	if fighter1 != "" && strings.Contains(lower, strings.ToLower(fighter1)) {
		return fighter1
	}
	if fighter2 != "" && strings.Contains(lower, strings.ToLower(fighter2)) {
		return fighter2
	}
	return ""
}
