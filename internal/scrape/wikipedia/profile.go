package wikipedia

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

var (
	isoDateParenRe = regexp.MustCompile(`\(\d{4}-\d{2}-\d{2}\)`)
	ageParenRe     = regexp.MustCompile(`\(age\s+\d+\)`)
	longDateRe     = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`)
	dayFirstRe     = regexp.MustCompile(`\d{1,2}\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}`)
)

// Profile scrapes a fighter's own page for infobox detail.
func (s *Scraper) Profile(ctx context.Context, profileURL string) (scrape.Profile, error) {
	doc, err := s.client.GetDocument(ctx, profileURL)
	if err != nil {
		return scrape.Profile{}, err
	}
	return s.ParseProfile(doc), nil
}

// ParseProfile reads the page heading and the infobox. Missing rows
// leave their fields zero; a fighter page with no infobox still
// yields the full name.
func (s *Scraper) ParseProfile(doc *goquery.Document) scrape.Profile {
	p := scrape.Profile{
		FullName: normalize.CleanText(doc.Find("h1#firstHeading").Text()),
	}
	parseRecordSection(doc, &p)

	infobox := doc.Find("table.infobox").First()
	if infobox.Length() == 0 {
		return p
	}
	if src := infobox.Find("img").First().AttrOr("src", ""); src != "" {
		p.ImageURL = absoluteURL(src)
	}

	born := infoboxValue(infobox, "Born")
	if born != "" {
		if d, err := normalize.ParseDate(extractBirthDate(born)); err == nil {
			p.BirthDate = &d
		}
		p.BirthPlace = extractBirthPlace(born)
	}

	if v := infoboxValue(infobox, "Other names"); v != "" {
		p.Nickname = v
	}
	if v := infoboxValue(infobox, "Height"); v != "" {
		if cm, err := normalize.ParseHeight(v); err == nil {
			p.HeightCm = &cm
		}
	}
	if v := infoboxValue(infobox, "Weight"); v != "" {
		if lb, ok := normalize.FirstInt(v); ok {
			kg := normalize.PoundsToKg(float64(lb))
			p.WeightKg = &kg
		}
	}
	if v := infoboxValue(infobox, "Reach"); v != "" {
		if in, ok := normalize.FirstInt(v); ok {
			cm := normalize.InchesToCm(float64(in))
			p.ReachCm = &cm
		}
	}
	p.Stance = infoboxValue(infobox, "Stance")
	p.Team = infoboxValue(infobox, "Team")
	p.Trainer = infoboxValue(infobox, "Trainer")
	p.BeltRank = infoboxValue(infobox, "Rank")
	p.YearsActive = infoboxValue(infobox, "Years active")
	p.FightingOutOf = infoboxValue(infobox, "Fighting out of")
	p.WeightClass = infoboxValue(infobox, "Division")
	p.Country = infoboxValue(infobox, "Nationality")
	return p
}

// infoboxValue returns the first cell whose row header contains
// label.
func infoboxValue(infobox *goquery.Selection, label string) string {
	var value string
	infobox.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		th := row.Find("th").First()
		if th.Length() == 0 || !strings.Contains(th.Text(), label) {
			return true
		}
		td := row.Find("td").First()
		if td.Length() == 0 {
			return true
		}
		value = normalize.CleanText(td.Text())
		return false
	})
	return value
}

// extractBirthDate pulls the date phrase out of a Born cell, which
// usually also carries age and birthplace.
func extractBirthDate(born string) string {
	if m := dayFirstRe.FindString(born); m != "" {
		return m
	}
	if m := longDateRe.FindString(born); m != "" {
		return m
	}
	if m := isoDateParenRe.FindString(born); m != "" {
		return strings.Trim(m, "()")
	}
	return born
}

// extractBirthPlace strips the date fragments from a Born cell and
// keeps the trailing place words.
func extractBirthPlace(born string) string {
	s := isoDateParenRe.ReplaceAllString(born, "")
	s = ageParenRe.ReplaceAllString(s, "")
	s = longDateRe.ReplaceAllString(s, "")
	s = dayFirstRe.ReplaceAllString(s, "")
	s = normalize.CleanText(s)
	s = strings.Trim(s, ", ")
	if s == "" {
		return ""
	}
	parts := strings.Fields(s)
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	return strings.Trim(strings.Join(parts, " "), ", ")
}
