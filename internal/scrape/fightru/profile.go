package fightru

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

var latinNameRe = regexp.MustCompile(`^[A-Za-z\s.\-']+$`)

// Profile scrapes one fighter page.
func (s *Scraper) Profile(ctx context.Context, profileURL string) (scrape.Profile, error) {
	doc, err := s.client.GetDocument(ctx, profileURL)
	if err != nil {
		return scrape.Profile{}, err
	}
	return s.ParseProfile(doc), nil
}

// ParseProfile reads the fighter card. The Russian name comes from
// the page heading, the Latin name from its subtitle, and the
// physical data from labeled list items.
func (s *Scraper) ParseProfile(doc *goquery.Document) scrape.Profile {
	p := scrape.Profile{
		NameRU:      normalize.CleanText(doc.Find("h1.fighter-name").First().Text()),
		NameEN:      normalize.CleanText(doc.Find("div.fighter-latin-name").First().Text()),
		Country:     normalize.CleanText(doc.Find(".fighter-country-name").First().Text()),
		CountryFlag: doc.Find(".fighter-country-flag img").First().AttrOr("src", ""),
		Record:      normalize.CleanText(doc.Find(".fight-score").First().Text()),
		ImageURL:    extractImage(doc),
	}
	if p.NameRU == "" {
		p.NameRU = normalize.CleanText(doc.Find("h1, h2").First().Text())
	}
	if p.NameEN == "" {
		doc.Find(".fighter-eng-name, .eng-name").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := normalize.CleanText(sel.Text())
			if text != "" && len(text) < 50 && latinNameRe.MatchString(text) {
				p.NameEN = text
				return false
			}
			return true
		})
	}

	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		label := strings.ToLower(normalize.CleanText(li.Find("span.text").First().Text()))
		value := normalize.CleanText(li.Find("span.sub").First().Text())
		if label == "" || value == "" || len(value) > 100 {
			return
		}
		switch {
		case strings.Contains(label, "рост") && strings.Contains(label, "вес"):
			// Height and weight share one cell, slash separated.
			parts := strings.SplitN(value, " / ", 2)
			if len(parts) == 2 {
				setCm(&p.HeightCm, parts[0])
				setKg(&p.WeightKg, parts[1])
			}
		case strings.Contains(label, "рост"):
			setCm(&p.HeightCm, value)
		case strings.Contains(label, "размах рук"):
			setCm(&p.ReachCm, value)
		case strings.Contains(label, "вес"):
			setKg(&p.WeightKg, value)
		case strings.Contains(label, "возраст"):
			if n, ok := normalize.FirstInt(value); ok {
				p.Age = &n
			}
		case strings.Contains(label, "ник"):
			p.Nickname = value
		}
	})
	return p
}

// extractImage tries the structured selectors first and falls back
// to the page's first image.
func extractImage(doc *goquery.Document) string {
	if src := doc.Find(`img[itemprop="url"]`).First().AttrOr("src", ""); src != "" {
		return src
	}
	if content := doc.Find(`meta[property="og:image"]`).First().AttrOr("content", ""); content != "" {
		return content
	}
	if src := doc.Find("img.fighter-photo, img.profile-photo").First().AttrOr("src", ""); src != "" {
		return src
	}
	return doc.Find("img").First().AttrOr("src", "")
}

// setCm parses a metric length like "188 см" into dst.
func setCm(dst **int, value string) {
	if n, ok := normalize.FirstInt(value); ok {
		*dst = &n
	}
}

// setKg parses a metric weight like "84 кг" into dst.
func setKg(dst **int, value string) {
	if n, ok := normalize.FirstInt(value); ok {
		*dst = &n
	}
}
