// Package fightru scrapes rankings and fighter profiles from the
// Russian MMA portal fight.ru.
package fightru

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/fetch"
	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

// Source name as registered with the source manager.
const Name = "fight_ru"

const (
	baseURL     = "https://fight.ru"
	rankingsURL = baseURL + "/fighter-ratings/ufc/"
)

// Russian division names mapped to the canonical English ones.
var classTranslations = map[string]string{
	"наилегчайший вес":      "Flyweight",
	"легчайший вес":         "Bantamweight",
	"полулегкий вес":        "Featherweight",
	"легкий вес":            "Lightweight",
	"полусредний вес":       "Welterweight",
	"средний вес":           "Middleweight",
	"полутяжёлый вес":       "Light Heavyweight",
	"тяжелый вес":           "Heavyweight",
	"женский наилегчайший":  "Women's Flyweight",
	"женский легчайший вес": "Women's Bantamweight",
	"женский минимальный":   "Women's Strawweight",
	"(p4p)":                 "Pound for Pound",
	"(p4p) (жен)":           "Women's Pound for Pound",
}

// TranslateWeightClass maps a Russian division name to English.
// Unknown names pass through unchanged.
func TranslateWeightClass(nameRU string) string {
	if en, ok := classTranslations[strings.ToLower(normalize.CleanText(nameRU))]; ok {
		return en
	}
	return nameRU
}

// DetectGender classifies a division name by its Russian wording.
func DetectGender(name string) string {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "женский") || strings.Contains(lower, "(жен)") {
		return model.GenderFemale
	}
	return model.GenderMale
}

// IsP4P reports whether the division is a pound-for-pound list.
func IsP4P(name string) bool {
	return strings.Contains(strings.ToLower(name), "p4p")
}

// Scraper fetches and parses fight.ru pages.
type Scraper struct {
	client *fetch.Client
	log    *zap.Logger
}

// New builds a Scraper on top of an existing fetch client.
func New(client *fetch.Client, log *zap.Logger) *Scraper {
	return &Scraper{client: client, log: log.Named("scrape.fightru")}
}

// Rankings scrapes every divisional ratings section. Division names
// stay Russian; callers translate via TranslateWeightClass.
func (s *Scraper) Rankings(ctx context.Context) ([]scrape.RankingTable, error) {
	doc, err := s.client.GetDocument(ctx, rankingsURL)
	if err != nil {
		return nil, err
	}
	return s.ParseRankings(doc)
}

// ParseRankings walks the weight-name section headers. Each sits in
// an org-single block holding one first-fighter (the champion) and a
// run of next-fighter entries.
func (s *Scraper) ParseRankings(doc *goquery.Document) ([]scrape.RankingTable, error) {
	var out []scrape.RankingTable
	doc.Find("div.weight-name").Each(func(_ int, section *goquery.Selection) {
		name := normalize.CleanText(section.Text())
		if name == "" || name == "Весовая категория" || name == "Все" {
			return
		}
		block := section.Closest("div.org-single")
		if block.Length() == 0 {
			return
		}

		var entries []scrape.RankingEntry
		if champ, ok := parseFighterBlock(block.Find("div.first-fighter").First(), true); ok {
			entries = append(entries, champ)
		}
		block.Find("div.next-fighter").Each(func(_ int, el *goquery.Selection) {
			if e, ok := parseFighterBlock(el, false); ok {
				entries = append(entries, e)
			}
		})
		if len(entries) == 0 {
			s.log.Warn("empty ratings section", zap.String("weight_class", name))
			return
		}
		out = append(out, scrape.RankingTable{WeightClass: name, Entries: entries})
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no ratings sections found", scrape.ErrParse)
	}
	return out, nil
}

func parseFighterBlock(el *goquery.Selection, champion bool) (scrape.RankingEntry, bool) {
	if el.Length() == 0 {
		return scrape.RankingEntry{}, false
	}
	name := normalize.CleanText(el.Find("div.fighter-name").First().Text())
	if name == "" {
		return scrape.RankingEntry{}, false
	}

	entry := scrape.RankingEntry{Name: name, Champion: champion}
	if href := el.Find("a").First().AttrOr("href", ""); href != "" {
		if strings.HasPrefix(href, "http") {
			entry.ProfileURL = href
		} else {
			entry.ProfileURL = baseURL + href
		}
	}
	if !champion {
		rank, err := strconv.Atoi(normalize.CleanText(el.Find("div.fighter-number").First().Text()))
		if err != nil {
			return scrape.RankingEntry{}, false
		}
		entry.Rank = rank
	}

	move := el.Find("div.move").First()
	if move.Length() > 0 {
		if n, ok := normalize.FirstInt(move.Text()); ok {
			if move.HasClass("up") {
				entry.RankChange = n
			} else if move.HasClass("down") {
				entry.RankChange = -n
			}
		}
	}
	return entry, true
}
