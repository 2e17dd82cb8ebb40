// Package wikipedia scrapes rankings, the current roster, and event
// data from the English Wikipedia.
package wikipedia

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/fetch"
	"github.com/fightdata/ufc-ranker/internal/model"
)

// Source name as registered with the source manager.
const Name = "wikipedia"

const (
	baseURL     = "https://en.wikipedia.org"
	rankingsURL = baseURL + "/wiki/UFC_rankings"
	rosterURL   = baseURL + "/wiki/List_of_current_UFC_fighters"
	eventsURL   = baseURL + "/wiki/List_of_UFC_events"
)

// division ties a divisional rankings table position and a roster
// section anchor to one weight class.
type division struct {
	class    model.WeightClass
	tableNo  int    // 1-based table position on the rankings page
	anchorID string // span id on the roster page
}

var divisions = []division{
	{model.WeightClass{NameEN: "Heavyweights", NameRU: "Тяжелый вес", Gender: model.GenderMale, WeightMaxKg: intp(120)}, 4, "Heavyweights_.28265lb.2C_120_kg.29"},
	{model.WeightClass{NameEN: "Light Heavyweights", NameRU: "Полутяжелый вес", Gender: model.GenderMale, WeightMaxKg: intp(93)}, 5, "Light_heavyweights_.28205_lb.2C_93_kg.29"},
	{model.WeightClass{NameEN: "Middleweights", NameRU: "Средний вес", Gender: model.GenderMale, WeightMaxKg: intp(84)}, 6, "Middleweights_.28185_lb.2C_84_kg.29"},
	{model.WeightClass{NameEN: "Welterweights", NameRU: "Полусредний вес", Gender: model.GenderMale, WeightMaxKg: intp(77)}, 7, "Welterweights_.28170_lb.2C_77_kg.29"},
	{model.WeightClass{NameEN: "Lightweights", NameRU: "Легкий вес", Gender: model.GenderMale, WeightMaxKg: intp(70)}, 8, "Lightweights_.28155_lb.2C_70_kg.29"},
	{model.WeightClass{NameEN: "Featherweights", NameRU: "Полулегкий вес", Gender: model.GenderMale, WeightMaxKg: intp(65)}, 9, "Featherweights_.28145_lb.2C_65_kg.29"},
	{model.WeightClass{NameEN: "Bantamweights", NameRU: "Легчайший вес", Gender: model.GenderMale, WeightMaxKg: intp(61)}, 10, "Bantamweights_.28135_lb.2C_61_kg.29"},
	{model.WeightClass{NameEN: "Flyweights", NameRU: "Наилегчайший вес", Gender: model.GenderMale, WeightMaxKg: intp(56)}, 11, "Flyweights_.28125_lb.2C_56_kg.29"},
	{model.WeightClass{NameEN: "Women's Bantamweights", NameRU: "Женский легчайший вес", Gender: model.GenderFemale, WeightMaxKg: intp(61)}, 12, "Women.27s_bantamweights_.28135_lb.2C_61_kg.29"},
	{model.WeightClass{NameEN: "Women's Flyweights", NameRU: "Женский наилегчайший вес", Gender: model.GenderFemale, WeightMaxKg: intp(56)}, 13, "Women.27s_flyweights_.28125_lb.2C_56_kg.29"},
	{model.WeightClass{NameEN: "Women's Strawweights", NameRU: "Женский минимальный вес", Gender: model.GenderFemale, WeightMaxKg: intp(52)}, 14, "Women.27s_strawweights_.28115_lb.2C_52_kg.29"},
}

// Divisions returns the canonical weight classes this scraper knows,
// used to seed the weight_classes table.
func Divisions() []model.WeightClass {
	out := make([]model.WeightClass, len(divisions))
	for i, d := range divisions {
		out[i] = d.class
	}
	return out
}

// Scraper fetches and parses the Wikipedia pages.
type Scraper struct {
	client *fetch.Client
	log    *zap.Logger
}

// New builds a Scraper on top of an existing fetch client.
func New(client *fetch.Client, log *zap.Logger) *Scraper {
	return &Scraper{client: client, log: log.Named("scrape.wikipedia")}
}

// absoluteURL resolves href against the wiki origin.
func absoluteURL(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "/") {
		return baseURL + href
	}
	return href
}

func intp(v int) *int { return &v }
