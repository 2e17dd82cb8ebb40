package wikipedia

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

// Rankings scrapes every divisional rankings table.
func (s *Scraper) Rankings(ctx context.Context) ([]scrape.RankingTable, error) {
	doc, err := s.client.GetDocument(ctx, rankingsURL)
	if err != nil {
		return nil, err
	}
	return s.ParseRankings(doc)
}

// ParseRankings extracts the divisional tables from the rankings
// page. Divisions whose table is missing or empty are skipped with a
// warning; an error is returned only when no division parses at all.
func (s *Scraper) ParseRankings(doc *goquery.Document) ([]scrape.RankingTable, error) {
	tables := doc.Find("table")

	var out []scrape.RankingTable
	for _, d := range divisions {
		if d.tableNo > tables.Length() {
			s.log.Warn("rankings table missing", zap.String("weight_class", d.class.NameEN), zap.Int("table", d.tableNo))
			continue
		}
		table := tables.Eq(d.tableNo - 1)
		entries := parseRankingTable(table)
		if len(entries) == 0 {
			s.log.Warn("rankings table empty", zap.String("weight_class", d.class.NameEN))
			continue
		}
		out = append(out, scrape.RankingTable{WeightClass: d.class.NameEN, Entries: entries})
		s.log.Debug("division parsed", zap.String("weight_class", d.class.NameEN), zap.Int("entries", len(entries)))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no rankings tables found", scrape.ErrParse)
	}
	return out, nil
}

// parseRankingTable reads one division. The first two rows are
// headers. The rank cell reads 'C' or 'Champion' for the champion;
// otherwise the first integer in the cell is the position, falling
// back to the row index (row zero meaning champion) when the cell has
// no digits.
func parseRankingTable(table *goquery.Selection) []scrape.RankingEntry {
	var entries []scrape.RankingEntry
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < 2 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		dataIdx := i - 2

		nameCell := cells.Eq(1)
		entry := scrape.RankingEntry{
			Name:   normalize.CleanText(nameCell.Text()),
			Record: normalize.CleanText(cells.Eq(2).Text()),
		}
		if link := nameCell.Find("a").First(); link.Length() > 0 {
			entry.Name = normalize.CleanText(link.Text())
			entry.ProfileURL = absoluteURL(link.AttrOr("href", ""))
		}
		if entry.Name == "" {
			return
		}

		rankText := normalize.CleanText(cells.Eq(0).Text())
		switch {
		case strings.Contains(rankText, "C") || strings.Contains(rankText, "Champion"):
			entry.Rank, entry.Champion = 0, true
		default:
			if n, ok := normalize.FirstInt(rankText); ok {
				entry.Rank = n
			} else if dataIdx == 0 {
				entry.Rank, entry.Champion = 0, true
			} else {
				entry.Rank = dataIdx
			}
		}
		entries = append(entries, entry)
	})
	return entries
}
