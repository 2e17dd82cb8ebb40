// Package ufcstats imports per-round fight statistics from CSV
// mirrors of the ufc.stats dataset.
package ufcstats

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/fetch"
	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
)

// Source name as registered with the source manager.
const Name = "ufc_stats"

// Mirrors tried in order until one serves the dataset.
var DefaultMirrors = []string{
	"https://raw.githubusercontent.com/mtoto/ufc.stats/master/data-raw/ufc_stats.csv",
	"https://github.com/mtoto/ufc.stats/raw/master/data-raw/ufc_stats.csv",
}

// Row is one fighter-round line of the dataset.
type Row struct {
	Fighter                     string
	EventName                   string
	FightDate                   *time.Time
	WeightClass                 string
	Round                       int
	Knockdowns                  int
	SignificantStrikesLanded    int
	SignificantStrikesAttempted int
	SignificantStrikesRate      float64
	TotalStrikesLanded          int
	TotalStrikesAttempted       int
	TakedownSuccessful          int
	TakedownAttempted           int
	TakedownRate                float64
	SubmissionAttempt           int
	Reversals                   int
	HeadLanded                  int
	HeadAttempted               int
	BodyLanded                  int
	BodyAttempted               int
	LegLanded                   int
	LegAttempted                int
	DistanceLanded              int
	DistanceAttempted           int
	ClinchLanded                int
	ClinchAttempted             int
	GroundLanded                int
	GroundAttempted             int
	Result                      string
	LastRound                   bool
	Time                        string
	Winner                      string
}

// Importer downloads and parses the dataset.
type Importer struct {
	client  *fetch.Client
	mirrors []string
	log     *zap.Logger
}

// New builds an Importer. An empty mirror list falls back to
// DefaultMirrors.
func New(client *fetch.Client, mirrors []string, log *zap.Logger) *Importer {
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}
	return &Importer{client: client, mirrors: mirrors, log: log.Named("scrape.ufcstats")}
}

// Fetch downloads the dataset from the first reachable mirror.
func (im *Importer) Fetch(ctx context.Context) ([]Row, error) {
	var lastErr error
	for _, url := range im.mirrors {
		body, err := im.client.Get(ctx, url)
		if err != nil {
			im.log.Warn("mirror unreachable", zap.String("url", url), zap.Error(err))
			lastErr = err
			continue
		}
		rows, err := Parse(bytes.NewReader(body))
		if err != nil {
			im.log.Warn("mirror served bad data", zap.String("url", url), zap.Error(err))
			lastErr = err
			continue
		}
		im.log.Info("dataset loaded", zap.String("url", url), zap.Int("rows", len(rows)))
		return rows, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no mirrors configured", scrape.ErrParse)
	}
	return nil, lastErr
}

// Parse reads the CSV stream. Columns are located by header name so
// mirrors with reordered or extra columns still import. Rows missing
// the fighter name or a valid round are skipped.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing csv header: %v", scrape.ErrParse, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["fighter"]; !ok {
		return nil, fmt.Errorf("%w: csv lacks a fighter column", scrape.ErrParse)
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(rec []string, name string) int {
		n, _ := strconv.Atoi(field(rec, name))
		return n
	}
	flt := func(rec []string, name string) float64 {
		f, _ := strconv.ParseFloat(field(rec, name), 64)
		return f
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed csv: %v", scrape.ErrParse, err)
		}

		row := Row{
			Fighter:                     field(rec, "fighter"),
			EventName:                   field(rec, "event_name"),
			WeightClass:                 field(rec, "weight_class"),
			Round:                       num(rec, "round"),
			Knockdowns:                  num(rec, "knockdowns"),
			SignificantStrikesLanded:    num(rec, "significant_strikes_landed"),
			SignificantStrikesAttempted: num(rec, "significant_strikes_attempted"),
			SignificantStrikesRate:      flt(rec, "significant_strikes_rate"),
			TotalStrikesLanded:          num(rec, "total_strikes_landed"),
			TotalStrikesAttempted:       num(rec, "total_strikes_attempted"),
			TakedownSuccessful:          num(rec, "takedown_successful"),
			TakedownAttempted:           num(rec, "takedown_attempted"),
			TakedownRate:                flt(rec, "takedown_rate"),
			SubmissionAttempt:           num(rec, "submission_attempt"),
			Reversals:                   num(rec, "reversal"),
			HeadLanded:                  num(rec, "head_landed"),
			HeadAttempted:               num(rec, "head_attempted"),
			BodyLanded:                  num(rec, "body_landed"),
			BodyAttempted:               num(rec, "body_attempted"),
			LegLanded:                   num(rec, "leg_landed"),
			LegAttempted:                num(rec, "leg_attempted"),
			DistanceLanded:              num(rec, "distance_landed"),
			DistanceAttempted:           num(rec, "distance_attempted"),
			ClinchLanded:                num(rec, "clinch_landed"),
			ClinchAttempted:             num(rec, "clinch_attempted"),
			GroundLanded:                num(rec, "ground_landed"),
			GroundAttempted:             num(rec, "ground_attempted"),
			Result:                      field(rec, "result"),
			Time:                        field(rec, "time"),
			Winner:                      field(rec, "winner"),
		}
		if row.Fighter == "" || row.Round < 1 {
			continue
		}
		if v := field(rec, "last_round"); v != "" {
			row.LastRound = v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
		}
		if v := field(rec, "fight_date"); v != "" {
			if d, err := normalize.ParseDate(v); err == nil {
				row.FightDate = &d
			}
		}
		// The published rates are sometimes blank.
		if row.SignificantStrikesRate == 0 && row.SignificantStrikesAttempted > 0 {
			row.SignificantStrikesRate = rate(row.SignificantStrikesLanded, row.SignificantStrikesAttempted)
		}
		if row.TakedownRate == 0 && row.TakedownAttempted > 0 {
			row.TakedownRate = rate(row.TakedownSuccessful, row.TakedownAttempted)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rate is landed over attempted as a percentage, rounded to two
// decimal places.
func rate(landed, attempted int) float64 {
	if attempted == 0 {
		return 0
	}
	v := float64(landed) / float64(attempted) * 100
	return float64(int(v*100+0.5)) / 100
}
