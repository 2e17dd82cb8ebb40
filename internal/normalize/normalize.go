// Package normalize converts raw scraped text into typed values.
// Every helper is pure and tolerant of the messy whitespace the
// sources emit.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	recordRe     = regexp.MustCompile(`^(\d+)[–-](\d+)(?:[–-](\d+))?(?:\s*\((\d+)\s*NC\))?$`)
	firstIntRe   = regexp.MustCompile(`\d+`)
	spaceRe      = regexp.MustCompile(`\s+`)
	dollarRe     = regexp.MustCompile(`\$([\d,]+(?:\.\d{2})?)`)
	millionRe    = regexp.MustCompile(`([\d.]+)\s*million`)
	billionRe    = regexp.MustCompile(`([\d.]+)\s*billion`)
	attendanceRe = regexp.MustCompile(`[\d,]+`)
)

// Record is a parsed W-L-D ledger with an optional no-contest count.
type Record struct {
	Wins       int
	Losses     int
	Draws      int
	NoContests int
}

// ParseRecord parses "23-1-0", "17-0" or "28–12 (1 NC)" style
// strings. Both the en dash and the ASCII hyphen separate the fields;
// draws default to zero when absent. An empty string is the empty
// record, not an error.
func ParseRecord(s string) (Record, error) {
	s = CleanText(s)
	if s == "" {
		return Record{}, nil
	}
	m := recordRe.FindStringSubmatch(s)
	if m == nil {
		return Record{}, fmt.Errorf("normalize: malformed record %q", s)
	}
	rec := Record{}
	rec.Wins, _ = strconv.Atoi(m[1])
	rec.Losses, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		rec.Draws, _ = strconv.Atoi(m[3])
	}
	if m[4] != "" {
		rec.NoContests, _ = strconv.Atoi(m[4])
	}
	return rec, nil
}

// FormatRecord renders a Record back into the canonical en-dash form,
// appending the NC suffix only when there is a no contest.
func FormatRecord(r Record) string {
	s := fmt.Sprintf("%d–%d–%d", r.Wins, r.Losses, r.Draws)
	if r.NoContests > 0 {
		s += fmt.Sprintf(" (%d NC)", r.NoContests)
	}
	return s
}

var dateLayouts = []string{
	"2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
}

var monthLayouts = []string{
	"January 2006",
	"Jan 2006",
}

// ParseDate accepts the handful of date shapes the sources use,
// including month-and-year strings which resolve to the first of the
// month. Footnote markers and surrounding whitespace are ignored.
func ParseDate(s string) (time.Time, error) {
	s = CleanText(s)
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("normalize: unparseable date %q", s)
}

// FeetInchesToCm converts an imperial height to whole centimeters,
// truncating the fraction.
func FeetInchesToCm(feet, inches int) int {
	return int(float64(feet)*30.48 + float64(inches)*2.54)
}

// ParseHeight parses `6 ft 4 in` style cell text. A bare `5 ft`
// reads as zero inches.
func ParseHeight(s string) (int, error) {
	s = CleanText(s)
	var feet, inches int
	if _, err := fmt.Sscanf(s, "%d ft %d in", &feet, &inches); err == nil {
		return FeetInchesToCm(feet, inches), nil
	}
	if _, err := fmt.Sscanf(s, "%d ft", &feet); err == nil {
		return FeetInchesToCm(feet, 0), nil
	}
	return 0, fmt.Errorf("normalize: unparseable height %q", s)
}

// PoundsToKg converts pounds to whole kilograms, truncating.
func PoundsToKg(lb float64) int {
	return int(lb * 0.453592)
}

// InchesToCm converts inches to whole centimeters, truncating.
func InchesToCm(in float64) int {
	return int(in * 2.54)
}

// ParseMoney extracts a dollar figure from prose. It understands
// "$1,250,000.00" as well as "6.2 million" and "1.1 billion"
// phrasings and returns the amount in dollars.
func ParseMoney(s string) (float64, error) {
	s = CleanText(s)
	if m := dollarRe.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil {
			return v, nil
		}
	}
	if m := billionRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v * 1e9, nil
		}
	}
	if m := millionRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v * 1e6, nil
		}
	}
	return 0, fmt.Errorf("normalize: no monetary amount in %q", s)
}

// ParseAttendance pulls the first comma-grouped integer out of an
// attendance cell.
func ParseAttendance(s string) (int, error) {
	m := attendanceRe.FindString(CleanText(s))
	if m == "" {
		return 0, fmt.Errorf("normalize: no attendance in %q", s)
	}
	return strconv.Atoi(strings.ReplaceAll(m, ",", ""))
}

// FirstInt returns the first run of digits in s, or ok=false when
// there is none.
func FirstInt(s string) (int, bool) {
	m := firstIntRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MMSSToSeconds converts a "M:SS" round clock into seconds.
func MMSSToSeconds(s string) (int, error) {
	parts := strings.SplitN(CleanText(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("normalize: malformed time %q", s)
	}
	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("normalize: malformed time %q", s)
	}
	sec, err := strconv.Atoi(parts[1])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("normalize: malformed time %q", s)
	}
	return min*60 + sec, nil
}

// CleanText strips soft hyphens and non-breaking spaces, then
// collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "­", "")
	s = strings.ReplaceAll(s, "&shy;", "")
	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
