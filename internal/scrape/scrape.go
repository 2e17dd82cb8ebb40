// Package scrape defines the rows scrapers emit and the parse error
// they share. Concrete scrapers live in the per-source subpackages.
package scrape

import (
	"errors"
	"time"
)

// ErrParse marks pages that were fetched fine but did not contain the
// structure the scraper expected.
var ErrParse = errors.New("scrape: page structure not recognized")

// RankingEntry is one row of a divisional rankings table. Rank 0 with
// Champion set means the champion row.
type RankingEntry struct {
	Name       string
	ProfileURL string
	Record     string
	Rank       int
	RankChange int
	Champion   bool
}

// RankingTable is a whole division as scraped.
type RankingTable struct {
	WeightClass string
	Entries     []RankingEntry
}

// RosterRow is one fighter off the current-roster listing.
type RosterRow struct {
	WeightClass string
	Country     string
	Name        string
	ProfileURL  string
	Age         *int
	HeightCm    *int
	Nickname    string
	WeightKg    *int
	ReachCm     *int
	UFCRecord   string
	MMARecord   string
}

// EventRow is one row off the events listing.
type EventRow struct {
	Name         string
	EventNumber  *int
	EventType    string
	EventURL     string
	Date         *time.Time
	Venue        string
	VenueURL     string
	Location     string
	LocationURL  string
	Attendance   *int
	ReferenceURL string
	Upcoming     bool
}

// FightRow is one bout off an event results table.
type FightRow struct {
	WeightClass   string
	Fighter1      string
	Fighter2      string
	Winner        string
	Method        string
	MethodDetails string
	Round         *int
	Time          string
	Notes         string
	CardType      string
	FightOrder    int
	TitleFight    bool
}

// EventDetail is the scraped event page.
type EventDetail struct {
	Name        string
	Date        *time.Time
	Venue       string
	Location    string
	Attendance  *int
	GateRevenue *float64
	Fights      []FightRow
}

// RecordBreakdown is the by-method summary table off a fighter page.
type RecordBreakdown struct {
	WinsByKO           int
	LossesByKO         int
	WinsBySubmission   int
	LossesBySubmission int
	WinsByDecision     int
	LossesByDecision   int
	WinsByDQ           int
	LossesByDQ         int
}

// CareerFight is one bout off a fighter page's career table. It
// covers the whole career, not just UFC bouts, so Event often names a
// show no events source knows.
type CareerFight struct {
	Result        string // Win, Loss, Draw, NC
	Record        string // running record after the bout
	Opponent      string
	Method        string
	MethodDetails string
	Event         string
	Date          *time.Time
	Round         *int
	Time          string
	Location      string
	Notes         string
}

// Profile is a scraped fighter page. Zero-valued fields were absent.
type Profile struct {
	NameEN        string
	NameRU        string
	FullName      string
	Nickname      string
	Country       string
	CountryFlag   string
	ImageURL      string
	BirthDate     *time.Time
	BirthPlace    string
	Age           *int
	HeightCm      *int
	WeightKg      *int
	ReachCm       *int
	Stance        string
	Team          string
	Trainer       string
	BeltRank      string
	YearsActive   string
	FightingOutOf string
	WeightClass   string
	Record        string
	Breakdown     *RecordBreakdown
	CareerFights  []CareerFight
}
