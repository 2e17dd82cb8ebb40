// Package model defines the core entities shared across subsystems.
package model

import "time"

// Gender of a weight division.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Event lifecycle states.
const (
	EventStatusScheduled = "scheduled"
	EventStatusCompleted = "completed"
)

// Event classes as they appear on the events list.
const (
	EventTypeUFC        = "UFC"
	EventTypeFightNight = "Fight Night"
	EventTypeUFCOn      = "UFC on X"
	EventTypeTUF        = "The Ultimate Fighter"
	EventTypeOther      = "Other"
)

// Canonical card type strings. Sources disagree on casing; everything
// is normalized to these at ingest time.
const (
	CardMain        = "main_card"
	CardPrelim      = "preliminary_card"
	CardEarlyPrelim = "early_preliminary_card"
)

// WeightClass is a canonical weight division. NameEN uniquely
// identifies the division; textual weight_class references elsewhere
// resolve against NameEN or NameRU.
type WeightClass struct {
	ID          int64  `json:"id"`
	NameEN      string `json:"name_en"`
	NameRU      string `json:"name_ru"`
	WeightMinKg *int   `json:"weight_min_kg,omitempty"`
	WeightMaxKg *int   `json:"weight_max_kg,omitempty"`
	Gender      string `json:"gender"`
	IsP4P       bool   `json:"is_p4p"`
}

// Fighter is a person. At least one of NameEN/NameRU is non-empty.
type Fighter struct {
	ID             int64      `json:"id"`
	NameEN         string     `json:"name_en"`
	NameRU         string     `json:"name_ru"`
	FullName       string     `json:"full_name,omitempty"`
	Nickname       string     `json:"nickname,omitempty"`
	Country        string     `json:"country,omitempty"`
	CountryFlagURL string     `json:"country_flag_url,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	ProfileURL     string     `json:"profile_url,omitempty"`
	HeightCm       *int       `json:"height_cm,omitempty"`
	WeightKg       *int       `json:"weight_kg,omitempty"`
	ReachCm        *int       `json:"reach_cm,omitempty"`
	Age            *int       `json:"age,omitempty"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	BirthPlace     string     `json:"birth_place,omitempty"`
	WeightClass    string     `json:"weight_class,omitempty"`
	Stance         string     `json:"stance,omitempty"`
	Team           string     `json:"team,omitempty"`
	Trainer        string     `json:"trainer,omitempty"`
	BeltRank       string     `json:"belt_rank,omitempty"`
	YearsActive    string     `json:"years_active,omitempty"`
	FightingOutOf  string     `json:"fighting_out_of,omitempty"`
	Career         string     `json:"career,omitempty"`
	UFCRecord      string     `json:"ufc_record,omitempty"`
	MMARecord      string     `json:"mma_record,omitempty"`
	Wins           int        `json:"wins"`
	Losses         int        `json:"losses"`
	Draws          int        `json:"draws"`
	NoContests     int        `json:"no_contests"`
}

// FightRecord is 1:1 with a Fighter and mirrors the fight ledger.
type FightRecord struct {
	ID                  int64    `json:"id"`
	FighterID           int64    `json:"fighter_id"`
	Wins                int      `json:"wins"`
	Losses              int      `json:"losses"`
	Draws               int      `json:"draws"`
	NoContests          int      `json:"no_contests"`
	WinsByKO            *int     `json:"wins_by_ko,omitempty"`
	LossesByKO          *int     `json:"losses_by_ko,omitempty"`
	WinsBySubmission    *int     `json:"wins_by_submission,omitempty"`
	LossesBySubmission  *int     `json:"losses_by_submission,omitempty"`
	WinsByDecision      *int     `json:"wins_by_decision,omitempty"`
	LossesByDecision    *int     `json:"losses_by_decision,omitempty"`
	WinsByDQ            *int     `json:"wins_by_dq,omitempty"`
	LossesByDQ          *int     `json:"losses_by_dq,omitempty"`
	AvgFightTimeSeconds *float64 `json:"avg_fight_time_seconds,omitempty"`
}

// TotalFights is the full ledger size including no contests.
func (r FightRecord) TotalFights() int {
	return r.Wins + r.Losses + r.Draws + r.NoContests
}

// WinPercentage is wins over total, 0 when the ledger is empty.
func (r FightRecord) WinPercentage() float64 {
	total := r.TotalFights()
	if total == 0 {
		return 0
	}
	return float64(r.Wins) / float64(total) * 100
}

// Event is a show. Status completed implies Date <= today;
// IsUpcoming mirrors status scheduled.
type Event struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	EventNumber  *int       `json:"event_number,omitempty"`
	EventType    string     `json:"event_type"`
	Date         *time.Time `json:"date,omitempty"`
	Venue        string     `json:"venue,omitempty"`
	VenueURL     string     `json:"venue_url,omitempty"`
	Location     string     `json:"location,omitempty"`
	LocationURL  string     `json:"location_url,omitempty"`
	EventURL     string     `json:"event_url,omitempty"`
	ReferenceURL string     `json:"reference_url,omitempty"`
	Attendance   *int       `json:"attendance,omitempty"`
	GateRevenue  *float64   `json:"gate_revenue,omitempty"`
	IsUpcoming   bool       `json:"is_upcoming"`
	Status       string     `json:"status"`
}

// Fight is a bout at an event. The (EventID, fighter pair) is unique
// with the pair taken unordered.
type Fight struct {
	ID              int64      `json:"id"`
	EventID         int64      `json:"event_id"`
	Fighter1ID      int64      `json:"fighter1_id"`
	Fighter2ID      int64      `json:"fighter2_id"`
	WinnerID        *int64     `json:"winner_id,omitempty"`
	WeightClass     string     `json:"weight_class,omitempty"`
	ScheduledRounds int        `json:"scheduled_rounds"`
	Method          string     `json:"method,omitempty"`
	MethodDetails   string     `json:"method_details,omitempty"`
	Round           *int       `json:"round,omitempty"`
	Time            string     `json:"time,omitempty"`
	FightDate       *time.Time `json:"fight_date,omitempty"`
	CardType        string     `json:"card_type,omitempty"`
	FightOrder      *int       `json:"fight_order,omitempty"`
	Referee         string     `json:"referee,omitempty"`
	JudgesScore     string     `json:"judges_score,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	IsTitleFight    bool       `json:"is_title_fight"`
	IsMainEvent     bool       `json:"is_main_event"`
}

// FightStats holds per-round, per-fighter detail.
// Unique on (FightID, FighterID, RoundNumber).
type FightStats struct {
	ID                          int64   `json:"id"`
	FightID                     int64   `json:"fight_id"`
	FighterID                   int64   `json:"fighter_id"`
	RoundNumber                 int     `json:"round_number"`
	Knockdowns                  int     `json:"knockdowns"`
	SignificantStrikesLanded    int     `json:"significant_strikes_landed"`
	SignificantStrikesAttempted int     `json:"significant_strikes_attempted"`
	SignificantStrikesRate      float64 `json:"significant_strikes_rate"`
	TotalStrikesLanded          int     `json:"total_strikes_landed"`
	TotalStrikesAttempted       int     `json:"total_strikes_attempted"`
	TakedownSuccessful          int     `json:"takedown_successful"`
	TakedownAttempted           int     `json:"takedown_attempted"`
	TakedownRate                float64 `json:"takedown_rate"`
	SubmissionAttempt           int     `json:"submission_attempt"`
	Reversals                   int     `json:"reversals"`
	HeadLanded                  int     `json:"head_landed"`
	HeadAttempted               int     `json:"head_attempted"`
	BodyLanded                  int     `json:"body_landed"`
	BodyAttempted               int     `json:"body_attempted"`
	LegLanded                   int     `json:"leg_landed"`
	LegAttempted                int     `json:"leg_attempted"`
	DistanceLanded              int     `json:"distance_landed"`
	DistanceAttempted           int     `json:"distance_attempted"`
	ClinchLanded                int     `json:"clinch_landed"`
	ClinchAttempted             int     `json:"clinch_attempted"`
	GroundLanded                int     `json:"ground_landed"`
	GroundAttempted             int     `json:"ground_attempted"`
	Result                      string  `json:"result,omitempty"`
	LastRound                   bool    `json:"last_round"`
	Time                        string  `json:"time,omitempty"`
	Winner                      string  `json:"winner,omitempty"`
}

// Ranking is a position in a weight class as of the last scrape.
// Champion rows have RankPosition 0 and IsChampion true; the table is
// rewritten atomically per refresh.
type Ranking struct {
	ID           int64  `json:"id"`
	FighterID    int64  `json:"fighter_id"`
	WeightClass  string `json:"weight_class"`
	RankPosition int    `json:"rank_position"`
	IsChampion   bool   `json:"is_champion"`
	RankChange   int    `json:"rank_change"`
}

// UpcomingFight is an announced future bout.
type UpcomingFight struct {
	ID           int64      `json:"id"`
	Fighter1ID   int64      `json:"fighter1_id"`
	Fighter2ID   int64      `json:"fighter2_id"`
	WeightClass  string     `json:"weight_class,omitempty"`
	EventName    string     `json:"event_name,omitempty"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	Location     string     `json:"location,omitempty"`
	IsMainEvent  bool       `json:"is_main_event"`
	IsTitleFight bool       `json:"is_title_fight"`
}
