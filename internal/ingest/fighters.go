package ingest

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fightdata/ufc-ranker/internal/metrics"
	"github.com/fightdata/ufc-ranker/internal/model"
	"github.com/fightdata/ufc-ranker/internal/normalize"
	"github.com/fightdata/ufc-ranker/internal/scrape"
	"github.com/fightdata/ufc-ranker/internal/scrape/fightru"
	"github.com/fightdata/ufc-ranker/internal/scrape/wikipedia"
	"github.com/fightdata/ufc-ranker/internal/source"
	"github.com/fightdata/ufc-ranker/internal/store"
)

// RefreshFighters pulls the roster from the best available source and
// enriches stored fighters from their profile pages.
func (in *Ingester) RefreshFighters(ctx context.Context) error {
	_, _, err := in.sources.Fetch(ctx, source.DataFighters, map[string]source.FetchFunc{
		wikipedia.Name: in.refreshWikipediaFighters,
		fightru.Name:   in.refreshFightRuFighters,
	})
	return err
}

func (in *Ingester) refreshWikipediaFighters(ctx context.Context) (int, error) {
	roster, err := in.wikipedia.Roster(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range roster {
		f := rosterFighter(row)
		if _, err := in.store.UpsertFighter(ctx, &f); err != nil {
			in.log.Warn("roster row skipped", zap.String("fighter", row.Name), zap.Error(err))
			metrics.RowProcessed("fighter", "skipped")
			continue
		}
		if rec, err := normalize.ParseRecord(row.MMARecord); err == nil && rec.Wins+rec.Losses > 0 {
			_, err := in.store.UpsertFightRecord(ctx, model.FightRecord{
				FighterID:  f.ID,
				Wins:       rec.Wins,
				Losses:     rec.Losses,
				Draws:      rec.Draws,
				NoContests: rec.NoContests,
			})
			if err != nil {
				in.log.Warn("fight record skipped", zap.String("fighter", row.Name), zap.Error(err))
			}
		}
		metrics.RowProcessed("fighter", "ok")
		count++
	}
	if err := in.enrichProfiles(ctx, "https://en.wikipedia.org"); err != nil {
		in.log.Warn("profile enrichment incomplete", zap.Error(err))
	}
	return count, nil
}

// refreshFightRuFighters re-scrapes the profile pages fight.ru
// rankings left behind. It supplies Russian names and metric stats
// for fighters Wikipedia lists under transliterated names.
func (in *Ingester) refreshFightRuFighters(ctx context.Context) (int, error) {
	return in.enrichProfilesCount(ctx, "https://fight.ru")
}

// rosterFighter converts a roster listing row into a fighter upsert.
func rosterFighter(row scrape.RosterRow) model.Fighter {
	f := model.Fighter{
		NameEN:      row.Name,
		Country:     row.Country,
		ProfileURL:  row.ProfileURL,
		Nickname:    row.Nickname,
		WeightClass: row.WeightClass,
		Age:         row.Age,
		HeightCm:    row.HeightCm,
		WeightKg:    row.WeightKg,
		ReachCm:     row.ReachCm,
		UFCRecord:   row.UFCRecord,
		MMARecord:   row.MMARecord,
		Career:      "UFC",
	}
	if rec, err := normalize.ParseRecord(row.MMARecord); err == nil && rec.Wins+rec.Losses > 0 {
		f.Wins, f.Losses = rec.Wins, rec.Losses
		f.Draws, f.NoContests = rec.Draws, rec.NoContests
	}
	return f
}

// enrichProfiles follows stored profile URLs under the given host
// prefix and merges whatever the page knows.
func (in *Ingester) enrichProfiles(ctx context.Context, hostPrefix string) error {
	_, err := in.enrichProfilesCount(ctx, hostPrefix)
	return err
}

func (in *Ingester) enrichProfilesCount(ctx context.Context, hostPrefix string) (int, error) {
	fighters, err := in.profileCandidates(ctx, hostPrefix)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, f := range fighters {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		var profile scrape.Profile
		if strings.HasPrefix(hostPrefix, "https://fight.ru") {
			profile, err = in.fightru.Profile(ctx, f.ProfileURL)
		} else {
			profile, err = in.wikipedia.Profile(ctx, f.ProfileURL)
		}
		if err != nil {
			in.log.Warn("profile fetch failed",
				zap.String("url", f.ProfileURL), zap.Error(err))
			metrics.RowProcessed("profile", "skipped")
			continue
		}
		merged := mergeProfile(f, profile)
		merged.ID = f.ID
		if _, err := in.store.UpsertFighter(ctx, &merged); err != nil {
			in.log.Warn("profile merge failed",
				zap.Int64("fighter_id", f.ID), zap.Error(err))
			metrics.RowProcessed("profile", "skipped")
			continue
		}
		if profile.Breakdown != nil || len(profile.CareerFights) > 0 {
			if err := in.applyCareerRecord(ctx, merged, profile); err != nil {
				in.log.Warn("career record skipped",
					zap.Int64("fighter_id", f.ID), zap.Error(err))
			}
		}
		metrics.RowProcessed("profile", "ok")
		count++
	}
	return count, nil
}

// profileCandidates picks fighters whose profile lives under the host
// and whose detail fields are still blank, most recent first.
func (in *Ingester) profileCandidates(ctx context.Context, hostPrefix string) ([]model.Fighter, error) {
	rows, err := in.store.DB().QueryContext(ctx,
		`SELECT id, profile_url FROM fighters
		 WHERE profile_url LIKE ?
		   AND (birth_date IS NULL OR height_cm IS NULL)
		 ORDER BY id DESC LIMIT ?`, hostPrefix+"%", maxProfileFetches)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.Fighter
	for rows.Next() {
		var id int64
		var url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, err
		}
		candidates = append(candidates, model.Fighter{ID: id, ProfileURL: url})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []model.Fighter
	for _, c := range candidates {
		f, err := in.store.GetFighter(ctx, c.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// applyCareerRecord folds the profile's record section into the
// fighter's ledger: the by-method breakdown, totals tallied off the
// career table, and the average fight time. Career bouts whose event
// is already stored get attached as fights.
func (in *Ingester) applyCareerRecord(ctx context.Context, fighter model.Fighter, p scrape.Profile) error {
	rec := model.FightRecord{
		FighterID:  fighter.ID,
		Wins:       fighter.Wins,
		Losses:     fighter.Losses,
		Draws:      fighter.Draws,
		NoContests: fighter.NoContests,
	}

	var wins, losses, draws, nc, totalSeconds, timed int
	for _, cf := range p.CareerFights {
		switch {
		case strings.HasPrefix(cf.Result, "Win"):
			wins++
		case strings.HasPrefix(cf.Result, "Loss"):
			losses++
		case strings.Contains(cf.Result, "Draw"):
			draws++
		case strings.Contains(cf.Result, "NC"), strings.Contains(cf.Result, "No Contest"):
			nc++
		}
		if secs, err := normalize.MMSSToSeconds(cf.Time); err == nil {
			totalSeconds += secs
			timed++
		}
	}
	if wins+losses > 0 {
		rec.Wins, rec.Losses, rec.Draws, rec.NoContests = wins, losses, draws, nc
	}
	if timed > 0 {
		avg := float64(totalSeconds) / float64(timed)
		rec.AvgFightTimeSeconds = &avg
	}
	if bd := p.Breakdown; bd != nil {
		rec.WinsByKO, rec.LossesByKO = &bd.WinsByKO, &bd.LossesByKO
		rec.WinsBySubmission, rec.LossesBySubmission = &bd.WinsBySubmission, &bd.LossesBySubmission
		rec.WinsByDecision, rec.LossesByDecision = &bd.WinsByDecision, &bd.LossesByDecision
		rec.WinsByDQ, rec.LossesByDQ = &bd.WinsByDQ, &bd.LossesByDQ
	}
	if _, err := in.store.UpsertFightRecord(ctx, rec); err != nil {
		return err
	}

	for _, cf := range p.CareerFights {
		in.attachCareerFight(ctx, fighter.ID, cf)
	}
	return nil
}

// attachCareerFight stores a career bout when both its event and the
// opponent already resolve. Most career bouts predate the stored
// events and fall through silently.
func (in *Ingester) attachCareerFight(ctx context.Context, fighterID int64, cf scrape.CareerFight) {
	eventID, err := in.resolver.Event(ctx, cf.Event)
	if err != nil {
		return
	}
	opponentID, err := in.resolver.Fighter(ctx, cf.Opponent)
	if err != nil {
		in.log.Debug("career bout opponent unresolved",
			zap.String("event", cf.Event), zap.String("opponent", cf.Opponent))
		return
	}
	fight := model.Fight{
		EventID:       eventID,
		Fighter1ID:    fighterID,
		Fighter2ID:    opponentID,
		Method:        cf.Method,
		MethodDetails: cf.MethodDetails,
		Round:         cf.Round,
		Time:          cf.Time,
		FightDate:     cf.Date,
		Notes:         cf.Notes,
	}
	switch {
	case strings.HasPrefix(cf.Result, "Win"):
		winner := fighterID
		fight.WinnerID = &winner
	case strings.HasPrefix(cf.Result, "Loss"):
		winner := opponentID
		fight.WinnerID = &winner
	}
	if _, err := in.store.UpsertFight(ctx, &fight); err != nil {
		in.log.Warn("career bout skipped",
			zap.String("event", cf.Event), zap.Error(err))
		metrics.RowProcessed("fight", "skipped")
		return
	}
	metrics.RowProcessed("fight", "ok")
}

// mergeProfile lifts profile fields onto the stored fighter. Only the
// name keys are kept from the stored row; everything else defers to
// the page when present.
func mergeProfile(f model.Fighter, p scrape.Profile) model.Fighter {
	out := f
	if out.NameEN == "" {
		out.NameEN = p.NameEN
	}
	if out.NameRU == "" {
		out.NameRU = p.NameRU
	}
	if p.FullName != "" {
		out.FullName = p.FullName
	}
	if p.Nickname != "" {
		out.Nickname = p.Nickname
	}
	if p.Country != "" {
		out.Country = p.Country
	}
	if p.CountryFlag != "" {
		out.CountryFlagURL = p.CountryFlag
	}
	if p.ImageURL != "" {
		out.ImageURL = p.ImageURL
	}
	if p.BirthDate != nil {
		out.BirthDate = p.BirthDate
	}
	if p.BirthPlace != "" {
		out.BirthPlace = p.BirthPlace
	}
	if p.Age != nil {
		out.Age = p.Age
	}
	if p.HeightCm != nil {
		out.HeightCm = p.HeightCm
	}
	if p.WeightKg != nil {
		out.WeightKg = p.WeightKg
	}
	if p.ReachCm != nil {
		out.ReachCm = p.ReachCm
	}
	if p.Stance != "" {
		out.Stance = p.Stance
	}
	if p.Team != "" {
		out.Team = p.Team
	}
	if p.Trainer != "" {
		out.Trainer = p.Trainer
	}
	if p.BeltRank != "" {
		out.BeltRank = p.BeltRank
	}
	if p.YearsActive != "" {
		out.YearsActive = p.YearsActive
	}
	if p.FightingOutOf != "" {
		out.FightingOutOf = p.FightingOutOf
	}
	if p.WeightClass != "" {
		out.WeightClass = p.WeightClass
	}
	if rec, err := normalize.ParseRecord(p.Record); err == nil && rec.Wins+rec.Losses > 0 {
		out.Wins, out.Losses = rec.Wins, rec.Losses
		out.Draws, out.NoContests = rec.Draws, rec.NoContests
	}
	return out
}
