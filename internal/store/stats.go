package store

import (
	"context"
	"fmt"
)

// CountryCount is one entry of the top-countries aggregate.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// Stats is the summary served by the API.
type Stats struct {
	Fighters       int            `json:"fighters"`
	Events         int            `json:"events"`
	Fights         int            `json:"fights"`
	Rankings       int            `json:"rankings"`
	Champions      int            `json:"champions"`
	UpcomingFights int            `json:"upcoming_fights"`
	WeightClasses  int            `json:"weight_classes"`
	TopCountries   []CountryCount `json:"top_countries"`
}

// GetStats aggregates table counts and the top fighter countries.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM fighters`, &st.Fighters},
		{`SELECT COUNT(*) FROM events`, &st.Events},
		{`SELECT COUNT(*) FROM fights`, &st.Fights},
		{`SELECT COUNT(*) FROM upcoming_fights`, &st.UpcomingFights},
		{`SELECT COUNT(*) FROM weight_classes`, &st.WeightClasses},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("%w: stats count: %v", ErrStore, err)
		}
	}
	total, champions, err := s.CountRankings(ctx)
	if err != nil {
		return Stats{}, err
	}
	st.Rankings, st.Champions = total, champions

	rows, err := s.db.QueryContext(ctx,
		`SELECT country, COUNT(*) AS n FROM fighters
		 WHERE country <> ''
		 GROUP BY country
		 ORDER BY n DESC, country ASC
		 LIMIT 10`)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: stats countries: %v", ErrStore, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cc CountryCount
		if err := rows.Scan(&cc.Country, &cc.Count); err != nil {
			return Stats{}, fmt.Errorf("%w: scan country count: %v", ErrStore, err)
		}
		st.TopCountries = append(st.TopCountries, cc)
	}
	return st, rows.Err()
}
