package source

import (
	"context"
	"database/sql"
	"fmt"
)

// QualityReport holds completeness percentages per data type. The
// manager surfaces these for diagnostics and never gates on them.
type QualityReport struct {
	Fighters   float64 `json:"fighters"`
	Events     float64 `json:"events"`
	Fights     float64 `json:"fights"`
	FightStats float64 `json:"fight_stats"`
}

// ValidateDataQuality computes what share of stored rows carry their
// key detail fields: fighters with physical stats, events with a date
// and venue, fights with a method, fights with any stat lines.
func (m *Manager) ValidateDataQuality(ctx context.Context) (QualityReport, error) {
	if m.store == nil {
		return QualityReport{}, nil
	}
	db := m.store.DB()

	var report QualityReport
	checks := []struct {
		query string
		dst   *float64
	}{
		{`SELECT COUNT(*), SUM(CASE WHEN height_cm IS NOT NULL AND weight_kg IS NOT NULL THEN 1 ELSE 0 END)
		  FROM fighters`, &report.Fighters},
		{`SELECT COUNT(*), SUM(CASE WHEN date IS NOT NULL AND venue <> '' THEN 1 ELSE 0 END)
		  FROM events`, &report.Events},
		{`SELECT COUNT(*), SUM(CASE WHEN method <> '' THEN 1 ELSE 0 END)
		  FROM fights`, &report.Fights},
		{`SELECT COUNT(*), SUM(CASE WHEN id IN (SELECT DISTINCT fight_id FROM fight_stats) THEN 1 ELSE 0 END)
		  FROM fights`, &report.FightStats},
	}
	for _, c := range checks {
		var (
			total    int
			complete sql.NullInt64
		)
		if err := db.QueryRowContext(ctx, c.query).Scan(&total, &complete); err != nil {
			return QualityReport{}, fmt.Errorf("source: data quality check: %w", err)
		}
		if total > 0 {
			*c.dst = float64(complete.Int64) / float64(total) * 100
		}
	}
	return report, nil
}
