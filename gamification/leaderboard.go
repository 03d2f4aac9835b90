package gamification

import (
	"database/sql"
	"time"

	"github.com/mindhavenhq/mindhaven/models"
)

// Period selects the leaderboard time window.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query parameter onto a known period, defaulting to
// all-time for an empty value.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case PeriodAll, "":
		return PeriodAll, true
	case PeriodWeek:
		return PeriodWeek, true
	case PeriodMonth:
		return PeriodMonth, true
	}
	return "", false
}

// LeaderboardEntry is one ranked row; it is derived on read and never
// stored. Ordering is period points descending with patient id ascending as
// the tie-break, so equal scores always appear in the same relative order.
type LeaderboardEntry struct {
	Position     int    `json:"position"`
	PatientID    uint   `json:"patient_id"`
	Username     string `json:"username"`
	Level        int    `json:"level"`
	PeriodPoints int    `json:"period_points"`
}

// Rank computes one leaderboard page as a snapshot read over the ledger.
// All-time ranking uses the cached totals; windowed ranking sums the point
// transactions created inside the period.
func (e *Engine) Rank(period Period, limit, offset int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if max := e.cfg.LeaderboardMaxPageSize; max > 0 && limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}

	entries := []LeaderboardEntry{}
	if period == PeriodAll {
		rows := []struct {
			ID          uint
			Username    string
			Level       int
			PointsTotal int
		}{}
		if err := e.db.Model(&models.Patient{}).
			Select("id, username, level, points_total").
			Order("points_total DESC, id ASC").
			Limit(limit).Offset(offset).
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for i, r := range rows {
			entries = append(entries, LeaderboardEntry{
				Position:     offset + i + 1,
				PatientID:    r.ID,
				Username:     r.Username,
				Level:        r.Level,
				PeriodPoints: r.PointsTotal,
			})
		}
		return entries, nil
	}

	rows := []struct {
		PatientID uint
		Username  string
		Level     int
		Points    int
	}{}
	if err := e.db.Raw(`
		SELECT t.patient_id AS patient_id, p.username AS username, p.level AS level, SUM(t.amount) AS points
		FROM point_transactions t
		JOIN patients p ON p.id = t.patient_id
		WHERE t.created_at >= ?
		GROUP BY t.patient_id, p.username, p.level
		ORDER BY points DESC, patient_id ASC
		LIMIT ? OFFSET ?`,
		periodStart(period, time.Now()), limit, offset).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{
			Position:     offset + i + 1,
			PatientID:    r.PatientID,
			Username:     r.Username,
			Level:        r.Level,
			PeriodPoints: r.Points,
		})
	}
	return entries, nil
}

// PositionOf returns the patient's 1-based rank for the period, or nil when
// the patient has no qualifying point transactions inside it. Uses the same
// ordering and tie-break as Rank.
func (e *Engine) PositionOf(patientID uint, period Period) (*int, error) {
	if _, err := e.patient(patientID); err != nil {
		return nil, err
	}

	since := time.Time{}
	if period != PeriodAll {
		since = periodStart(period, time.Now())
	}

	var mine sql.NullInt64
	if err := e.db.Raw(`
		SELECT SUM(amount) FROM point_transactions
		WHERE patient_id = ? AND created_at >= ?`,
		patientID, since).Scan(&mine).Error; err != nil {
		return nil, err
	}
	if !mine.Valid {
		return nil, nil
	}

	var ahead int
	if err := e.db.Raw(`
		SELECT COUNT(*) FROM (
			SELECT patient_id, SUM(amount) AS pts
			FROM point_transactions
			WHERE created_at >= ?
			GROUP BY patient_id
		) ranked
		WHERE ranked.pts > ? OR (ranked.pts = ? AND ranked.patient_id < ?)`,
		since, mine.Int64, mine.Int64, patientID).Scan(&ahead).Error; err != nil {
		return nil, err
	}

	position := ahead + 1
	return &position, nil
}

// periodStart resolves the inclusive window start: Monday 00:00 UTC of the
// current ISO week, or the first of the current month.
func periodStart(period Period, now time.Time) time.Time {
	now = now.UTC()
	switch period {
	case PeriodWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday closes the ISO week
		}
		monday := now.AddDate(0, 0, -(weekday - 1))
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
