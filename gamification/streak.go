package gamification

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mindhavenhq/mindhaven/models"
)

// DayOf normalizes an instant to its calendar date in loc, stored as UTC
// midnight. All day arithmetic in the engine works on these values; the
// timezone is resolved once at ingestion and never re-derived.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// continueStreak applies the consecutive-day rules for kind on date day and
// persists the new streak together with the advanced last-active date.
//
// First event of the kind starts at 1; the same day is a no-op; the very
// next day increments; any other gap, including a backdated event, resets
// to 1. A backdated event never repairs a broken streak, and the stored
// last-active date only moves forward.
func (e *Engine) continueStreak(tx *gorm.DB, patientID uint, kind models.ActivityKind, day time.Time) (int, error) {
	var p models.Patient
	if err := tx.First(&p, patientID).Error; err != nil {
		return 0, err
	}

	current, last := streakState(&p, kind)

	streak := 1
	switch {
	case last == nil:
		streak = 1
	case sameDay(*last, day):
		streak = current
	case sameDay(last.AddDate(0, 0, 1), day):
		streak = current + 1
	}

	newLast := day
	if last != nil && last.After(day) {
		newLast = *last
	}

	updates := map[string]interface{}{
		streakColumn(kind): streak,
		lastColumn(kind):   newLast,
		"last_active_at": gorm.Expr(
			"CASE WHEN last_active_at IS NULL OR last_active_at < ? THEN ? ELSE last_active_at END", newLast, newLast),
	}
	if err := tx.Model(&models.Patient{}).Where("id = ?", patientID).Updates(updates).Error; err != nil {
		return 0, err
	}
	return streak, nil
}

// CurrentStreak returns the live streak counter for kind.
func (e *Engine) CurrentStreak(patientID uint, kind models.ActivityKind) (int, error) {
	p, err := e.patient(patientID)
	if err != nil {
		return 0, err
	}
	streak, _ := streakState(p, kind)
	return streak, nil
}

// LongestStreak is not tracked live; it is recomputed from the activity
// history on demand as the longest run of consecutive dates of the kind.
func (e *Engine) LongestStreak(patientID uint, kind models.ActivityKind) (int, error) {
	if _, err := e.patient(patientID); err != nil {
		return 0, err
	}
	days, err := e.eventDays(e.db, patientID, kind)
	if err != nil {
		return 0, err
	}

	longest, run := 0, 0
	var prev time.Time
	for i, d := range days {
		if i > 0 && sameDay(prev.AddDate(0, 0, 1), d) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = d
	}
	return longest, nil
}

// replayStreak derives the current streak and last-active date for kind
// purely from the event log: the run of consecutive dates ending at the
// most recent one. Used by the repair operation.
func (e *Engine) replayStreak(tx *gorm.DB, patientID uint, kind models.ActivityKind) (int, *time.Time, error) {
	days, err := e.eventDays(tx, patientID, kind)
	if err != nil {
		return 0, nil, err
	}
	if len(days) == 0 {
		return 0, nil, nil
	}

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if !sameDay(days[i-1].AddDate(0, 0, 1), days[i]) {
			break
		}
		streak++
	}
	last := days[len(days)-1]
	return streak, &last, nil
}

// eventDays returns the distinct activity dates for kind in ascending order.
func (e *Engine) eventDays(tx *gorm.DB, patientID uint, kind models.ActivityKind) ([]time.Time, error) {
	var raw []time.Time
	if err := tx.Model(&models.ActivityEvent{}).
		Distinct("occurred_on").
		Where("patient_id = ? AND kind = ?", patientID, kind).
		Order("occurred_on").
		Pluck("occurred_on", &raw).Error; err != nil {
		return nil, err
	}
	days := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		days = append(days, DayOf(d, time.UTC))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// streakBonus is the caller-side continuation bonus: (streak-1) per-day
// units, optionally capped so very long streaks cannot pay out unbounded.
func (e *Engine) streakBonus(streak int) int {
	if streak <= 1 {
		return 0
	}
	bonus := (streak - 1) * e.cfg.StreakBonusPerDay
	if e.cfg.StreakBonusCap > 0 && bonus > e.cfg.StreakBonusCap {
		bonus = e.cfg.StreakBonusCap
	}
	return bonus
}

func hasStreak(kind models.ActivityKind) bool {
	switch kind {
	case models.ActivityMood, models.ActivityExercise, models.ActivityCheckIn:
		return true
	}
	return false
}

func streakState(p *models.Patient, kind models.ActivityKind) (int, *time.Time) {
	switch kind {
	case models.ActivityMood:
		return p.MoodStreak, p.LastMoodAt
	case models.ActivityExercise:
		return p.ExerciseStreak, p.LastExerciseAt
	case models.ActivityCheckIn:
		return p.CheckInStreak, p.LastCheckInAt
	}
	return 0, nil
}

func streakColumn(kind models.ActivityKind) string {
	switch kind {
	case models.ActivityMood:
		return "mood_streak"
	case models.ActivityExercise:
		return "exercise_streak"
	}
	return "check_in_streak"
}

func lastColumn(kind models.ActivityKind) string {
	switch kind {
	case models.ActivityMood:
		return "last_mood_at"
	case models.ActivityExercise:
		return "last_exercise_at"
	}
	return "last_check_in_at"
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
