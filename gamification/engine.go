package gamification

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mindhavenhq/mindhaven/config"
	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

// Engine bundles the point ledger, streak tracker, badge engine and
// check-in service behind one facade. Every write path runs as a single
// per-patient transaction; same-day and per-badge duplicates are absorbed
// by store uniqueness constraints instead of prior reads.
type Engine struct {
	db      *gorm.DB
	cfg     config.AppConfig
	catalog []models.Badge
}

// NewEngine loads the badge catalog and returns a ready engine. The catalog
// is static seed data, so it is read once instead of on every evaluation.
func NewEngine(db *gorm.DB) (*Engine, error) {
	e := &Engine{db: db, cfg: config.Get()}
	if err := db.Order("id").Find(&e.catalog).Error; err != nil {
		return nil, err
	}
	return e, nil
}

// SeedBadges inserts any catalog entries missing from the store. Idempotent
// by badge name; existing rows are never modified, so threshold changes in
// code require an explicit migration.
func SeedBadges(db *gorm.DB) error {
	for _, b := range models.BadgeCatalog {
		badge := b
		if err := db.Where("name = ?", badge.Name).FirstOrCreate(&badge).Error; err != nil {
			return err
		}
	}
	return nil
}

// ActivityResult summarizes the rewards triggered by one recorded activity.
type ActivityResult struct {
	PointsAwarded int            `json:"points_awarded"`
	CurrentStreak int            `json:"current_streak"`
	BadgesAwarded []models.Badge `json:"badges_awarded"`
}

// RecordActivity ingests a mood, journal or exercise event that the wellness
// module already persisted on its side, and pays out the configured reward.
// CHECKIN events must go through CheckIn; submitting one here is rejected.
// occurredOn, when non-zero, is the caller's already-normalized local
// calendar date; otherwise today in the patient's timezone is used.
func (e *Engine) RecordActivity(patientID uint, kind models.ActivityKind, occurredOn time.Time, metadata string) (*ActivityResult, error) {
	if !kind.Valid() || kind == models.ActivityCheckIn {
		return nil, ErrInvalidActivityKind
	}

	patient, err := e.patient(patientID)
	if err != nil {
		return nil, err
	}

	day := occurredOn
	if day.IsZero() {
		day = DayOf(time.Now(), patient.Location())
	} else {
		day = DayOf(day, time.UTC)
	}

	result := &ActivityResult{BadgesAwarded: []models.Badge{}}
	err = e.db.Transaction(func(tx *gorm.DB) error {
		event := models.ActivityEvent{
			PatientID:  patientID,
			Kind:       kind,
			OccurredOn: day,
			Metadata:   metadata,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		amount := e.activityPoints(kind)
		if _, err := e.award(tx, patientID, amount, string(kind)); err != nil {
			return err
		}
		result.PointsAwarded = amount

		if hasStreak(kind) {
			streak, err := e.continueStreak(tx, patientID, kind, day)
			if err != nil {
				return err
			}
			result.CurrentStreak = streak
		}

		total, err := e.countEvents(tx, patientID, kind)
		if err != nil {
			return err
		}
		balance, err := e.balance(tx, patientID)
		if err != nil {
			return err
		}
		badges, err := e.evaluate(tx,
			patientID,
			Trigger{Criteria: totalCriteria(kind), Value: total},
			Trigger{Criteria: models.CriteriaPointsTotal, Value: balance},
		)
		if err != nil {
			return err
		}
		result.BadgesAwarded = badges
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.Sugar.Infow("activity recorded",
		"patient_id", patientID,
		"kind", kind,
		"occurred_on", day.Format(time.DateOnly),
		"points", result.PointsAwarded,
		"streak", result.CurrentStreak,
		"badges", len(result.BadgesAwarded),
	)
	return result, nil
}

// StatsSummary is the read-only aggregate surfaced on patient dashboards.
type StatsSummary struct {
	PointsTotal    int                  `json:"points_total"`
	Level          int                  `json:"level"`
	MoodStreak     int                  `json:"mood_streak"`
	ExerciseStreak int                  `json:"exercise_streak"`
	CheckInStreak  int                  `json:"checkin_streak"`
	LastActiveAt   *time.Time           `json:"last_active_at"`
	TotalsByKind   map[string]int       `json:"totals_by_kind"`
	Badges         []models.PatientBadge `json:"badges"`
}

// GetStats collects the cached aggregates, per-kind activity totals and
// unlocked badges for one patient.
func (e *Engine) GetStats(patientID uint) (*StatsSummary, error) {
	patient, err := e.patient(patientID)
	if err != nil {
		return nil, err
	}

	summary := &StatsSummary{
		PointsTotal:    patient.PointsTotal,
		Level:          patient.Level,
		MoodStreak:     patient.MoodStreak,
		ExerciseStreak: patient.ExerciseStreak,
		CheckInStreak:  patient.CheckInStreak,
		LastActiveAt:   patient.LastActiveAt,
		TotalsByKind:   map[string]int{},
	}

	type kindCount struct {
		Kind  string
		Count int
	}
	var counts []kindCount
	if err := e.db.Model(&models.ActivityEvent{}).
		Select("kind, COUNT(*) AS count").
		Where("patient_id = ?", patientID).
		Group("kind").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		summary.TotalsByKind[c.Kind] = c.Count
	}

	if err := e.db.Preload("Badge").
		Where("patient_id = ?", patientID).
		Order("unlocked_at").
		Find(&summary.Badges).Error; err != nil {
		return nil, err
	}
	return summary, nil
}

// RepairAggregates rebuilds the cached patient aggregates from the
// append-only logs: points from the transaction sum, level from points,
// streaks and last-active dates from the activity history. The logs are the
// source of truth; this is the explicit recovery path if the cache drifts.
func (e *Engine) RepairAggregates(patientID uint) (*StatsSummary, error) {
	if _, err := e.patient(patientID); err != nil {
		return nil, err
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var total int
		if err := tx.Model(&models.PointTransaction{}).
			Where("patient_id = ?", patientID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&total).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"points_total": total,
			"level":        e.levelFor(total),
		}

		var lastActive *time.Time
		for _, kind := range []models.ActivityKind{models.ActivityMood, models.ActivityExercise, models.ActivityCheckIn} {
			streak, last, err := e.replayStreak(tx, patientID, kind)
			if err != nil {
				return err
			}
			updates[streakColumn(kind)] = streak
			updates[lastColumn(kind)] = last
			if last != nil && (lastActive == nil || last.After(*lastActive)) {
				lastActive = last
			}
		}
		updates["last_active_at"] = lastActive

		return tx.Model(&models.Patient{}).Where("id = ?", patientID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	utils.Sugar.Infow("patient aggregates repaired", "patient_id", patientID)
	return e.GetStats(patientID)
}

func (e *Engine) patient(patientID uint) (*models.Patient, error) {
	var p models.Patient
	if err := e.db.First(&p, patientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (e *Engine) countEvents(tx *gorm.DB, patientID uint, kind models.ActivityKind) (int, error) {
	var n int64
	err := tx.Model(&models.ActivityEvent{}).
		Where("patient_id = ? AND kind = ?", patientID, kind).
		Count(&n).Error
	return int(n), err
}

func (e *Engine) activityPoints(kind models.ActivityKind) int {
	switch kind {
	case models.ActivityMood:
		return e.cfg.MoodPoints
	case models.ActivityJournal:
		return e.cfg.JournalPoints
	case models.ActivityExercise:
		return e.cfg.ExercisePoints
	}
	return 0
}

func totalCriteria(kind models.ActivityKind) models.BadgeCriteria {
	switch kind {
	case models.ActivityMood:
		return models.CriteriaTotalMoods
	case models.ActivityJournal:
		return models.CriteriaTotalJournals
	case models.ActivityExercise:
		return models.CriteriaTotalExercises
	}
	return models.CriteriaTotalCheckIns
}
