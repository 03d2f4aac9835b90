package gamification

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

// CheckInResult is the reward summary returned for a daily check-in. Repeat
// calls on the same calendar day replay the stored summary with
// IsNewCheckIn false and award nothing.
type CheckInResult struct {
	IsNewCheckIn  bool           `json:"is_new_checkin"`
	CurrentStreak int            `json:"current_streak"`
	LongestStreak int            `json:"longest_streak"`
	PointsAwarded int            `json:"points_awarded"`
	StreakBonus   int            `json:"streak_bonus"`
	BadgesAwarded []models.Badge `json:"badges_awarded"`
}

// CheckIn records the patient's once-per-day check-in. The day boundary is
// the patient's configured timezone, not server time. Duplicate calls are
// absorbed by the unique (patient_id, checkin_date) row: the insert
// conflicts, nothing is paid twice, and the first call's summary is
// returned. That makes the whole operation safe to retry.
func (e *Engine) CheckIn(patientID uint) (*CheckInResult, error) {
	patient, err := e.patient(patientID)
	if err != nil {
		return nil, err
	}
	return e.checkInOn(patientID, DayOf(time.Now(), patient.Location()))
}

// checkInOn runs the check-in flow for an explicit calendar day.
func (e *Engine) checkInOn(patientID uint, today time.Time) (*CheckInResult, error) {
	result := &CheckInResult{BadgesAwarded: []models.Badge{}}
	err := e.db.Transaction(func(tx *gorm.DB) error {
		record := models.DailyCheckIn{
			PatientID:   patientID,
			CheckinDate: today,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			// Same-day replay: surface the stored summary unchanged.
			var prev models.DailyCheckIn
			if err := tx.Where("patient_id = ? AND checkin_date = ?", patientID, today).
				First(&prev).Error; err != nil {
				return err
			}
			result.IsNewCheckIn = false
			result.CurrentStreak = prev.StreakAchieved
			result.PointsAwarded = prev.PointsAwarded
			result.StreakBonus = prev.StreakBonus
			idempotentReplaysTotal.WithLabelValues("checkin").Inc()
			return nil
		}

		if err := tx.Create(&models.ActivityEvent{
			PatientID:  patientID,
			Kind:       models.ActivityCheckIn,
			OccurredOn: today,
		}).Error; err != nil {
			return err
		}

		streak, err := e.continueStreak(tx, patientID, models.ActivityCheckIn, today)
		if err != nil {
			return err
		}

		base := e.cfg.CheckinBasePoints
		if _, err := e.award(tx, patientID, base, "checkin"); err != nil {
			return err
		}
		bonus := e.streakBonus(streak)
		if bonus > 0 {
			if _, err := e.award(tx, patientID, bonus, "checkin_bonus"); err != nil {
				return err
			}
		}

		totalCheckins, err := e.countEvents(tx, patientID, models.ActivityCheckIn)
		if err != nil {
			return err
		}
		balance, err := e.balance(tx, patientID)
		if err != nil {
			return err
		}
		badges, err := e.evaluate(tx,
			patientID,
			Trigger{Criteria: models.CriteriaCheckInStreak, Value: streak},
			Trigger{Criteria: models.CriteriaTotalCheckIns, Value: totalCheckins},
			Trigger{Criteria: models.CriteriaPointsTotal, Value: balance},
		)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.DailyCheckIn{}).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"points_awarded":  base,
				"streak_bonus":    bonus,
				"streak_achieved": streak,
			}).Error; err != nil {
			return err
		}

		result.IsNewCheckIn = true
		result.CurrentStreak = streak
		result.PointsAwarded = base
		result.StreakBonus = bonus
		result.BadgesAwarded = badges
		return nil
	})
	if err != nil {
		return nil, err
	}

	longest, err := e.LongestStreak(patientID, models.ActivityCheckIn)
	if err != nil {
		return nil, err
	}
	result.LongestStreak = longest

	if result.IsNewCheckIn {
		checkinsTotal.Inc()
		utils.Sugar.Infow("daily check-in recorded",
			"patient_id", patientID,
			"date", today.Format(time.DateOnly),
			"streak", result.CurrentStreak,
			"points", result.PointsAwarded+result.StreakBonus,
		)
	}
	return result, nil
}

// HasCheckedInToday reports whether a check-in row exists for the patient's
// current calendar day.
func (e *Engine) HasCheckedInToday(patientID uint) (bool, error) {
	patient, err := e.patient(patientID)
	if err != nil {
		return false, err
	}
	today := DayOf(time.Now(), patient.Location())

	var n int64
	if err := e.db.Model(&models.DailyCheckIn{}).
		Where("patient_id = ? AND checkin_date = ?", patientID, today).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
