package gamification

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

// Trigger carries one observed stat for badge evaluation: the criteria it
// feeds and its current value.
type Trigger struct {
	Criteria models.BadgeCriteria
	Value    int
}

// Evaluate checks the catalog against the given triggers and unlocks every
// crossed badge at most once, paying its reward through the ledger. Only
// badges newly unlocked by this call are returned.
func (e *Engine) Evaluate(patientID uint, triggers ...Trigger) ([]models.Badge, error) {
	if _, err := e.patient(patientID); err != nil {
		return nil, err
	}
	var unlocked []models.Badge
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		unlocked, err = e.evaluate(tx, patientID, triggers...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unlocked, nil
}

// evaluate is the in-transaction unlock path. The existence check and the
// award are collapsed into one conflict-tolerant insert on the
// (patient_id, badge_id) unique index: if the row already exists the insert
// affects nothing and the badge is treated as already unlocked, so two
// concurrent evaluations can never both pay the reward.
func (e *Engine) evaluate(tx *gorm.DB, patientID uint, triggers ...Trigger) ([]models.Badge, error) {
	unlocked := []models.Badge{}
	for _, trigger := range triggers {
		for _, badge := range e.catalog {
			if badge.Criteria != trigger.Criteria || trigger.Value < badge.Threshold {
				continue
			}

			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PatientBadge{
				PatientID:  patientID,
				BadgeID:    badge.ID,
				UnlockedAt: time.Now(),
			})
			if res.Error != nil {
				return nil, res.Error
			}
			if res.RowsAffected == 0 {
				idempotentReplaysTotal.WithLabelValues("badge").Inc()
				continue
			}

			if badge.PointsReward > 0 {
				if _, err := e.award(tx, patientID, badge.PointsReward, "badge:"+badge.Name); err != nil {
					return nil, err
				}
			}
			badgeUnlocksTotal.Inc()
			utils.Sugar.Infow("badge unlocked", "patient_id", patientID, "badge", badge.Name)
			unlocked = append(unlocked, badge)
		}
	}
	return unlocked, nil
}

// BadgeStatus is the read-path view of one catalog entry for a patient:
// unlocked with its timestamp, or locked with percentage progress.
type BadgeStatus struct {
	Badge      models.Badge `json:"badge"`
	Unlocked   bool         `json:"unlocked"`
	UnlockedAt *time.Time   `json:"unlocked_at,omitempty"`
	Progress   float64      `json:"progress"`
}

// BadgeProgress reports how close value is to threshold as a percentage,
// clamped to 100.
func BadgeProgress(value, threshold int) float64 {
	if threshold <= 0 {
		return 100
	}
	progress := float64(value) / float64(threshold) * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// Badges lists the whole catalog for one patient with unlock state and
// progress toward every still-locked badge.
func (e *Engine) Badges(patientID uint) ([]BadgeStatus, error) {
	patient, err := e.patient(patientID)
	if err != nil {
		return nil, err
	}

	var owned []models.PatientBadge
	if err := e.db.Where("patient_id = ?", patientID).Find(&owned).Error; err != nil {
		return nil, err
	}
	ownedAt := make(map[uint]time.Time, len(owned))
	for _, pb := range owned {
		ownedAt[pb.BadgeID] = pb.UnlockedAt
	}

	values, err := e.criteriaValues(patientID, patient)
	if err != nil {
		return nil, err
	}

	statuses := make([]BadgeStatus, 0, len(e.catalog))
	for _, badge := range e.catalog {
		status := BadgeStatus{Badge: badge}
		if at, ok := ownedAt[badge.ID]; ok {
			status.Unlocked = true
			unlockedAt := at
			status.UnlockedAt = &unlockedAt
			status.Progress = 100
		} else {
			status.Progress = BadgeProgress(values[badge.Criteria], badge.Threshold)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// criteriaValues gathers the current stat behind every engine-owned badge
// criteria. Upvote counts live in the community module, which reports them
// only when it triggers an evaluation, so they read as zero here.
func (e *Engine) criteriaValues(patientID uint, patient *models.Patient) (map[models.BadgeCriteria]int, error) {
	values := map[models.BadgeCriteria]int{
		models.CriteriaCheckInStreak: patient.CheckInStreak,
		models.CriteriaPointsTotal:   patient.PointsTotal,
	}
	for kind, criteria := range map[models.ActivityKind]models.BadgeCriteria{
		models.ActivityMood:     models.CriteriaTotalMoods,
		models.ActivityJournal:  models.CriteriaTotalJournals,
		models.ActivityExercise: models.CriteriaTotalExercises,
		models.ActivityCheckIn:  models.CriteriaTotalCheckIns,
	} {
		total, err := e.countEvents(e.db, patientID, kind)
		if err != nil {
			return nil, err
		}
		values[criteria] = total
	}
	return values, nil
}
