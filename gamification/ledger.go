package gamification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mindhavenhq/mindhaven/models"
)

// Award appends a point transaction and bumps the patient's cached balance
// in one transaction. amount must be positive; reason tags the source event.
func (e *Engine) Award(patientID uint, amount int, reason string) (*models.PointTransaction, error) {
	var t *models.PointTransaction
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = e.award(tx, patientID, amount, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// award is the in-transaction write path shared by check-in, activity and
// badge rewards. The balance is incremented with an expression update so
// concurrent awards for different events never lose increments; the level
// is then recomputed from the balance this transaction observes.
func (e *Engine) award(tx *gorm.DB, patientID uint, amount int, reason string) (*models.PointTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	res := tx.Model(&models.Patient{}).
		Where("id = ?", patientID).
		Update("points_total", gorm.Expr("points_total + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrPatientNotFound
	}

	t := &models.PointTransaction{
		PatientID: patientID,
		Amount:    amount,
		Reason:    reason,
		Reference: uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if err := tx.Create(t).Error; err != nil {
		return nil, err
	}

	balance, err := e.balance(tx, patientID)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Patient{}).
		Where("id = ?", patientID).
		Update("level", e.levelFor(balance)).Error; err != nil {
		return nil, err
	}

	pointsAwardedTotal.WithLabelValues(reasonClass(reason)).Add(float64(amount))
	return t, nil
}

// Balance returns the cached point total, which must always equal the sum
// of the patient's transactions.
func (e *Engine) Balance(patientID uint) (int, error) {
	p, err := e.patient(patientID)
	if err != nil {
		return 0, err
	}
	return p.PointsTotal, nil
}

// Transactions lists a patient's ledger entries, newest first.
func (e *Engine) Transactions(patientID uint) ([]models.PointTransaction, error) {
	if _, err := e.patient(patientID); err != nil {
		return nil, err
	}
	var txs []models.PointTransaction
	err := e.db.Where("patient_id = ?", patientID).
		Order("created_at DESC, id DESC").
		Find(&txs).Error
	return txs, err
}

func (e *Engine) balance(tx *gorm.DB, patientID uint) (int, error) {
	var total int
	err := tx.Model(&models.Patient{}).
		Where("id = ?", patientID).
		Select("points_total").
		Scan(&total).Error
	return total, err
}

func (e *Engine) levelFor(points int) int {
	per := e.cfg.PointsPerLevel
	if per <= 0 {
		per = 100
	}
	return points/per + 1
}

// reasonClass collapses per-badge reasons so the metric label stays bounded.
func reasonClass(reason string) string {
	if strings.HasPrefix(reason, "badge:") {
		return "badge"
	}
	return reason
}
