package models

import "time"

// PointTransaction is the append-only audit trail behind Patient.PointsTotal.
// Rows are never updated or deleted; the cached total must always equal the
// sum of a patient's transaction amounts.
type PointTransaction struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PatientID uint   `gorm:"index:idx_tx_patient_created,priority:1;not null" json:"patient_id"`
	Amount    int    `gorm:"not null" json:"amount"`
	// Reason tags the source of the award: mood / journal / exercise /
	// checkin / checkin_bonus / badge:<name>.
	Reason    string    `gorm:"size:128;not null" json:"reason"`
	Reference string    `gorm:"size:36" json:"reference"`
	CreatedAt time.Time `gorm:"index:idx_tx_patient_created,priority:2;index" json:"created_at"`
}
