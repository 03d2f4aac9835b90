package models

import "time"

// DailyCheckIn stores one row per patient per calendar day. The unique index
// on (patient_id, checkin_date) is what makes check-in idempotent under
// concurrent requests: the second insert conflicts instead of double paying,
// and the stored reward summary is replayed to the caller.
type DailyCheckIn struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PatientID      uint      `gorm:"uniqueIndex:idx_checkin_patient_date,priority:1;not null" json:"patient_id"`
	CheckinDate    time.Time `gorm:"uniqueIndex:idx_checkin_patient_date,priority:2;not null" json:"checkin_date"`
	PointsAwarded  int       `json:"points_awarded"`
	StreakBonus    int       `json:"streak_bonus"`
	StreakAchieved int       `json:"streak_achieved"`
	CreatedAt      time.Time `json:"created_at"`
}
