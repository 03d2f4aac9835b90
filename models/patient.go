package models

import (
	"time"

	"gorm.io/gorm"
)

// Patient represents a gamified platform account. Passwords are stored as
// bcrypt hashes only. The points/streak columns are a cached view of the
// append-only transaction and activity logs; they are mutated only inside
// engine transactions and can be rebuilt from the logs at any time.
type Patient struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"size:255" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	// IANA zone name used to resolve the patient's calendar day boundary.
	Timezone       string     `gorm:"size:64;default:UTC" json:"timezone"`
	PointsTotal    int        `gorm:"default:0" json:"points_total"`
	Level          int        `gorm:"default:1" json:"level"`
	MoodStreak     int        `gorm:"default:0" json:"mood_streak"`
	ExerciseStreak int        `gorm:"default:0" json:"exercise_streak"`
	CheckInStreak  int        `gorm:"default:0" json:"checkin_streak"`
	LastMoodAt     *time.Time `json:"last_mood_at"`
	LastExerciseAt *time.Time `json:"last_exercise_at"`
	LastCheckInAt  *time.Time `json:"last_checkin_at"`
	LastActiveAt   *time.Time `json:"last_active_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Level == 0 {
		p.Level = 1
	}
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (p *Patient) BeforeUpdate(tx *gorm.DB) error {
	p.UpdatedAt = time.Now()
	return nil
}

// Location resolves the patient's timezone, falling back to UTC when the
// stored name is empty or unknown.
func (p *Patient) Location() *time.Location {
	if p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}
