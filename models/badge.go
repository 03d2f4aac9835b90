package models

import "time"

// BadgeCriteria names the quantitative stat a badge threshold is compared
// against. Upvotes come from the community module, which only reports the
// current count when it triggers an evaluation.
type BadgeCriteria string

const (
	CriteriaTotalCheckIns  BadgeCriteria = "total_checkins"
	CriteriaCheckInStreak  BadgeCriteria = "checkin_streak"
	CriteriaTotalMoods     BadgeCriteria = "total_moods"
	CriteriaTotalJournals  BadgeCriteria = "total_journals"
	CriteriaTotalExercises BadgeCriteria = "total_exercises"
	CriteriaPointsTotal    BadgeCriteria = "points_total"
	CriteriaUpvotes        BadgeCriteria = "upvotes_received"
)

// Badge is a static catalog entry seeded at migration time.
type Badge struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Title        string        `gorm:"size:128" json:"title"`
	Description  string        `gorm:"size:255" json:"description"`
	Criteria     BadgeCriteria `gorm:"size:32;index;not null" json:"criteria"`
	Threshold    int           `gorm:"not null" json:"threshold"`
	PointsReward int           `gorm:"not null" json:"points_reward"`
	CreatedAt    time.Time     `json:"created_at"`
}

// PatientBadge joins patients to unlocked badges. The composite unique index
// enforces at-most-once unlocking at the store level; a conflicting insert
// is treated as "already unlocked", never as a second award.
type PatientBadge struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PatientID  uint      `gorm:"uniqueIndex:idx_patient_badge,priority:1;not null" json:"patient_id"`
	BadgeID    uint      `gorm:"uniqueIndex:idx_patient_badge,priority:2;not null" json:"badge_id"`
	UnlockedAt time.Time `json:"unlocked_at"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
}

// BadgeCatalog is the built-in achievement set. Seeding is idempotent by
// badge name, so redeploys never duplicate or re-award entries.
var BadgeCatalog = []Badge{
	{Name: "first_light", Title: "First Light", Description: "Complete your first daily check-in", Criteria: CriteriaTotalCheckIns, Threshold: 1, PointsReward: 10},
	{Name: "week_of_calm", Title: "Week of Calm", Description: "Check in seven days in a row", Criteria: CriteriaCheckInStreak, Threshold: 7, PointsReward: 50},
	{Name: "monthly_devotion", Title: "Monthly Devotion", Description: "Keep a 30 day check-in streak", Criteria: CriteriaCheckInStreak, Threshold: 30, PointsReward: 200},
	{Name: "mood_mapper", Title: "Mood Mapper", Description: "Log your mood 10 times", Criteria: CriteriaTotalMoods, Threshold: 10, PointsReward: 30},
	{Name: "inner_voice", Title: "Inner Voice", Description: "Write 5 journal entries", Criteria: CriteriaTotalJournals, Threshold: 5, PointsReward: 30},
	{Name: "breathing_warrior", Title: "Breathing Warrior", Description: "Complete 10 exercises", Criteria: CriteriaTotalExercises, Threshold: 10, PointsReward: 40},
	{Name: "exercise_devotee", Title: "Exercise Devotee", Description: "Complete 50 exercises", Criteria: CriteriaTotalExercises, Threshold: 50, PointsReward: 100},
	{Name: "point_collector", Title: "Point Collector", Description: "Earn 500 points", Criteria: CriteriaPointsTotal, Threshold: 500, PointsReward: 50},
	{Name: "community_favorite", Title: "Community Favorite", Description: "Receive 25 upvotes from the community", Criteria: CriteriaUpvotes, Threshold: 25, PointsReward: 40},
}
