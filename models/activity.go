package models

import "time"

// ActivityKind classifies dated wellness activity events.
type ActivityKind string

const (
	ActivityMood     ActivityKind = "mood"
	ActivityJournal  ActivityKind = "journal"
	ActivityExercise ActivityKind = "exercise"
	ActivityCheckIn  ActivityKind = "checkin"
)

// Valid reports whether the kind is one of the known activity classes.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityMood, ActivityJournal, ActivityExercise, ActivityCheckIn:
		return true
	}
	return false
}

// ActivityEvent is one dated activity row per patient. Rows are append-only:
// never updated or deleted. OccurredOn carries the caller's local calendar
// date at UTC midnight; the engine never re-derives the timezone.
type ActivityEvent struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PatientID uint         `gorm:"index:idx_activity_patient_kind,priority:1;not null" json:"patient_id"`
	Kind      ActivityKind `gorm:"size:16;index:idx_activity_patient_kind,priority:2;not null" json:"kind"`
	OccurredOn time.Time   `gorm:"index;not null" json:"occurred_on"`
	// Free-form detail such as exercise category or journal word count.
	// Text notes are sanitized at the API boundary before they land here.
	Metadata  string    `gorm:"size:512" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
