package gamification

import "errors"

var (
	// ErrPatientNotFound means the referenced patient aggregate does not
	// exist. The engine never provisions patients implicitly.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrInvalidAmount rejects non-positive point awards before any write.
	ErrInvalidAmount = errors.New("point amount must be a positive integer")

	// ErrInvalidActivityKind rejects unknown activity kinds, and CHECKIN
	// events submitted through RecordActivity instead of CheckIn.
	ErrInvalidActivityKind = errors.New("invalid activity kind")
)
