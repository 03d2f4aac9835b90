package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindhavenhq/mindhaven/models"
)

func TestRecordActivityPointsPerKind(t *testing.T) {
	engine, db := newTestEngine(t)
	p := newPatient(t, db, "alice")

	cases := []struct {
		kind   models.ActivityKind
		points int
	}{
		{models.ActivityMood, 5},
		{models.ActivityJournal, 15},
		{models.ActivityExercise, 20},
	}
	for _, tc := range cases {
		res, err := engine.RecordActivity(p.ID, tc.kind, day(t, "2026-03-02"), "")
		require.NoError(t, err)
		assert.Equal(t, tc.points, res.PointsAwarded, string(tc.kind))
	}

	balance, err := engine.Balance(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, balance)
}

func TestRecordActivityRejectsInvalidKinds(t *testing.T) {
	engine, db := newTestEngine(t)
	p := newPatient(t, db, "alice")

	_, err := engine.RecordActivity(p.ID, "meditation", time.Time{}, "")
	assert.ErrorIs(t, err, ErrInvalidActivityKind)

	// Check-ins only flow through the check-in service.
	_, err = engine.RecordActivity(p.ID, models.ActivityCheckIn, time.Time{}, "")
	assert.ErrorIs(t, err, ErrInvalidActivityKind)
}

func TestRecordActivityUnknownPatient(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.RecordActivity(77, models.ActivityMood, time.Time{}, "")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestGetStatsAggregates(t *testing.T) {
	engine, db := newTestEngine(t)
	p := newPatient(t, db, "alice")

	_, err := engine.RecordActivity(p.ID, models.ActivityMood, day(t, "2026-03-02"), "")
	require.NoError(t, err)
	_, err = engine.RecordActivity(p.ID, models.ActivityMood, day(t, "2026-03-03"), "")
	require.NoError(t, err)
	_, err = engine.RecordActivity(p.ID, models.ActivityJournal, day(t, "2026-03-03"), "")
	require.NoError(t, err)
	_, err = engine.checkInOn(p.ID, day(t, "2026-03-03"))
	require.NoError(t, err)

	stats, err := engine.GetStats(p.ID)
	require.NoError(t, err)

	// 5 + 5 + 15 moods/journal, 10 check-in base, 10 first_light reward.
	assert.Equal(t, 45, stats.PointsTotal)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 2, stats.MoodStreak)
	assert.Equal(t, 1, stats.CheckInStreak)
	assert.Equal(t, 2, stats.TotalsByKind["mood"])
	assert.Equal(t, 1, stats.TotalsByKind["journal"])
	assert.Equal(t, 1, stats.TotalsByKind["checkin"])
	require.NotNil(t, stats.LastActiveAt)
	assert.Equal(t, day(t, "2026-03-03"), stats.LastActiveAt.UTC())

	require.Len(t, stats.Badges, 1)
	assert.Equal(t, "first_light", stats.Badges[0].Badge.Name)
}

func TestRepairAggregatesRebuildsFromLogs(t *testing.T) {
	engine, db := newTestEngine(t)
	p := newPatient(t, db, "alice")

	for _, d := range []string{"2026-03-02", "2026-03-03", "2026-03-04"} {
		_, err := engine.checkInOn(p.ID, day(t, d))
		require.NoError(t, err)
	}
	before, err := engine.GetStats(p.ID)
	require.NoError(t, err)

	// Corrupt the cached aggregates.
	require.NoError(t, db.Model(&models.Patient{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"points_total":    9999,
			"level":           42,
			"check_in_streak": 0,
			"last_active_at":  nil,
		}).Error)

	after, err := engine.RepairAggregates(p.ID)
	require.NoError(t, err)

	assert.Equal(t, before.PointsTotal, after.PointsTotal)
	assert.Equal(t, before.Level, after.Level)
	assert.Equal(t, 3, after.CheckInStreak)
	require.NotNil(t, after.LastActiveAt)
	assert.Equal(t, day(t, "2026-03-04"), after.LastActiveAt.UTC())
}

func TestRepairAggregatesUnknownPatient(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.RepairAggregates(55)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
