package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, env.Code)

	var result struct {
		IsNewCheckIn  bool `json:"is_new_checkin"`
		CurrentStreak int  `json:"current_streak"`
		PointsAwarded int  `json:"points_awarded"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.IsNewCheckIn)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Equal(t, 10, result.PointsAwarded)

	// Same-day repeat replays the original result.
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.False(t, result.IsNewCheckIn)
	assert.Equal(t, 10, result.PointsAwarded)
}

func TestCheckInRequiresAuth(t *testing.T) {
	r, _ := newTestAPI(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/checkin", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckInStatusEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/checkin/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		CheckedInToday bool `json:"checked_in_today"`
		CurrentStreak  int  `json:"current_streak"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.CheckedInToday)

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/checkin/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.CheckedInToday)
	assert.Equal(t, 1, status.CurrentStreak)
}

func TestRecordActivityEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/activities", token, gin.H{
		"kind":     "mood",
		"metadata": "feeling good",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		PointsAwarded int `json:"points_awarded"`
		CurrentStreak int `json:"current_streak"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 5, result.PointsAwarded)
	assert.Equal(t, 1, result.CurrentStreak)
}

func TestRecordActivityValidation(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/activities", token, gin.H{
		"kind": "meditation",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40022, env.Code)

	// Check-ins must use the dedicated endpoint.
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/activities", token, gin.H{
		"kind": "checkin",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40022, env.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/activities", token, gin.H{
		"kind":        "mood",
		"occurred_on": "03/02/2026",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40021, env.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/activities", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyStatsEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/activities", token, gin.H{"kind": "journal"})
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/me/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		PointsTotal   int            `json:"points_total"`
		Level         int            `json:"level"`
		CheckInStreak int            `json:"checkin_streak"`
		TotalsByKind  map[string]int `json:"totals_by_kind"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	// 15 journal + 10 check-in + 10 first_light reward.
	assert.Equal(t, 35, stats.PointsTotal)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 1, stats.CheckInStreak)
	assert.Equal(t, 1, stats.TotalsByKind["journal"])
	assert.Equal(t, 1, stats.TotalsByKind["checkin"])
}

func TestMyBadgesEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/me/badges", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var badges []struct {
		Badge struct {
			Name string `json:"name"`
		} `json:"badge"`
		Unlocked bool    `json:"unlocked"`
		Progress float64 `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &badges))
	require.NotEmpty(t, badges)

	unlockedFirst := false
	for _, b := range badges {
		if b.Badge.Name == "first_light" {
			unlockedFirst = b.Unlocked
		}
	}
	assert.True(t, unlockedFirst)
}

func TestRecomputeRequiresAdmin(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/admin/patients/1/recompute", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40310, env.Code)

	adminToken := registerPatient(t, r, "admin")
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/admin/patients/1/recompute", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/admin/patients/999/recompute", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
