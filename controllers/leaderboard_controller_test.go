package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)

	aliceToken := registerPatient(t, r, "alice")
	bobToken := registerPatient(t, r, "bob")

	// Alice checks in and records an exercise, bob only checks in.
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", aliceToken, nil)
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/activities", aliceToken, gin.H{"kind": "exercise"})
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", bobToken, nil)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Period  string `json:"period"`
		Entries []struct {
			Position     int    `json:"position"`
			Username     string `json:"username"`
			PeriodPoints int    `json:"period_points"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "all", payload.Period)
	require.Len(t, payload.Entries, 2)
	assert.Equal(t, "alice", payload.Entries[0].Username)
	assert.Equal(t, 1, payload.Entries[0].Position)
	assert.Equal(t, "bob", payload.Entries[1].Username)
}

func TestLeaderboardViewerPosition(t *testing.T) {
	r, _ := newTestAPI(t)

	aliceToken := registerPatient(t, r, "alice")
	bobToken := registerPatient(t, r, "bob")
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", aliceToken, nil)
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/activities", aliceToken, gin.H{"kind": "exercise"})
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", bobToken, nil)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/leaderboard?period=week", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		ViewerPosition *int `json:"viewer_position"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotNil(t, payload.ViewerPosition)
	assert.Equal(t, 2, *payload.ViewerPosition)

	// Anonymous requests carry no viewer position.
	w, env = doJSON(t, r, http.MethodGet, "/api/v1/leaderboard?period=week", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var anonPayload struct {
		ViewerPosition *int `json:"viewer_position"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &anonPayload))
	assert.Nil(t, anonPayload.ViewerPosition)
}

func TestLeaderboardRejectsUnknownPeriod(t *testing.T) {
	r, _ := newTestAPI(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/leaderboard?period=year", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40024, env.Code)
}

func TestPlatformStatsEndpoint(t *testing.T) {
	r, _ := newTestAPI(t)

	token := registerPatient(t, r, "alice")
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", token, nil)
	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/activities", token, gin.H{"kind": "mood"})

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		PatientCount  int `json:"patient_count"`
		ActivityCount int `json:"activity_count"`
		PointsIssued  int `json:"points_issued"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.PatientCount)
	assert.Equal(t, 2, stats.ActivityCount)
	// 10 check-in + 10 first_light + 5 mood.
	assert.Equal(t, 25, stats.PointsIssued)
}
