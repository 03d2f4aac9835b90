package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	r, _ := newTestAPI(t)

	token := registerPatient(t, r, "alice")
	assert.NotEmpty(t, token)

	// Duplicate username is rejected.
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, env.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, env.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "wrongwrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestAPI(t)

	cases := []struct {
		name string
		body gin.H
		code int
	}{
		{"short username", gin.H{"username": "ab", "password": "supersecret"}, 40002},
		{"bad characters", gin.H{"username": "al ice", "password": "supersecret"}, 40002},
		{"short password", gin.H{"username": "alice", "password": "short"}, 40003},
		{"unknown timezone", gin.H{"username": "alice", "password": "supersecret", "timezone": "Mars/Olympus"}, 40004},
	}
	for _, tc := range cases {
		w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.name)
		assert.Equal(t, tc.code, env.Code, tc.name)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	r, _ := newTestAPI(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := registerPatient(t, r, "alice")
	w, env := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile struct {
		Username string `json:"username"`
		Level    int    `json:"level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, 1, profile.Level)
}

func TestLogoutRevokesToken(t *testing.T) {
	r, _ := newTestAPI(t)
	token := registerPatient(t, r, "alice")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
