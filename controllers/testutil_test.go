package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mindhavenhq/mindhaven/config"
	"github.com/mindhavenhq/mindhaven/gamification"
	"github.com/mindhavenhq/mindhaven/middleware"
	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.SetForTesting(config.AppConfig{
		JWTSecret:      "controller-test-secret",
		LogPath:        filepath.Join(os.TempDir(), "mindhaven-controller-test.log"),
		LogLevel:       "error",
		AdminUsernames: []string{"admin"},
	})
	if err := utils.InitLogger(config.Get()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newTestAPI wires the API surface against an isolated in-memory database,
// mirroring the production route layout minus rate limiting.
func newTestAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Patient{},
		&models.ActivityEvent{},
		&models.PointTransaction{},
		&models.DailyCheckIn{},
		&models.Badge{},
		&models.PatientBadge{},
	))
	require.NoError(t, gamification.SeedBadges(db))
	engine, err := gamification.NewEngine(db)
	require.NoError(t, err)

	authController := NewAuthController(db)
	gamificationController := NewGamificationController(db, engine)
	leaderboardController := NewLeaderboardController(db, engine)
	statsController := NewStatsController(db)

	r := gin.New()
	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	api.GET("/stats", statsController.GetStats)
	api.GET("/leaderboard", middleware.AuthOptional(), leaderboardController.GetLeaderboard)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/checkin", gamificationController.CheckIn)
	protected.GET("/checkin/status", gamificationController.CheckInStatus)
	protected.POST("/activities", gamificationController.RecordActivity)
	protected.GET("/me/stats", gamificationController.MyStats)
	protected.GET("/me/badges", gamificationController.MyBadges)
	protected.POST("/admin/patients/:id/recompute", gamificationController.RecomputeAggregates)

	return r, db
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// registerPatient creates an account through the API and returns its token.
func registerPatient(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"password": "supersecret",
		"timezone": "UTC",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}
