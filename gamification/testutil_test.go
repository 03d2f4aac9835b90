package gamification

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mindhavenhq/mindhaven/config"
	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

func TestMain(m *testing.M) {
	config.SetForTesting(config.AppConfig{
		LogPath:  filepath.Join(os.TempDir(), "mindhaven-test.log"),
		LogLevel: "error",
	})
	if err := utils.InitLogger(config.Get()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newTestDB opens an isolated in-memory database per test. The pool is
// pinned to one connection so every query sees the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	require.NoError(t, SeedBadges(db))
	engine, err := NewEngine(db)
	require.NoError(t, err)
	return engine, db
}

func newPatient(t *testing.T, db *gorm.DB, username string) *models.Patient {
	t.Helper()

	p := &models.Patient{
		Username:     username,
		PasswordHash: "irrelevant",
		Timezone:     "UTC",
		Level:        1,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func day(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse(time.DateOnly, s)
	require.NoError(t, err)
	return d
}
