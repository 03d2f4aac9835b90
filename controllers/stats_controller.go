package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

// StatsController provides public platform statistics such as patient counts
// and today's check-in volume.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate platform statistics.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var patientCount int64
	var activityCount int64
	var pointsIssued int64
	var checkinsToday int64

	if err := s.db.Model(&models.Patient{}).Count(&patientCount).Error; err != nil {
		patientCount = 0
	}

	if err := s.db.Model(&models.ActivityEvent{}).Count(&activityCount).Error; err != nil {
		activityCount = 0
	}

	if err := s.db.Model(&models.PointTransaction{}).
		Select("COALESCE(SUM(amount),0)").
		Scan(&pointsIssued).Error; err != nil {
		pointsIssued = 0
	}

	// Check-in rows store each patient's local day at UTC midnight, so the
	// UTC date is a close enough bucket for a public counter.
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.db.Model(&models.DailyCheckIn{}).
		Where("checkin_date = ?", today).
		Count(&checkinsToday).Error; err != nil {
		checkinsToday = 0
	}

	utils.Success(ctx, gin.H{
		"patient_count":  patientCount,
		"activity_count": activityCount,
		"points_issued":  pointsIssued,
		"checkins_today": checkinsToday,
	})
}
