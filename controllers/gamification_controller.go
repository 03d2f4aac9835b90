package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindhavenhq/mindhaven/gamification"
	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

// GamificationController exposes the engine's write and read paths: daily
// check-in, activity ingestion, patient stats and badges.
type GamificationController struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewGamificationController creates a new controller instance.
func NewGamificationController(db *gorm.DB, engine *gamification.Engine) *GamificationController {
	return &GamificationController{db: db, engine: engine}
}

// CheckIn records the caller's daily check-in and returns the reward
// summary. Repeats within the same calendar day replay the first result.
func (g *GamificationController) CheckIn(ctx *gin.Context) {
	patientID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	result, err := g.engine.CheckIn(patientID)
	if err != nil {
		if errors.Is(err, gamification.ErrPatientNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "patient not found")
			return
		}
		utils.Sugar.Errorw("check-in failed", "patient_id", patientID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to record check-in")
		return
	}

	utils.Success(ctx, result)
}

// CheckInStatus reports whether the caller already checked in today plus
// the current and longest streak.
func (g *GamificationController) CheckInStatus(ctx *gin.Context) {
	patientID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	checkedIn, err := g.engine.HasCheckedInToday(patientID)
	if err != nil {
		if errors.Is(err, gamification.ErrPatientNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "patient not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load check-in status")
		return
	}
	current, err := g.engine.CurrentStreak(patientID, models.ActivityCheckIn)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load check-in status")
		return
	}
	longest, err := g.engine.LongestStreak(patientID, models.ActivityCheckIn)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load check-in status")
		return
	}

	utils.Success(ctx, gin.H{
		"checked_in_today": checkedIn,
		"current_streak":   current,
		"longest_streak":   longest,
	})
}

type recordActivityRequest struct {
	Kind string `json:"kind" binding:"required"`
	// OccurredOn is the caller's local calendar date (2006-01-02), already
	// normalized on the client. Empty means today in the patient's timezone.
	OccurredOn string `json:"occurred_on"`
	Metadata   string `json:"metadata"`
}

// RecordActivity ingests a mood, journal or exercise event and returns the
// points, streak and badges it triggered.
func (g *GamificationController) RecordActivity(ctx *gin.Context) {
	patientID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req recordActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request body")
		return
	}

	var occurredOn time.Time
	if req.OccurredOn != "" {
		day, err := time.Parse(time.DateOnly, req.OccurredOn)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40021, "occurred_on must be YYYY-MM-DD")
			return
		}
		occurredOn = day
	}

	result, err := g.engine.RecordActivity(patientID, models.ActivityKind(req.Kind), occurredOn, utils.Sanitize(req.Metadata))
	if err != nil {
		switch {
		case errors.Is(err, gamification.ErrInvalidActivityKind):
			utils.Error(ctx, http.StatusBadRequest, 40022, "invalid activity kind")
		case errors.Is(err, gamification.ErrPatientNotFound):
			utils.Error(ctx, http.StatusNotFound, 40410, "patient not found")
		default:
			utils.Sugar.Errorw("record activity failed", "patient_id", patientID, "kind", req.Kind, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to record activity")
		}
		return
	}

	utils.Success(ctx, result)
}

// MyStats returns the caller's aggregate dashboard stats.
func (g *GamificationController) MyStats(ctx *gin.Context) {
	patientID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	stats, err := g.engine.GetStats(patientID)
	if err != nil {
		if errors.Is(err, gamification.ErrPatientNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "patient not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load stats")
		return
	}

	utils.Success(ctx, stats)
}

// MyBadges lists the full badge catalog with the caller's unlock state and
// progress toward locked badges.
func (g *GamificationController) MyBadges(ctx *gin.Context) {
	patientID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	badges, err := g.engine.Badges(patientID)
	if err != nil {
		if errors.Is(err, gamification.ErrPatientNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "patient not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load badges")
		return
	}

	utils.Success(ctx, badges)
}

// RecomputeAggregates rebuilds a patient's cached point/streak aggregates
// from the append-only logs. Admin-only repair path.
func (g *GamificationController) RecomputeAggregates(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40310, "admin access required")
		return
	}

	id64, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid patient id")
		return
	}

	stats, err := g.engine.RepairAggregates(uint(id64))
	if err != nil {
		if errors.Is(err, gamification.ErrPatientNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "patient not found")
			return
		}
		utils.Sugar.Errorw("aggregate repair failed", "patient_id", id64, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to recompute aggregates")
		return
	}

	utils.Success(ctx, stats)
}
