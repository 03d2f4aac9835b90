package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindhavenhq/mindhaven/config"
	"github.com/mindhavenhq/mindhaven/gamification"
	"github.com/mindhavenhq/mindhaven/utils"
)

// LeaderboardController serves ranked patient pages by period.
type LeaderboardController struct {
	db     *gorm.DB
	engine *gamification.Engine
}

// NewLeaderboardController creates a new controller instance.
func NewLeaderboardController(db *gorm.DB, engine *gamification.Engine) *LeaderboardController {
	return &LeaderboardController{db: db, engine: engine}
}

// GetLeaderboard returns one ranked page for ?period=all|week|month with
// ?limit= and ?offset= pagination. Pages are cached in Redis for a short
// TTL; the viewer's own position is always computed fresh.
func (l *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	period, ok := gamification.ParsePeriod(ctx.Query("period"))
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "period must be all, week or month")
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	cfg := config.Get()
	cacheKey := fmt.Sprintf("leaderboard:%s:%d:%d", period, limit, offset)

	var entries []gamification.LeaderboardEntry
	if b, hit := utils.CacheGetBytes(cacheKey); hit {
		if err := json.Unmarshal(b, &entries); err != nil {
			entries = nil
		}
	}
	if entries == nil {
		var err error
		entries, err = l.engine.Rank(period, limit, offset)
		if err != nil {
			utils.Sugar.Errorw("leaderboard query failed", "period", period, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to load leaderboard")
			return
		}
		utils.CacheSetJSON(cacheKey, entries, time.Duration(cfg.LeaderboardCacheTTLSec)*time.Second)
	}

	payload := gin.H{
		"period":  period,
		"entries": entries,
	}

	// Viewer position shows "your rank" even when outside the page.
	if patientID, authed := getUserID(ctx); authed {
		position, err := l.engine.PositionOf(patientID, period)
		if err == nil {
			payload["viewer_position"] = position
		}
	}

	utils.Success(ctx, payload)
}
