package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindhavenhq/mindhaven/config"
	"github.com/mindhavenhq/mindhaven/middleware"
	"github.com/mindhavenhq/mindhaven/models"
	"github.com/mindhavenhq/mindhaven/utils"
)

// AuthController handles the minimal account surface: registration, login,
// logout and profile. Registering provisions the patient aggregate the
// gamification engine operates on; the engine itself never creates one.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new controller instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
	// IANA zone name used for the patient's daily boundaries, e.g. Europe/Berlin.
	Timezone string `json:"timezone"`
}

// Register creates a patient account with a bcrypt password hash.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(username) > 64 || !validUsername(username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be 3-64 letters, digits or '-'")
		return
	}
	if len(req.Password) < 8 {
		utils.Error(ctx, http.StatusBadRequest, 40003, "password must be at least 8 characters")
		return
	}

	timezone := strings.TrimSpace(req.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "unknown timezone")
		return
	}

	var existing models.Patient
	if err := a.db.Where("username = ?", username).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "username already taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to check username")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to hash password")
		return
	}

	patient := models.Patient{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Timezone:     timezone,
		Level:        1,
	}
	if err := a.db.Create(&patient).Error; err != nil {
		utils.Sugar.Errorw("patient registration failed", "username", username, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to create account")
		return
	}

	token, err := utils.GenerateToken(patient.ID, patient.Username, 72*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":   token,
		"patient": publicPatient(patient),
	})
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	var patient models.Patient
	if err := a.db.Where("username = ?", req.Username).First(&patient).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if !utils.CheckPassword(patient.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(patient.ID, patient.Username, 72*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":   token,
		"patient": publicPatient(patient),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(72 * time.Hour)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated patient's own profile.
func (a *AuthController) Me(ctx *gin.Context) {
	patientID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var patient models.Patient
	if err := a.db.First(&patient, patientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "patient not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to load profile")
		return
	}

	utils.Success(ctx, publicPatient(patient))
}

func publicPatient(p models.Patient) gin.H {
	return gin.H{
		"id":             p.ID,
		"username":       p.Username,
		"timezone":       p.Timezone,
		"points_total":   p.PointsTotal,
		"level":          p.Level,
		"checkin_streak": p.CheckInStreak,
		"created_at":     p.CreatedAt,
	}
}

func validUsername(s string) bool {
	for _, r := range s {
		if r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return false
	}
	return true
}

// getUserID extracts the authenticated patient ID placed in the context by
// the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

// isAdmin reports whether the authenticated username is on the configured
// admin list.
func isAdmin(ctx *gin.Context) bool {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	username, _ := value.(string)
	for _, admin := range config.Get().AdminUsernames {
		if strings.EqualFold(admin, username) {
			return true
		}
	}
	return false
}
