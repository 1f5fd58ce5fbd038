package handlers

import (
	"errors"

	"medibook-server/internal/config"
	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg}
}

// RegisterPatientRequest represents the request body for patient registration.
type RegisterPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterDoctorRequest represents the request body for doctor registration.
type RegisterDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Specialization string `json:"specialization" binding:"required"`
}

// AuthResponse represents the response body for successful registration or login.
type AuthResponse struct {
	AccessToken  string                  `json:"accessToken"`
	RefreshToken string                  `json:"refreshToken"`
	User         models.AccountSanitized `json:"user"`
}

// emailTaken checks the union of both account tables for an existing email.
func (h *AuthHandler) emailTaken(c *gin.Context, email string) bool {
	_, err := models.FindAccountByEmail(h.DB, email)
	if err == nil {
		utils.BadRequest(c, "An account with this email already exists")
		return true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return true
	}
	return false
}

// issueSession generates a token pair and primes the account's refresh slot.
func (h *AuthHandler) issueSession(c *gin.Context, account *models.Account) (*AuthResponse, bool) {
	accessToken, refreshToken, err := utils.GenerateTokens(account, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return nil, false
	}

	digest := utils.RefreshTokenDigest(refreshToken)
	if err := models.SetRefreshTokenHash(h.DB, account.ID, account.Role, &digest); err != nil {
		utils.InternalServerError(c, "Failed to store refresh token: "+err.Error())
		return nil, false
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         account.Sanitize(),
	}, true
}

// RegisterPatient handles patient registration.
func (h *AuthHandler) RegisterPatient(c *gin.Context) {
	var req RegisterPatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if h.emailTaken(c, req.Email) {
		return
	}

	user := models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  models.RolePatient,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create account: "+err.Error())
		return
	}

	account, err := models.FindAccountByID(h.DB, user.ID, user.Role)
	if err != nil {
		utils.InternalServerError(c, "Failed to load created account: "+err.Error())
		return
	}

	resp, ok := h.issueSession(c, account)
	if !ok {
		return
	}
	utils.Created(c, "Patient registered successfully", resp)
}

// RegisterDoctor handles doctor registration.
func (h *AuthHandler) RegisterDoctor(c *gin.Context) {
	var req RegisterDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if h.emailTaken(c, req.Email) {
		return
	}

	doctor := models.Doctor{
		Name:           req.Name,
		Email:          req.Email,
		Specialization: req.Specialization,
		Role:           models.RoleDoctor,
	}
	if err := doctor.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to create account: "+err.Error())
		return
	}

	account, err := models.FindAccountByID(h.DB, doctor.ID, doctor.Role)
	if err != nil {
		utils.InternalServerError(c, "Failed to load created account: "+err.Error())
		return
	}

	resp, ok := h.issueSession(c, account)
	if !ok {
		return
	}
	utils.Created(c, "Doctor registered successfully", resp)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles login for all account kinds.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, err := models.FindAccountByEmail(h.DB, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !account.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	resp, ok := h.issueSession(c, account)
	if !ok {
		return
	}
	utils.Success(c, "Login successful", resp)
}

// RefreshRequest represents the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshResponse represents the response body for successful token refresh.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates a refresh token: the presented token must verify, its
// subject must still resolve to an account, and its digest must match the
// account's single stored slot. A rotated-out token fails the digest check.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	claims, err := utils.ValidateToken(req.RefreshToken, h.Cfg.JWTSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}

	account, err := models.FindAccountByEmail(h.DB, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid refresh token")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if account.ID != claims.Subject || account.RefreshTokenHash == nil {
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}

	if !utils.DigestEqual(*account.RefreshTokenHash, utils.RefreshTokenDigest(req.RefreshToken)) {
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(account, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return
	}

	// Overwriting the slot invalidates the token that was just presented.
	digest := utils.RefreshTokenDigest(refreshToken)
	if err := models.SetRefreshTokenHash(h.DB, account.ID, account.Role, &digest); err != nil {
		utils.InternalServerError(c, "Failed to store refresh token: "+err.Error())
		return
	}

	utils.Success(c, "Access token refreshed successfully", RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Logout clears the caller's refresh slot. Idempotent: logging out twice is
// not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if err := models.SetRefreshTokenHash(h.DB, userID, userRole, nil); err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}

	utils.Success(c, "Logged out successfully", nil)
}
