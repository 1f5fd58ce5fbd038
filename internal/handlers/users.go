package handlers

import (
	"errors"

	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler handles self-service profile requests for every account kind.
type UserHandler struct {
	DB *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// GetMe fetches the authenticated principal's profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	account, err := models.FindAccountByID(h.DB, userID, userRole)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Profile fetched successfully", account.Sanitize())
}

// UpdateMeRequest represents the request body for updating the caller's
// profile. Changing the password requires the current one.
type UpdateMeRequest struct {
	Name        string `json:"name"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" binding:"omitempty,min=8"`
}

// UpdateMe updates the authenticated principal's name and/or password.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	var req UpdateMeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, err := models.FindAccountByID(h.DB, userID, userRole)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}

	if req.NewPassword != "" {
		if req.OldPassword == "" {
			utils.BadRequest(c, "The current password is required to change the password.")
			return
		}
		if !account.CheckPassword(req.OldPassword) {
			utils.Unauthorized(c, "The current password is incorrect.")
			return
		}
		hashed, err := models.HashPassword(req.NewPassword)
		if err != nil {
			utils.InternalServerError(c, "Failed to hash password: "+err.Error())
			return
		}
		updates["password"] = hashed
	}

	if len(updates) == 0 {
		utils.Success(c, "Nothing to update", account.Sanitize())
		return
	}

	if err := models.UpdateAccountFields(h.DB, userID, userRole, updates); err != nil {
		utils.InternalServerError(c, "Failed to update profile: "+err.Error())
		return
	}

	account, err = models.FindAccountByID(h.DB, userID, userRole)
	if err != nil {
		utils.InternalServerError(c, "Failed to reload profile: "+err.Error())
		return
	}

	utils.Success(c, "Profile updated successfully", account.Sanitize())
}

// DeleteMe removes the authenticated principal's account.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if _, err := models.FindAccountByID(h.DB, userID, userRole); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := models.DeleteAccount(h.DB, userID, userRole); err != nil {
		utils.InternalServerError(c, "Failed to delete account: "+err.Error())
		return
	}

	utils.Success(c, "Account deleted successfully", nil)
}
