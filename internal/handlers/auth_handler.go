package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/souqly/backend/internal/domain"
	"github.com/souqly/backend/internal/middleware"
	"github.com/souqly/backend/internal/models"
	"github.com/souqly/backend/internal/utils"
)

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	db *gorm.DB
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Phone           string  `json:"phone" binding:"required"`
	Email           *string `json:"email"`
	FullName        string  `json:"full_name" binding:"required"`
	Password        string  `json:"password" binding:"required"`
	ConfirmPassword string  `json:"confirm_password" binding:"required"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"` // required only when 2FA is enabled
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.Password) < utils.MinPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters long"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if result := h.db.Where("phone = ?", phone).First(&existing); result.RowsAffected > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrUserExists.Error()})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	user := models.User{
		Phone:        phone,
		PasswordHash: hash,
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Phone, user.Role, user.Staff())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   userResponse(&user),
		"tokens": tokens,
	})
}

// Login handles user authentication. Unknown phone, wrong password and
// inactive account all answer with the same message so responses cannot be
// used to enumerate accounts.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	phone, err := utils.NormalizePhone(req.Phone)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
		return
	}

	if user.TwoFactorEnabled {
		if req.TOTPCode == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrTwoFactorRequired.Error(), "require_2fa": true})
			return
		}
		if !utils.ValidateTOTP(user.TwoFactorSecret, req.TOTPCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrTwoFactorInvalid.Error()})
			return
		}
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Phone, user.Role, user.Staff())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   userResponse(&user),
		"tokens": tokens,
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := utils.ValidateToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	tokens, err := utils.GenerateTokenPair(user.ID, user.Phone, user.Role, user.Staff())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// GetProfile returns the caller's user record
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// ProfileUpdateRequest represents a partial profile update. Phone and role
// are not updatable here.
type ProfileUpdateRequest struct {
	FullName       *string `json:"full_name"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profile_picture"`
}

// UpdateProfile partially updates the caller's user record
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		if *req.FullName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "full_name must not be empty"})
			return
		}
		updates["full_name"] = *req.FullName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.ProfilePicture != nil {
		updates["profile_picture"] = *req.ProfilePicture
	}

	if len(updates) > 0 {
		if err := h.db.Model(user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
	}

	c.JSON(http.StatusOK, userResponse(user))
}

// SetupTwoFactor generates a new TOTP secret for the caller. The secret is
// stored but two-factor stays disabled until the first code is verified.
func (h *AuthHandler) SetupTwoFactor(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	key, err := utils.GenerateTOTPKey(user.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate two-factor secret"})
		return
	}

	if err := h.db.Model(user).Update("two_factor_secret", key.Secret).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store two-factor secret"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"secret": key.Secret, "url": key.URL})
}

// EnableTwoFactor verifies the first TOTP code and turns two-factor on
func (h *AuthHandler) EnableTwoFactor(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if user.TwoFactorSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "two-factor setup has not been started"})
		return
	}
	if !utils.ValidateTOTP(user.TwoFactorSecret, req.Code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrTwoFactorInvalid.Error()})
		return
	}

	if err := h.db.Model(user).Update("two_factor_enabled", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable two-factor"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Two-factor authentication enabled"})
}

// DisableTwoFactor turns two-factor off for the caller
func (h *AuthHandler) DisableTwoFactor(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"two_factor_enabled": false,
		"two_factor_secret":  "",
	}
	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable two-factor"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Two-factor authentication disabled"})
}

// currentUser loads the authenticated user and writes the error response
// itself when that fails
func (h *AuthHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, exists := middleware.UserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		}
		return nil, false
	}

	return &user, true
}

// userResponse is the public projection of a user record
func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":              user.ID,
		"phone":           user.Phone,
		"email":           user.Email,
		"full_name":       user.FullName,
		"profile_picture": user.ProfilePicture,
		"role":            user.Role,
		"created_at":      user.CreatedAt,
	}
}
