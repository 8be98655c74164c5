package controllers

import (
	"errors"
	"net/http"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/middleware"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=32"`
}

var userInfoProvider services.UserInfoProvider

// SetUserInfoProvider overrides where profile data comes from (primarily for testing)
func SetUserInfoProvider(provider services.UserInfoProvider) {
	userInfoProvider = provider
}

func getUserInfoProvider() services.UserInfoProvider {
	if userInfoProvider != nil {
		return userInfoProvider
	}
	return services.NewAuth0Service(config.GetConfig())
}

// CreateUser handles POST /api/v1/users - creates a new user from Auth0 userinfo
// This endpoint requires authentication and fetches user data from Auth0's /userinfo endpoint
func CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	userInfo, err := getUserInfoProvider().GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		utils.LogWarn("userinfo lookup failed for %s: %v", auth0ID, err)
		utils.Error(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		utils.Error(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	if userInfo.Name == "" {
		utils.Error(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	// Role comes from the namespaced custom claim, customers by default
	role := models.RoleCustomer
	if claims, err := middleware.GetClaims(c); err == nil {
		if customClaims, ok := claims.CustomClaims.(*middleware.CustomClaims); ok && customClaims.Role != "" {
			role = customClaims.Role
		}
	}
	if !models.ValidRole(role) {
		utils.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be customer or admin")
		return
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    userInfo.Name,
		Email:   userInfo.Email,
		Phone:   userInfo.PhoneNumber,
		Role:    role,
	}

	db := config.GetDB()
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
			return
		}
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to create user", err))
		return
	}

	utils.Success(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	utils.Success(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
func UpdateMyProfile(c *gin.Context) {
	if _, err := middleware.GetUserID(c); err != nil {
		utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}

	if len(updates) == 0 {
		utils.Success(c, http.StatusOK, user)
		return
	}

	db := config.GetDB()
	if err := db.Model(user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to update user profile", err))
		return
	}

	var updated models.User
	if err := db.First(&updated, user.ID).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to fetch updated profile", err))
		return
	}

	utils.Success(c, http.StatusOK, updated)
}
