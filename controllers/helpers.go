package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/middleware"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// currentUser loads the profile of the authenticated caller, writing the error response itself
func currentUser(c *gin.Context) (*models.User, bool) {
	if cached, ok := c.Get(currentUserKey); ok {
		if user, ok := cached.(*models.User); ok {
			return user, true
		}
	}

	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		utils.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return nil, false
	}

	c.Set(currentUserKey, &user)
	return &user, true
}

// RequireAdmin only lets back-office users through
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			utils.AbortWithError(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			return
		}
		c.Next()
	}
}

// paramID parses a positive numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// mapOrderError turns a service or model error into the HTTP error the API reports
func mapOrderError(err error) *utils.AppError {
	if appErr := utils.GetAppError(err); appErr != nil {
		return appErr
	}

	var transitionErr *models.TransitionError
	var validationErr *models.ValidationError
	var uploadErr *utils.FileUploadError
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return utils.NotFoundError("ORDER_NOT_FOUND", "Order not found", err)
	case errors.As(err, &transitionErr):
		return utils.ConflictError("INVALID_TRANSITION", transitionErr.Error(), err)
	case errors.Is(err, models.ErrUnknownStatus):
		return utils.BadRequestError("INVALID_STATUS", err.Error(), err)
	case errors.As(err, &validationErr):
		return utils.BadRequestError("VALIDATION_ERROR", validationErr.Error(), err)
	case errors.Is(err, models.ErrScheduleDateRequired), errors.Is(err, models.ErrScheduleInPast):
		return utils.BadRequestError("INVALID_SCHEDULE_DATE", err.Error(), err)
	case errors.Is(err, models.ErrUnknownOrderType):
		return utils.BadRequestError("VALIDATION_ERROR", err.Error(), err)
	case errors.Is(err, models.ErrCylinderNotFound):
		return utils.NotFoundError("CYLINDER_NOT_FOUND", err.Error(), err)
	case errors.Is(err, models.ErrCylinderRegression):
		return utils.ConflictError("CYLINDER_REGRESSION", err.Error(), err)
	case errors.Is(err, models.ErrInvalidPaymentChange):
		return utils.ConflictError("INVALID_PAYMENT_CHANGE", err.Error(), err)
	case errors.Is(err, services.ErrTransactionInUse):
		return utils.ConflictError("TRANSACTION_IN_USE", "Transaction is already recorded on another order", err)
	case errors.Is(err, services.ErrConcurrentUpdate):
		return utils.ConflictError("CONCURRENT_UPDATE", "Order was modified by another request, please retry", err)
	case errors.Is(err, services.ErrCylinderTypeNotFound):
		return utils.NotFoundError("CYLINDER_TYPE_NOT_FOUND", "Cylinder type not found", err)
	case errors.Is(err, models.ErrCylinderTypeInactive):
		return utils.BadRequestError("CYLINDER_TYPE_INACTIVE", "Cylinder type is not available", err)
	case errors.As(err, &uploadErr):
		return utils.BadRequestError(uploadErr.Code, uploadErr.Message, err)
	case errors.Is(err, services.ErrPaymentNotConfigured):
		return utils.NewAppError(http.StatusServiceUnavailable, "PAYMENT_UNAVAILABLE", "Card payments are not available", err)
	case errors.Is(err, services.ErrPaymentRejected):
		return utils.NewAppError(http.StatusBadGateway, "PAYMENT_GATEWAY_ERROR", "Payment gateway rejected the request", err)
	default:
		return utils.InternalError("DATABASE_ERROR", "Failed to process order", err)
	}
}

func respondOrderError(c *gin.Context, err error) {
	utils.RespondAppError(c, mapOrderError(err))
}

// withProofURL resolves the proof photo key to a URL the client can open
func withProofURL(ctx context.Context, order *models.CO2Order) *models.CO2Order {
	if order == nil || order.ProofImageKey == nil || *order.ProofImageKey == "" {
		return order
	}
	images := services.GetImageService()
	if images == nil {
		return order
	}
	url, err := images.GetImageURL(ctx, *order.ProofImageKey)
	if err != nil {
		utils.LogWarn("failed to resolve proof image for order %s: %v", order.OrderNumber, err)
		return order
	}
	order.ProofImageURL = &url
	return order
}

// loadOwnOrder fetches an order the caller may see: their own, or any order for admins
func loadOwnOrder(c *gin.Context, user *models.User) (*models.CO2Order, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	order, err := services.GetOrderService().Get(c.Request.Context(), id)
	if err != nil {
		respondOrderError(c, err)
		return nil, false
	}
	if !user.IsAdmin() && order.UserID != user.ID {
		// same answer as for a missing order
		utils.Error(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return nil, false
	}
	return order, true
}
