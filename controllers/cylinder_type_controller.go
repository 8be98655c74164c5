package controllers

import (
	"errors"
	"net/http"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateCylinderTypeRequest represents the request body for adding a cylinder type to the catalog
type CreateCylinderTypeRequest struct {
	Name              string          `json:"name" binding:"required"`
	Slug              string          `json:"slug" binding:"required"`
	CapacityGrams     int             `json:"capacity_grams" binding:"required,gt=0"`
	RefillPrice       decimal.Decimal `json:"refill_price"`
	ExchangePrice     decimal.Decimal `json:"exchange_price"`
	NewPrice          decimal.Decimal `json:"new_price"`
	SubscriptionPrice decimal.Decimal `json:"subscription_price"`
}

// ListCylinderTypes handles GET /api/v1/cylinder-types - the active catalog
func ListCylinderTypes(c *gin.Context) {
	db := config.GetDB()
	var types []models.CylinderType
	if err := db.Where("active = ?", true).Order("capacity_grams ASC").Find(&types).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to fetch cylinder types", err))
		return
	}
	utils.Success(c, http.StatusOK, types)
}

// CreateCylinderType handles POST /api/v1/admin/cylinder-types
func CreateCylinderType(c *gin.Context) {
	var req CreateCylinderTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}
	for _, price := range []decimal.Decimal{req.RefillPrice, req.ExchangePrice, req.NewPrice, req.SubscriptionPrice} {
		if price.IsNegative() {
			utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Prices must not be negative")
			return
		}
	}

	ct := models.CylinderType{
		Name:              req.Name,
		Slug:              req.Slug,
		CapacityGrams:     req.CapacityGrams,
		RefillPrice:       req.RefillPrice.Round(2),
		ExchangePrice:     req.ExchangePrice.Round(2),
		NewPrice:          req.NewPrice.Round(2),
		SubscriptionPrice: req.SubscriptionPrice.Round(2),
		Active:            true,
	}

	db := config.GetDB()
	if err := db.Create(&ct).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(c, http.StatusConflict, "SLUG_EXISTS", "A cylinder type with this slug already exists")
			return
		}
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to create cylinder type", err))
		return
	}

	utils.Success(c, http.StatusCreated, ct)
}
