package controllers

import (
	"net/http"
	"time"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
)

// defaultSupportSLA applies when no configuration has been loaded
const defaultSupportSLA = 2 * time.Hour

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required,max=4000"`
}

// SendMessage handles POST /api/v1/co2-orders/:id/messages - posts to the order's support chat
func SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOwnOrder(c, user)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}

	message := models.Message{
		OrderID:  order.ID,
		SenderID: user.ID,
		Text:     req.Text,
	}

	db := config.GetDB()
	if err := db.Create(&message).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to create message", err))
		return
	}

	if err := db.Preload("Sender").First(&message, message.ID).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to load message details", err))
		return
	}

	utils.Success(c, http.StatusCreated, message)
}

// ListMessages handles GET /api/v1/co2-orders/:id/messages - the chat plus its response-time SLA
func ListMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOwnOrder(c, user)
	if !ok {
		return
	}

	db := config.GetDB()
	var messages []models.Message
	if err := db.Where("order_id = ?", order.ID).
		Preload("Sender").
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		utils.RespondAppError(c, utils.InternalError("DATABASE_ERROR", "Failed to fetch messages", err))
		return
	}

	target := defaultSupportSLA
	if cfg := config.GetConfig(); cfg != nil && cfg.SupportSLA > 0 {
		target = cfg.SupportSLA
	}

	utils.Success(c, http.StatusOK, gin.H{
		"messages": messages,
		"sla":      models.ComputeSupportSLA(messages, target, time.Now()),
	})
}
