package controllers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
)

// AdminListCO2Orders handles GET /api/v1/admin/co2-orders?status=&user_id=&page=&limit=
func AdminListCO2Orders(c *gin.Context) {
	pagination := utils.NewPagination(c)
	filter := services.OrderFilter{
		Offset: pagination.Offset,
		Limit:  pagination.Limit,
	}

	if raw := c.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid user_id")
			return
		}
		userID := uint(id)
		filter.UserID = &userID
	}

	orders, total, err := services.GetOrderService().ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	for i := range orders {
		withProofURL(c.Request.Context(), &orders[i])
	}
	pagination.SetTotal(total)
	utils.SuccessWithPagination(c, orders, pagination)
}

// AdminCO2OrdersByStatus handles GET /api/v1/admin/co2-orders/by-status/:status
func AdminCO2OrdersByStatus(c *gin.Context) {
	orders, err := services.GetOrderService().GetOrdersByStatus(c.Request.Context(), models.OrderStatus(c.Param("status")))
	if err != nil {
		respondOrderError(c, err)
		return
	}

	for i := range orders {
		withProofURL(c.Request.Context(), &orders[i])
	}
	utils.Success(c, http.StatusOK, orders)
}

// AdminExportCO2Orders handles GET /api/v1/admin/co2-orders/export - downloads the order list as xlsx
func AdminExportCO2Orders(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		orders []models.CO2Order
		err    error
	)
	if raw := c.Query("status"); raw != "" {
		orders, err = services.GetOrderService().GetOrdersByStatus(ctx, models.OrderStatus(raw))
	} else {
		orders, _, err = services.GetOrderService().ListOrders(ctx, services.OrderFilter{Limit: maxExportRows})
	}
	if err != nil {
		respondOrderError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.NewReportService().WriteOrdersXLSX(&buf, orders); err != nil {
		utils.RespondAppError(c, utils.InternalError("EXPORT_ERROR", "Failed to generate report", err))
		return
	}

	filename := fmt.Sprintf("co2-orders-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

const maxExportRows = 10000

// UpdateStatusRequest represents the request body for moving an order through the lifecycle
type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// AdminUpdateCO2OrderStatus handles PATCH /api/v1/admin/co2-orders/:id/status
func AdminUpdateCO2OrderStatus(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}

	order, res, err := services.GetOrderService().UpdateStatus(c.Request.Context(), id, req.Status, &admin.ID, req.Note)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	respondTransition(c, order, res)
}

// ScheduleRequest represents the request body for booking a pickup or delivery slot
type ScheduleRequest struct {
	Date time.Time `json:"date" binding:"required"`
}

// AdminScheduleCO2Pickup handles POST /api/v1/admin/co2-orders/:id/schedule-pickup
func AdminScheduleCO2Pickup(c *gin.Context) {
	scheduleHandler(c, services.OrderService.SchedulePickup)
}

// AdminScheduleCO2Delivery handles POST /api/v1/admin/co2-orders/:id/schedule-delivery
func AdminScheduleCO2Delivery(c *gin.Context) {
	scheduleHandler(c, services.OrderService.ScheduleDelivery)
}

type scheduleFunc func(services.OrderService, context.Context, uint, time.Time, *uint) (*models.CO2Order, models.TransitionResult, error)

func scheduleHandler(c *gin.Context, schedule scheduleFunc) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}

	order, res, err := schedule(services.GetOrderService(), c.Request.Context(), id, req.Date, &admin.ID)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	respondTransition(c, order, res)
}

func respondTransition(c *gin.Context, order *models.CO2Order, res models.TransitionResult) {
	utils.Success(c, http.StatusOK, gin.H{
		"order":             withProofURL(c.Request.Context(), order),
		"transition":        res,
		"cylinder_progress": order.CylinderProgress(),
	})
}

// CylinderNoteRequest is the optional note attached to a cylinder mark
type CylinderNoteRequest struct {
	Note string `json:"note"`
}

// AdminMarkCylinderPickedUp handles POST /api/v1/admin/co2-orders/:id/cylinders/:cylinderId/picked-up
func AdminMarkCylinderPickedUp(c *gin.Context) {
	cylinderHandler(c, services.OrderService.MarkCylinderPickedUp)
}

// AdminMarkCylinderRefilled handles POST /api/v1/admin/co2-orders/:id/cylinders/:cylinderId/refilled
func AdminMarkCylinderRefilled(c *gin.Context) {
	cylinderHandler(c, services.OrderService.MarkCylinderRefilled)
}

// AdminMarkCylinderDelivered handles POST /api/v1/admin/co2-orders/:id/cylinders/:cylinderId/delivered
func AdminMarkCylinderDelivered(c *gin.Context) {
	cylinderHandler(c, services.OrderService.MarkCylinderDelivered)
}

type cylinderFunc func(services.OrderService, context.Context, uint, string, string) (*models.CO2Order, models.CylinderResult, error)

func cylinderHandler(c *gin.Context, mark cylinderFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CylinderNoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
			return
		}
	}

	order, res, err := mark(services.GetOrderService(), c.Request.Context(), id, c.Param("cylinderId"), req.Note)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, gin.H{
		"order":             withProofURL(c.Request.Context(), order),
		"cylinder":          res,
		"cylinder_progress": order.CylinderProgress(),
	})
}

// UpdatePaymentRequest represents the request body for recording a payment
type UpdatePaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
	TransactionID string               `json:"transaction_id"`
}

// AdminUpdateCO2OrderPayment handles PATCH /api/v1/admin/co2-orders/:id/payment
func AdminUpdateCO2OrderPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}

	order, changed, err := services.GetOrderService().UpdatePayment(c.Request.Context(), id, req.PaymentStatus, req.TransactionID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, gin.H{
		"order":   withProofURL(c.Request.Context(), order),
		"changed": changed,
	})
}

// UpdateNotesRequest represents the request body for editing back-office notes
type UpdateNotesRequest struct {
	AdminNotes    *string `json:"admin_notes"`
	InternalNotes *string `json:"internal_notes"`
}

// AdminUpdateCO2OrderNotes handles PATCH /api/v1/admin/co2-orders/:id/notes
func AdminUpdateCO2OrderNotes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}
	if req.AdminNotes == nil && req.InternalNotes == nil {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Nothing to update")
		return
	}

	order, err := services.GetOrderService().UpdateNotes(c.Request.Context(), id, services.NotesUpdate{
		AdminNotes:    req.AdminNotes,
		InternalNotes: req.InternalNotes,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, withProofURL(c.Request.Context(), order))
}

// AdminUploadCO2OrderProof handles POST /api/v1/admin/co2-orders/:id/proof - multipart "image"
func AdminUploadCO2OrderProof(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "MISSING_FILE", "Image file is required")
		return
	}

	images := services.GetImageService()
	if images == nil {
		utils.LogError("proof upload for order %d: image storage is not configured", id)
		utils.Error(c, http.StatusServiceUnavailable, "IMAGE_STORAGE_UNAVAILABLE", "Image storage is not available")
		return
	}

	ctx := c.Request.Context()
	svc := services.GetOrderService()
	if _, err := svc.Get(ctx, id); err != nil {
		respondOrderError(c, err)
		return
	}

	key, err := images.UploadImage(ctx, fileHeader)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	order, previous, err := svc.SetProofImage(ctx, id, key)
	if err != nil {
		if delErr := images.DeleteImage(ctx, key); delErr != nil {
			utils.LogWarn("failed to remove orphaned proof image %s: %v", key, delErr)
		}
		respondOrderError(c, err)
		return
	}
	if previous != "" && previous != key {
		if err := images.DeleteImage(ctx, previous); err != nil {
			utils.LogWarn("failed to remove replaced proof image %s: %v", previous, err)
		}
	}

	utils.Success(c, http.StatusOK, withProofURL(ctx, order))
}

// AdminCO2OrderHistory handles GET /api/v1/admin/co2-orders/:id/history
func AdminCO2OrderHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := services.GetOrderService().Get(ctx, id); err != nil {
		respondOrderError(c, err)
		return
	}

	history, err := services.GetOrderService().History(ctx, id)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, history)
}
