package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AddressRequest is a postal address in a request body
type AddressRequest struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

func (a AddressRequest) toModel() models.Address {
	return models.Address(a)
}

// CreateCO2OrderRequest represents the request body for placing a CO2 order
type CreateCO2OrderRequest struct {
	OrderType             models.OrderType     `json:"order_type" binding:"required"`
	CylinderTypeID        uint                 `json:"cylinder_type_id" binding:"required"`
	Quantity              int                  `json:"quantity" binding:"required,gt=0,lte=20"`
	CylinderSerials       []string             `json:"cylinder_serials"`
	DeliveryAddress       AddressRequest       `json:"delivery_address" binding:"required"`
	PickupAddress         *AddressRequest      `json:"pickup_address"`
	DeliveryInstructions  string               `json:"delivery_instructions"`
	PreferredPickupDate   *time.Time           `json:"preferred_pickup_date"`
	PreferredDeliveryDate *time.Time           `json:"preferred_delivery_date"`
	PaymentMethod         models.PaymentMethod `json:"payment_method"`
	CustomerNotes         string               `json:"customer_notes"`
}

// DefaultDeliveryCharge is added to every order, in SAR
var DefaultDeliveryCharge = decimal.NewFromInt(15)

// CreateCO2Order handles POST /api/v1/co2-orders - places a new order for the caller
func CreateCO2Order(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateCO2OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}
	if req.DeliveryAddress.Street == "" || req.DeliveryAddress.City == "" {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Delivery street and city are required")
		return
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		utils.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Unknown payment method %q", req.PaymentMethod))
		return
	}

	pickup := req.DeliveryAddress.toModel()
	if req.PickupAddress != nil {
		pickup = req.PickupAddress.toModel()
	}

	order, err := services.GetOrderService().Create(c.Request.Context(), services.CreateOrderInput{
		UserID:                user.ID,
		OrderType:             req.OrderType,
		CylinderTypeID:        req.CylinderTypeID,
		Quantity:              req.Quantity,
		CylinderSerials:       req.CylinderSerials,
		DeliveryAddress:       req.DeliveryAddress.toModel(),
		PickupAddress:         pickup,
		DeliveryInstructions:  req.DeliveryInstructions,
		PreferredPickupDate:   req.PreferredPickupDate,
		PreferredDeliveryDate: req.PreferredDeliveryDate,
		PaymentMethod:         req.PaymentMethod,
		DeliveryCharge:        DefaultDeliveryCharge,
		Discount:              decimal.Zero,
		CustomerNotes:         req.CustomerNotes,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	utils.Success(c, http.StatusCreated, order.ForCustomer())
}

// ListMyCO2Orders handles GET /api/v1/co2-orders - lists the caller's orders
func ListMyCO2Orders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := services.GetOrderService().GetOrdersByUser(c.Request.Context(), user.ID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	out := make([]models.CO2Order, 0, len(orders))
	for i := range orders {
		out = append(out, withProofURL(c.Request.Context(), &orders[i]).ForCustomer())
	}
	utils.Success(c, http.StatusOK, out)
}

// GetCO2Order handles GET /api/v1/co2-orders/:id
func GetCO2Order(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOwnOrder(c, user)
	if !ok {
		return
	}

	withProofURL(c.Request.Context(), order)
	if user.IsAdmin() {
		utils.Success(c, http.StatusOK, order)
		return
	}
	utils.Success(c, http.StatusOK, order.ForCustomer())
}

// CancelCO2OrderRequest carries the optional reason for a cancellation
type CancelCO2OrderRequest struct {
	Reason string `json:"reason"`
}

// CancelCO2Order handles POST /api/v1/co2-orders/:id/cancel
func CancelCO2Order(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOwnOrder(c, user)
	if !ok {
		return
	}

	var req CancelCO2OrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
			return
		}
	}

	updated, res, err := services.GetOrderService().Cancel(c.Request.Context(), order.ID, &user.ID, req.Reason)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	utils.Success(c, http.StatusOK, gin.H{
		"order":      updated.ForCustomer(),
		"transition": res,
	})
}

// GetCO2OrderInvoice handles GET /api/v1/co2-orders/:id/invoice - downloads a PDF invoice
func GetCO2OrderInvoice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOwnOrder(c, user)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := services.NewInvoiceService().WritePDF(&buf, order); err != nil {
		utils.RespondAppError(c, utils.InternalError("INVOICE_ERROR", "Failed to generate invoice", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, order.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// InitiateURWAYSPayment handles POST /api/v1/co2-orders/:id/payment/urways
func InitiateURWAYSPayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOwnOrder(c, user)
	if !ok {
		return
	}

	if order.PaymentStatus == models.PaymentCompleted {
		utils.Error(c, http.StatusConflict, "ALREADY_PAID", "Order is already paid")
		return
	}
	if order.Status == models.StatusCancelled || order.Status == models.StatusRefunded {
		utils.Error(c, http.StatusConflict, "ORDER_CLOSED", "Order can no longer be paid")
		return
	}

	gateway := services.GetPaymentGateway()
	if gateway == nil {
		respondOrderError(c, services.ErrPaymentNotConfigured)
		return
	}

	session, err := gateway.InitiatePayment(c.Request.Context(), order, order.User.Email, c.ClientIP())
	if err != nil {
		respondOrderError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, session)
}
