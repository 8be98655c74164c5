package controllers

import (
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every API endpoint on v1.
// auth authenticates the caller; replay backs the payment callback replay guard.
func RegisterRoutes(v1 *gin.RouterGroup, auth gin.HandlerFunc, replay *utils.TTLCache) {
	v1.GET("/cylinder-types", ListCylinderTypes)
	v1.GET("/uploads/:filename", GetUploadedImage)

	v1.GET("/payments/urways/callback", URWAYSCallback(replay))

	users := v1.Group("/users", auth)
	{
		users.POST("", CreateUser)
		users.GET("/me", GetMyProfile)
		users.PUT("/me", UpdateMyProfile)
	}

	orders := v1.Group("/co2-orders", auth)
	{
		orders.POST("", CreateCO2Order)
		orders.GET("", ListMyCO2Orders)
		orders.GET("/:id", GetCO2Order)
		orders.POST("/:id/cancel", CancelCO2Order)
		orders.GET("/:id/invoice", GetCO2OrderInvoice)
		orders.POST("/:id/payment/urways", InitiateURWAYSPayment)
		orders.POST("/:id/messages", SendMessage)
		orders.GET("/:id/messages", ListMessages)
	}

	admin := v1.Group("/admin", auth, RequireAdmin())
	{
		admin.POST("/cylinder-types", CreateCylinderType)

		admin.GET("/co2-orders", AdminListCO2Orders)
		admin.GET("/co2-orders/by-status/:status", AdminCO2OrdersByStatus)
		admin.GET("/co2-orders/export", AdminExportCO2Orders)
		admin.PATCH("/co2-orders/:id/status", AdminUpdateCO2OrderStatus)
		admin.POST("/co2-orders/:id/schedule-pickup", AdminScheduleCO2Pickup)
		admin.POST("/co2-orders/:id/schedule-delivery", AdminScheduleCO2Delivery)
		admin.POST("/co2-orders/:id/cylinders/:cylinderId/picked-up", AdminMarkCylinderPickedUp)
		admin.POST("/co2-orders/:id/cylinders/:cylinderId/refilled", AdminMarkCylinderRefilled)
		admin.POST("/co2-orders/:id/cylinders/:cylinderId/delivered", AdminMarkCylinderDelivered)
		admin.PATCH("/co2-orders/:id/payment", AdminUpdateCO2OrderPayment)
		admin.PATCH("/co2-orders/:id/notes", AdminUpdateCO2OrderNotes)
		admin.POST("/co2-orders/:id/proof", AdminUploadCO2OrderProof)
		admin.GET("/co2-orders/:id/history", AdminCO2OrderHistory)
	}
}
