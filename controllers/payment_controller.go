package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// callbackReplayTTL is how long a processed URWAYS transaction id is remembered
const callbackReplayTTL = 24 * time.Hour

// URWAYSCallback handles GET /api/v1/payments/urways/callback.
// The signature does not cover TrackId, so the signed amount must match the order total
// and a gateway transaction settles at most one order. replay remembers processed
// transaction ids so a resubmitted callback is not applied twice.
func URWAYSCallback(replay *utils.TTLCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cb services.PaymentCallback
		if err := c.ShouldBindQuery(&cb); err != nil {
			utils.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid callback parameters", err.Error())
			return
		}

		gateway := services.GetPaymentGateway()
		if gateway == nil {
			respondOrderError(c, services.ErrPaymentNotConfigured)
			return
		}

		outcome, err := gateway.VerifyCallback(cb)
		if err != nil {
			if errors.Is(err, services.ErrInvalidPaymentHash) {
				utils.LogWarn("rejected URWAYS callback for %q from %s: %v", cb.TrackID, c.ClientIP(), err)
				utils.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Payment callback signature is invalid")
				return
			}
			respondOrderError(c, err)
			return
		}

		replayKey := "urways:" + outcome.TransactionID
		if !replay.SetIfAbsent(replayKey, callbackReplayTTL) {
			utils.Error(c, http.StatusConflict, "DUPLICATE_CALLBACK", "Payment callback was already processed")
			return
		}

		ctx := c.Request.Context()
		svc := services.GetOrderService()
		order, err := svc.GetByOrderNumber(ctx, outcome.OrderNumber)
		if err != nil {
			replay.Delete(replayKey)
			respondOrderError(c, err)
			return
		}

		if amount, err := decimal.NewFromString(outcome.Amount); err != nil || !amount.Equal(order.Total) {
			replay.Delete(replayKey)
			utils.LogWarn("URWAYS callback %s amount %q does not match order %s total %s", outcome.TransactionID, outcome.Amount, order.OrderNumber, order.Total.StringFixed(2))
			utils.Error(c, http.StatusBadRequest, "AMOUNT_MISMATCH", "Paid amount does not match the order total")
			return
		}

		updated, changed, err := svc.UpdatePayment(ctx, order.ID, outcome.Status, outcome.TransactionID)
		if err != nil {
			replay.Delete(replayKey)
			respondOrderError(c, err)
			return
		}

		utils.LogInfo("URWAYS callback for order %s: %s (code %s)", updated.OrderNumber, outcome.Status, outcome.ResponseCode)
		utils.Success(c, http.StatusOK, gin.H{
			"order_number":   updated.OrderNumber,
			"payment_status": updated.PaymentStatus,
			"response_code":  outcome.ResponseCode,
			"changed":        changed,
		})
	}
}
