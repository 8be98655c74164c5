package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/testutil"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	acceptanceCustomer = "auth0|acceptance-customer"
	acceptanceAdmin    = "auth0|acceptance-admin"
)

// OrderLifecycleAcceptanceSuite drives a real HTTP server through a complete order
type OrderLifecycleAcceptanceSuite struct {
	suite.Suite
	server   *httptest.Server
	db       *gorm.DB
	replay   *utils.TTLCache
	notifier *services.MockNotifier
	cylinder *models.CylinderType
}

func (s *OrderLifecycleAcceptanceSuite) SetupTest() {
	t := s.T()
	s.db = testutil.NewTestDB(t)
	s.notifier = &services.MockNotifier{}

	previousOrders := services.GetOrderService()
	previousImages := services.GetImageService()
	previousGateway := services.GetPaymentGateway()
	t.Cleanup(func() {
		services.SetOrderService(previousOrders)
		services.SetImageService(previousImages)
		services.SetPaymentGateway(previousGateway)
	})
	services.InitOrderService(s.db, s.notifier)
	services.NewMockImageService().SetAsMockForTesting()
	services.SetPaymentGateway(nil)

	testutil.CreateUser(t, s.db, acceptanceCustomer, models.RoleCustomer)
	testutil.CreateUser(t, s.db, acceptanceAdmin, models.RoleAdmin)
	s.cylinder = testutil.CreateCylinderType(t, s.db)

	s.replay = utils.NewTTLCache(time.Minute)
	cfg := &config.Config{GoEnv: "test"}
	s.server = httptest.NewServer(setupRouter(cfg, testutil.HeaderAuthMiddleware(), s.replay, nil))
}

func (s *OrderLifecycleAcceptanceSuite) TearDownTest() {
	s.server.Close()
	s.replay.Stop()
}

// call performs a request as subject and decodes the envelope data into out
func (s *OrderLifecycleAcceptanceSuite) call(method, path, subject string, body interface{}, wantStatus int, out interface{}) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Test-User", subject)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().Equal(wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)

	if out == nil {
		return
	}
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(raw, &envelope))
	s.Require().True(envelope.Success, string(raw))
	s.Require().NoError(json.Unmarshal(envelope.Data, out))
}

func (s *OrderLifecycleAcceptanceSuite) TestRefillOrderFromPlacementToInvoice() {
	var types []models.CylinderType
	s.call(http.MethodGet, "/api/v1/cylinder-types", acceptanceCustomer, nil, http.StatusOK, &types)
	s.Require().Len(types, 1)

	var order models.CO2Order
	s.call(http.MethodPost, "/api/v1/co2-orders", acceptanceCustomer, map[string]interface{}{
		"order_type":       "refill",
		"cylinder_type_id": types[0].ID,
		"quantity":         2,
		"delivery_address": map[string]string{"street": "Olaya St 7", "city": "Riyadh", "country": "SA"},
	}, http.StatusCreated, &order)
	s.Equal(models.StatusPending, order.Status)
	s.Equal("105", order.Total.String())
	s.Require().Len(order.Cylinders, 2)
	s.Equal("Olaya St 7", order.PickupAddress.Street, "pickup defaults to the delivery address")

	base := fmt.Sprintf("/api/v1/admin/co2-orders/%d", order.ID)

	s.call(http.MethodPost, fmt.Sprintf("/api/v1/co2-orders/%d/messages", order.ID), acceptanceCustomer,
		map[string]string{"text": "Please call before pickup"}, http.StatusCreated, nil)

	s.call(http.MethodPatch, base+"/status", acceptanceAdmin, map[string]string{"status": "confirmed"}, http.StatusOK, nil)

	pickup := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	s.call(http.MethodPost, base+"/schedule-pickup", acceptanceAdmin, map[string]time.Time{"date": pickup}, http.StatusOK, nil)

	// the driver scans cylinders one by one before the order itself moves
	for _, cylinder := range order.Cylinders {
		s.call(http.MethodPost, base+"/cylinders/"+cylinder.CylinderID+"/picked-up", acceptanceAdmin, nil, http.StatusOK, nil)
	}

	var transition struct {
		Order      models.CO2Order `json:"order"`
		Transition struct {
			Changed          bool `json:"changed"`
			CylindersUpdated int  `json:"cylinders_updated"`
		} `json:"transition"`
	}
	s.call(http.MethodPatch, base+"/status", acceptanceAdmin, map[string]string{"status": "picked_up"}, http.StatusOK, &transition)
	s.True(transition.Transition.Changed)
	s.Equal(0, transition.Transition.CylindersUpdated, "already scanned cylinders stay put")

	s.call(http.MethodPatch, base+"/status", acceptanceAdmin, map[string]string{"status": "refilling"}, http.StatusOK, nil)
	s.call(http.MethodPatch, base+"/status", acceptanceAdmin, map[string]string{"status": "ready_for_delivery"}, http.StatusOK, nil)

	delivery := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	s.call(http.MethodPost, base+"/schedule-delivery", acceptanceAdmin, map[string]time.Time{"date": delivery}, http.StatusOK, nil)
	s.call(http.MethodPatch, base+"/status", acceptanceAdmin, map[string]string{"status": "delivered"}, http.StatusOK, &transition)
	s.Equal(models.StatusDelivered, transition.Order.Status)
	s.NotNil(transition.Order.ActualDeliveryDate)

	s.call(http.MethodPatch, base+"/payment", acceptanceAdmin,
		map[string]string{"payment_status": "completed", "transaction_id": "COD-1"}, http.StatusOK, nil)

	var seen models.CO2Order
	s.call(http.MethodGet, fmt.Sprintf("/api/v1/co2-orders/%d", order.ID), acceptanceCustomer, nil, http.StatusOK, &seen)
	s.Equal(models.StatusDelivered, seen.Status)
	s.Equal(models.PaymentCompleted, seen.PaymentStatus)
	s.Empty(seen.InternalNotes)
	for _, cylinder := range seen.Cylinders {
		s.Equal(models.CylinderDelivered, cylinder.Status, cylinder.CylinderID)
	}

	var history []models.OrderStatusHistory
	s.call(http.MethodGet, base+"/history", acceptanceAdmin, nil, http.StatusOK, &history)
	s.Len(history, 8)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+fmt.Sprintf("/api/v1/co2-orders/%d/invoice", order.ID), nil)
	s.Require().NoError(err)
	req.Header.Set("X-Test-User", acceptanceCustomer)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/pdf", resp.Header.Get("Content-Type"))
	pdf, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.True(bytes.HasPrefix(pdf, []byte("%PDF")))
}

func (s *OrderLifecycleAcceptanceSuite) TestCustomerCancelsBeforePickup() {
	var order models.CO2Order
	s.call(http.MethodPost, "/api/v1/co2-orders", acceptanceCustomer, map[string]interface{}{
		"order_type":       "exchange",
		"cylinder_type_id": s.cylinder.ID,
		"quantity":         1,
		"delivery_address": map[string]string{"street": "Tahlia St 3", "city": "Jeddah"},
	}, http.StatusCreated, &order)

	var cancelled struct {
		Order models.CO2Order `json:"order"`
	}
	s.call(http.MethodPost, fmt.Sprintf("/api/v1/co2-orders/%d/cancel", order.ID), acceptanceCustomer,
		map[string]string{"reason": "changed my mind"}, http.StatusOK, &cancelled)
	s.Equal(models.StatusCancelled, cancelled.Order.Status)

	s.call(http.MethodPatch, fmt.Sprintf("/api/v1/admin/co2-orders/%d/status", order.ID), acceptanceAdmin,
		map[string]string{"status": "confirmed"}, http.StatusConflict, nil)
}

func TestOrderLifecycleAcceptanceSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleAcceptanceSuite))
}
