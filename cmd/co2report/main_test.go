package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func seedOrder(t *testing.T, svc *services.CO2OrderService, userID, cylinderTypeID uint, quantity int) *models.CO2Order {
	t.Helper()

	order, err := svc.Create(context.Background(), services.CreateOrderInput{
		UserID:          userID,
		OrderType:       models.OrderTypeRefill,
		CylinderTypeID:  cylinderTypeID,
		Quantity:        quantity,
		DeliveryAddress: models.Address{Street: "Olaya St 7", City: "Riyadh"},
	})
	require.NoError(t, err)
	return order
}

func TestWriteSummary(t *testing.T) {
	testutil.RequireTestEnvironmentOrSkip(t)
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "auth0|report", models.RoleCustomer)
	ct := testutil.CreateCylinderType(t, db)
	svc := services.NewCO2OrderService(db, services.NoopNotifier{})

	seedOrder(t, svc, user.ID, ct.ID, 1)
	second := seedOrder(t, svc, user.ID, ct.ID, 2)
	_, _, err := svc.UpdateStatus(context.Background(), second.ID, models.StatusConfirmed, nil, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSummary(context.Background(), svc, &buf))

	out := buf.String()
	for _, status := range models.OrderStatuses {
		assert.Contains(t, out, string(status))
	}
}

func TestWriteOrders(t *testing.T) {
	testutil.RequireTestEnvironmentOrSkip(t)
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "auth0|report", models.RoleCustomer)
	ct := testutil.CreateCylinderType(t, db)
	svc := services.NewCO2OrderService(db, services.NoopNotifier{})

	order := seedOrder(t, svc, user.ID, ct.ID, 2)
	_, _, err := svc.MarkCylinderPickedUp(context.Background(), order.ID, order.Cylinders[0].CylinderID, "")
	require.NoError(t, err)

	status := models.StatusPending
	orders, total, err := svc.ListOrders(context.Background(), services.OrderFilter{Status: &status})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	var buf bytes.Buffer
	require.NoError(t, writeOrders(&buf, orders))
	out := buf.String()
	assert.Contains(t, out, order.OrderNumber)
	assert.Contains(t, out, "90.00")
	assert.Contains(t, out, "pending:1 picked_up:1")
}

func TestFormatProgress(t *testing.T) {
	progress := map[models.CylinderStatus]int{
		models.CylinderDelivered: 1,
		models.CylinderPending:   0,
		models.CylinderReady:     2,
	}
	assert.Equal(t, "ready:2 delivered:1", formatProgress(progress))
	assert.Equal(t, "", formatProgress(nil))
}

func TestExportOrders(t *testing.T) {
	testutil.RequireTestEnvironmentOrSkip(t)
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "auth0|report", models.RoleCustomer)
	ct := testutil.CreateCylinderType(t, db)
	svc := services.NewCO2OrderService(db, services.NoopNotifier{})
	order := seedOrder(t, svc, user.ID, ct.ID, 1)

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	require.NoError(t, exportOrders(path, []models.CO2Order{*order}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	book, err := xlsx.OpenBinary(raw)
	require.NoError(t, err)
	require.NotEmpty(t, book.Sheets)
	assert.Equal(t, order.OrderNumber, book.Sheets[0].Rows[1].Cells[0].Value)
}
