package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func reportOrder(number string, status models.OrderStatus, total string) models.CO2Order {
	created := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	return models.CO2Order{
		OrderNumber:     number,
		CreatedAt:       created,
		User:            models.User{Name: "Sara", Email: "sara@example.com"},
		OrderType:       models.OrderTypeRefill,
		CylinderType:    models.CylinderType{Name: "60L Standard"},
		Quantity:        2,
		UnitPrice:       decimal.RequireFromString("45"),
		DeliveryCharge:  decimal.RequireFromString("15"),
		Discount:        decimal.Zero,
		Total:           decimal.RequireFromString(total),
		Status:          status,
		PaymentMethod:   models.PaymentCashOnDelivery,
		PaymentStatus:   models.PaymentPending,
		DeliveryAddress: models.Address{Street: "King Fahd Rd 12", City: "Riyadh", Country: "SA"},
	}
}

func TestInvoiceService_WritePDF(t *testing.T) {
	order := reportOrder("CO2260309123", models.StatusDelivered, "105")
	order.Cylinders = []models.CylinderUnit{{CylinderID: "DM-0001"}, {CylinderID: "DM-0002"}}

	var buf bytes.Buffer
	require.NoError(t, NewInvoiceService().WritePDF(&buf, &order))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}

func TestReportService_WriteOrdersXLSX(t *testing.T) {
	delivered := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	first := reportOrder("CO2260309123", models.StatusDelivered, "105")
	first.ActualDeliveryDate = &delivered
	orders := []models.CO2Order{
		first,
		reportOrder("CO2260309124", models.StatusCancelled, "60"),
	}

	var buf bytes.Buffer
	require.NoError(t, NewReportService().WriteOrdersXLSX(&buf, orders))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	assert.Equal(t, "CO2 Orders", sheet.Name)

	require.GreaterOrEqual(t, len(sheet.Rows), 6)
	for i, col := range ReportColumns {
		assert.Equal(t, col, sheet.Rows[0].Cells[i].Value)
	}
	assert.Equal(t, "CO2260309123", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "2026-03-12", sheet.Rows[1].Cells[15].Value)
	assert.Equal(t, "cancelled", sheet.Rows[2].Cells[11].Value)

	// blank spacer row, then totals
	assert.Equal(t, "Orders", sheet.Rows[4].Cells[0].Value)
	assert.Equal(t, "2", sheet.Rows[4].Cells[1].Value)
	assert.Equal(t, "105", sheet.Rows[5].Cells[1].Value)
}

func TestFormatDate(t *testing.T) {
	actual := time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)
	planned := time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-12", formatDate(&actual, &planned))
	assert.Equal(t, "2026-03-11 (planned)", formatDate(nil, &planned))
	assert.Equal(t, "", formatDate(nil, nil))
}
