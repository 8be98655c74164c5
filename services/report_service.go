package services

import (
	"fmt"
	"io"
	"time"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/tealeg/xlsx"
)

// ReportColumns are the header cells of the order export
var ReportColumns = []string{
	"Order Number", "Created", "Customer", "Email", "Type", "Cylinder Type", "Quantity",
	"Unit Price", "Delivery Charge", "Discount", "Total", "Status", "Payment Method",
	"Payment Status", "Pickup Date", "Delivery Date",
}

// ReportService exports orders for the back office
type ReportService struct{}

// NewReportService creates an order exporter
func NewReportService() *ReportService {
	return &ReportService{}
}

// WriteOrdersXLSX writes one row per order plus a totals row
func (s *ReportService) WriteOrdersXLSX(w io.Writer, orders []models.CO2Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("CO2 Orders")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	bold.Font = *font

	header := sheet.AddRow()
	for _, h := range ReportColumns {
		cell := header.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}

	var revenue float64
	for _, order := range orders {
		row := sheet.AddRow()
		row.AddCell().SetString(order.OrderNumber)
		row.AddCell().SetString(order.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetString(order.User.Name)
		row.AddCell().SetString(order.User.Email)
		row.AddCell().SetString(string(order.OrderType))
		row.AddCell().SetString(order.CylinderType.Name)
		row.AddCell().SetInt(order.Quantity)
		row.AddCell().SetFloat(order.UnitPrice.InexactFloat64())
		row.AddCell().SetFloat(order.DeliveryCharge.InexactFloat64())
		row.AddCell().SetFloat(order.Discount.InexactFloat64())
		row.AddCell().SetFloat(order.Total.InexactFloat64())
		row.AddCell().SetString(string(order.Status))
		row.AddCell().SetString(string(order.PaymentMethod))
		row.AddCell().SetString(string(order.PaymentStatus))
		row.AddCell().SetString(formatDate(order.ActualPickupDate, order.PreferredPickupDate))
		row.AddCell().SetString(formatDate(order.ActualDeliveryDate, order.PreferredDeliveryDate))

		if order.Status != models.StatusCancelled && order.Status != models.StatusRefunded {
			revenue += order.Total.InexactFloat64()
		}
	}

	sheet.AddRow()
	summary := sheet.AddRow()
	label := summary.AddCell()
	label.SetString("Orders")
	label.SetStyle(bold)
	summary.AddCell().SetInt(len(orders))
	summary = sheet.AddRow()
	label = summary.AddCell()
	label.SetString("Revenue (SAR, excl. cancelled/refunded)")
	label.SetStyle(bold)
	summary.AddCell().SetFloat(revenue)

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// formatDate prefers the actual date over the planned one
func formatDate(actual, planned *time.Time) string {
	switch {
	case actual != nil:
		return actual.Format("2006-01-02")
	case planned != nil:
		return planned.Format("2006-01-02") + " (planned)"
	default:
		return ""
	}
}
