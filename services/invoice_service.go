package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/drinkmates/aqualine-api/models"
	"github.com/jung-kurt/gofpdf"
)

// InvoiceService renders customer invoices
type InvoiceService struct {
	companyName string
	companyLine string
}

// NewInvoiceService creates an invoice renderer with the DrinkMates letterhead
func NewInvoiceService() *InvoiceService {
	return &InvoiceService{
		companyName: "DrinkMates",
		companyLine: "CO2 cylinder refill & exchange | support@drinkmates.sa",
	}
}

// WritePDF renders the order as an A4 PDF invoice; amounts are in SAR.
// The order must have User and CylinderType loaded.
func (s *InvoiceService) WritePDF(w io.Writer, order *models.CO2Order) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, s.companyName)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(100, 8, s.companyLine)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "INVOICE")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(70, 7, "Order: "+order.OrderNumber)
	pdf.Cell(70, 7, "Date: "+order.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	pdf.Cell(70, 7, "Payment: "+string(order.PaymentMethod)+" ("+string(order.PaymentStatus)+")")
	pdf.Cell(70, 7, "Status: "+string(order.Status))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(100, 7, "Billed To:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(100, 6, order.User.Name)
	pdf.Ln(6)
	pdf.Cell(100, 6, order.User.Email)
	pdf.Ln(8)

	writeAddress(pdf, "Delivery Address:", order.DeliveryAddress)
	if !order.PickupAddress.IsZero() && order.PickupAddress != order.DeliveryAddress {
		writeAddress(pdf, "Pickup Address:", order.PickupAddress)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(80, 8, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, "Unit (SAR)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, "Amount (SAR)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 11)
	item := fmt.Sprintf("%s - %s", order.CylinderType.Name, order.OrderType)
	pdf.CellFormat(80, 8, item, "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, fmt.Sprintf("%d", order.Quantity), "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, order.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, order.Subtotal.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.Ln(4)
	summary := [][2]string{
		{"Subtotal:", order.Subtotal.StringFixed(2)},
		{"Delivery charge:", order.DeliveryCharge.StringFixed(2)},
		{"Discount:", "-" + order.Discount.StringFixed(2)},
	}
	for _, line := range summary {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(135, 7, line[0], "", 0, "R", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(35, 7, line[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(135, 10, "Total (SAR):", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 10, order.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if len(order.Cylinders) > 0 {
		serials := make([]string, 0, len(order.Cylinders))
		for _, c := range order.Cylinders {
			serials = append(serials, c.CylinderID)
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, "Cylinders: "+strings.Join(serials, ", "), "", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 11)
	pdf.Cell(0, 10, "Thank you for choosing DrinkMates!")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	return nil
}

func writeAddress(pdf *gofpdf.Fpdf, title string, a models.Address) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(100, 7, title)
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(100, 6, a.Street)
	pdf.Ln(6)
	pdf.Cell(100, 6, strings.Trim(a.City+", "+a.State+" "+a.ZipCode, ", "))
	pdf.Ln(6)
	if a.Phone != "" {
		pdf.Cell(100, 6, "Phone: "+a.Phone)
		pdf.Ln(6)
	}
	pdf.Ln(4)
}
