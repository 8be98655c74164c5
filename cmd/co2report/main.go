// Command co2report prints the CO2 order pipeline for the operations team.
//
//	co2report                      count of orders in every status
//	co2report -status refilling    orders in one status with cylinder progress
//	co2report -xlsx orders.xlsx    also write the listed orders as a spreadsheet
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/drinkmates/aqualine-api/services"
	"github.com/drinkmates/aqualine-api/utils"
	"github.com/olekukonko/tablewriter"
)

func main() {
	status := flag.String("status", "", "list orders in this status instead of the summary")
	limit := flag.Int("limit", 50, "maximum number of orders to list")
	xlsxPath := flag.String("xlsx", "", "write the listed orders to this xlsx file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, os.Stderr)

	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	svc := services.NewCO2OrderService(config.GetDB(), services.NoopNotifier{})
	ctx := context.Background()

	if *status == "" {
		if err := writeSummary(ctx, svc, os.Stdout); err != nil {
			log.Fatalf("Failed to build summary: %v", err)
		}
		return
	}

	parsed, err := models.ParseOrderStatus(*status)
	if err != nil {
		log.Fatalf("Invalid -status: %v", err)
	}
	orders, _, err := svc.ListOrders(ctx, services.OrderFilter{Status: &parsed, Limit: *limit})
	if err != nil {
		log.Fatalf("Failed to list orders: %v", err)
	}
	if err := writeOrders(os.Stdout, orders); err != nil {
		log.Fatalf("Failed to print orders: %v", err)
	}

	if *xlsxPath != "" {
		if err := exportOrders(*xlsxPath, orders); err != nil {
			log.Fatalf("Failed to export orders: %v", err)
		}
		utils.LogInfo("Wrote %d orders to %s", len(orders), *xlsxPath)
	}
}

// writeSummary prints one row per status with its order count
func writeSummary(ctx context.Context, svc services.OrderService, w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Status", "Orders")

	var total int64
	for _, status := range models.OrderStatuses {
		_, count, err := svc.ListOrders(ctx, services.OrderFilter{Status: &status, Limit: 1})
		if err != nil {
			return err
		}
		total += count
		if err := table.Append([]string{string(status), strconv.FormatInt(count, 10)}); err != nil {
			return err
		}
	}
	table.Footer("Total", strconv.FormatInt(total, 10))
	return table.Render()
}

// writeOrders prints the orders with their cylinder progress
func writeOrders(w io.Writer, orders []models.CO2Order) error {
	table := tablewriter.NewWriter(w)
	table.Header("Order", "Customer", "Type", "Qty", "Cylinders", "Total (SAR)", "Age", "ETA")

	for _, o := range orders {
		eta := "-"
		if o.EstimatedDeliveryDays != nil {
			eta = fmt.Sprintf("%dd", *o.EstimatedDeliveryDays)
		}
		row := []string{
			o.OrderNumber,
			o.User.Name,
			string(o.OrderType),
			strconv.Itoa(o.Quantity),
			formatProgress(o.CylinderProgress()),
			o.Total.StringFixed(2),
			fmt.Sprintf("%dd", o.OrderAgeDays),
			eta,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// formatProgress renders cylinder counts in lifecycle order, e.g. "picked_up:1 ready:1"
func formatProgress(progress map[models.CylinderStatus]int) string {
	parts := make([]string, 0, len(progress))
	for _, stage := range models.CylinderStatuses {
		if n := progress[stage]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", stage, n))
		}
	}
	return strings.Join(parts, " ")
}

func exportOrders(path string, orders []models.CO2Order) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := services.NewReportService().WriteOrdersXLSX(f, orders); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
