// Package receipt 生成预约确认凭证 PDF
package receipt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/langchou/sparkreach/internal/models"
)

// Build 生成确认凭证，返回 PDF 内容与文件名
func Build(b *models.Booking, c *models.Charger) ([]byte, string, error) {
	if b == nil {
		return nil, "", fmt.Errorf("receipt: booking is nil")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SparkReach Booking Confirmation", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING CONFIRMED")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking ID     : %s", b.ID),
		fmt.Sprintf("Charger        : %s", safe(b.ChargerLocation)),
		fmt.Sprintf("Area           : %s, Delhi", safe(b.ChargerArea)),
	}
	if c != nil {
		lines = append(lines,
			fmt.Sprintf("Address        : %s", safe(c.Address)),
			fmt.Sprintf("Type / Power   : %s / %s", safe(c.Type), safe(c.Power)),
			fmt.Sprintf("Coordinates    : %.5f, %.5f", c.Latitude, c.Longitude),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Date           : %s", safe(b.Date)),
		fmt.Sprintf("Time slot      : %s", safe(b.Slot)),
		fmt.Sprintf("Duration       : %d hour(s)", b.Duration),
		fmt.Sprintf("Name           : %s", safe(b.UserName)),
		fmt.Sprintf("Phone          : %s", safe(b.Phone)),
		fmt.Sprintf("Vehicle        : %s", safe(b.VehicleNumber)),
	)
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Payment")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 12)
	amounts := []string{
		fmt.Sprintf("Charging (%d x Rs %d) : Rs %d", b.Duration, b.HourlyPrice, b.TotalPrice),
		fmt.Sprintf("Platform fee (5%%)     : Rs %d", b.PlatformFee),
		fmt.Sprintf("Total paid            : Rs %d", b.FinalTotal),
		fmt.Sprintf("Method                : %s", safe(b.Payment.Mode)),
		fmt.Sprintf("Payment ID            : %s", safe(b.Payment.PaymentID)),
	}
	for _, s := range amounts {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please arrive on time. The slot is held for the booked duration only.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), fmt.Sprintf("SPARKREACH_%s.pdf", b.ID), nil
}

func safe(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
