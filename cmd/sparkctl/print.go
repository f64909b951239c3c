package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/pricing"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return base.Bold(true)
			}
			return base
		})
}

// printChargers 充电桩表格
func printChargers(w io.Writer, chargers []models.Charger) {
	t := newTable("ID", "LOCATION", "AREA", "TYPE", "POWER", "PRICE/H", "RATING", "FREE SLOTS")
	for _, c := range chargers {
		free := 0
		for _, s := range c.Slots {
			if s.Available {
				free++
			}
		}
		t.Row(
			c.ID,
			c.Location,
			c.Area,
			c.Type,
			c.Power,
			fmt.Sprintf("₹%d", c.Price),
			fmt.Sprintf("%.1f (%d)", c.Rating, c.Reviews),
			strconv.Itoa(free),
		)
	}
	fmt.Fprintln(w, t)
}

// printBookings 预约表格
func printBookings(w io.Writer, bookings []models.Booking) {
	t := newTable("ID", "CHARGER", "USER", "DATE", "SLOT", "HOURS", "TOTAL", "STATUS", "PAYMENT")
	for _, b := range bookings {
		t.Row(
			b.ID,
			b.ChargerLocation,
			b.UserName,
			b.Date,
			b.Slot,
			strconv.Itoa(b.Duration),
			fmt.Sprintf("₹%d", b.FinalTotal),
			b.Status,
			b.Payment.State,
		)
	}
	fmt.Fprintln(w, t)
}

// printQuote 价格明细
func printQuote(w io.Writer, b pricing.Breakdown) {
	t := newTable("ITEM", "AMOUNT")
	t.Row(fmt.Sprintf("₹%d x %d h", b.HourlyPrice, b.Duration), fmt.Sprintf("₹%d", b.Total))
	t.Row(fmt.Sprintf("Platform fee (%.0f%%)", pricing.PlatformFeeRate*100), fmt.Sprintf("₹%d", b.PlatformFee))
	t.Row("Total", fmt.Sprintf("₹%d", b.FinalTotal))
	fmt.Fprintln(w, t)
}

// printStatistics 统计数据
func printStatistics(w io.Writer, s *models.Statistics) {
	t := newTable("METRIC", "TOTAL", "THIS MONTH")
	t.Row("Users", strconv.Itoa(s.TotalUsers), strconv.Itoa(s.NewUsersThisMonth))
	t.Row("Bookings", strconv.Itoa(s.TotalBookings), strconv.Itoa(s.BookingsThisMonth))
	t.Row("Revenue", fmt.Sprintf("₹%d", s.TotalRevenue), fmt.Sprintf("₹%d", s.RevenueThisMonth))
	t.Row("Active chargers", strconv.Itoa(s.ActiveChargers), "")
	t.Row("Pending approvals", strconv.Itoa(s.PendingApprovals), "")
	fmt.Fprintln(w, t)
}
