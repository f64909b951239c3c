package models

import "time"

// 预约状态
const (
	BookingStatusPending   = "pending"   // 草稿，等待支付
	BookingStatusUpcoming  = "upcoming"  // 已支付
	BookingStatusCompleted = "completed" // 时段已结束
	BookingStatusCancelled = "cancelled"
)

// BookingStatuses 管理后台可筛选的状态
var BookingStatuses = []string{
	BookingStatusPending,
	BookingStatusUpcoming,
	BookingStatusCompleted,
	BookingStatusCancelled,
}

// 支付方式
const (
	PaymentModeGateway = "gateway"
	PaymentModeDemo    = "demo"
)

// Payment 支付记录
type Payment struct {
	Mode               string     `json:"mode,omitempty"`
	State              string     `json:"state"`
	OrderID            string     `json:"order_id,omitempty"`
	PaymentID          string     `json:"payment_id,omitempty"`
	Amount             int        `json:"amount"` // 单位：派萨
	Currency           string     `json:"currency"`
	FailureCode        string     `json:"failure_code,omitempty"`
	FailureDescription string     `json:"failure_description,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// Booking 预约（草稿在支付成功前一直处于 pending）
type Booking struct {
	ID              string    `json:"id" db:"id"`
	ChargerID       string    `json:"charger_id" db:"charger_id"`
	ChargerLocation string    `json:"charger_location" db:"charger_location"`
	ChargerArea     string    `json:"charger_area" db:"charger_area"`
	UserEmail       string    `json:"user_email,omitempty" db:"user_email"`
	UserName        string    `json:"user_name" db:"user_name"`
	Phone           string    `json:"phone" db:"phone"`
	VehicleNumber   string    `json:"vehicle_number,omitempty" db:"vehicle_number"`
	Date            string    `json:"date" db:"date"` // YYYY-MM-DD
	Slot            string    `json:"slot" db:"slot"`
	Duration        int       `json:"duration" db:"duration"` // 小时
	HourlyPrice     int       `json:"hourly_price" db:"hourly_price"`
	TotalPrice      int       `json:"total_price" db:"total_price"`
	PlatformFee     int       `json:"platform_fee" db:"platform_fee"`
	FinalTotal      int       `json:"final_total" db:"final_total"`
	Status          string    `json:"status" db:"status"`
	Payment         Payment   `json:"payment" db:"payment"`
	IdempotencyKey  string    `json:"-" db:"idempotency_key"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HoldsSlot 是否占用时段
func (b *Booking) HoldsSlot() bool {
	return b.Status != BookingStatusCancelled
}

// IsPaid 是否已支付
func (b *Booking) IsPaid() bool {
	return b.Status == BookingStatusUpcoming || b.Status == BookingStatusCompleted
}

// SlotEnd 解析时段结束时间
func (b *Booking) SlotEnd(loc *time.Location) (time.Time, bool) {
	if len(b.Slot) != len("00:00-00:00") {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Slot[6:], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
