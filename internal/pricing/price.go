// Package pricing 预约费用计算
package pricing

import (
	"errors"
	"math"
)

// 时长范围（小时）
const (
	MinDuration = 1
	MaxDuration = 8
)

// PlatformFeeRate 平台服务费率
const PlatformFeeRate = 0.05

var (
	ErrInvalidDuration = errors.New("pricing: duration must be between 1 and 8 hours")
	ErrInvalidPrice    = errors.New("pricing: hourly price must be positive")
)

// Breakdown 费用明细
type Breakdown struct {
	HourlyPrice int `json:"hourly_price"`
	Duration    int `json:"duration"`
	Total       int `json:"total_price"`
	PlatformFee int `json:"platform_fee"`
	FinalTotal  int `json:"final_total"`
}

// Calculate 不做任何校验的原始计算
// total = price*duration, fee = round(total*0.05), final = total+fee
func Calculate(price, duration int) Breakdown {
	total := price * duration
	fee := int(math.Round(float64(total) * PlatformFeeRate))
	return Breakdown{
		HourlyPrice: price,
		Duration:    duration,
		Total:       total,
		PlatformFee: fee,
		FinalTotal:  total + fee,
	}
}

// Quote 校验输入后计算
func Quote(price, duration int) (Breakdown, error) {
	if price <= 0 {
		return Breakdown{}, ErrInvalidPrice
	}
	if duration < MinDuration || duration > MaxDuration {
		return Breakdown{}, ErrInvalidDuration
	}
	return Calculate(price, duration), nil
}

// AmountInPaise 网关金额单位为派萨
func (b Breakdown) AmountInPaise() int {
	return b.FinalTotal * 100
}
