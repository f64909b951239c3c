package models

import (
	"strings"
	"time"
)

// EVDetails 用户车辆信息
type EVDetails struct {
	Make               string   `json:"make,omitempty"`
	Model              string   `json:"model,omitempty"`
	Year               string   `json:"year,omitempty"`
	BatteryCapacity    string   `json:"battery_capacity,omitempty"`
	CompatibleChargers []string `json:"compatible_chargers,omitempty"`
}

// UserProfile 会话中保存的用户资料（session key: user）
type UserProfile struct {
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	City      string     `json:"city,omitempty"`
	EVDetails *EVDetails `json:"ev_details,omitempty"`
}

// CompatibleChargers 返回兼容类型列表（可能为空）
func (p *UserProfile) CompatibleChargers() []string {
	if p == nil || p.EVDetails == nil {
		return nil
	}
	return p.EVDetails.CompatibleChargers
}

// CompatibleWith 列表为空时视为兼容所有类型
func (p *UserProfile) CompatibleWith(chargerType string) bool {
	list := p.CompatibleChargers()
	if len(list) == 0 {
		return true
	}
	for _, t := range list {
		if t == chargerType {
			return true
		}
	}
	return false
}

// User 注册用户
type User struct {
	ID            string     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Email         string     `json:"email" db:"email"`
	Phone         string     `json:"phone" db:"phone"`
	City          string     `json:"city" db:"city"`
	EVDetails     *EVDetails `json:"ev_details,omitempty" db:"ev_details"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	TotalBookings int        `json:"total_bookings" db:"-"`
	TotalSpent    int        `json:"total_spent" db:"-"`
	JoinedAt      time.Time  `json:"joined_at" db:"joined_at"`
}

// Profile 生成会话资料
func (u *User) Profile() UserProfile {
	return UserProfile{
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		City:      u.City,
		EVDetails: u.EVDetails,
	}
}

// Matches 管理后台用户搜索：姓名、邮箱不区分大小写，手机号子串
func (u *User) Matches(q string) bool {
	if q == "" {
		return true
	}
	lq := strings.ToLower(q)
	return strings.Contains(strings.ToLower(u.Name), lq) ||
		strings.Contains(strings.ToLower(u.Email), lq) ||
		strings.Contains(u.Phone, q)
}

// AdminUser 管理员（session key: adminUser）
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
