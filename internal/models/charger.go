package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// 充电桩接口类型
const (
	ChargerTypeType2   = "Type 2"
	ChargerTypeCCS     = "CCS"
	ChargerTypeCHAdeMO = "CHAdeMO"
	ChargerTypeType1   = "Type 1" // 仅作为用户车辆的兼容类型
)

// ListingTypes 可上架的充电桩类型
var ListingTypes = []string{ChargerTypeType2, ChargerTypeCCS, ChargerTypeCHAdeMO}

// IsListingType 检查是否为可上架的类型
func IsListingType(t string) bool {
	for _, lt := range ListingTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// Slot 可预约时段
type Slot struct {
	Time      string `json:"time" yaml:"time"` // HH:MM-HH:MM
	Available bool   `json:"available" yaml:"available"`
}

// Slots 时段列表，数据库中以 JSONB 存储
type Slots []Slot

// Value 实现 driver.Valuer 接口
func (s Slots) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *Slots) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported slots type %T", value)
	}
}

// DefaultSlots 房东表单的默认时段：06:00-22:00 每两小时一段
func DefaultSlots() Slots {
	slots := make(Slots, 0, 8)
	for h := 6; h < 22; h += 2 {
		slots = append(slots, Slot{Time: fmt.Sprintf("%02d:00-%02d:00", h, h+2), Available: true})
	}
	return slots
}

// Charger 充电桩信息
type Charger struct {
	ID               string    `json:"id" db:"id" yaml:"id"`
	Location         string    `json:"location" db:"location" yaml:"location"`
	Area             string    `json:"area" db:"area" yaml:"area"`
	Address          string    `json:"address,omitempty" db:"address" yaml:"address"`
	Type             string    `json:"type" db:"type" yaml:"type"`
	Power            string    `json:"power" db:"power" yaml:"power"` // 如 "7.4 kW"
	Price            int       `json:"price" db:"price" yaml:"price"` // 每小时价格（卢比）
	Rating           float64   `json:"rating" db:"rating" yaml:"rating"`
	Reviews          int       `json:"reviews" db:"reviews" yaml:"reviews"`
	Slots            Slots     `json:"slots" db:"slots" yaml:"slots"`
	Latitude         float64   `json:"lat" db:"latitude" yaml:"lat"`
	Longitude        float64   `json:"lng" db:"longitude" yaml:"lng"`
	Image            string    `json:"image,omitempty" db:"image" yaml:"image"`
	AdditionalImages []string  `json:"additional_images,omitempty" db:"additional_images" yaml:"additional_images"`
	Amenities        []string  `json:"amenities,omitempty" db:"amenities" yaml:"amenities"`
	Description      string    `json:"description,omitempty" db:"description" yaml:"description"`
	HostName         string    `json:"host_name,omitempty" db:"host_name" yaml:"host_name"`
	Approximate      bool      `json:"approximate,omitempty" db:"-" yaml:"-"` // 位置已模糊处理
	CreatedAt        time.Time `json:"created_at" db:"created_at" yaml:"-"`
}

// SlotByTime 按时间段查找时段
func (c *Charger) SlotByTime(t string) (Slot, bool) {
	for _, s := range c.Slots {
		if s.Time == t {
			return s, true
		}
	}
	return Slot{}, false
}

// Obscured 返回隐藏精确位置的副本
// 坐标保留两位小数（约 1 公里），地址清空，支付完成后才公开
func (c Charger) Obscured() Charger {
	c.Latitude = math.Round(c.Latitude*100) / 100
	c.Longitude = math.Round(c.Longitude*100) / 100
	c.Address = ""
	c.Approximate = true
	return c
}
