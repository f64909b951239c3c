package models

import "time"

// 房东申请状态
const (
	HostStatusPending  = "pending"
	HostStatusApproved = "approved"
	HostStatusRejected = "rejected"
)

// HostApplication 房东提交的充电桩上架申请
type HostApplication struct {
	ID              string     `json:"id" db:"id"`
	Location        string     `json:"location" db:"location"`
	Area            string     `json:"area" db:"area"`
	Address         string     `json:"address" db:"address"`
	Type            string     `json:"type" db:"type"`
	Power           string     `json:"power" db:"power"`
	Price           int        `json:"price" db:"price"`
	Description     string     `json:"description,omitempty" db:"description"`
	Amenities       []string   `json:"amenities" db:"amenities"`
	Latitude        float64    `json:"lat" db:"latitude"`
	Longitude       float64    `json:"lng" db:"longitude"`
	Images          []string   `json:"images" db:"images"`
	Slots           Slots      `json:"slots" db:"slots"`
	HostName        string     `json:"host_name" db:"host_name"`
	HostEmail       string     `json:"host_email,omitempty" db:"host_email"`
	HostPhone       string     `json:"host_phone,omitempty" db:"host_phone"`
	Status          string     `json:"status" db:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ChargerID       string     `json:"charger_id,omitempty" db:"charger_id"`
	SubmittedAt     time.Time  `json:"submitted_at" db:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
}

// ToCharger 审核通过后生成的充电桩
func (h *HostApplication) ToCharger(id string, now time.Time) *Charger {
	c := &Charger{
		ID:          id,
		Location:    h.Location,
		Area:        h.Area,
		Address:     h.Address,
		Type:        h.Type,
		Power:       h.Power,
		Price:       h.Price,
		Slots:       append(Slots(nil), h.Slots...),
		Latitude:    h.Latitude,
		Longitude:   h.Longitude,
		Amenities:   append([]string(nil), h.Amenities...),
		Description: h.Description,
		HostName:    h.HostName,
		CreatedAt:   now,
	}
	if len(h.Images) > 0 {
		c.Image = h.Images[0]
		c.AdditionalImages = append([]string(nil), h.Images[1:]...)
	}
	return c
}
