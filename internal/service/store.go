package service

import (
	"context"

	"github.com/langchou/sparkreach/internal/models"
)

// ChargerStore 充电桩存储
type ChargerStore interface {
	List(ctx context.Context) ([]*models.Charger, error)
	GetByID(ctx context.Context, id string) (*models.Charger, error)
	Create(ctx context.Context, c *models.Charger) error
	Count(ctx context.Context) (int, error)
}

// HostStore 房东申请存储
type HostStore interface {
	Create(ctx context.Context, h *models.HostApplication) error
	GetByID(ctx context.Context, id string) (*models.HostApplication, error)
	Update(ctx context.Context, h *models.HostApplication) error
	List(ctx context.Context, status string) ([]*models.HostApplication, error)
	ListByEmail(ctx context.Context, email string) ([]*models.HostApplication, error)
}

// BookingStore 预约存储，Create 负责时段占用检查
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)
	Update(ctx context.Context, b *models.Booking) error
	List(ctx context.Context, status string) ([]*models.Booking, error)
	ListByUser(ctx context.Context, email string) ([]*models.Booking, error)
}

// UserStore 用户存储
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// Stores 全部存储
type Stores struct {
	Chargers ChargerStore
	Hosts    HostStore
	Bookings BookingStore
	Users    UserStore
}

// EventPublisher 管理后台事件推送
type EventPublisher interface {
	BroadcastMessage(msgType string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) BroadcastMessage(string, interface{}) {}
