package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/catalog"
	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/pricing"
	"github.com/langchou/sparkreach/internal/repository"
)

const (
	dateLayout      = "2006-01-02"
	defaultDuration = 2
)

// Quote 预约页面展示的报价
type Quote struct {
	Charger *models.Charger   `json:"charger"`
	Date    string            `json:"date"`
	Slot    string            `json:"slot"`
	Price   pricing.Breakdown `json:"price"`
}

// CatalogService 充电桩目录服务
type CatalogService struct {
	chargers ChargerStore
	bookings BookingStore
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewCatalogService 创建目录服务
func NewCatalogService(stores Stores, loc *time.Location, logger *zap.Logger) *CatalogService {
	if loc == nil {
		loc = time.UTC
	}
	return &CatalogService{
		chargers: stores.Chargers,
		bookings: stores.Bookings,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

// List 列表页：按搜索词和类型筛选，位置统一模糊处理
func (s *CatalogService) List(ctx context.Context, q catalog.Query, viewer *models.UserProfile) ([]*models.Charger, error) {
	all, err := s.chargers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chargers: %w", err)
	}

	q.Compatible = viewer.CompatibleChargers()
	if q.Type != "" && q.Type != catalog.TypeAll && q.Type != catalog.TypeCompatible && !models.IsListingType(q.Type) {
		return nil, invalid("type", fmt.Sprintf("unknown charger type %q", q.Type))
	}

	filtered := catalog.Filter(all, q)
	out := make([]*models.Charger, 0, len(filtered))
	for _, c := range filtered {
		obscured := c.Obscured()
		out = append(out, &obscured)
	}
	return out, nil
}

// Search 仅按关键字搜索
func (s *CatalogService) Search(ctx context.Context, text string, viewer *models.UserProfile) ([]*models.Charger, error) {
	return s.List(ctx, catalog.Query{Search: text}, viewer)
}

// Get 详情页：查看者持有已支付的预约时才返回精确位置
func (s *CatalogService) Get(ctx context.Context, id string, viewer *models.UserProfile) (*models.Charger, error) {
	c, err := s.charger(ctx, id)
	if err != nil {
		return nil, err
	}

	paid, err := s.hasPaidBooking(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if paid {
		return c, nil
	}
	obscured := c.Obscured()
	return &obscured, nil
}

// Nearby 附近的充电桩，按距离排序
func (s *CatalogService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]catalog.NearbyResult, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, invalid("lat/lng", "coordinates out of range")
	}
	if radiusKm <= 0 {
		return nil, invalid("radius", "must be positive")
	}

	all, err := s.chargers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chargers: %w", err)
	}
	// 距离按模糊后的坐标计算，避免反推精确位置
	obscured := make([]*models.Charger, len(all))
	for i, c := range all {
		o := c.Obscured()
		obscured[i] = &o
	}
	return catalog.Nearby(obscured, lat, lng, radiusKm), nil
}

// Quote 预约页：校验日期、时段、时长并计算价格
// date 为空时取今天，duration 为 0 时取 2 小时
func (s *CatalogService) Quote(ctx context.Context, id, date, slot string, duration int) (*Quote, error) {
	c, err := s.charger(ctx, id)
	if err != nil {
		return nil, err
	}

	if date == "" {
		date = s.now().In(s.loc).Format(dateLayout)
	}
	if duration == 0 {
		duration = defaultDuration
	}

	price, err := s.checkBookable(c, date, slot, duration)
	if err != nil {
		return nil, err
	}

	obscured := c.Obscured()
	return &Quote{Charger: &obscured, Date: date, Slot: slot, Price: price}, nil
}

// checkBookable 校验预约参数，返回价格明细
func (s *CatalogService) checkBookable(c *models.Charger, date, slot string, duration int) (pricing.Breakdown, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return pricing.Breakdown{}, invalid("date", "must be YYYY-MM-DD")
	}
	today := s.now().In(s.loc)
	if day.Before(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.loc)) {
		return pricing.Breakdown{}, invalid("date", "must not be in the past")
	}

	slot = strings.TrimSpace(slot)
	if slot == "" {
		return pricing.Breakdown{}, invalid("slot", "is required")
	}
	found, ok := c.SlotByTime(slot)
	if !ok {
		return pricing.Breakdown{}, invalid("slot", fmt.Sprintf("charger has no slot %q", slot))
	}
	if !found.Available {
		return pricing.Breakdown{}, conflict(CodeSlotUnavailable, fmt.Sprintf("slot %s is not available", slot))
	}

	price, err := pricing.Quote(c.Price, duration)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidDuration) {
			return pricing.Breakdown{}, invalid("duration", err.Error())
		}
		return pricing.Breakdown{}, fmt.Errorf("quote charger %s: %w", c.ID, err)
	}
	return price, nil
}

func (s *CatalogService) charger(ctx context.Context, id string) (*models.Charger, error) {
	c, err := s.chargers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("charger", id)
		}
		return nil, fmt.Errorf("get charger: %w", err)
	}
	return c, nil
}

func (s *CatalogService) hasPaidBooking(ctx context.Context, chargerID string, viewer *models.UserProfile) (bool, error) {
	if viewer == nil || viewer.Email == "" {
		return false, nil
	}
	bookings, err := s.bookings.ListByUser(ctx, viewer.Email)
	if err != nil {
		return false, fmt.Errorf("list user bookings: %w", err)
	}
	for _, b := range bookings {
		if b.ChargerID == chargerID && b.IsPaid() {
			return true, nil
		}
	}
	return false, nil
}
