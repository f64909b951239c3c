package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/auth"
	"github.com/langchou/sparkreach/internal/catalog"
	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/repository"
	"github.com/langchou/sparkreach/pkg/ws"
)

// StatusAll 管理后台预约筛选：全部
const StatusAll = "all"

// AdminCredentials 管理员账号，PasswordHash 为 bcrypt 哈希
type AdminCredentials struct {
	Email        string
	Name         string
	PasswordHash string
}

// ApproveHostRequest 审核通过时可覆盖的充电桩字段
type ApproveHostRequest struct {
	Location *string `json:"location"`
	Area     *string `json:"area"`
	Address  *string `json:"address"`
	Type     *string `json:"type"`
	Power    *string `json:"power"`
	Price    *int    `json:"price"`
}

// HostReview 推送到管理后台的审核结果
type HostReview struct {
	Host    *models.HostApplication `json:"host"`
	Charger *models.Charger         `json:"charger,omitempty"`
}

// AdminService 管理后台
type AdminService struct {
	mu        sync.Mutex // 串行化审核，保证每个申请只处理一次
	stores    Stores
	admin     AdminCredentials
	hasher    auth.Hasher
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAdminService 创建管理后台服务
func NewAdminService(stores Stores, admin AdminCredentials, hasher auth.Hasher, publisher EventPublisher, logger *zap.Logger) *AdminService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &AdminService{
		stores:    stores,
		admin:     admin,
		hasher:    hasher,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Login 校验管理员账号
func (s *AdminService) Login(_ context.Context, email, password string) (*models.AdminUser, error) {
	if !strings.EqualFold(strings.TrimSpace(email), s.admin.Email) ||
		s.hasher.Compare(s.admin.PasswordHash, password) != nil {
		s.logger.Warn("Admin login failed", zap.String("email", email))
		return nil, fmt.Errorf("%w: invalid admin credentials", ErrUnauthorized)
	}
	return &models.AdminUser{ID: "admin", Email: s.admin.Email, Name: s.admin.Name}, nil
}

// PendingHosts 待审核申请
func (s *AdminService) PendingHosts(ctx context.Context) ([]*models.HostApplication, error) {
	hosts, err := s.stores.Hosts.List(ctx, models.HostStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending hosts: %w", err)
	}
	return hosts, nil
}

func (s *AdminService) pendingHost(ctx context.Context, id string) (*models.HostApplication, error) {
	h, err := s.stores.Hosts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("host application", id)
		}
		return nil, fmt.Errorf("get host application: %w", err)
	}
	if h.Status != models.HostStatusPending {
		return nil, conflict(CodeAlreadyReviewed, fmt.Sprintf("application is already %s", h.Status))
	}
	return h, nil
}

// ApproveHost 审核通过，充电桩上架
func (s *AdminService) ApproveHost(ctx context.Context, id string, req ApproveHostRequest) (*models.Charger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.pendingHost(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := h.ToCharger(uuid.NewString(), now)
	if req.Location != nil {
		c.Location = strings.TrimSpace(*req.Location)
	}
	if req.Area != nil {
		c.Area = strings.TrimSpace(*req.Area)
	}
	if req.Address != nil {
		c.Address = strings.TrimSpace(*req.Address)
	}
	if req.Type != nil {
		c.Type = *req.Type
	}
	if req.Power != nil {
		c.Power = strings.TrimSpace(*req.Power)
	}
	if req.Price != nil {
		c.Price = *req.Price
	}
	if err := catalog.Validate(c); err != nil {
		return nil, invalid("charger", err.Error())
	}

	if err := s.stores.Chargers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create charger: %w", err)
	}

	h.Status = models.HostStatusApproved
	h.ChargerID = c.ID
	h.ReviewedAt = &now
	if err := s.stores.Hosts.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("update host application: %w", err)
	}

	s.logger.Info("Host approved", zap.String("host_id", h.ID), zap.String("charger_id", c.ID))
	s.publisher.BroadcastMessage(ws.MsgTypeHostReviewed, HostReview{Host: h, Charger: c})
	return c, nil
}

// RejectHost 驳回申请，必须填写原因
func (s *AdminService) RejectHost(ctx context.Context, id, reason string) (*models.HostApplication, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.pendingHost(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	h.Status = models.HostStatusRejected
	h.RejectionReason = reason
	h.ReviewedAt = &now
	if err := s.stores.Hosts.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("update host application: %w", err)
	}

	s.logger.Info("Host rejected", zap.String("host_id", h.ID))
	s.publisher.BroadcastMessage(ws.MsgTypeHostReviewed, HostReview{Host: h})
	return h, nil
}

// Bookings 按状态筛选预约，空或 all 表示全部
func (s *AdminService) Bookings(ctx context.Context, status string) ([]*models.Booking, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == StatusAll {
		status = ""
	}
	if status != "" && !contains(models.BookingStatuses, status) {
		return nil, invalid("status", fmt.Sprintf("must be one of all, %s", strings.Join(models.BookingStatuses, ", ")))
	}

	bookings, err := s.stores.Bookings.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// Users 用户列表，附带预约次数与消费总额
func (s *AdminService) Users(ctx context.Context, q string) ([]*models.User, error) {
	users, err := s.stores.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	bookings, err := s.stores.Bookings.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	type totals struct{ count, spent int }
	byEmail := make(map[string]totals)
	for _, b := range bookings {
		if !b.IsPaid() {
			continue
		}
		key := strings.ToLower(b.UserEmail)
		t := byEmail[key]
		t.count++
		t.spent += b.FinalTotal
		byEmail[key] = t
	}

	q = strings.TrimSpace(q)
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if !u.Matches(q) {
			continue
		}
		t := byEmail[strings.ToLower(u.Email)]
		u.TotalBookings = t.count
		u.TotalSpent = t.spent
		out = append(out, u)
	}
	return out, nil
}

// Statistics 概览数据，收入只统计已支付的预约
func (s *AdminService) Statistics(ctx context.Context) (*models.Statistics, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	users, err := s.stores.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	chargers, err := s.stores.Chargers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chargers: %w", err)
	}
	pending, err := s.stores.Hosts.List(ctx, models.HostStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending hosts: %w", err)
	}
	bookings, err := s.stores.Bookings.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	stats := &models.Statistics{
		TotalUsers:       len(users),
		ActiveChargers:   chargers,
		PendingApprovals: len(pending),
	}
	for _, u := range users {
		if !u.JoinedAt.Before(monthStart) {
			stats.NewUsersThisMonth++
		}
	}
	for _, b := range bookings {
		if b.Status == models.BookingStatusPending {
			continue
		}
		thisMonth := !b.CreatedAt.Before(monthStart)
		stats.TotalBookings++
		if thisMonth {
			stats.BookingsThisMonth++
		}
		if b.IsPaid() {
			stats.TotalRevenue += b.FinalTotal
			if thisMonth {
				stats.RevenueThisMonth += b.FinalTotal
			}
		}
	}
	return stats, nil
}
