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

	"github.com/langchou/sparkreach/internal/api/razorpay"
	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/receipt"
	"github.com/langchou/sparkreach/internal/repository"
	"github.com/langchou/sparkreach/internal/state"
	"github.com/langchou/sparkreach/pkg/ws"
)

const currencyINR = "INR"

// 网关失败原因
const (
	FailureOrderCreation     = "order_creation_failed"
	FailureSignatureMismatch = "signature_mismatch"
	FailureDraftExpired      = "draft_expired"
)

// PaymentGateway 支付网关（Razorpay）
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// CreateBookingRequest 创建预约草稿
type CreateBookingRequest struct {
	ChargerID           string `json:"charger_id"`
	Date                string `json:"date"`
	Slot                string `json:"slot"`
	Duration            int    `json:"duration"`
	Name                string `json:"name"`
	Phone               string `json:"phone"`
	VehicleNumber       string `json:"vehicle_number"`
	ConfirmIncompatible bool   `json:"confirm_incompatible"`
	IdempotencyKey      string `json:"-"`
}

// VerifyPaymentRequest 网关回调参数
type VerifyPaymentRequest struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// OrderResult 前端打开收银台所需信息
type OrderResult struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"order_id"`
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"key_id"`
	TestMode  bool   `json:"test_mode"`
}

// PaymentEvent 推送到管理后台的支付状态变化
type PaymentEvent struct {
	BookingID string    `json:"booking_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	At        time.Time `json:"at"`
}

// BookingOptions 预约服务配置
type BookingOptions struct {
	DemoDelay       time.Duration
	GatewayTestMode bool
	Location        *time.Location
}

// BookingService 预约与支付流程
type BookingService struct {
	catalog   *CatalogService
	chargers  ChargerStore
	bookings  BookingStore
	gateway   PaymentGateway
	publisher EventPublisher
	machines  *state.Manager
	logger    *zap.Logger
	opts      BookingOptions
	now       func() time.Time

	// 串行化预约的读-改-写
	mu sync.Mutex

	timersMu sync.Mutex
	timers   map[string]*time.Timer
	wg       sync.WaitGroup
}

// NewBookingService 创建预约服务，gateway 为 nil 时只能使用演示支付
func NewBookingService(
	catalogSvc *CatalogService,
	stores Stores,
	gateway PaymentGateway,
	publisher EventPublisher,
	opts BookingOptions,
	logger *zap.Logger,
) *BookingService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	svc := &BookingService{
		catalog:   catalogSvc,
		chargers:  stores.Chargers,
		bookings:  stores.Bookings,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		timers:    make(map[string]*time.Timer),
	}

	// 创建支付状态机管理器
	svc.machines = state.NewManager(svc.onStateChange)
	return svc
}

// onStateChange 状态变化回调，在状态机锁内执行
func (s *BookingService) onStateChange(bookingID, from, to string) {
	s.logger.Info("Payment state changed",
		zap.String("booking_id", bookingID),
		zap.String("from", from),
		zap.String("to", to),
	)
	s.publisher.BroadcastMessage(ws.MsgTypePaymentUpdate, PaymentEvent{
		BookingID: bookingID,
		From:      from,
		To:        to,
		At:        s.now(),
	})
}

// PaymentStates 当前内存中的支付状态机
func (s *BookingService) PaymentStates() map[string]*state.PaymentState {
	return s.machines.GetAllStates()
}

// Create 创建预约草稿并占用时段，重复的幂等键返回原草稿
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest, profile *models.UserProfile) (*models.Booking, bool, error) {
	if req.IdempotencyKey != "" {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return replay(existing, profile)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, fmt.Errorf("lookup idempotency key: %w", err)
		}
	}

	// 登录用户的资料预填
	if profile != nil {
		if strings.TrimSpace(req.Name) == "" {
			req.Name = profile.Name
		}
		if strings.TrimSpace(req.Phone) == "" {
			req.Phone = profile.Phone
		}
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" {
		return nil, false, invalid("name", "is required")
	}
	if req.Phone == "" {
		return nil, false, invalid("phone", "is required")
	}

	c, err := s.catalog.charger(ctx, req.ChargerID)
	if err != nil {
		return nil, false, err
	}
	if req.Duration == 0 {
		req.Duration = defaultDuration
	}
	price, err := s.catalog.checkBookable(c, req.Date, req.Slot, req.Duration)
	if err != nil {
		return nil, false, err
	}

	if !profile.CompatibleWith(c.Type) && !req.ConfirmIncompatible {
		return nil, false, conflict(CodeIncompatibleCharger,
			fmt.Sprintf("%s charger is not in your vehicle's compatible list", c.Type))
	}

	now := s.now()
	b := &models.Booking{
		ID:              uuid.NewString(),
		ChargerID:       c.ID,
		ChargerLocation: c.Location,
		ChargerArea:     c.Area,
		UserName:        req.Name,
		Phone:           req.Phone,
		VehicleNumber:   strings.TrimSpace(req.VehicleNumber),
		Date:            req.Date,
		Slot:            strings.TrimSpace(req.Slot),
		Duration:        price.Duration,
		HourlyPrice:     price.HourlyPrice,
		TotalPrice:      price.Total,
		PlatformFee:     price.PlatformFee,
		FinalTotal:      price.FinalTotal,
		Status:          models.BookingStatusPending,
		IdempotencyKey:  req.IdempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
		Payment: models.Payment{
			State:     state.StateIdle,
			Amount:    price.AmountInPaise(),
			Currency:  currencyINR,
			UpdatedAt: now,
		},
	}
	if profile != nil {
		b.UserEmail = profile.Email
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, false, conflict(CodeSlotTaken,
				fmt.Sprintf("slot %s on %s is already booked", b.Slot, b.Date))
		case errors.Is(err, repository.ErrDuplicate) && req.IdempotencyKey != "":
			// 并发请求使用了同一幂等键
			existing, getErr := s.bookings.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr != nil {
				return nil, false, fmt.Errorf("lookup idempotency key: %w", getErr)
			}
			return replay(existing, profile)
		default:
			return nil, false, fmt.Errorf("create booking: %w", err)
		}
	}

	s.machines.GetOrCreate(b.ID, state.StateIdle)
	s.logger.Info("Booking draft created",
		zap.String("booking_id", b.ID),
		zap.String("charger_id", b.ChargerID),
		zap.String("date", b.Date),
		zap.String("slot", b.Slot),
		zap.Int("final_total", b.FinalTotal),
	)
	s.publisher.BroadcastMessage(ws.MsgTypeBookingUpdate, b)
	return b, true, nil
}

// replay 幂等键只对创建者有效
func replay(existing *models.Booking, profile *models.UserProfile) (*models.Booking, bool, error) {
	email := ""
	if profile != nil {
		email = profile.Email
	}
	if !strings.EqualFold(existing.UserEmail, email) {
		return nil, false, conflict(CodeIdempotencyKey, "idempotency key belongs to another booking request")
	}
	return existing, false, nil
}

// Get 获取预约
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("booking", id)
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// ListForUser 用户自己的预约
func (s *BookingService) ListForUser(ctx context.Context, email string) ([]*models.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return bookings, nil
}

// transition 触发状态机事件并写回预约，mutate 可修改支付信息
func (s *BookingService) transition(ctx context.Context, id, event string, mutate func(b *models.Booking)) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// 演示支付只能以成功结束
	if b.Payment.Mode == models.PaymentModeDemo && (event == state.EventFail || event == state.EventDismiss) {
		return nil, conflict(CodePaymentState,
			fmt.Sprintf("demo payment is %s, cannot %s", b.Payment.State, event))
	}

	m := s.machines.GetOrCreate(b.ID, b.Payment.State)
	if err := m.Trigger(ctx, event); err != nil {
		if errors.Is(err, state.ErrTransition) {
			return nil, conflict(CodePaymentState,
				fmt.Sprintf("payment is %s, cannot %s", m.CurrentState(), event))
		}
		return nil, err
	}

	now := s.now()
	to := m.CurrentState()
	b.Payment.State = to
	b.Payment.UpdatedAt = now
	b.UpdatedAt = now
	switch to {
	case state.StateSucceeded:
		b.Status = models.BookingStatusUpcoming
		b.Payment.CompletedAt = &now
	case state.StateFailed, state.StateCancelled:
		// 释放时段
		b.Status = models.BookingStatusCancelled
	}
	if mutate != nil {
		mutate(b)
	}

	if err := s.bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	if state.IsTerminal(to) {
		s.machines.Remove(b.ID)
	}

	s.publisher.BroadcastMessage(ws.MsgTypeBookingUpdate, b)
	return b, nil
}

// CreateOrder 网关支付：进入 processing 并在网关创建订单，创建失败时支付失败
func (s *BookingService) CreateOrder(ctx context.Context, id string) (*OrderResult, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	b, err := s.transition(ctx, id, state.EventCheckout, func(b *models.Booking) {
		b.Payment.Mode = models.PaymentModeGateway
	})
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   b.Payment.Amount,
		Currency: b.Payment.Currency,
		Receipt:  b.ID,
		Notes: map[string]string{
			"charger_id": b.ChargerID,
			"date":       b.Date,
			"slot":       b.Slot,
		},
	})
	if err != nil {
		s.logger.Error("Failed to create gateway order", zap.String("booking_id", b.ID), zap.Error(err))
		if _, failErr := s.transition(ctx, id, state.EventFail, func(b *models.Booking) {
			b.Payment.FailureCode = FailureOrderCreation
			b.Payment.FailureDescription = err.Error()
		}); failErr != nil {
			s.logger.Error("Failed to mark payment failed", zap.String("booking_id", b.ID), zap.Error(failErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if err := s.setOrderID(ctx, id, order.ID); err != nil {
		s.logger.Warn("Gateway order not attached", zap.String("booking_id", b.ID), zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}

	return &OrderResult{
		BookingID: b.ID,
		OrderID:   order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		KeyID:     s.gateway.KeyID(),
		TestMode:  s.opts.GatewayTestMode,
	}, nil
}

func (s *BookingService) setOrderID(ctx context.Context, id, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	// 网关调用期间草稿可能已被关闭或超时取消
	if b.Payment.State != state.StateProcessing {
		return conflict(CodePaymentState,
			fmt.Sprintf("payment is %s, order %s discarded", b.Payment.State, orderID))
	}
	b.Payment.OrderID = orderID
	b.Payment.UpdatedAt = s.now()
	if err := s.bookings.Update(ctx, b); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// VerifyPayment 校验网关签名，成功则支付完成，不匹配则支付失败
func (s *BookingService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*models.Booking, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	if req.BookingID == "" {
		return nil, invalid("booking_id", "is required")
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, invalid("", "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}

	b, err := s.Get(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Payment.OrderID != req.OrderID {
		return nil, invalid("razorpay_order_id", "does not match the booking's order")
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.Warn("Payment signature mismatch", zap.String("booking_id", b.ID), zap.String("order_id", req.OrderID))
		if _, err := s.transition(ctx, b.ID, state.EventFail, func(b *models.Booking) {
			b.Payment.PaymentID = req.PaymentID
			b.Payment.FailureCode = FailureSignatureMismatch
			b.Payment.FailureDescription = "payment signature verification failed"
		}); err != nil {
			return nil, err
		}
		return nil, invalid("razorpay_signature", "verification failed")
	}

	return s.transition(ctx, b.ID, state.EventSucceed, func(b *models.Booking) {
		b.Payment.PaymentID = req.PaymentID
	})
}

// ReportFailure 网关收银台报告支付失败
func (s *BookingService) ReportFailure(ctx context.Context, id, code, description string) (*models.Booking, error) {
	return s.transition(ctx, id, state.EventFail, func(b *models.Booking) {
		b.Payment.FailureCode = code
		b.Payment.FailureDescription = description
	})
}

// Dismiss 用户关闭收银台
func (s *BookingService) Dismiss(ctx context.Context, id string) (*models.Booking, error) {
	return s.transition(ctx, id, state.EventDismiss, nil)
}

// StartDemo 演示支付：进入 processing，固定延迟后必定成功
func (s *BookingService) StartDemo(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.transition(ctx, id, state.EventDemo, func(b *models.Booking) {
		b.Payment.Mode = models.PaymentModeDemo
	})
	if err != nil {
		return nil, err
	}

	s.timersMu.Lock()
	s.wg.Add(1)
	s.timers[id] = time.AfterFunc(s.opts.DemoDelay, func() {
		defer s.wg.Done()
		s.completeDemo(id)
	})
	s.timersMu.Unlock()

	return b, nil
}

func (s *BookingService) completeDemo(id string) {
	s.timersMu.Lock()
	delete(s.timers, id)
	s.timersMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.transition(ctx, id, state.EventSucceed, func(b *models.Booking) {
		b.Payment.PaymentID = "demo_" + b.ID
	}); err != nil {
		s.logger.Warn("Demo payment did not complete", zap.String("booking_id", id), zap.Error(err))
	}
}

// Stop 停止未触发的演示支付定时器，等待执行中的回调结束
func (s *BookingService) Stop() {
	s.timersMu.Lock()
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.timersMu.Unlock()
	s.wg.Wait()
}

// Receipt 支付完成后的 PDF 凭证
func (s *BookingService) Receipt(ctx context.Context, id string) ([]byte, string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !b.IsPaid() {
		return nil, "", conflict(CodePaymentIncomplete, "receipt is available once payment succeeds")
	}

	c, err := s.catalog.charger(ctx, b.ChargerID)
	if err != nil {
		return nil, "", err
	}
	return receipt.Build(b, c)
}

// CancelStaleDrafts 取消超时未支付的草稿并释放时段
func (s *BookingService) CancelStaleDrafts(ctx context.Context, ttl time.Duration) (int, error) {
	drafts, err := s.bookings.List(ctx, models.BookingStatusPending)
	if err != nil {
		return 0, fmt.Errorf("list drafts: %w", err)
	}

	cutoff := s.now().Add(-ttl)
	cancelled := 0
	for _, b := range drafts {
		if b.CreatedAt.After(cutoff) {
			continue
		}
		// 正在演示支付的草稿不处理
		if b.Payment.State == state.StateProcessing && b.Payment.Mode == models.PaymentModeDemo {
			continue
		}
		done, err := s.expire(ctx, b.ID)
		if err != nil {
			s.logger.Warn("Failed to cancel stale draft", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		if done {
			cancelled++
		}
	}
	return cancelled, nil
}

// expire 草稿超时：idle 触发 expire，processing 视为关闭收银台
func (s *BookingService) expire(ctx context.Context, id string) (bool, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if b.Status != models.BookingStatusPending {
		return false, nil
	}

	event := state.EventExpire
	if b.Payment.State == state.StateProcessing {
		event = state.EventDismiss
	}
	_, err = s.transition(ctx, id, event, func(b *models.Booking) {
		b.Payment.FailureCode = FailureDraftExpired
	})
	if ConflictCode(err) == CodePaymentState {
		// 状态已被其他请求推进
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CompletePast 时段结束的已支付预约标记为 completed
func (s *BookingService) CompletePast(ctx context.Context) (int, error) {
	upcoming, err := s.bookings.List(ctx, models.BookingStatusUpcoming)
	if err != nil {
		return 0, fmt.Errorf("list upcoming: %w", err)
	}

	now := s.now()
	completed := 0
	for _, b := range upcoming {
		end, ok := b.SlotEnd(s.opts.Location)
		if !ok || end.After(now) {
			continue
		}
		done, err := s.complete(ctx, b.ID, now)
		if err != nil {
			s.logger.Warn("Failed to complete booking", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		if done {
			completed++
		}
	}
	return completed, nil
}

func (s *BookingService) complete(ctx context.Context, id string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if b.Status != models.BookingStatusUpcoming {
		return false, nil
	}
	b.Status = models.BookingStatusCompleted
	b.UpdatedAt = now
	if err := s.bookings.Update(ctx, b); err != nil {
		return false, fmt.Errorf("update booking: %w", err)
	}
	s.publisher.BroadcastMessage(ws.MsgTypeBookingUpdate, b)
	return true, nil
}
