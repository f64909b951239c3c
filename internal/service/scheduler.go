package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Sweeper 定时清理：取消超时草稿，完成已结束的预约
type Sweeper struct {
	bookings  *BookingService
	scheduler gocron.Scheduler
	draftTTL  time.Duration
	logger    *zap.Logger
}

// NewSweeper 创建定时任务
func NewSweeper(bookings *BookingService, interval, draftTTL time.Duration, logger *zap.Logger) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	sw := &Sweeper{
		bookings:  bookings,
		scheduler: s,
		draftTTL:  draftTTL,
		logger:    logger,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sw.Sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("create sweep job: %w", err)
	}
	return sw, nil
}

// Start 启动调度
func (sw *Sweeper) Start() {
	sw.logger.Info("Starting booking sweeper", zap.Duration("draft_ttl", sw.draftTTL))
	sw.scheduler.Start()
}

// Sweep 执行一轮清理
func (sw *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cancelled, err := sw.bookings.CancelStaleDrafts(ctx, sw.draftTTL)
	if err != nil {
		sw.logger.Error("Failed to cancel stale drafts", zap.Error(err))
	}
	completed, err := sw.bookings.CompletePast(ctx)
	if err != nil {
		sw.logger.Error("Failed to complete past bookings", zap.Error(err))
	}
	if cancelled > 0 || completed > 0 {
		sw.logger.Info("Booking sweep finished", zap.Int("cancelled", cancelled), zap.Int("completed", completed))
	}
}

// Stop 停止调度
func (sw *Sweeper) Stop() error {
	return sw.scheduler.Shutdown()
}
