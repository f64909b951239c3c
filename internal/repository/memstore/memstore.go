// Package memstore 内存版数据仓库，默认存储后端，也用于测试
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/repository"
)

func cloneCharger(c *models.Charger) *models.Charger {
	cp := *c
	cp.Slots = append(models.Slots(nil), c.Slots...)
	cp.AdditionalImages = append([]string(nil), c.AdditionalImages...)
	cp.Amenities = append([]string(nil), c.Amenities...)
	return &cp
}

func cloneHost(h *models.HostApplication) *models.HostApplication {
	cp := *h
	cp.Slots = append(models.Slots(nil), h.Slots...)
	cp.Images = append([]string(nil), h.Images...)
	cp.Amenities = append([]string(nil), h.Amenities...)
	if h.ReviewedAt != nil {
		t := *h.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}

func cloneBooking(b *models.Booking) *models.Booking {
	cp := *b
	if b.Payment.CompletedAt != nil {
		t := *b.Payment.CompletedAt
		cp.Payment.CompletedAt = &t
	}
	return &cp
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	if u.EVDetails != nil {
		ev := *u.EVDetails
		ev.CompatibleChargers = append([]string(nil), u.EVDetails.CompatibleChargers...)
		cp.EVDetails = &ev
	}
	return &cp
}

// ChargerRepository 充电桩仓库
type ChargerRepository struct {
	mu    sync.RWMutex
	items []*models.Charger // 按上架顺序
}

// NewChargerRepository 创建仓库并写入初始目录
func NewChargerRepository(seed []*models.Charger) *ChargerRepository {
	r := &ChargerRepository{}
	for _, c := range seed {
		r.items = append(r.items, cloneCharger(c))
	}
	return r
}

// List 获取全部充电桩
func (r *ChargerRepository) List(_ context.Context) ([]*models.Charger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Charger, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, cloneCharger(c))
	}
	return out, nil
}

// GetByID 通过 ID 获取
func (r *ChargerRepository) GetByID(_ context.Context, id string) (*models.Charger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if c.ID == id {
			return cloneCharger(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create 上架充电桩
func (r *ChargerRepository) Create(_ context.Context, c *models.Charger) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ID == c.ID {
			return repository.ErrDuplicate
		}
	}
	r.items = append(r.items, cloneCharger(c))
	return nil
}

// Count 统计数量
func (r *ChargerRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

// HostRepository 房东申请仓库
type HostRepository struct {
	mu    sync.RWMutex
	items map[string]*models.HostApplication
}

// NewHostRepository 创建仓库
func NewHostRepository(seed []*models.HostApplication) *HostRepository {
	r := &HostRepository{items: make(map[string]*models.HostApplication)}
	for _, h := range seed {
		r.items[h.ID] = cloneHost(h)
	}
	return r
}

// Create 创建申请
func (r *HostRepository) Create(_ context.Context, h *models.HostApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[h.ID]; ok {
		return repository.ErrDuplicate
	}
	r.items[h.ID] = cloneHost(h)
	return nil
}

// GetByID 获取申请
func (r *HostRepository) GetByID(_ context.Context, id string) (*models.HostApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneHost(h), nil
}

// Update 更新申请
func (r *HostRepository) Update(_ context.Context, h *models.HostApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[h.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[h.ID] = cloneHost(h)
	return nil
}

// List 按状态列出，status 为空表示全部，按提交时间排序
func (r *HostRepository) List(_ context.Context, status string) ([]*models.HostApplication, error) {
	return r.filter(func(h *models.HostApplication) bool {
		return status == "" || h.Status == status
	}), nil
}

// ListByEmail 列出某个房东的申请
func (r *HostRepository) ListByEmail(_ context.Context, email string) ([]*models.HostApplication, error) {
	return r.filter(func(h *models.HostApplication) bool {
		return strings.EqualFold(h.HostEmail, email)
	}), nil
}

func (r *HostRepository) filter(keep func(*models.HostApplication) bool) []*models.HostApplication {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.HostApplication, 0)
	for _, h := range r.items {
		if keep(h) {
			out = append(out, cloneHost(h))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out
}

// BookingRepository 预约仓库
type BookingRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Booking
}

// NewBookingRepository 创建仓库
func NewBookingRepository(seed []*models.Booking) *BookingRepository {
	r := &BookingRepository{items: make(map[string]*models.Booking)}
	for _, b := range seed {
		r.items[b.ID] = cloneBooking(b)
	}
	return r
}

// Create 创建预约并占用时段
func (r *BookingRepository) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[b.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, existing := range r.items {
		if b.IdempotencyKey != "" && existing.IdempotencyKey == b.IdempotencyKey {
			return repository.ErrDuplicate
		}
		if existing.HoldsSlot() && b.HoldsSlot() &&
			existing.ChargerID == b.ChargerID && existing.Date == b.Date && existing.Slot == b.Slot {
			return repository.ErrSlotTaken
		}
	}
	r.items[b.ID] = cloneBooking(b)
	return nil
}

// GetByID 获取预约
func (r *BookingRepository) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneBooking(b), nil
}

// GetByIdempotencyKey 通过幂等键获取
func (r *BookingRepository) GetByIdempotencyKey(_ context.Context, key string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if key == "" {
		return nil, repository.ErrNotFound
	}
	for _, b := range r.items {
		if b.IdempotencyKey == key {
			return cloneBooking(b), nil
		}
	}
	return nil, repository.ErrNotFound
}

// Update 更新预约
func (r *BookingRepository) Update(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[b.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[b.ID] = cloneBooking(b)
	return nil
}

// List 按状态列出，status 为空表示全部，最新的在前
func (r *BookingRepository) List(_ context.Context, status string) ([]*models.Booking, error) {
	return r.filter(func(b *models.Booking) bool {
		return status == "" || b.Status == status
	}), nil
}

// ListByUser 列出某个用户的预约
func (r *BookingRepository) ListByUser(_ context.Context, email string) ([]*models.Booking, error) {
	return r.filter(func(b *models.Booking) bool {
		return email != "" && strings.EqualFold(b.UserEmail, email)
	}), nil
}

func (r *BookingRepository) filter(keep func(*models.Booking) bool) []*models.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Booking, 0)
	for _, b := range r.items {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UserRepository 用户仓库
type UserRepository struct {
	mu    sync.RWMutex
	items map[string]*models.User // key: 小写邮箱
}

// NewUserRepository 创建仓库
func NewUserRepository(seed []*models.User) *UserRepository {
	r := &UserRepository{items: make(map[string]*models.User)}
	for _, u := range seed {
		r.items[strings.ToLower(u.Email)] = cloneUser(u)
	}
	return r
}

// Create 注册用户
func (r *UserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := r.items[key]; ok {
		return repository.ErrDuplicate
	}
	r.items[key] = cloneUser(u)
	return nil
}

// GetByEmail 通过邮箱获取
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

// List 列出全部用户，最早注册的在前
func (r *UserRepository) List(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}
