package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/pkg/ws"
)

// 上传文件类型
const (
	UploadPhoto = "photo"
	UploadVideo = "video"
)

var uploadExtensions = map[string][]string{
	UploadPhoto: {".jpg", ".jpeg", ".png", ".webp"},
	UploadVideo: {".mp4", ".mov", ".webm"},
}

// RegisterHostRequest 房东上架表单
type RegisterHostRequest struct {
	Location    string       `json:"location"`
	Area        string       `json:"area"`
	Address     string       `json:"address"`
	Type        string       `json:"type"`
	Power       string       `json:"power"`
	Price       int          `json:"price"`
	Description string       `json:"description"`
	Amenities   []string     `json:"amenities"`
	Latitude    float64      `json:"lat"`
	Longitude   float64      `json:"lng"`
	Images      []string     `json:"images"`
	Slots       models.Slots `json:"slots"`
	HostName    string       `json:"host_name"`
	HostEmail   string       `json:"host_email"`
	HostPhone   string       `json:"host_phone"`
}

// HostService 房东上架申请
type HostService struct {
	hosts     HostStore
	publisher EventPublisher
	uploadDir string
	logger    *zap.Logger
	now       func() time.Time
}

// NewHostService 创建房东服务
func NewHostService(stores Stores, publisher EventPublisher, uploadDir string, logger *zap.Logger) *HostService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &HostService{
		hosts:     stores.Hosts,
		publisher: publisher,
		uploadDir: uploadDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Register 提交上架申请，未填写时段时使用默认时段，只保留可用时段
func (s *HostService) Register(ctx context.Context, req RegisterHostRequest, profile *models.UserProfile) (*models.HostApplication, error) {
	req.Location = strings.TrimSpace(req.Location)
	req.Area = strings.TrimSpace(req.Area)
	req.Power = strings.TrimSpace(req.Power)

	switch {
	case req.Location == "":
		return nil, invalid("location", "is required")
	case req.Area == "":
		return nil, invalid("area", "is required")
	case !models.IsListingType(req.Type):
		return nil, invalid("type", fmt.Sprintf("must be one of %s", strings.Join(models.ListingTypes, ", ")))
	case req.Power == "":
		return nil, invalid("power", "is required")
	case req.Price <= 0:
		return nil, invalid("price", "must be positive")
	case req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180:
		return nil, invalid("lat/lng", "coordinates out of range")
	}

	if len(req.Slots) == 0 {
		req.Slots = models.DefaultSlots()
	}
	slots := make(models.Slots, 0, len(req.Slots))
	for _, slot := range req.Slots {
		if slot.Available {
			slots = append(slots, slot)
		}
	}
	if len(slots) == 0 {
		return nil, invalid("slots", "at least one slot must be available")
	}

	if profile != nil {
		if req.HostName == "" {
			req.HostName = profile.Name
		}
		if req.HostEmail == "" {
			req.HostEmail = profile.Email
		}
		if req.HostPhone == "" {
			req.HostPhone = profile.Phone
		}
	}

	h := &models.HostApplication{
		ID:          uuid.NewString(),
		Location:    req.Location,
		Area:        req.Area,
		Address:     strings.TrimSpace(req.Address),
		Type:        req.Type,
		Power:       req.Power,
		Price:       req.Price,
		Description: strings.TrimSpace(req.Description),
		Amenities:   req.Amenities,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Images:      req.Images,
		Slots:       slots,
		HostName:    strings.TrimSpace(req.HostName),
		HostEmail:   strings.TrimSpace(req.HostEmail),
		HostPhone:   strings.TrimSpace(req.HostPhone),
		Status:      models.HostStatusPending,
		SubmittedAt: s.now(),
	}
	if err := s.hosts.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create host application: %w", err)
	}

	s.logger.Info("Host application submitted", zap.String("host_id", h.ID), zap.String("location", h.Location))
	s.publisher.BroadcastMessage(ws.MsgTypeHostSubmitted, h)
	return h, nil
}

// MyListings 某个房东提交过的申请
func (s *HostService) MyListings(ctx context.Context, email string) ([]*models.HostApplication, error) {
	if email == "" {
		return nil, invalid("email", "is required")
	}
	hosts, err := s.hosts.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list host applications: %w", err)
	}
	return hosts, nil
}

// SaveUpload 保存照片或视频，返回访问路径
func (s *HostService) SaveUpload(kind, filename string, r io.Reader) (string, error) {
	allowed, ok := uploadExtensions[kind]
	if !ok {
		return "", invalid("kind", fmt.Sprintf("unknown upload kind %q", kind))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !contains(allowed, ext) {
		return "", invalid(kind, fmt.Sprintf("unsupported file type %q", ext))
	}

	dir := filepath.Join(s.uploadDir, kind+"s")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}

	s.logger.Info("Upload saved", zap.String("kind", kind), zap.String("name", name), zap.Int64("bytes", n))
	return "/uploads/" + kind + "s/" + name, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
