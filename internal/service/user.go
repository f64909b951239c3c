package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/auth"
	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/repository"
)

const minPasswordLength = 6

// RegisterUserRequest 用户注册
type RegisterUserRequest struct {
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Password  string            `json:"password"`
	Phone     string            `json:"phone"`
	City      string            `json:"city"`
	EVDetails *models.EVDetails `json:"ev_details"`
}

// UserService 用户注册与登录
type UserService struct {
	users  UserStore
	hasher auth.Hasher
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService 创建用户服务
func NewUserService(stores Stores, hasher auth.Hasher, logger *zap.Logger) *UserService {
	return &UserService{users: stores.Users, hasher: hasher, logger: logger, now: time.Now}
}

// Register 注册用户
func (s *UserService) Register(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return nil, invalid("name", "is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, invalid("email", "is not a valid address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if req.EVDetails != nil {
		for _, t := range req.EVDetails.CompatibleChargers {
			if !models.IsListingType(t) && t != models.ChargerTypeType1 {
				return nil, invalid("ev_details.compatible_chargers", fmt.Sprintf("unknown charger type %q", t))
			}
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		City:         strings.TrimSpace(req.City),
		EVDetails:    req.EVDetails,
		PasswordHash: hash,
		JoinedAt:     s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict(CodeEmailTaken, "email is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", zap.String("user_id", u.ID))
	return u, nil
}

// Login 校验邮箱与密码
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u.PasswordHash == "" || s.hasher.Compare(u.PasswordHash, password) != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	return u, nil
}
