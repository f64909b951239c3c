package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/auth"
	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/session"
)

// 退出登录后的跳转页面
const (
	RedirectHome       = "/"
	RedirectAdminLogin = "/admin/login"
)

// ErrSessionMalformed 会话中的数据无法解析，按未登录处理
var ErrSessionMalformed = fmt.Errorf("%w: malformed session", ErrUnauthorized)

// Principal 当前请求的调用者
type Principal struct {
	SessionID string
	Token     string
	User      *models.UserProfile
	Admin     *models.AdminUser
}

// Profile 用户资料，未登录时为 nil
func (p *Principal) Profile() *models.UserProfile {
	if p == nil {
		return nil
	}
	return p.User
}

// IsAdmin 是否持有管理员登录信息
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Admin != nil
}

// SessionService 会话：bearer token 携带会话 ID，会话中保存 user/adminToken/adminUser
type SessionService struct {
	store  session.Store
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewSessionService 创建会话服务
func NewSessionService(store session.Store, tokens *auth.TokenService, logger *zap.Logger) *SessionService {
	return &SessionService{store: store, tokens: tokens, logger: logger}
}

// Resolve 解析 bearer token，token 为空时返回 nil
func (s *SessionService) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	p := &Principal{SessionID: claims.SessionID, Token: token}

	var profile models.UserProfile
	switch err := session.GetJSON(ctx, s.store, p.SessionID, session.KeyUser, &profile); {
	case err == nil:
		p.User = &profile
	case errors.Is(err, session.ErrMalformed):
		s.logger.Warn("Malformed user session", zap.String("session_id", p.SessionID), zap.Error(err))
		return p, ErrSessionMalformed
	case !errors.Is(err, session.ErrNotFound):
		return nil, fmt.Errorf("load session: %w", err)
	}

	if claims.Role != auth.RoleAdmin {
		return p, nil
	}

	var adminToken string
	if err := session.GetJSON(ctx, s.store, p.SessionID, session.KeyAdminToken, &adminToken); err != nil {
		if errors.Is(err, session.ErrMalformed) {
			return p, ErrSessionMalformed
		}
		if errors.Is(err, session.ErrNotFound) {
			return p, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if adminToken != token {
		return p, nil
	}

	var admin models.AdminUser
	if err := session.GetJSON(ctx, s.store, p.SessionID, session.KeyAdminUser, &admin); err != nil {
		if errors.Is(err, session.ErrMalformed) {
			s.logger.Warn("Malformed admin session", zap.String("session_id", p.SessionID), zap.Error(err))
			return p, ErrSessionMalformed
		}
		if errors.Is(err, session.ErrNotFound) {
			return p, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	p.Admin = &admin
	return p, nil
}

// StartUser 写入用户资料并签发 token，sid 为空时新建会话
func (s *SessionService) StartUser(ctx context.Context, sid string, profile models.UserProfile) (string, error) {
	if sid == "" {
		sid = uuid.NewString()
	}
	if err := session.SetJSON(ctx, s.store, sid, session.KeyUser, profile); err != nil {
		return "", fmt.Errorf("save user session: %w", err)
	}
	token, err := s.tokens.Generate(sid, auth.RoleUser)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// StartAdmin 写入 adminToken 与 adminUser，sid 为空时新建会话
func (s *SessionService) StartAdmin(ctx context.Context, sid string, admin models.AdminUser) (string, error) {
	if sid == "" {
		sid = uuid.NewString()
	}
	token, err := s.tokens.Generate(sid, auth.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := session.SetJSON(ctx, s.store, sid, session.KeyAdminToken, token); err != nil {
		return "", fmt.Errorf("save admin session: %w", err)
	}
	if err := session.SetJSON(ctx, s.store, sid, session.KeyAdminUser, admin); err != nil {
		return "", fmt.Errorf("save admin session: %w", err)
	}
	return token, nil
}

// Logout 清除会话中的全部 key，返回跳转页面
func (s *SessionService) Logout(ctx context.Context, sid string) (string, error) {
	if sid == "" {
		return RedirectHome, nil
	}
	hadAdmin, err := session.Logout(ctx, s.store, sid)
	if err != nil {
		return "", err
	}
	if hadAdmin {
		return RedirectAdminLogin, nil
	}
	return RedirectHome, nil
}
