package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/service"
)

const (
	requestIDKey    = "request_id"
	principalKey    = "principal"
	sessionErrorKey = "session_error"
	requestIDHeader = "X-Request-ID"
)

// RequestID 为每个请求分配 ID，写入响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestLogger 请求日志
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}
	}
}

// bearerToken 读取 Authorization 头，WebSocket 可使用 token 查询参数
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// Authenticate 解析调用者，失败时按游客处理并记录原因
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.sessions.Resolve(c.Request.Context(), bearerToken(c))
		if err != nil {
			if !errors.Is(err, service.ErrUnauthorized) {
				h.logger.Error("Failed to resolve session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
				return
			}
			c.Set(sessionErrorKey, err)
		}
		if p != nil {
			c.Set(principalKey, p)
		}
		c.Next()
	}
}

// principal 当前调用者，游客为 nil
func principal(c *gin.Context) *service.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*service.Principal)
	return p
}

// sessionID 当前会话 ID，未登录时为空
func sessionID(c *gin.Context) string {
	if p := principal(c); p != nil {
		return p.SessionID
	}
	return ""
}

// RequireUser 需要用户登录
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := principal(c); p != nil && p.User != nil && !sessionBroken(c) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "Login required",
			"redirect": service.RedirectHome,
		})
	}
}

// RequireAdmin 需要管理员登录
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := principal(c); p.IsAdmin() && !sessionBroken(c) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "Admin login required",
			"redirect": service.RedirectAdminLogin,
		})
	}
}

func sessionBroken(c *gin.Context) bool {
	_, broken := c.Get(sessionErrorKey)
	return broken
}
