package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

// RegisterUser 注册并登录
func (h *Handler) RegisterUser(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid registration request")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to register user")
		return
	}

	h.startUserSession(c, http.StatusCreated, user)
}

// LoginUser 用户登录
func (h *Handler) LoginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid login request")
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Failed to log in")
		return
	}

	h.startUserSession(c, http.StatusOK, user)
}

func (h *Handler) startUserSession(c *gin.Context, status int, user *models.User) {
	profile := user.Profile()
	token, err := h.sessions.StartUser(c.Request.Context(), sessionID(c), profile)
	if err != nil {
		h.respondError(c, err, "Failed to start session")
		return
	}

	c.JSON(status, gin.H{"data": authResponse{Token: token, User: &profile}})
}

// GetProfile 当前用户资料
func (h *Handler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": principal(c).Profile()})
}

// Logout 清除会话，用户与管理员共用
func (h *Handler) Logout(c *gin.Context) {
	redirect, err := h.sessions.Logout(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err, "Failed to log out")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"redirect": redirect}})
}
