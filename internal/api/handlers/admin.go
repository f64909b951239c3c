package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/service"
)

type rejectHostRequest struct {
	Reason string `json:"reason"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid login request")
		return
	}

	admin, err := h.admin.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Failed to log in")
		return
	}

	token, err := h.sessions.StartAdmin(c.Request.Context(), sessionID(c), *admin)
	if err != nil {
		h.respondError(c, err, "Failed to start session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": struct {
		Token string            `json:"token"`
		Admin *models.AdminUser `json:"admin"`
	}{token, admin}})
}

// PendingHosts 待审核的上架申请
func (h *Handler) PendingHosts(c *gin.Context) {
	hosts, err := h.admin.PendingHosts(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to list pending hosts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hosts})
}

// ApproveHost 审核通过，请求体可选，用于覆盖部分字段
func (h *Handler) ApproveHost(c *gin.Context) {
	var req service.ApproveHostRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid approval request")
			return
		}
	}

	charger, err := h.admin.ApproveHost(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "Failed to approve host")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": charger})
}

// RejectHost 驳回申请，必须填写原因
func (h *Handler) RejectHost(c *gin.Context) {
	var req rejectHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid rejection request")
		return
	}

	host, err := h.admin.RejectHost(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.respondError(c, err, "Failed to reject host")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": host})
}

// AdminBookings 全部预约，可按状态筛选
func (h *Handler) AdminBookings(c *gin.Context) {
	bookings, err := h.admin.Bookings(c.Request.Context(), strings.TrimSpace(c.Query("status")))
	if err != nil {
		h.respondError(c, err, "Failed to list bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

// AdminUsers 用户列表，q 匹配姓名、邮箱或手机号
func (h *Handler) AdminUsers(c *gin.Context) {
	users, err := h.admin.Users(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		h.respondError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users})
}

// AdminStatistics 统计数据
func (h *Handler) AdminStatistics(c *gin.Context) {
	stats, err := h.admin.Statistics(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to load statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
