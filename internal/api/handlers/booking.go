package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/service"
)

// CreateBooking 创建预约草稿，支持 Idempotency-Key 头
func (h *Handler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid booking request")
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	booking, created, err := h.bookings.Create(c.Request.Context(), req, principal(c).Profile())
	if err != nil {
		h.respondError(c, err, "Failed to create booking")
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": booking})
}

// canView 预约归属检查：游客草稿任何持有 ID 的人可见，登录用户的预约仅本人与管理员可见
func canView(p *service.Principal, b *models.Booking) bool {
	if b.UserEmail == "" || p.IsAdmin() {
		return true
	}
	profile := p.Profile()
	return profile != nil && strings.EqualFold(profile.Email, b.UserEmail)
}

// loadBooking 读取并检查归属，失败时已写入响应
func (h *Handler) loadBooking(c *gin.Context, id string) (*models.Booking, bool) {
	booking, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get booking")
		return nil, false
	}
	if !canView(principal(c), booking) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("booking %s: not found", id)})
		return nil, false
	}
	return booking, true
}

// GetBooking 预约详情（确认页）
func (h *Handler) GetBooking(c *gin.Context) {
	booking, ok := h.loadBooking(c, c.Param("id"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

// MyBookings 当前用户的预约
func (h *Handler) MyBookings(c *gin.Context) {
	bookings, err := h.bookings.ListForUser(c.Request.Context(), principal(c).Profile().Email)
	if err != nil {
		h.respondError(c, err, "Failed to list bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

// BookingReceipt 下载 PDF 凭证
func (h *Handler) BookingReceipt(c *gin.Context) {
	if _, ok := h.loadBooking(c, c.Param("id")); !ok {
		return
	}

	data, filename, err := h.bookings.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to build receipt")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

type createOrderRequest struct {
	BookingID string `json:"booking_id"`
}

// CreatePaymentOrder 网关支付：创建订单
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == "" {
		badRequest(c, "booking_id is required")
		return
	}
	if _, ok := h.loadBooking(c, req.BookingID); !ok {
		return
	}

	order, err := h.bookings.CreateOrder(c.Request.Context(), req.BookingID)
	if err != nil {
		h.respondError(c, err, "Failed to create payment order")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// VerifyPayment 网关支付：校验签名
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid payment verification request")
		return
	}
	if req.BookingID != "" {
		if _, ok := h.loadBooking(c, req.BookingID); !ok {
			return
		}
	}

	booking, err := h.bookings.VerifyPayment(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to verify payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

type paymentFailedRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// PaymentFailed 收银台报告支付失败
func (h *Handler) PaymentFailed(c *gin.Context) {
	var req paymentFailedRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid failure report")
			return
		}
	}
	if _, ok := h.loadBooking(c, c.Param("id")); !ok {
		return
	}

	booking, err := h.bookings.ReportFailure(c.Request.Context(), c.Param("id"), req.Code, req.Description)
	if err != nil {
		h.respondError(c, err, "Failed to record payment failure")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

// DismissPayment 用户关闭收银台
func (h *Handler) DismissPayment(c *gin.Context) {
	if _, ok := h.loadBooking(c, c.Param("id")); !ok {
		return
	}

	booking, err := h.bookings.Dismiss(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to cancel payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

// DemoPayment 演示支付，立即返回 processing，延迟后自动成功
func (h *Handler) DemoPayment(c *gin.Context) {
	if _, ok := h.loadBooking(c, c.Param("id")); !ok {
		return
	}

	booking, err := h.bookings.StartDemo(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to start demo payment")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": booking})
}
