package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(RequestID(), RequestLogger(h.logger))

	// API 路由
	api := r.Group("/api", h.Authenticate())
	{
		// 充电桩
		api.GET("/chargers", h.ListChargers)
		api.GET("/chargers/search", h.SearchChargers)
		api.GET("/chargers/nearby", h.NearbyChargers)
		api.GET("/chargers/:id", h.GetCharger)
		api.GET("/chargers/:id/quote", h.QuoteCharger)

		// 预约与支付
		api.POST("/bookings/create", h.CreateBooking)
		api.POST("/bookings/verify-payment", h.VerifyPayment)
		api.GET("/bookings/my-bookings", h.RequireUser(), h.MyBookings)
		api.GET("/bookings/:id", h.GetBooking)
		api.GET("/bookings/:id/receipt.pdf", h.BookingReceipt)
		api.POST("/bookings/:id/payment/demo", h.DemoPayment)
		api.POST("/bookings/:id/payment/failed", h.PaymentFailed)
		api.POST("/bookings/:id/payment/dismiss", h.DismissPayment)
		api.POST("/payment/create-order", h.CreatePaymentOrder)

		// 房东
		api.POST("/hosts/register", h.RegisterHost)
		api.POST("/hosts/upload-photo", h.UploadPhoto)
		api.POST("/hosts/upload-video", h.UploadVideo)
		api.GET("/hosts/my-listings", h.RequireUser(), h.MyListings)

		// 用户
		api.POST("/users/register", h.RegisterUser)
		api.POST("/users/login", h.LoginUser)
		api.GET("/users/profile", h.RequireUser(), h.GetProfile)
		api.POST("/users/logout", h.Logout)

		// 管理后台
		api.POST("/admin/login", h.AdminLogin)
		api.POST("/admin/logout", h.Logout)
		admin := api.Group("/admin", h.RequireAdmin())
		{
			admin.GET("/pending-hosts", h.PendingHosts)
			admin.POST("/approve-host/:id", h.ApproveHost)
			admin.POST("/reject-host/:id", h.RejectHost)
			admin.GET("/bookings", h.AdminBookings)
			admin.GET("/users", h.AdminUsers)
			admin.GET("/statistics", h.AdminStatistics)
		}
	}

	// 上传的照片与视频
	r.Static("/uploads", h.uploadDir)

	// WebSocket
	r.GET("/ws", h.Authenticate(), h.RequireAdmin(), h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}
