package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/sparkreach/internal/service"
	"github.com/langchou/sparkreach/pkg/ws"
)

// Services 处理器依赖的业务服务
type Services struct {
	Catalog  *service.CatalogService
	Bookings *service.BookingService
	Hosts    *service.HostService
	Users    *service.UserService
	Admin    *service.AdminService
	Sessions *service.SessionService
}

// Handler HTTP 处理器
type Handler struct {
	logger    *zap.Logger
	catalog   *service.CatalogService
	bookings  *service.BookingService
	hosts     *service.HostService
	users     *service.UserService
	admin     *service.AdminService
	sessions  *service.SessionService
	wsHub     *ws.Hub
	uploadDir string
	upgrader  websocket.Upgrader
}

// NewHandler 创建处理器，allowedOrigins 为空时 WebSocket 允许所有来源
func NewHandler(logger *zap.Logger, svc Services, wsHub *ws.Hub, uploadDir string, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Handler{
		logger:    logger,
		catalog:   svc.Catalog,
		bookings:  svc.Bookings,
		hosts:     svc.Hosts,
		users:     svc.Users,
		admin:     svc.Admin,
		sessions:  svc.Sessions,
		wsHub:     wsHub,
		uploadDir: uploadDir,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
	}
}

// HandleWebSocket 管理后台事件推送
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
