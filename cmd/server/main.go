package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/sparkreach/internal/api/handlers"
	"github.com/langchou/sparkreach/internal/api/razorpay"
	"github.com/langchou/sparkreach/internal/auth"
	"github.com/langchou/sparkreach/internal/catalog"
	"github.com/langchou/sparkreach/internal/config"
	"github.com/langchou/sparkreach/internal/models"
	"github.com/langchou/sparkreach/internal/repository"
	"github.com/langchou/sparkreach/internal/repository/memstore"
	"github.com/langchou/sparkreach/internal/service"
	"github.com/langchou/sparkreach/internal/session"
	"github.com/langchou/sparkreach/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting SparkReach",
		zap.String("port", cfg.ServerPort),
		zap.String("store", cfg.Store),
		zap.String("session_backend", cfg.SessionBackend),
	)
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set, using the development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 充电桩目录
	chargers := catalog.MockChargers()
	if cfg.CatalogFile != "" {
		chargers, err = catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			logger.Fatal("Failed to load catalog", zap.String("file", cfg.CatalogFile), zap.Error(err))
		}
		logger.Info("Catalog loaded", zap.String("file", cfg.CatalogFile), zap.Int("chargers", len(chargers)))
	}

	// 存储
	stores, closeStores, err := openStores(ctx, cfg, chargers, logger)
	if err != nil {
		logger.Fatal("Failed to open stores", zap.Error(err))
	}
	defer closeStores()

	// 会话
	sessionStore, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open session store", zap.Error(err))
	}
	defer closeSessions()

	hasher := auth.NewBcryptHasher(0)
	adminHash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		logger.Fatal("Failed to hash admin password", zap.Error(err))
	}

	// 支付网关
	var gateway service.PaymentGateway
	if cfg.GatewayEnabled() {
		gateway = razorpay.NewClient(cfg.RazorpayAPIHost, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
		logger.Info("Razorpay gateway enabled", zap.Bool("test_mode", cfg.RazorpayTestMode))
	} else {
		logger.Info("Razorpay keys not configured, only demo payment is available")
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	loc := cfg.Location()
	catalogSvc := service.NewCatalogService(stores, loc, logger)
	bookingSvc := service.NewBookingService(catalogSvc, stores, gateway, wsHub, service.BookingOptions{
		DemoDelay:       cfg.DemoPaymentDelay,
		GatewayTestMode: cfg.RazorpayTestMode,
		Location:        loc,
	}, logger)
	adminSvc := service.NewAdminService(stores, service.AdminCredentials{
		Email:        cfg.AdminEmail,
		Name:         cfg.AdminName,
		PasswordHash: adminHash,
	}, hasher, wsHub, logger)

	wsHub.SetInitDataProvider(func() *ws.InitData {
		initCtx, initCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer initCancel()

		data := &ws.InitData{Payments: bookingSvc.PaymentStates()}
		if pending, err := adminSvc.PendingHosts(initCtx); err == nil {
			data.PendingHosts = pending
		} else {
			logger.Error("Failed to load pending hosts", zap.Error(err))
		}
		if stats, err := adminSvc.Statistics(initCtx); err == nil {
			data.Statistics = stats
		} else {
			logger.Error("Failed to load statistics", zap.Error(err))
		}
		return data
	})

	// 定时清理
	sweeper, err := service.NewSweeper(bookingSvc, cfg.SweepInterval, cfg.DraftTTL, logger)
	if err != nil {
		logger.Fatal("Failed to create sweeper", zap.Error(err))
	}
	sweeper.Start()

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, handlers.Services{
		Catalog:  catalogSvc,
		Bookings: bookingSvc,
		Hosts:    service.NewHostService(stores, wsHub, cfg.UploadDir, logger),
		Users:    service.NewUserService(stores, hasher, logger),
		Admin:    adminSvc,
		Sessions: service.NewSessionService(sessionStore, auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL), logger),
	}, wsHub, cfg.UploadDir, cfg.CORSAllowedOrigins)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORSAllowedOrigins))
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sweeper.Stop(); err != nil {
		logger.Error("Failed to stop sweeper", zap.Error(err))
	}
	bookingSvc.Stop()
	cancel()

	logger.Info("Server exited")
}

// openStores 按配置创建内存或 PostgreSQL 存储
func openStores(ctx context.Context, cfg *config.Config, chargers []*models.Charger, logger *zap.Logger) (service.Stores, func(), error) {
	if cfg.Store == config.BackendPostgres {
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return service.Stores{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return service.Stores{}, nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Database migrated successfully")

		chargerRepo := repository.NewChargerRepository(db)
		if cfg.SeedMockData || cfg.CatalogFile != "" {
			if err := chargerRepo.Seed(ctx, chargers); err != nil {
				db.Close()
				return service.Stores{}, nil, fmt.Errorf("seed chargers: %w", err)
			}
		}
		return service.Stores{
			Chargers: chargerRepo,
			Hosts:    repository.NewHostRepository(db),
			Bookings: repository.NewBookingRepository(db),
			Users:    repository.NewUserRepository(db),
		}, db.Close, nil
	}

	var data catalog.AdminData
	if cfg.SeedMockData {
		data = catalog.MockAdminData(time.Now().In(cfg.Location()))
	}
	return service.Stores{
		Chargers: memstore.NewChargerRepository(chargers),
		Hosts:    memstore.NewHostRepository(data.PendingHosts),
		Bookings: memstore.NewBookingRepository(data.Bookings),
		Users:    memstore.NewUserRepository(data.Users),
	}, func() {}, nil
}

// openSessions 按配置创建内存或 Redis 会话存储
func openSessions(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionBackend != config.BackendRedis {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
}

// initLogger 初始化日志，LOG_LEVEL 覆盖默认级别
func initLogger(debug bool, level string) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			config.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
