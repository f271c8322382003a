package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"footfall-data/internal/config"
	"footfall-data/internal/database"
	"footfall-data/internal/httpapi"
	"footfall-data/internal/logger"
	"footfall-data/internal/repository"
	"footfall-data/internal/service"
	"footfall-data/internal/store"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "footfall-data")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting footfall-data service")

	// 数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis（会话存储）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// 仓库与服务
	readingsRepo := repository.NewPostgresReadingsRepository(db, log)
	usersRepo := repository.NewPostgresUsersRepository(db, log)
	kv := store.NewRedisKV(redisClient)

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	authSvc := service.NewAuthService(usersRepo, kv, sessionTTL, log)
	dashboardSvc, err := service.NewDashboardService(readingsRepo, cfg.Areas, log)
	if err != nil {
		log.Fatal("Failed to create dashboard service", zap.Error(err))
	}
	distributionSvc := service.NewDistributionService(readingsRepo)
	userSvc := service.NewUserService(usersRepo, log)

	// 路由
	router := httpapi.NewRouter(log)
	authHandler := httpapi.NewAuthHandler(authSvc, log)
	router.RegisterAuthRoutes(authHandler)
	router.RegisterDashboardRoutes(authHandler, httpapi.NewDashboardHandler(dashboardSvc, distributionSvc, readingsRepo, log))
	router.RegisterAdminRoutes(authHandler, httpapi.NewUsersHandler(userSvc, log))

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down server", zap.Error(err))
	}

	log.Info("Service stopped")
}
