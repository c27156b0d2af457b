package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yashrajoria/laptop-admin/backend/api-gateway/middlewares"
	"github.com/yashrajoria/laptop-admin/backend/api-gateway/routes"
	"github.com/yashrajoria/laptop-admin/backend/api-gateway/utils"
	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"github.com/yashrajoria/laptop-admin/backend/services/common/metrics"
	"github.com/yashrajoria/laptop-admin/backend/services/common/middleware"
	"go.uber.org/zap"
)

const serviceName = "api-gateway"

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		panic("failed to load AWS config: " + err.Error())
	}
	var shipper io.Writer
	if cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err == nil && cwLogs.IsEnabled() {
		shipper = cwLogs
	}
	log, err := logger.InitializeWithWriter(cfg.Env, shipper)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	sessions, err := auth.NewSessions(cfg.JWTSecret)
	if err != nil {
		zap.L().Fatal("Failed to configure sessions", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry, serviceName)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(httpMetrics.Middleware())
	r.Use(middleware.MetricsMiddleware(awspkg.NewMetricsClient(awsCfg), serviceName))
	r.Use(middlewares.NewSessionRefresher(sessions, cfg.AuthServiceURL, 10*time.Second).Middleware())

	routes.RegisterAllRoutes(r,
		utils.NewForwarder(cfg.AuthServiceURL, cfg.UpstreamTimeout).Handler(),
		utils.NewForwarder(cfg.CatalogServiceURL, cfg.UpstreamTimeout).Handler(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})
	r.GET("/metrics", metrics.Handler(registry))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("API Gateway listening",
			zap.String("port", cfg.Port),
			zap.String("auth", cfg.AuthServiceURL),
			zap.String("catalog", cfg.CatalogServiceURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	zap.L().Info("Server exited cleanly")
}
