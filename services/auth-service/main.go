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
	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/controllers"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/database"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/routes"
	"github.com/yashrajoria/laptop-admin/backend/services/auth-service/services"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"github.com/yashrajoria/laptop-admin/backend/services/common/metrics"
	"github.com/yashrajoria/laptop-admin/backend/services/common/middleware"
	"go.uber.org/zap"
)

const serviceName = "auth-service"

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

	if err := database.Connect(cfg.MongoURL, cfg.MongoDBName); err != nil {
		zap.L().Fatal("Database connection failed", zap.Error(err))
	}
	users := repository.NewUserRepository(database.DB)
	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	if err := users.EnsureIndexes(indexCtx); err != nil {
		zap.L().Fatal("Failed to ensure indexes", zap.Error(err))
	}
	cancelIndexes()

	blobStore, err := storage.Open(ctx, cfg.BlobConfig(), awsCfg)
	if err != nil {
		zap.L().Fatal("Failed to initialise blob storage", zap.Error(err))
	}

	var events awspkg.EventPublisher = awspkg.NopPublisher{}
	if cfg.SNSTopicARN != "" {
		pub, err := awspkg.NewSNSPublisher(awsCfg, cfg.SNSTopicARN)
		if err != nil {
			zap.L().Fatal("Failed to create SNS publisher", zap.Error(err))
		}
		events = pub
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry, serviceName)
	images := storage.NewImageManager(blobStore,
		storage.WithObserver(metrics.NewImageMetrics(registry)),
		storage.WithEvents(events),
	)

	sessions, err := auth.NewSessions(cfg.JWTSecret)
	if err != nil {
		zap.L().Fatal("Failed to configure sessions", zap.Error(err))
	}

	var google controllers.OAuthFlow
	if cfg.GoogleEnabled() {
		google = controllers.NewGothicGoogle(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.PublicBaseURL+"/api/auth/google/callback",
			cfg.SessionSecret,
			cfg.CookieSecure,
		)
	} else {
		zap.L().Warn("Google sign-in disabled: GOOGLE_CLIENT_ID not set")
	}

	authService := services.NewAuthService(users, sessions, services.NewTokenService(), services.ParseAdminList(cfg.AdminEmails), events)
	accountService := services.NewAccountService(users, images)

	authCtrl := controllers.NewAuthController(authService, sessions, google,
		controllers.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}, cfg.FrontendURL)
	accountCtrl := controllers.NewAccountController(accountService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders())
	r.Use(httpMetrics.Middleware())
	r.Use(middleware.MetricsMiddleware(awspkg.NewMetricsClient(awsCfg), serviceName))
	r.Use(apperrors.ErrorMiddleware())

	// CORS is handled by the API gateway.
	limiter := middleware.PerMinute(20, 10).Middleware()
	routes.RegisterRoutes(r, sessions, limiter, authCtrl, accountCtrl)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})
	r.GET("/metrics", metrics.Handler(registry))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Auth Service started", zap.String("port", cfg.Port), zap.Bool("google", cfg.GoogleEnabled()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Server error", zap.Error(err))
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
	if err := database.Close(); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}
	zap.L().Info("Server exited cleanly")
}
