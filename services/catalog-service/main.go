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
	"github.com/redis/go-redis/v9"
	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/controllers"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/database"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/models"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/routes"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/services"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/validation"
	"github.com/yashrajoria/laptop-admin/backend/services/common/auth"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"github.com/yashrajoria/laptop-admin/backend/services/common/metrics"
	"github.com/yashrajoria/laptop-admin/backend/services/common/middleware"
	"go.uber.org/zap"
)

const serviceName = "catalog-service"

func main() {
	// Load .env file (optional, falls back to system env)
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

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName)
	if err != nil {
		panic("failed to initialise CloudWatch Logs: " + err.Error())
	}
	var shipper io.Writer
	if cwLogs.IsEnabled() {
		shipper = cwLogs
	}
	log, err := logger.InitializeWithWriter(cfg.Env, shipper)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// --- 1. Infrastructure ---

	if err := database.ConnectWithConfig(cfg.MongoURL, cfg.MongoDBName); err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	indexCtx, cancelIndexes := context.WithTimeout(ctx, 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, database.DB); err != nil {
		zap.L().Fatal("Failed to ensure indexes", zap.Error(err))
	}
	cancelIndexes()

	var listCache *controllers.ListCache
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zap.L().Warn("Failed to parse REDIS_URL, list cache disabled", zap.Error(err))
		} else {
			redisClient = redis.NewClient(opts)
			listCache = controllers.NewListCache(redisClient, controllers.DefaultCacheTTL)
		}
	}

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
	imageMetrics := metrics.NewImageMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry, serviceName)
	cwMetrics := awspkg.NewMetricsClient(awsCfg)

	sessions, err := auth.NewSessions(cfg.JWTSecret)
	if err != nil {
		zap.L().Fatal("Failed to configure sessions", zap.Error(err))
	}

	// --- 2. Dependency Injection ---

	brands := repository.NewCollection[models.Brand](database.DB, repository.Brands)
	categories := repository.NewCollection[models.Category](database.DB, repository.Categories)
	components := repository.NewCollection[models.Component](database.DB, repository.Components)
	items := repository.NewCollection[models.ComponentItem](database.DB, repository.ComponentItems)
	accessories := repository.NewCollection[models.Accessory](database.DB, repository.Accessories)

	images := storage.NewImageManager(blobStore,
		storage.WithObserver(imageMetrics),
		storage.WithEvents(events),
	)
	identifiers := services.NewIdentifierService(map[validation.Kind]services.IdentifierField{
		validation.KindBrand:         {Finder: brands, Field: "brandName", Display: "brandName"},
		validation.KindCategory:      {Finder: categories, Field: "categoryName", Display: "categoryName"},
		validation.KindComponent:     {Finder: components, Field: "componentName", Display: "componentName"},
		validation.KindComponentItem: {Finder: items, Field: "slug", Display: "model"},
		validation.KindAccessory:     {Finder: accessories, Field: "slug", Display: "name"},
	})

	handlers := routes.Handlers{
		Brands: controllers.NewEntityController[services.BrandRequest, models.Brand](
			"brands", services.NewBrandService(brands, identifiers, images,
				services.Inbound{From: items, Field: "brand", Title: "component items"},
				services.Inbound{From: accessories, Field: "brand", Title: "accessories"},
			), listCache),
		Categories: controllers.NewEntityController[services.CategoryRequest, models.Category](
			"categories", services.NewCategoryService(categories, identifiers, images,
				services.Inbound{From: accessories, Field: "category", Title: "accessories"},
			), listCache),
		Components: controllers.NewEntityController[services.ComponentRequest, models.Component](
			"components", services.NewComponentService(components, identifiers,
				services.Inbound{From: items, Field: "component", Title: "component items"},
			), listCache),
		ComponentItems: controllers.NewEntityController[services.ComponentItemRequest, models.ComponentItemView](
			"component-items", services.NewComponentItemService(items, components, brands, identifiers, images, cfg.FilterPolicy), listCache),
		Accessories: controllers.NewEntityController[services.AccessoryRequest, models.AccessoryView](
			"accessories", services.NewAccessoryService(accessories, brands, categories, identifiers, images), listCache),
		Images: controllers.NewImageController(images),
		Slugs:  controllers.NewSlugController(identifiers),
	}

	// --- 3. HTTP Server & Middleware ---

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
	r.Use(middleware.MetricsMiddleware(cwMetrics, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, sessions, handlers)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})
	r.GET("/metrics", metrics.Handler(registry))

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zap.L().Info("Catalog Service starting",
			zap.String("port", cfg.Port),
			zap.String("blob_provider", cfg.BlobProvider),
			zap.String("filter_policy", string(cfg.FilterPolicy)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down Catalog Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zap.L().Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}

	zap.L().Info("Catalog Service stopped gracefully")
}
