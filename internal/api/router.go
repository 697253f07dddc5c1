package api

import (
	"context"
	"errors"
	"time"

	"pantry-chef/internal/api/handlers/health"
	recipeHandler "pantry-chef/internal/api/handlers/recipe"
	"pantry-chef/internal/api/middleware"
	"pantry-chef/internal/core/ai/openrouter"
	"pantry-chef/internal/core/ai/service"
	"pantry-chef/internal/core/content"
	"pantry-chef/internal/core/image"
	"pantry-chef/internal/core/lock"
	"pantry-chef/internal/core/quota"
	recipeService "pantry-chef/internal/core/recipe"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SetupRouter 設置路由，redisClient 可為 nil（停用鎖與去重，配額服務不可用）
func SetupRouter(cfg *config.Config, redisClient *redis.Client) (*gin.Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	collector := metrics.NewCollector()

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(collector.HTTPMiddleware())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制與請求超時
	router.Use(middleware.BodySizeLimit(cfg.MaxBodySize))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	common.LogInfo("Initializing services",
		zap.Bool("redis_enabled", redisClient != nil),
		zap.Bool("lock_enabled", cfg.Lock.Enabled),
		zap.Bool("unsplash_enabled", cfg.Unsplash.Enabled),
		zap.String("model", cfg.OpenRouter.Model),
		zap.Duration("timeout", cfg.RequestTimeout),
	)

	// 初始化 AI 服務
	aiService, err := service.NewService(openrouter.NewClient(cfg.OpenRouter), collector)
	if err != nil {
		common.LogError("Failed to initialize AI service", zap.Error(err))
		return nil, err
	}

	store := content.NewClient(cfg.ContentStore, collector)
	generator := recipeService.NewGenerator(aiService)
	pantry := recipeService.NewPantry(store)
	policy := quota.NewRedisPolicy(redisClient, collector)

	// 未設定時保持 nil 介面
	var locker recipeService.Locker
	if l := lock.NewLocker(redisClient, cfg.Lock); l != nil {
		locker = l
	}

	bookmarks := recipeService.NewBookmarkManager(store, locker, collector)

	resolverOpts := []recipeService.ResolverOption{
		recipeService.WithResolveLocker(locker),
		recipeService.WithResolverMetrics(collector),
	}
	if images := image.NewService(cfg.Unsplash); images.Enabled() {
		resolverOpts = append(resolverOpts, recipeService.WithImageFinder(images))
	}
	resolver := recipeService.NewResolver(store, generator, bookmarks, resolverOpts...)
	recommender := recipeService.NewRecommender(pantry, generator, policy, cfg.Quota)

	common.LogInfo("Recipe services initialized successfully",
		zap.String("model", aiService.Model()),
		zap.String("environment", cfg.App.Env),
	)

	// 健康檢查路由
	checkers := map[string]health.Checker{
		"content_store": store,
	}
	if redisClient != nil {
		checkers["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	healthHandler := health.NewHandler(cfg.App.Version, aiService.Model(), checkers)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", collector.Handler())
	router.NoRoute(func(c *gin.Context) {
		common.WriteErrorResponse(c, common.ErrNotFound)
	})

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth))
	{
		h := recipeHandler.NewHandler(resolver, bookmarks, recommender, pantry)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/resolve", h.Resolve)
			recipeGroup.POST("/saved", h.SaveRecipe)
			recipeGroup.GET("/saved", h.ListSaved)
			recipeGroup.DELETE("/saved/:recipeId", h.RemoveSavedRecipe)
			// 解析與收藏本身冪等；推薦會扣配額，重複送出才需擋下
			recipeGroup.POST("/recommendations", middleware.Deduplication(redisClient, cfg.DedupWindow), h.Recommend)
		}

		api.GET("/pantry", h.ListPantry)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Duration("timeout", cfg.RequestTimeout),
		zap.Int64("max_body_size", cfg.MaxBodySize),
	)

	return router, nil
}
