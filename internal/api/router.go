package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-enricher/internal/api/handlers/enrich"
	"recipe-enricher/internal/api/handlers/health"
	"recipe-enricher/internal/api/middleware"
	"recipe-enricher/internal/core/ai"
	"recipe-enricher/internal/core/catalog"
	"recipe-enricher/internal/core/pipeline"
	"recipe-enricher/internal/core/scraper"
	"recipe-enricher/internal/infrastructure/config"
	"recipe-enricher/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 單一充實 run 會串多次 AI 呼叫與輪詢，超時要放寬
const timeoutDuration = 10 * time.Minute

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 初始化服務
	gateway, err := ai.NewGateway(cfg)
	if err != nil {
		common.LogError("Failed to initialize AI gateway", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize AI gateway: %w", err)
	}

	scrapeClient := scraper.NewClient(cfg.Scraper)
	cat := catalog.NewCachedCatalog(catalog.NewParseCatalog(cfg.Catalog), cfg.Cache)
	enricher := pipeline.NewEnricher(gateway, scrapeClient, cat)

	common.LogInfo("Services initialized",
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("scraper", cfg.Scraper.BaseURL()),
	)

	// 全局中間件：請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
			})
			c.Abort()
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck(cfg))
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := enrich.NewHandler(enricher)
		api.POST("/enrich", handler.HandleEnrich)
		api.GET("/stats", handler.HandleStats)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Duration("timeout", timeoutDuration),
	)

	return router, nil
}
