package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricepulse/internal/app/tracker/config"
	"pricepulse/pkg/logger"
	"pricepulse/pkg/metrics"
)

// SetupRoutes настраивает все маршруты приложения с использованием Gin
func SetupRoutes(
	cfg *config.Config,
	productHandler *ProductHandler,
	watchlistHandler *WatchlistHandler,
	notificationHandler *NotificationHandler,
	rankingHandler *RankingHandler,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware для обработки panic
	router.Use(gin.Recovery())

	// JSON logging middleware для HTTP-запросов (ELK Stack)
	router.Use(logger.GinLoggerMiddleware())

	// Prometheus metrics middleware
	router.Use(metrics.GinPrometheusMiddleware("price-tracker"))

	// CORS настройки
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "price-tracker",
		})
	})

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	authMiddleware := JWTAuthMiddleware(&cfg.JWT)

	// Витрина товаров - публичная, рекомендация подтягивается по
	// include_recommendation=true
	// Принудительная регенерация дорогая, поэтому только по токену
	products := v1.Group("/products")
	{
		products.GET("", productHandler.GetAllProducts)
		products.GET("/:id", productHandler.GetProductView)
		products.POST("/:id/recommendation/refresh", authMiddleware, productHandler.RefreshRecommendation)
		products.DELETE("/:id/recommendation", authMiddleware, productHandler.InvalidateRecommendation)
	}

	// Недельный рейтинг популярности - публичный, как витрина
	rankings := v1.Group("/rankings")
	{
		rankings.GET("/weekly", rankingHandler.GetWeeklyRanking)
		rankings.GET("/weekly/history", rankingHandler.GetRankingHistory)
	}

	watchlist := v1.Group("/watchlist")
	watchlist.Use(authMiddleware)
	{
		watchlist.POST("", watchlistHandler.CreateWatchEntry)
		watchlist.GET("", watchlistHandler.GetWatchlist)
		watchlist.PUT("/:id", watchlistHandler.UpdateWatchEntry)
		watchlist.DELETE("/:id", watchlistHandler.DeleteWatchEntry)
	}

	notifications := v1.Group("/notifications")
	notifications.Use(authMiddleware)
	{
		notifications.GET("", notificationHandler.GetHistory)
	}

	return router
}
