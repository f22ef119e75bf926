package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/handlers"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/middleware"
)

type RouterConfig struct {
	Log                 *logger.Logger
	ProductHandler      *handlers.ProductHandler
	ClusterHandler      *handlers.ClusterHandler
	DashboardHandler    *handlers.DashboardHandler
	ReviewHandler       *handlers.ReviewHandler
	NotificationHandler *handlers.NotificationHandler
	ParserHandler       *handlers.ParserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(cfg.Log))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		// Products
		api.GET("/products/tree", cfg.ProductHandler.GetTree)
		api.GET("/products/:id/stats", cfg.ProductHandler.GetStats)
		api.POST("/products", cfg.ProductHandler.Create)

		// Clusters
		api.GET("/clusters", cfg.ClusterHandler.List)
		api.GET("/clusters/:id", cfg.ClusterHandler.Get)

		// Dashboards
		api.GET("/dashboards/review-count", cfg.DashboardHandler.ReviewCount)
		api.GET("/dashboards/bar-chart", cfg.DashboardHandler.BarChart)
		api.GET("/dashboards/rating-chart", cfg.DashboardHandler.RatingChart)
		api.GET("/dashboards/cluster-pie", cfg.DashboardHandler.ClusterPie)
		api.GET("/dashboards/tonality-pie", cfg.DashboardHandler.TonalityPie)
		api.GET("/dashboards/cluster-stacked-bars", cfg.DashboardHandler.ClusterStackedBars)
		api.GET("/dashboards/tonality-stacked-bars", cfg.DashboardHandler.TonalityStackedBars)
		api.GET("/dashboards/small-bars", cfg.DashboardHandler.SmallBars)
		api.GET("/dashboards/change-chart", cfg.DashboardHandler.ChangeChart)

		// Reviews
		api.GET("/reviews", cfg.ReviewHandler.List)
		api.POST("/reviews/bulk", cfg.ReviewHandler.BulkCreate)
		api.POST("/reviews/process", cfg.ReviewHandler.Process)
		api.POST("/reviews/process-all", cfg.ReviewHandler.ProcessAll)
		api.POST("/reviews/load-jsonl", cfg.ReviewHandler.LoadJSONL)

		// Notifications
		api.GET("/notifications", cfg.NotificationHandler.List)
		api.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		api.DELETE("/notifications/:id", cfg.NotificationHandler.Delete)
		api.POST("/notifications/sweep", cfg.NotificationHandler.Sweep)
		api.POST("/notification-configs", cfg.NotificationHandler.CreateConfig)
		api.GET("/notification-configs", cfg.NotificationHandler.ListConfigs)
		api.PUT("/notification-configs/:id", cfg.NotificationHandler.UpdateConfig)
		api.DELETE("/notification-configs/:id", cfg.NotificationHandler.DeleteConfig)

		// Parsers
		api.GET("/parsers/sources", cfg.ParserHandler.Sources)
		api.POST("/parsers/run", cfg.ParserHandler.Run)
		api.POST("/classify", cfg.ParserHandler.Classify)
	}

	return router
}
