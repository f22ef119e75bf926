package main

import (
	"fmt"
	"os"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/clients/classifier"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/db"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/handlers"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/parsers"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/scheduler"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/server"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	if err := db.Seed(thePG, log); err != nil {
		log.Warn("Seeding failed", "error", err)
	}

	// Repos
	log.Info("Setting up repos from main...")
	productRepo := repos.NewProductRepo(thePG, log)
	reviewRepo := repos.NewReviewRepo(thePG, log)
	reviewProductRepo := repos.NewReviewProductRepo(thePG, log)
	clusterRepo := repos.NewClusterRepo(thePG, log)
	reviewClusterRepo := repos.NewReviewClusterRepo(thePG, log)
	rawReviewRepo := repos.NewRawReviewRepo(thePG, log)
	notificationRepo := repos.NewNotificationRepo(thePG, log)
	notificationConfigRepo := repos.NewNotificationConfigRepo(thePG, log)
	auditLogRepo := repos.NewAuditLogRepo(thePG, log)

	// Clients
	classifierClient := classifier.NewClient(log)
	parserRegistry := parsers.NewRegistry(log)

	// Services
	log.Info("Setting up services from main...")
	hierarchyService := services.NewHierarchyService(productRepo, log)
	aggregatorService := services.NewAggregatorService(hierarchyService, reviewRepo, reviewClusterRepo, log)
	chartService := services.NewChartService(aggregatorService, hierarchyService, reviewRepo, clusterRepo, reviewClusterRepo, log)
	statsService := services.NewStatsService(thePG, hierarchyService, reviewRepo, reviewProductRepo, log)
	ingestionService := services.NewIngestionService(thePG, rawReviewRepo, reviewRepo, reviewProductRepo, hierarchyService, log)
	jsonlLoader := services.NewJSONLLoader(rawReviewRepo, log)
	notificationService := services.NewNotificationService(hierarchyService, reviewRepo, reviewClusterRepo, notificationRepo, notificationConfigRepo, auditLogRepo, log)
	parserRunner := services.NewParserRunner(parserRegistry, classifierClient, rawReviewRepo, log)

	// Handlers
	productHandler := handlers.NewProductHandler(hierarchyService, statsService, productRepo)
	clusterHandler := handlers.NewClusterHandler(clusterRepo)
	dashboardHandler := handlers.NewDashboardHandler(chartService)
	reviewHandler := handlers.NewReviewHandler(statsService, ingestionService, jsonlLoader)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	parserHandler := handlers.NewParserHandler(parserRunner, classifierClient)

	// Scheduler
	sweepScheduler := scheduler.New(notificationService, log)
	if err := sweepScheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler", "error", err)
	}
	defer sweepScheduler.Stop()

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:                 log,
		ProductHandler:      productHandler,
		ClusterHandler:      clusterHandler,
		DashboardHandler:    dashboardHandler,
		ReviewHandler:       reviewHandler,
		NotificationHandler: notificationHandler,
		ParserHandler:       parserHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
