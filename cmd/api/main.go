package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/planwise/backend/internal/api/handlers"
	"github.com/planwise/backend/internal/api/middleware"
	"github.com/planwise/backend/internal/api/routes"
	"github.com/planwise/backend/internal/domain/calendar"
	"github.com/planwise/backend/internal/domain/notification"
	"github.com/planwise/backend/internal/infrastructure/cache"
	"github.com/planwise/backend/internal/infrastructure/persistence/postgres/connection"
	"github.com/planwise/backend/internal/infrastructure/persistence/postgres/migrations"
	"github.com/planwise/backend/internal/infrastructure/scheduler"
	"github.com/planwise/backend/pkg/config"
	"github.com/planwise/backend/pkg/logger"
)

// @title           Planwise Calendar API
// @version         1.0
// @description     Calendar event scheduling with recurrence, conflicts, reminders and ICS exchange.

// @host      localhost:8000
// @BasePath

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	log := logger.NewLoggerWithConfig(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	log.Info("Configuration loaded successfully")
	log.Info("Server mode: " + cfg.Server.Mode)

	// Set up Gin
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	gin.DefaultWriter = os.Stdout

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.NewRequestLogger(log).LogRequest())
	router.Use(middleware.NewMetricsMiddleware().CollectMetrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: append(cfg.CORS.AllowedHeaders,
			"Accept-Encoding",
			"Content-Type",
			"Authorization",
		),
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
		},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	// Add Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Connect to database
	db, err := connection.NewDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := migrations.AutoMigrate(db, log.Logger); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cache.NewConfigFromEnv(cfg))
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Logrus logger for the notification domain
	notificationLogger := logrus.New()
	notificationLogger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "production" {
		notificationLogger.SetLevel(logrus.InfoLevel)
	} else {
		notificationLogger.SetLevel(logrus.DebugLevel)
	}

	// Initialize repositories
	calendarRepo := calendar.NewRepository(db.DB)
	notificationRepo := notification.NewRepository(db.DB)

	// Initialize services
	notificationService := notification.NewService(notificationRepo, notificationLogger)
	domainNotifier := notification.NewDomainNotifier(notificationService, notificationLogger)
	calendarService := calendar.NewService(calendarRepo, domainNotifier, redisClient, log.Logger)

	// Initialize and start the reminder scheduler
	reminderScheduler := scheduler.NewScheduler(
		calendarRepo,
		domainNotifier,
		redisClient,
		log,
		cfg.Scheduler.ReminderInterval,
		cfg.Scheduler.ReminderBatchSize,
	)
	reminderScheduler.Start()
	defer reminderScheduler.Stop()

	// Initialize handlers and routes
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	routes.NewCalendarRoutes(calendarHandler, cfg.Auth.JWTSecret).RegisterRoutes(router)
	routes.NewNotificationRoutes(notificationHandler, cfg.Auth.JWTSecret).RegisterRoutes(router)
	routes.SetupHealthRoutes(router, func() error {
		pool, err := db.DB.DB()
		if err != nil {
			return err
		}
		if err := pool.Ping(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return redisClient.HealthCheck(ctx)
	})

	// Start the HTTP server with graceful shutdown
	port := cfg.Server.Port
	if port == 0 {
		port = 8000
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		log.Info("Starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
