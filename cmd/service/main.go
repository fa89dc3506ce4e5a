package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/roshank8848/contactmanager-backend/internal/config"
	"github.com/roshank8848/contactmanager-backend/internal/logger"
	"github.com/roshank8848/contactmanager-backend/internal/metrics"
	"github.com/roshank8848/contactmanager-backend/internal/middleware"
	"github.com/roshank8848/contactmanager-backend/internal/service"
	"github.com/roshank8848/contactmanager-backend/internal/store"
)

// Usage example on the command line:
// > DB_USER=root DB_PASSWORD=secret SERVER_PORT=8080 go run main.go
func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting contact manager...", zap.String("environment", cfg.Server.Env))

	// Open the database and verify the connection before serving traffic
	sqlDB, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		log.Fatal("Failed to reach database", zap.Error(err))
	}

	st, err := store.New(sqlDB)
	if err != nil {
		log.Fatal("Failed to prepare contact store", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize Prometheus metrics
	httpMetrics := metrics.NewHTTPMetrics("contactmanager")

	// Cross-origin settings for the browser frontends
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("Authorization")

	// Apply global middleware - order matters
	svc := service.New(st)
	router := svc.SetupHTTPRouter(
		cors.New(corsConfig),
		middleware.RequestIDMiddleware(),
		logger.RequestLogger(),
		httpMetrics.Middleware(),
	)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
