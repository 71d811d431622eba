package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yuchenlin/studyhub-server/internal/api"
	"github.com/yuchenlin/studyhub-server/internal/cache"
	"github.com/yuchenlin/studyhub-server/internal/config"
	"github.com/yuchenlin/studyhub-server/internal/repository"
	"github.com/yuchenlin/studyhub-server/internal/service"
	"github.com/yuchenlin/studyhub-server/internal/utils"
	"go.uber.org/zap"
)

func main() {
	logger, err := utils.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to set up database", zap.Error(err))
	}
	defer db.Close()

	// Balance cache is optional; the ledger is correct without it.
	var balanceCache service.BalanceCache
	if cfg.Redis.Addr != "" {
		c, err := cache.NewBalanceCache(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer c.Close()
		balanceCache = c
		logger.Info("balance cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, balanceCache, logger, cfg.Auth.JWTSecret)

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	router := gin.Default()
	router.Use(api.MetricsMiddleware())

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server", zap.String("addr", serverAddr))
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
