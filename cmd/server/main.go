package main

import (
	"context"                         // context package is needed for Redis operations
	"log"                             // log package is needed for logging
	"myshoptools/internal/api"        // Custom package for API handlers
	"myshoptools/internal/config"     // Custom package for configuration
	"myshoptools/internal/domain"     // Importing domain models
	"myshoptools/internal/ledger"     // Wallet ledger service
	"myshoptools/internal/middleware" // Custom package for middleware

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Wallet ledger over the transactional store
	store := ledger.NewGormStore(db, cfg.TxMaxRetries)
	ledgerSvc := ledger.NewService(store)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	// Payment provider webhook (signature-authenticated, no JWT)
	r.POST("/webhook/payment", api.PaymentWebhookHandler(ledgerSvc, redisClient, cfg.WebhookSecret))

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet")
	// Protect wallet routes with JWT middleware and inject Redis client into context
	walletGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	})
	walletGroup.POST("", api.CreateWalletHandler(ledgerSvc))                  // Create wallet endpoint
	walletGroup.GET("", api.GetWalletHandler(ledgerSvc, redisClient))         // Get wallet endpoint
	walletGroup.POST("/deposit", api.DepositHandler(ledgerSvc))               // Deposit endpoint
	walletGroup.POST("/withdraw", api.WithdrawHandler(ledgerSvc))             // Withdrawal endpoint
	walletGroup.GET("/history", api.GetHistoryHandler(ledgerSvc, redisClient)) // Wallet history endpoint

	// Checkout routes (protected, vendor only)
	checkoutGroup := r.Group("/checkout")
	// Protect checkout routes with JWT, vendor role check and Redis injection
	checkoutGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RequireRoleMiddleware(db, domain.RoleVendor), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	})
	checkoutGroup.POST("/pay", api.PayToSupplierHandler(db, ledgerSvc)) // Order settlement endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	// Protect admin routes with JWT and AdminOnly middleware
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))     // List users endpoint
	adminGroup.GET("/history", api.ListHistoryHandler(db, redisClient)) // List ledger entries endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
