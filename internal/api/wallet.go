package api

import (
	"context"                     // Context for Redis operations
	"errors"                      // Error matching
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion
	"time"                        // Time durations
	"myshoptools/internal/domain" // Importing domain models
	"myshoptools/internal/ledger" // Wallet ledger service
	"myshoptools/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logging library
)

// ledgerErrorStatus maps ledger errors to HTTP status codes
func ledgerErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound):
		return http.StatusNotFound, "Wallet not found"
	case errors.Is(err, ledger.ErrWalletExists):
		return http.StatusConflict, "Wallet already exists"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, "Invalid amount"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "Insufficient funds"
	case errors.Is(err, ledger.ErrTxConflict):
		return http.StatusConflict, "Operation conflicted, try again"
	default:
		return http.StatusInternalServerError, "Operation failed"
	}
}

// DepositRequest represents a deposit request
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"` // Deposit amount
	Method string          `json:"method" binding:"required"` // Origin tag, e.g. pix, stripe
}

// WithdrawRequest represents a withdrawal request
type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"` // Withdrawal amount
}

// CreateWalletHandler creates a wallet for a user (one wallet per user)
func CreateWalletHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Create new wallet with zero balance; the unique index rejects duplicates
		wallet, err := svc.CreateWallet(c.Request.Context(), userID.(uint))
		if err != nil {
			status, msg := ledgerErrorStatus(err) // Map ledger error
			if status == http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"user_id": userID,      // User ID
					"error":   err.Error(), // Error message
				}).Error("Failed to create wallet") // Log failure
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// Log successful wallet creation
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,    // User ID
			"wallet_id": wallet.ID, // Wallet ID
			"type":      "create_wallet",
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Wallet created") // Log wallet creation
		// Invalidate wallet cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			_ = utils.DeleteCache(context.Background(), rdb, utils.WalletCacheKey(userID.(uint)))
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "Wallet created", "wallet": wallet})
	}
}

// GetWalletHandler returns wallet info for the authenticated user
func GetWalletHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()                     // Context for Redis operations
		cacheKey := utils.WalletCacheKey(userID.(uint)) // Cache key for wallet
		var wallet domain.Wallet                        // Wallet struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &wallet)
		// If found in cache, return it
		if err == nil && found {
			// Return cached wallet
			c.JSON(http.StatusOK, gin.H{"wallet": wallet, "cached": true})
			return
		}
		// If not in cache, fetch through the ledger
		w, err := svc.GetWallet(c.Request.Context(), userID.(uint))
		if err != nil {
			status, msg := ledgerErrorStatus(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, w, 60*time.Second) // Cache the wallet for 60 seconds
		c.JSON(http.StatusOK, gin.H{"wallet": w, "cached": false})
	}
}

// DepositHandler credits the authenticated user's wallet
func DepositHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req DepositRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Credit inside one ledger transaction
		wallet, err := svc.AddFunds(c.Request.Context(), userID.(uint), req.Amount, req.Method, nil)
		if err != nil {
			status, msg := ledgerErrorStatus(err) // Map ledger error
			if status == http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"user_id": userID,              // User ID
					"amount":  req.Amount.String(), // Deposit amount
					"error":   err.Error(),         // Error message
				}).Error("Deposit failed") // Log deposit failure
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// Log successful deposit
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,                          // User ID
			"amount":    req.Amount.String(),             // Deposit amount
			"method":    req.Method,                      // Origin tag
			"type":      domain.EntryCredit,              // Entry type
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Deposit recorded") // Log deposit success
		// Invalidate wallet and history cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			utils.InvalidateWalletCache(context.Background(), rdb, userID.(uint))
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Deposit successful", "wallet": wallet})
	}
}

// WithdrawHandler debits the authenticated user's wallet
func WithdrawHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req WithdrawRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Debit inside one ledger transaction; the sufficiency check is transactional
		wallet, err := svc.WithdrawFunds(c.Request.Context(), userID.(uint), req.Amount)
		if err != nil {
			status, msg := ledgerErrorStatus(err) // Map ledger error
			if status == http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"user_id": userID,              // User ID
					"amount":  req.Amount.String(), // Withdrawal amount
					"error":   err.Error(),         // Error message
				}).Error("Withdrawal failed") // Log withdrawal failure
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// Log successful withdrawal
		logrus.WithFields(logrus.Fields{
			"user_id":   userID,                          // User ID
			"amount":    req.Amount.String(),             // Withdrawal amount
			"method":    domain.MethodWithdrawal,         // Origin tag
			"type":      domain.EntryDebit,               // Entry type
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Withdrawal recorded") // Log withdrawal success
		// Invalidate wallet and history cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			utils.InvalidateWalletCache(context.Background(), rdb, userID.(uint))
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Withdrawal successful", "wallet": wallet})
	}
}

// GetHistoryHandler returns the wallet history for the authenticated user
func GetHistoryHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get userID from context
		userID, exists := c.Get("userID")
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		cacheKey := utils.HistoryCacheKey(userID.(uint), page, pageSize) // Redis cache key
		ctx := context.Background()                                     // Context for Redis operations
		var cached struct {
			Entries    []domain.LedgerEntry `json:"entries"`     // Page of history entries
			Page       int                  `json:"page"`        // Current page
			PageSize   int                  `json:"page_size"`   // Page size
			Total      int                  `json:"total"`       // Total entries
			TotalPages int                  `json:"total_pages"` // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"entries":     cached.Entries,    // Cached entries
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total entries
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,
			})
			return
		}
		// Fetch full history in insertion order, then slice the requested page
		entries, err := svc.GetHistory(c.Request.Context(), userID.(uint))
		if err != nil {
			status, msg := ledgerErrorStatus(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		total := len(entries)                           // Total entries
		totalPages := (total + pageSize - 1) / pageSize // Calculate total pages
		start := (page - 1) * pageSize                  // Page window start
		if start > total {
			start = total
		}
		end := start + pageSize // Page window end
		if end > total {
			end = total
		}
		resp := gin.H{
			"entries":     entries[start:end], // Page of entries
			"page":        page,               // Current page
			"page_size":   pageSize,           // Page size
			"total":       total,              // Total entries
			"total_pages": totalPages,         // Total pages
			"cached":      false,              // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return wallet history
	}
}
