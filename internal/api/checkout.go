package api

import (
	"context"                     // Context for Redis operations
	"net/http"                    // HTTP status codes
	"time"                        // Time durations
	"myshoptools/internal/domain" // Importing domain models
	"myshoptools/internal/ledger" // Wallet ledger service
	"myshoptools/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// PayRequest represents an order settlement request
type PayRequest struct {
	SupplierUsername string          `json:"supplier_username" binding:"required"` // Supplier to credit
	Amount           decimal.Decimal `json:"amount" binding:"required"`            // Settlement amount
	ProductID        string          `json:"product_id" binding:"required"`        // Order line correlation reference
}

// PayToSupplierHandler settles one order line: the authenticated vendor pays
// the supplier through an atomic two-wallet transfer
func PayToSupplierHandler(db *gorm.DB, svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		buyerID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req PayRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var supplier domain.User // Find target supplier
		// Query supplier by username
		if err := db.Where("username = ? AND role = ?", req.SupplierUsername, domain.RoleSupplier).First(&supplier).Error; err != nil {
			// If supplier not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
			return
		}
		// Prevent paying yourself
		if supplier.ID == buyerID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot pay yourself"})
			return
		}
		// Atomic transfer: both wallets update and both entries are written, or nothing is
		err := svc.PayToSupplier(c.Request.Context(), buyerID.(uint), supplier.ID, req.Amount, req.ProductID)
		if err != nil {
			status, msg := ledgerErrorStatus(err) // Map ledger error
			if status == http.StatusInternalServerError {
				// Log the error with context
				logrus.WithFields(logrus.Fields{
					"buyer_id":    buyerID,             // Vendor user ID
					"supplier_id": supplier.ID,         // Supplier user ID
					"amount":      req.Amount.String(), // Settlement amount
					"product_id":  req.ProductID,       // Order line reference
					"error":       err.Error(),         // Error message
				}).Error("Settlement failed") // Log settlement failure
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// Log successful settlement
		logrus.WithFields(logrus.Fields{
			"buyer_id":    buyerID,                         // Vendor user ID
			"supplier_id": supplier.ID,                     // Supplier user ID
			"amount":      req.Amount.String(),             // Settlement amount
			"product_id":  req.ProductID,                   // Order line reference
			"timestamp":   time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Settlement recorded") // Log settlement success
		// Invalidate wallet and history cache for both parties
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			ctx := context.Background() // Context for Redis operations
			utils.InvalidateWalletCache(ctx, rdb, buyerID.(uint))
			utils.InvalidateWalletCache(ctx, rdb, supplier.ID)
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Payment successful"})
	}
}
