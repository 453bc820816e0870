package api

import (
	"context"                     // Context for Redis operations
	"crypto/hmac"                 // Signature verification
	"crypto/sha256"               // Signature hash
	"encoding/hex"                // Signature encoding
	"encoding/json"               // Payload decoding
	"io"                          // Raw body reading
	"net/http"                    // HTTP status codes
	"time"                        // Time durations
	"myshoptools/internal/ledger" // Wallet ledger service
	"myshoptools/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/google/uuid"        // Event id validation
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logging library
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body
const SignatureHeader = "X-Payment-Signature"

// webhookEventTTL bounds how long processed event ids are remembered
const webhookEventTTL = 24 * time.Hour

// PaymentEvent is the payload the external payment provider posts after a
// successful charge
type PaymentEvent struct {
	EventID string          `json:"event_id"` // Provider event id, UUID
	UserID  uint            `json:"user_id"`  // Paying user
	Amount  decimal.Decimal `json:"amount"`   // Charged amount
	Method  string          `json:"method"`   // Payment method tag, e.g. stripe, pix
}

// verifySignature checks the HMAC-SHA256 of body against the provided hex digest
func verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret)) // HMAC over the raw body
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil)) // Expected hex digest
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PaymentWebhookHandler credits a user's wallet after a successful external
// payment. Signature verified against the shared secret; event ids are
// deduplicated through Redis so provider retries credit at most once.
func PaymentWebhookHandler(svc *ledger.Service, rdb *redis.Client, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body) // Read raw body for signature check
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
			return
		}
		// Verify the provider signature before trusting the payload
		if !verifySignature(secret, body, c.GetHeader(SignatureHeader)) {
			logrus.Warn("Payment webhook signature mismatch") // Log rejected webhook
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}
		var event PaymentEvent // Decode the event payload
		if err := json.Unmarshal(body, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
			return
		}
		// Validate the event id shape
		if _, err := uuid.Parse(event.EventID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event id"})
			return
		}
		ctx := context.Background()                    // Context for Redis operations
		dedupKey := "webhook:event:" + event.EventID   // Dedup key per event
		ok, err := rdb.SetNX(ctx, dedupKey, "1", webhookEventTTL).Result()
		if err != nil {
			// Without the dedup guarantee the credit may double on retry
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Dedup store unavailable"})
			return
		}
		// Already processed: acknowledge without crediting again
		if !ok {
			c.JSON(http.StatusOK, gin.H{"message": "Event already processed"})
			return
		}
		// Credit the paying user through the ledger
		wallet, err := svc.AddFunds(c.Request.Context(), event.UserID, event.Amount, event.Method, nil)
		if err != nil {
			// Release the dedup key so the provider's retry can succeed
			_ = utils.DeleteCache(ctx, rdb, dedupKey)
			status, msg := ledgerErrorStatus(err) // Map ledger error
			logrus.WithFields(logrus.Fields{
				"event_id": event.EventID,          // Provider event id
				"user_id":  event.UserID,           // Paying user
				"amount":   event.Amount.String(),  // Charged amount
				"error":    err.Error(),            // Error message
			}).Error("Payment webhook credit failed") // Log webhook failure
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// Log successful credit
		logrus.WithFields(logrus.Fields{
			"event_id":  event.EventID,                   // Provider event id
			"user_id":   event.UserID,                    // Paying user
			"amount":    event.Amount.String(),           // Charged amount
			"method":    event.Method,                    // Payment method tag
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Payment webhook credited") // Log webhook success
		utils.InvalidateWalletCache(ctx, rdb, event.UserID) // Invalidate wallet and history cache
		// Acknowledge the event
		c.JSON(http.StatusOK, gin.H{"message": "Payment credited", "wallet": wallet})
	}
}
