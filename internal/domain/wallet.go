package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Fixed-point money
)

// Wallet Model
type Wallet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                          // Primary key
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`           // Foreign key to User, one wallet per user
	Balance   decimal.Decimal `gorm:"type:decimal(19,4);not null" json:"balance"`    // Wallet balance, never negative
	CreatedAt time.Time       `json:"created_at"`                                    // Timestamp of creation
	UpdatedAt time.Time       `json:"updated_at"`                                    // Timestamp of last mutation
}

// TableName keeps the table name stable across backends
func (Wallet) TableName() string {
	return "wallets"
}
