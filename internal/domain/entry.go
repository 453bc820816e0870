package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Fixed-point money
)

// Ledger entry types
const (
	EntryCredit = "credit" // Funds added to the wallet
	EntryDebit  = "debit"  // Funds removed from the wallet
)

// Ledger entry methods (origin tags)
const (
	MethodWithdrawal     = "withdrawal"      // User-initiated withdrawal
	MethodProductPayment = "product_payment" // Vendor side of an order settlement
	MethodProductSale    = "product_sale"    // Supplier side of an order settlement
)

// LedgerEntry Model: append-only wallet history record, never updated after creation
type LedgerEntry struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                       // Primary key
	UserID    uint            `gorm:"index;not null" json:"user_id"`              // Owner of the affected wallet
	Type      string          `gorm:"not null" json:"type"`                       // credit or debit
	Amount    decimal.Decimal `gorm:"type:decimal(19,4);not null" json:"amount"`  // Always positive; Type carries the sign
	Method    string          `gorm:"not null" json:"method"`                     // Origin tag: withdrawal, product_payment, ...
	ProductID *string         `gorm:"index" json:"product_id,omitempty"`          // Optional correlation reference
	Balance   decimal.Decimal `gorm:"type:decimal(19,4);not null" json:"balance"` // Balance snapshot after this entry
	CreatedAt time.Time       `json:"created_at"`                                 // Timestamp of creation
}

// TableName maps to the walletHistory collection of the original backend
func (LedgerEntry) TableName() string {
	return "wallet_history"
}
