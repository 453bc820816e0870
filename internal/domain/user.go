package domain

// User roles
const (
	RoleVendor   = "vendor"   // Vendedor: buys products, pays suppliers
	RoleSupplier = "supplier" // Fornecedor: receives product payments
	RoleAdmin    = "admin"    // Admin panel access
)

// User Model
type User struct {
	ID       uint   `gorm:"primaryKey"`                                     // Primary key
	Username string `gorm:"unique;not null"`                                // Unique username
	Password string `gorm:"not null"`                                       // Hashed password
	Role     string `gorm:"default:vendor"`                                 // Role: vendor, supplier or admin
	Wallet   Wallet `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"` // One-to-one relationship with Wallet
}
