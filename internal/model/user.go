package model

import (
	"time"

	"github.com/google/uuid"
)

// Role enum constants
const (
	RoleBuyer    = "buyer"
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
	RoleFMAdmin  = "fm_admin"
	RoleFAAdmin  = "fa_admin"
)

// AccountStatus enum constants
const (
	AccountPendingVerification = "pending_verification"
	AccountActive              = "active"
	AccountSuspended           = "suspended"
)

// IsAdminRole reports whether the role bypasses onboarding gates entirely.
func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleFMAdmin || role == RoleFAAdmin
}

// User represents a platform account across the buyer, supplier and admin portals
type User struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email               string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash        string     `gorm:"type:varchar(255);not null" json:"-"`
	Role                string     `gorm:"type:varchar(20);not null;default:'buyer';index" json:"role"`
	AccountStatus       string     `gorm:"type:varchar(30);not null;default:'pending_verification'" json:"account_status"`
	EmailVerified       bool       `gorm:"not null;default:false" json:"email_verified"`
	FailedLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockoutUntil        *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// OTP purpose enum constants
const (
	OTPPurposeRegistration  = "registration"
	OTPPurposeLogin         = "login"
	OTPPurposePasswordReset = "password_reset"
)

// OTPCode stores a hashed one-time verification code. Codes are single use:
// a row is never reused after successful verification or attempt exhaustion.
type OTPCode struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User          *User      `gorm:"foreignKey:UserID" json:"-"`
	Email         string     `gorm:"type:varchar(255);not null;index" json:"email"`
	CodeHash      string     `gorm:"type:varchar(255);not null" json:"-"`
	Purpose       string     `gorm:"type:varchar(30);not null" json:"purpose"` // registration, login, password_reset
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	AttemptsCount int        `gorm:"not null;default:0" json:"attempts_count"`
	MaxAttempts   int        `gorm:"not null;default:5" json:"max_attempts"`
	Verified      bool       `gorm:"not null;default:false" json:"verified"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
