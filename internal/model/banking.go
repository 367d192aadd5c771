package model

import (
	"time"

	"github.com/google/uuid"
)

// BankingStatus enum constants
const (
	BankingPending              = "pending"
	BankingVerified             = "verified"
	BankingRejected             = "rejected"
	BankingResubmissionRequired = "resubmission_required"
)

// BankingDetails holds one current banking record per user (upsert pattern).
// AccountNumber and RoutingNumber are stored AES-256-GCM encrypted in the
// form v1:gcm:<iv>:<ciphertext>:<tag>; plaintext only exists in memory for
// the owner's own fetch or an admin detail view.
type BankingDetails struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User              *User      `gorm:"foreignKey:UserID" json:"-"`
	BankName          string     `gorm:"type:varchar(255);not null" json:"bank_name"`
	AccountNumber     string     `gorm:"type:varchar(500);not null" json:"-"`
	RoutingNumber     string     `gorm:"type:varchar(500);not null" json:"-"`
	AccountHolderName string     `gorm:"type:varchar(255);not null" json:"account_holder_name"`
	Status            string     `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	VerificationNotes *string    `gorm:"type:text" json:"verification_notes"`
	AdminVerifierID   *uuid.UUID `gorm:"type:uuid" json:"admin_verifier_id"`
	ResubmissionCount int        `gorm:"not null;default:0" json:"resubmission_count"`
	SubmissionDate    time.Time  `gorm:"autoCreateTime" json:"submission_date"`
	VerificationDate  *time.Time `json:"verification_date"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
