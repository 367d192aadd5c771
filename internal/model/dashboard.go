package model

import (
	"time"

	"github.com/google/uuid"
)

// AccessLevel enum constants, ordered. A user's level is monotonically
// non-decreasing along this sequence absent explicit admin rejection.
const (
	AccessPreKYC           = "pre_kyc"
	AccessKYCApproved      = "kyc_approved"
	AccessBankingSubmitted = "banking_submitted"
	AccessAgreementSigned  = "agreement_signed"
	AccessBankingVerified  = "banking_verified"
)

// accessOrder maps levels to their position in the onboarding progression.
var accessOrder = map[string]int{
	AccessPreKYC:           0,
	AccessKYCApproved:      1,
	AccessBankingSubmitted: 2,
	AccessAgreementSigned:  3,
	AccessBankingVerified:  4,
}

// AccessLevelRank returns the ordinal of a level, or -1 for unknown values.
func AccessLevelRank(level string) int {
	if r, ok := accessOrder[level]; ok {
		return r
	}
	return -1
}

// DashboardAccess persists the derived onboarding stage per user, with a
// timestamp column per milestone transition.
type DashboardAccess struct {
	ID                      uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID                  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User                    *User      `gorm:"foreignKey:UserID" json:"-"`
	KYCID                   *uuid.UUID `gorm:"type:uuid" json:"kyc_id"`
	AccessLevel             string     `gorm:"type:varchar(30);not null;default:'pre_kyc'" json:"access_level"`
	AgreementID             *uuid.UUID `gorm:"type:uuid" json:"agreement_id"`
	BankingSubmissionDate   *time.Time `json:"banking_submission_date"`
	AgreementSigningDate    *time.Time `json:"agreement_signing_date"`
	BankingVerificationDate *time.Time `json:"banking_verification_date"`
	LastLevelChange         *time.Time `json:"last_level_change"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
