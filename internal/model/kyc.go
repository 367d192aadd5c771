package model

import (
	"time"

	"github.com/google/uuid"
)

// KYCStatus enum constants. Records only advance forward except an explicit
// admin rejection; ready_for_decision requires all current documents reviewed.
const (
	KYCPending          = "pending"
	KYCUnderReview      = "under_review"
	KYCReadyForDecision = "ready_for_decision"
	KYCApproved         = "approved"
	KYCRejected         = "rejected"
)

// DocumentStatus enum constants
const (
	DocUploaded    = "uploaded"
	DocPending     = "pending"
	DocUnderReview = "under_review"
	DocVerified    = "verified"
	DocRejected    = "rejected"
)

// Document type sets per portal role
var (
	SupplierDocumentTypes = []string{"business_registration", "mandate", "proof_of_address"}
	BuyerDocumentTypes    = []string{"business_registration", "financial_statement", "tax_clearance", "bank_confirmation"}
)

// Minimum upload counts enforced at submission time
const (
	SupplierMinDocuments = 2
	BuyerMinDocuments    = 4
)

// KYCRecord is the aggregate verification application for one user/company.
type KYCRecord struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // NULL while an unauthenticated draft
	User          *User      `gorm:"foreignKey:UserID" json:"-"`
	CompanyID     *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	Company       *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	InvitationID  *uuid.UUID `gorm:"type:uuid" json:"invitation_id"`
	Status        string     `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	DecidedAt     *time.Time `json:"decided_at"`
	DecisionNotes *string    `gorm:"type:text" json:"decision_notes"`
	Documents     []Document `gorm:"foreignKey:KYCID" json:"documents,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Document is one uploaded KYC file. Re-uploads never delete the old row:
// the superseded row gets ReplacedBy set, forming an immutable version chain.
// At most one row per (kyc_id, document_type) has replaced_by IS NULL.
type Document struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	KYCID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"kyc_id"`
	DocumentType string     `gorm:"type:varchar(50);not null;index" json:"document_type"`
	Filename     string     `gorm:"type:varchar(255);not null" json:"filename"`
	FilePath     string     `gorm:"type:varchar(500);not null" json:"-"` // relative to the private upload root
	FileSize     int64      `gorm:"not null" json:"file_size"`
	MimeType     string     `gorm:"type:varchar(100);not null" json:"mime_type"`
	Status       string     `gorm:"type:varchar(30);not null;default:'uploaded';index" json:"status"`
	ReplacedBy   *uuid.UUID `gorm:"type:uuid;index" json:"replaced_by"`
	ReviewerID   *uuid.UUID `gorm:"type:uuid" json:"reviewer_id"`
	ReviewDate   *time.Time `json:"review_date"`
	ReviewNotes  *string    `gorm:"type:text" json:"review_notes"`
	UploadDate   time.Time  `gorm:"autoCreateTime" json:"upload_date"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RequiredDocumentTypes returns the document set a role must provide.
func RequiredDocumentTypes(role string) []string {
	if role == RoleSupplier || role == CompanyTypeSupplier {
		return SupplierDocumentTypes
	}
	return BuyerDocumentTypes
}
