package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// APRowStatus enum constants
const (
	APRowAccepted = "accepted"
	APRowRejected = "rejected"
)

// Row-level rejection reasons recorded for audit
const (
	APRowErrValidation   = "validation_failed"
	APRowErrNotConsented = "vendor_not_consented"
)

// ConsentStatus enum constants
const (
	ConsentConsented = "consented"
	ConsentRevoked   = "revoked"
)

// APBatch summarizes one accounts-payable upload by a buyer.
type APBatch struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuyerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"buyer_id"`
	UploadedBy  uuid.UUID `gorm:"type:uuid;not null" json:"uploaded_by"`
	TotalRows   int       `gorm:"not null" json:"total_rows"`
	ValidRows   int       `gorm:"not null" json:"valid_rows"`
	InvalidRows int       `gorm:"not null" json:"invalid_rows"`
	VendorCount int       `gorm:"not null" json:"vendor_count"`
	Status      string    `gorm:"type:varchar(20);not null;default:'received'" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// APBatchRow is one invoice line from an AP upload. Rejected rows are still
// persisted, carrying ValidationError for audit.
type APBatchRow struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"batch_id"`
	BuyerID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"buyer_id"`
	VendorNumber    string          `gorm:"type:varchar(100);index" json:"vendor_number"`
	InvoiceNumber   string          `gorm:"type:varchar(100)" json:"invoice_number"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount"`
	DueDate         *time.Time      `json:"due_date"`
	Status          string          `gorm:"type:varchar(20);not null;index" json:"status"` // accepted, rejected
	ValidationError *string         `gorm:"type:varchar(100)" json:"validation_error,omitempty"`
	SupplierUserID  *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_user_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// VendorConsent authorizes routing a buyer's ERP vendor number to a supplier
// account. Unique on (buyer_id, vendor_number); last write wins on conflict.
type VendorConsent struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuyerID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_buyer_vendor" json:"buyer_id"`
	VendorNumber   string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_buyer_vendor" json:"vendor_number"`
	SupplierUserID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_user_id"`
	ConsentStatus  string     `gorm:"type:varchar(20);not null;default:'consented'" json:"consent_status"`
	ConsentedAt    *time.Time `json:"consented_at"`
	Source         string     `gorm:"type:varchar(20);not null;default:'manual'" json:"source"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
