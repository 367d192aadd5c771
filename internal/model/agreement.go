package model

import (
	"time"

	"github.com/google/uuid"
)

// AgreementStatus enum constants
const (
	AgreementPresented = "presented"
	AgreementSigned    = "signed"
)

// AgreementType enum constants
const (
	AgreementSupplierTerms = "supplier_terms"
	AgreementBuyerTerms    = "buyer_terms"
)

// Fallback clause presented when no active supplier_terms template row exists.
const FallbackSupplierTerms = "Standard supplier early-payment terms apply: payment is advanced " +
	"against approved invoices at the agreed discount rate, subject to banking verification."

// AgreementTemplate is a versioned contract body. The newest active version
// per template_type is the one presented to users.
type AgreementTemplate struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TemplateType    string    `gorm:"type:varchar(30);not null;index" json:"template_type"` // supplier_terms, buyer_terms
	Version         int       `gorm:"not null;default:1" json:"version"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title"`
	ContentTemplate string    `gorm:"type:text;not null" json:"content_template"`
	IsActive        bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Agreement is a contract instance presented to (and possibly signed by) a
// user. CounterpartyUserID ties a supplier-facing agreement to the specific
// inviting buyer; at most one presented/signed row should exist per
// (user, counterparty, type), enforced query-before-insert at the service layer.
type Agreement struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User                *User      `gorm:"foreignKey:UserID" json:"-"`
	CounterpartyUserID  *uuid.UUID `gorm:"type:uuid;index" json:"counterparty_user_id"`
	BuyerSupplierLinkID *uuid.UUID `gorm:"type:uuid" json:"buyer_supplier_link_id"`
	AgreementType       string     `gorm:"type:varchar(30);not null;index" json:"agreement_type"`
	AgreementVersion    int        `gorm:"not null;default:1" json:"agreement_version"`
	TemplateID          *uuid.UUID `gorm:"type:uuid" json:"template_id"`
	AgreementContent    string     `gorm:"type:text;not null" json:"agreement_content"`
	Status              string     `gorm:"type:varchar(20);not null;default:'presented';index" json:"status"`
	PresentedAt         time.Time  `gorm:"autoCreateTime" json:"presented_at"`
	SignedAt            *time.Time `json:"signed_at"`
	SignatureMethod     *string    `gorm:"type:varchar(30)" json:"signature_method"`
	SignatoryName       *string    `gorm:"type:varchar(255)" json:"signatory_name"`
	SignatoryTitle      *string    `gorm:"type:varchar(255)" json:"signatory_title"`
	SignatoryIPAddress  *string    `gorm:"type:varchar(64)" json:"-"`
	SignatureData       *string    `gorm:"type:text" json:"-"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
