package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferStatus enum constants. accepted/declined/expired are terminal from the
// supplier's perspective; approved/executed are the admin payment stages.
const (
	OfferAccepted = "accepted"
	OfferDeclined = "declined"
	OfferExpired  = "expired"
	OfferApproved = "approved"
	OfferExecuted = "executed"
)

// Offer economics: flat fee, minimum runway to the invoice due date.
const (
	DefaultFeePercent = 5
	MinHoursToDue     = 48
)

// EarlyPaymentOffer materializes a supplier's decision on an eligible invoice
// row. Unique on (invoice_row_id, supplier_user_id); accept/decline upsert
// with last write wins and no version check.
type EarlyPaymentOffer struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceRowID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_offer_row_supplier" json:"invoice_row_id"`
	BuyerID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"buyer_id"`
	SupplierUserID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_offer_row_supplier" json:"supplier_user_id"`
	VendorNumber   string          `gorm:"type:varchar(100);not null" json:"vendor_number"`
	InvoiceNumber  string          `gorm:"type:varchar(100);not null" json:"invoice_number"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	DueDate        *time.Time      `json:"due_date"`
	FeePercent     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"fee_percent"`
	FeeAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"fee_amount"`
	OfferedAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"offered_amount"`
	Status         string          `gorm:"type:varchar(20);not null;index" json:"status"`
	AcceptedAt     *time.Time      `json:"accepted_at"`
	DeclinedAt     *time.Time      `json:"declined_at"`
	ApprovedAt     *time.Time      `json:"approved_at"`
	ExecutedAt     *time.Time      `json:"executed_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
