package model

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus enum constants. "expired" is computed at query time from
// ExpiresAt and is never persisted.
const (
	InvitationSent       = "sent"
	InvitationOpened     = "opened"
	InvitationRegistered = "registered"
	InvitationCompleted  = "completed"
	InvitationCancelled  = "cancelled"
)

// Invitations are valid for 7 days from creation.
const InvitationTTL = 7 * 24 * time.Hour

// SupplierInvitation links a buyer to an invited supplier email and,
// once registration happens, to the supplier's user account.
type SupplierInvitation struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuyerID             uuid.UUID  `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Buyer               *User      `gorm:"foreignKey:BuyerID" json:"-"`
	InvitedCompanyName  string     `gorm:"type:varchar(255);not null" json:"invited_company_name"`
	InvitedEmail        string     `gorm:"type:varchar(255);not null;index" json:"invited_email"`
	InvitationMessage   *string    `gorm:"type:text" json:"invitation_message"`
	InvitationToken     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Status              string     `gorm:"type:varchar(20);not null;default:'sent';index" json:"status"`
	EmailDeliveryStatus string     `gorm:"type:varchar(20);not null;default:'pending'" json:"email_delivery_status"`
	SupplierUserID      *uuid.UUID `gorm:"type:uuid;index" json:"supplier_user_id"`
	ExpiresAt           time.Time  `gorm:"not null" json:"expires_at"`
	OpenedAt            *time.Time `json:"opened_at"`
	CompletedAt         *time.Time `json:"completed_at"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired reports the logical expiry state; terminal invitations never expire.
func (i *SupplierInvitation) IsExpired(now time.Time) bool {
	if i.Status == InvitationCompleted || i.Status == InvitationCancelled {
		return false
	}
	return i.ExpiresAt.Before(now)
}

// BuyerSupplierLink tracks the trading relationship created by an invitation.
type BuyerSupplierLink struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BuyerID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_buyer_supplier" json:"buyer_id"`
	SupplierUserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_buyer_supplier" json:"supplier_user_id"`
	InvitationID       *uuid.UUID `gorm:"type:uuid" json:"invitation_id"`
	Status             string     `gorm:"type:varchar(20);not null;default:'initiated'" json:"status"` // initiated, active
	RelationshipSource string     `gorm:"type:varchar(30);not null;default:'invitation'" json:"relationship_source"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
