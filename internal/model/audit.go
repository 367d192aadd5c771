package model

import (
	"time"

	"github.com/google/uuid"
)

// Audit action constants
const (
	ActionAPUpload          = "ap_upload"
	ActionAutoMatchInvoices = "auto_match_invoices"
	ActionRiskOverride      = "RISK_OVERRIDE"
	ActionPaymentApproved   = "payment_approved"
	ActionPaymentExecuted   = "payment_executed"
	ActionRoleChanged       = "role_changed"
)

// AuditEvent tracks Who, What, and When for admin and financial actions.
// Rows are append-only and never mutated.
type AuditEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorUserID *uuid.UUID `gorm:"type:uuid;index" json:"actor_user_id"`
	Actor       *User      `gorm:"foreignKey:ActorUserID" json:"actor,omitempty"`
	Action      string     `gorm:"type:varchar(50);not null;index" json:"action"`
	TargetType  string     `gorm:"type:varchar(50);index" json:"target_type"`
	TargetID    string     `gorm:"type:varchar(64);index" json:"target_id"`
	Metadata    string     `gorm:"type:jsonb" json:"metadata"` // serialized JSON payload
	IPAddress   string     `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent   string     `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
