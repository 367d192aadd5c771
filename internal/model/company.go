package model

import (
	"time"

	"github.com/google/uuid"
)

// CompanyType enum constants
const (
	CompanyTypeBuyer    = "buyer"
	CompanyTypeSupplier = "supplier"
)

// Company holds the business profile attached to a user's KYC application.
// UserID is nullable: unauthenticated applicants may start a draft that is
// claimed later by registration number + company type.
type Company struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User               *User      `gorm:"foreignKey:UserID" json:"-"`
	CompanyName        string     `gorm:"type:varchar(255);not null" json:"company_name"`
	RegistrationNumber string     `gorm:"type:varchar(100);not null;index:idx_company_reg_type" json:"registration_number"`
	TaxNumber          string     `gorm:"type:varchar(100);not null" json:"tax_number"`
	Email              string     `gorm:"type:varchar(255);not null" json:"email"`
	Phone              string     `gorm:"type:varchar(50)" json:"phone"`
	Address            string     `gorm:"type:text" json:"address"`
	CompanyType        string     `gorm:"type:varchar(20);not null;index:idx_company_reg_type" json:"company_type"` // buyer, supplier
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
