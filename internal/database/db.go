package database

import (
	"log"

	"finbridge/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.OTPCode{},
		&model.Company{},
		&model.KYCRecord{},
		&model.Document{},
		&model.SupplierInvitation{},
		&model.BuyerSupplierLink{},
		&model.BankingDetails{},
		&model.AgreementTemplate{},
		&model.Agreement{},
		&model.DashboardAccess{},
		&model.APBatch{},
		&model.APBatchRow{},
		&model.VendorConsent{},
		&model.EarlyPaymentOffer{},
		&model.AuditEvent{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
