package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
)

// CompanyRepository defines the interface for data access of Company entities
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	GetByID(ctx context.Context, id string) (*model.Company, error)
	GetByUserID(ctx context.Context, userID string) (*model.Company, error)
	// GetByRegistration finds a company by registration number and type,
	// matching drafts (user_id NULL) as well as claimed rows.
	GetByRegistration(ctx context.Context, regNumber, companyType string) (*model.Company, error)
	Update(ctx context.Context, company *model.Company) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Create(company).Error
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) GetByUserID(ctx context.Context, userID string) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).First(&company, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) GetByRegistration(ctx context.Context, regNumber, companyType string) (*model.Company, error) {
	var company model.Company
	err := GetDB(ctx, r.db).
		Where("registration_number = ? AND company_type = ?", regNumber, companyType).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) Update(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Save(company).Error
}
