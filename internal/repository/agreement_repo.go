package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
)

// AgreementRepository defines the interface for data access of agreements
// and their versioned templates
type AgreementRepository interface {
	CreateTemplate(ctx context.Context, tpl *model.AgreementTemplate) error
	GetTemplateByID(ctx context.Context, id string) (*model.AgreementTemplate, error)
	// LatestActiveTemplate returns the newest active version for a type.
	LatestActiveTemplate(ctx context.Context, templateType string) (*model.AgreementTemplate, error)
	ListTemplates(ctx context.Context, templateType string) ([]model.AgreementTemplate, error)
	UpdateTemplate(ctx context.Context, tpl *model.AgreementTemplate) error

	Create(ctx context.Context, agreement *model.Agreement) error
	GetByID(ctx context.Context, id string) (*model.Agreement, error)
	ListByUser(ctx context.Context, userID string) ([]model.Agreement, error)
	// FindExisting looks for a presented or signed agreement for the
	// (user, counterparty, type) tuple.
	FindExisting(ctx context.Context, userID string, counterpartyID *string, agreementType string) (*model.Agreement, error)
	// HasSigned reports whether the user has any signed agreement of a type.
	HasSigned(ctx context.Context, userID, agreementType string) (bool, error)
	Update(ctx context.Context, agreement *model.Agreement) error
}

type agreementRepository struct {
	db *gorm.DB
}

func NewAgreementRepository(db *gorm.DB) AgreementRepository {
	return &agreementRepository{db: db}
}

func (r *agreementRepository) CreateTemplate(ctx context.Context, tpl *model.AgreementTemplate) error {
	return GetDB(ctx, r.db).Create(tpl).Error
}

func (r *agreementRepository) GetTemplateByID(ctx context.Context, id string) (*model.AgreementTemplate, error) {
	var tpl model.AgreementTemplate
	if err := GetDB(ctx, r.db).First(&tpl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *agreementRepository) LatestActiveTemplate(ctx context.Context, templateType string) (*model.AgreementTemplate, error) {
	var tpl model.AgreementTemplate
	err := GetDB(ctx, r.db).
		Where("template_type = ? AND is_active = true", templateType).
		Order("version DESC").
		First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *agreementRepository) ListTemplates(ctx context.Context, templateType string) ([]model.AgreementTemplate, error) {
	var tpls []model.AgreementTemplate
	query := GetDB(ctx, r.db).Model(&model.AgreementTemplate{})
	if templateType != "" {
		query = query.Where("template_type = ?", templateType)
	}
	err := query.Order("template_type ASC, version DESC").Find(&tpls).Error
	return tpls, err
}

func (r *agreementRepository) UpdateTemplate(ctx context.Context, tpl *model.AgreementTemplate) error {
	return GetDB(ctx, r.db).Save(tpl).Error
}

func (r *agreementRepository) Create(ctx context.Context, agreement *model.Agreement) error {
	return GetDB(ctx, r.db).Create(agreement).Error
}

func (r *agreementRepository) GetByID(ctx context.Context, id string) (*model.Agreement, error) {
	var agreement model.Agreement
	if err := GetDB(ctx, r.db).First(&agreement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *agreementRepository) ListByUser(ctx context.Context, userID string) ([]model.Agreement, error) {
	var agreements []model.Agreement
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("presented_at DESC").
		Find(&agreements).Error
	return agreements, err
}

func (r *agreementRepository) FindExisting(ctx context.Context, userID string, counterpartyID *string, agreementType string) (*model.Agreement, error) {
	query := GetDB(ctx, r.db).
		Where("user_id = ? AND agreement_type = ? AND status IN ?",
			userID, agreementType, []string{model.AgreementPresented, model.AgreementSigned})
	if counterpartyID != nil {
		query = query.Where("counterparty_user_id = ?", *counterpartyID)
	} else {
		query = query.Where("counterparty_user_id IS NULL")
	}

	var agreement model.Agreement
	if err := query.First(&agreement).Error; err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *agreementRepository) HasSigned(ctx context.Context, userID, agreementType string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Agreement{}).
		Where("user_id = ? AND agreement_type = ? AND status = ?", userID, agreementType, model.AgreementSigned).
		Count(&count).Error
	return count > 0, err
}

func (r *agreementRepository) Update(ctx context.Context, agreement *model.Agreement) error {
	return GetDB(ctx, r.db).Save(agreement).Error
}
