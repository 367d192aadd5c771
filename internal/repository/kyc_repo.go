package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
)

// KYCRepository defines the interface for data access of KYC records and documents
type KYCRepository interface {
	CreateRecord(ctx context.Context, record *model.KYCRecord) error
	GetRecordByID(ctx context.Context, id string) (*model.KYCRecord, error)
	GetRecordByUserID(ctx context.Context, userID string) (*model.KYCRecord, error)
	GetRecordByCompanyID(ctx context.Context, companyID string) (*model.KYCRecord, error)
	UpdateRecord(ctx context.Context, record *model.KYCRecord) error
	ListRecords(ctx context.Context, status string, page, limit int) ([]model.KYCRecord, int64, error)

	CreateDocument(ctx context.Context, doc *model.Document) error
	GetDocumentByID(ctx context.Context, id string) (*model.Document, error)
	// CurrentDocuments returns the live (replaced_by IS NULL) document per type.
	CurrentDocuments(ctx context.Context, kycID string) ([]model.Document, error)
	// CurrentDocumentOfType returns the live document of one type, if any.
	CurrentDocumentOfType(ctx context.Context, kycID, docType string) (*model.Document, error)
	UpdateDocument(ctx context.Context, doc *model.Document) error
	ListDocuments(ctx context.Context, status, docType string, page, limit int) ([]model.Document, int64, error)
	UpdateDocumentStatuses(ctx context.Context, kycID, from, to string) error
	CountRecordsByStatus(ctx context.Context) (map[string]int64, error)
}

type kycRepository struct {
	db *gorm.DB
}

func NewKYCRepository(db *gorm.DB) KYCRepository {
	return &kycRepository{db: db}
}

func (r *kycRepository) CreateRecord(ctx context.Context, record *model.KYCRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *kycRepository) GetRecordByID(ctx context.Context, id string) (*model.KYCRecord, error) {
	var record model.KYCRecord
	if err := GetDB(ctx, r.db).Preload("Company").First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *kycRepository) GetRecordByUserID(ctx context.Context, userID string) (*model.KYCRecord, error) {
	var record model.KYCRecord
	err := GetDB(ctx, r.db).Preload("Company").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *kycRepository) GetRecordByCompanyID(ctx context.Context, companyID string) (*model.KYCRecord, error) {
	var record model.KYCRecord
	err := GetDB(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *kycRepository) UpdateRecord(ctx context.Context, record *model.KYCRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *kycRepository) ListRecords(ctx context.Context, status string, page, limit int) ([]model.KYCRecord, int64, error) {
	var records []model.KYCRecord
	var total int64

	query := GetDB(ctx, r.db).Model(&model.KYCRecord{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Company").Preload("User").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *kycRepository) CreateDocument(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *kycRepository) GetDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *kycRepository) CurrentDocuments(ctx context.Context, kycID string) ([]model.Document, error) {
	var docs []model.Document
	err := GetDB(ctx, r.db).
		Where("kyc_id = ? AND replaced_by IS NULL", kycID).
		Order("upload_date ASC").
		Find(&docs).Error
	return docs, err
}

func (r *kycRepository) CurrentDocumentOfType(ctx context.Context, kycID, docType string) (*model.Document, error) {
	var doc model.Document
	err := GetDB(ctx, r.db).
		Where("kyc_id = ? AND document_type = ? AND replaced_by IS NULL", kycID, docType).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *kycRepository) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *kycRepository) ListDocuments(ctx context.Context, status, docType string, page, limit int) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Document{}).Where("replaced_by IS NULL")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if docType != "" {
		query = query.Where("document_type = ?", docType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("upload_date DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func (r *kycRepository) UpdateDocumentStatuses(ctx context.Context, kycID, from, to string) error {
	return GetDB(ctx, r.db).Model(&model.Document{}).
		Where("kyc_id = ? AND status = ? AND replaced_by IS NULL", kycID, from).
		Update("status", to).Error
}

func (r *kycRepository) CountRecordsByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.KYCRecord{}).
		Select("status, COUNT(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.N
	}
	return counts, nil
}
