package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OfferRepository defines the interface for data access of early-payment offers
type OfferRepository interface {
	// Upsert writes the supplier's decision for an invoice row. Conflicts on
	// (invoice_row_id, supplier_user_id) overwrite the prior decision.
	Upsert(ctx context.Context, offer *model.EarlyPaymentOffer) error
	GetByID(ctx context.Context, id string) (*model.EarlyPaymentOffer, error)
	GetByRowAndSupplier(ctx context.Context, invoiceRowID, supplierUserID string) (*model.EarlyPaymentOffer, error)
	ListBySupplier(ctx context.Context, supplierUserID string) ([]model.EarlyPaymentOffer, error)
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.EarlyPaymentOffer, int64, error)
	Update(ctx context.Context, offer *model.EarlyPaymentOffer) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Upsert(ctx context.Context, offer *model.EarlyPaymentOffer) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "invoice_row_id"}, {Name: "supplier_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "fee_percent", "fee_amount", "offered_amount",
			"accepted_at", "declined_at", "updated_at",
		}),
	}).Create(offer).Error
}

func (r *offerRepository) GetByID(ctx context.Context, id string) (*model.EarlyPaymentOffer, error) {
	var offer model.EarlyPaymentOffer
	if err := GetDB(ctx, r.db).First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) GetByRowAndSupplier(ctx context.Context, invoiceRowID, supplierUserID string) (*model.EarlyPaymentOffer, error) {
	var offer model.EarlyPaymentOffer
	err := GetDB(ctx, r.db).
		Where("invoice_row_id = ? AND supplier_user_id = ?", invoiceRowID, supplierUserID).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) ListBySupplier(ctx context.Context, supplierUserID string) ([]model.EarlyPaymentOffer, error) {
	var offers []model.EarlyPaymentOffer
	err := GetDB(ctx, r.db).
		Where("supplier_user_id = ?", supplierUserID).
		Order("created_at DESC").
		Find(&offers).Error
	return offers, err
}

func (r *offerRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.EarlyPaymentOffer, int64, error) {
	var offers []model.EarlyPaymentOffer
	var total int64

	query := GetDB(ctx, r.db).Model(&model.EarlyPaymentOffer{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("accepted_at DESC NULLS LAST").Offset(offset).Limit(limit).Find(&offers).Error; err != nil {
		return nil, 0, err
	}

	return offers, total, nil
}

func (r *offerRepository) Update(ctx context.Context, offer *model.EarlyPaymentOffer) error {
	return GetDB(ctx, r.db).Save(offer).Error
}

func (r *offerRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.EarlyPaymentOffer{}).
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
