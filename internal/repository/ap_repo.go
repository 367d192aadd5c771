package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// APRepository defines the interface for data access of AP batches, invoice
// rows and vendor consents
type APRepository interface {
	CreateBatch(ctx context.Context, batch *model.APBatch) error
	CreateRows(ctx context.Context, rows []model.APBatchRow) error
	ListRowsByBuyer(ctx context.Context, buyerID string, page, limit int) ([]model.APBatchRow, int64, error)
	GetRowByID(ctx context.Context, id string) (*model.APBatchRow, error)
	UpdateRow(ctx context.Context, row *model.APBatchRow) error
	// AcceptedUnmatchedRows returns accepted rows lacking a supplier link.
	AcceptedUnmatchedRows(ctx context.Context, buyerID string) ([]model.APBatchRow, error)
	// AcceptedRowsForSupplier returns accepted rows matched to a supplier.
	AcceptedRowsForSupplier(ctx context.Context, supplierUserID string) ([]model.APBatchRow, error)

	UpsertConsent(ctx context.Context, consent *model.VendorConsent) error
	GetConsent(ctx context.Context, buyerID, vendorNumber string) (*model.VendorConsent, error)
	ListConsentsByBuyer(ctx context.Context, buyerID string) ([]model.VendorConsent, error)
	// ConsentedCount counts active consents for enforcement gating.
	ConsentedCount(ctx context.Context, buyerID string) (int64, error)
	ListUnassignedConsents(ctx context.Context, buyerID string) ([]model.VendorConsent, error)
}

type apRepository struct {
	db *gorm.DB
}

func NewAPRepository(db *gorm.DB) APRepository {
	return &apRepository{db: db}
}

func (r *apRepository) CreateBatch(ctx context.Context, batch *model.APBatch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *apRepository) CreateRows(ctx context.Context, rows []model.APBatchRow) error {
	if len(rows) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).CreateInBatches(rows, 200).Error
}

func (r *apRepository) ListRowsByBuyer(ctx context.Context, buyerID string, page, limit int) ([]model.APBatchRow, int64, error) {
	var rows []model.APBatchRow
	var total int64

	query := GetDB(ctx, r.db).Model(&model.APBatchRow{}).Where("buyer_id = ?", buyerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *apRepository) GetRowByID(ctx context.Context, id string) (*model.APBatchRow, error) {
	var row model.APBatchRow
	if err := GetDB(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *apRepository) UpdateRow(ctx context.Context, row *model.APBatchRow) error {
	return GetDB(ctx, r.db).Save(row).Error
}

func (r *apRepository) AcceptedUnmatchedRows(ctx context.Context, buyerID string) ([]model.APBatchRow, error) {
	var rows []model.APBatchRow
	err := GetDB(ctx, r.db).
		Where("buyer_id = ? AND status = ? AND supplier_user_id IS NULL", buyerID, model.APRowAccepted).
		Find(&rows).Error
	return rows, err
}

func (r *apRepository) AcceptedRowsForSupplier(ctx context.Context, supplierUserID string) ([]model.APBatchRow, error) {
	var rows []model.APBatchRow
	err := GetDB(ctx, r.db).
		Where("supplier_user_id = ? AND status = ?", supplierUserID, model.APRowAccepted).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpsertConsent keeps one consent row per (buyer_id, vendor_number); a repeat
// write replaces the supplier link and status. Last write wins.
func (r *apRepository) UpsertConsent(ctx context.Context, consent *model.VendorConsent) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "buyer_id"}, {Name: "vendor_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"supplier_user_id", "consent_status", "consented_at", "source", "updated_at",
		}),
	}).Create(consent).Error
}

func (r *apRepository) GetConsent(ctx context.Context, buyerID, vendorNumber string) (*model.VendorConsent, error) {
	var consent model.VendorConsent
	err := GetDB(ctx, r.db).
		Where("buyer_id = ? AND vendor_number = ?", buyerID, vendorNumber).
		First(&consent).Error
	if err != nil {
		return nil, err
	}
	return &consent, nil
}

func (r *apRepository) ListConsentsByBuyer(ctx context.Context, buyerID string) ([]model.VendorConsent, error) {
	var consents []model.VendorConsent
	err := GetDB(ctx, r.db).
		Where("buyer_id = ?", buyerID).
		Order("vendor_number ASC").
		Find(&consents).Error
	return consents, err
}

func (r *apRepository) ConsentedCount(ctx context.Context, buyerID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.VendorConsent{}).
		Where("buyer_id = ? AND consent_status = ?", buyerID, model.ConsentConsented).
		Count(&count).Error
	return count, err
}

func (r *apRepository) ListUnassignedConsents(ctx context.Context, buyerID string) ([]model.VendorConsent, error) {
	var consents []model.VendorConsent
	err := GetDB(ctx, r.db).
		Where("buyer_id = ? AND supplier_user_id IS NULL", buyerID).
		Order("vendor_number ASC").
		Find(&consents).Error
	return consents, err
}
