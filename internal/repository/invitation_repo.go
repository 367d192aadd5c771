package repository

import (
	"context"
	"strings"

	"finbridge/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvitationRepository defines the interface for data access of supplier
// invitations and buyer-supplier links
type InvitationRepository interface {
	Create(ctx context.Context, inv *model.SupplierInvitation) error
	GetByID(ctx context.Context, id string) (*model.SupplierInvitation, error)
	GetByToken(ctx context.Context, token string) (*model.SupplierInvitation, error)
	// GetActiveByBuyerAndEmail finds a non-terminal, unexpired invitation for
	// duplicate detection.
	GetActiveByBuyerAndEmail(ctx context.Context, buyerID, email string) (*model.SupplierInvitation, error)
	// GetLatestActiveForEmail finds the invitation a registering or submitting
	// supplier should be linked against.
	GetLatestActiveForEmail(ctx context.Context, email string) (*model.SupplierInvitation, error)
	GetBySupplierUserID(ctx context.Context, supplierUserID string) (*model.SupplierInvitation, error)
	ListByBuyer(ctx context.Context, buyerID string, page, limit int) ([]model.SupplierInvitation, int64, error)
	Update(ctx context.Context, inv *model.SupplierInvitation) error

	UpsertLink(ctx context.Context, link *model.BuyerSupplierLink) error
	GetLink(ctx context.Context, buyerID, supplierUserID string) (*model.BuyerSupplierLink, error)
	UpdateLink(ctx context.Context, link *model.BuyerSupplierLink) error
}

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *model.SupplierInvitation) error {
	return GetDB(ctx, r.db).Create(inv).Error
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*model.SupplierInvitation, error) {
	var inv model.SupplierInvitation
	if err := GetDB(ctx, r.db).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*model.SupplierInvitation, error) {
	var inv model.SupplierInvitation
	if err := GetDB(ctx, r.db).Preload("Buyer").First(&inv, "invitation_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) GetActiveByBuyerAndEmail(ctx context.Context, buyerID, email string) (*model.SupplierInvitation, error) {
	var inv model.SupplierInvitation
	err := GetDB(ctx, r.db).
		Where("buyer_id = ? AND LOWER(invited_email) = ? AND status NOT IN ? AND expires_at > NOW()",
			buyerID, strings.ToLower(email),
			[]string{model.InvitationCompleted, model.InvitationCancelled}).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) GetLatestActiveForEmail(ctx context.Context, email string) (*model.SupplierInvitation, error) {
	var inv model.SupplierInvitation
	err := GetDB(ctx, r.db).
		Where("LOWER(invited_email) = ? AND status NOT IN ?",
			strings.ToLower(email),
			[]string{model.InvitationCompleted, model.InvitationCancelled}).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) GetBySupplierUserID(ctx context.Context, supplierUserID string) (*model.SupplierInvitation, error) {
	var inv model.SupplierInvitation
	err := GetDB(ctx, r.db).Preload("Buyer").
		Where("supplier_user_id = ?", supplierUserID).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) ListByBuyer(ctx context.Context, buyerID string, page, limit int) ([]model.SupplierInvitation, int64, error) {
	var invs []model.SupplierInvitation
	var total int64

	query := GetDB(ctx, r.db).Model(&model.SupplierInvitation{}).Where("buyer_id = ?", buyerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&invs).Error; err != nil {
		return nil, 0, err
	}

	return invs, total, nil
}

func (r *invitationRepository) Update(ctx context.Context, inv *model.SupplierInvitation) error {
	return GetDB(ctx, r.db).Save(inv).Error
}

// UpsertLink inserts the buyer-supplier relationship, ignoring conflicts on
// the unique (buyer_id, supplier_user_id) pair.
func (r *invitationRepository) UpsertLink(ctx context.Context, link *model.BuyerSupplierLink) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "supplier_user_id"}},
		DoNothing: true,
	}).Create(link).Error
}

func (r *invitationRepository) GetLink(ctx context.Context, buyerID, supplierUserID string) (*model.BuyerSupplierLink, error) {
	var link model.BuyerSupplierLink
	err := GetDB(ctx, r.db).
		Where("buyer_id = ? AND supplier_user_id = ?", buyerID, supplierUserID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *invitationRepository) UpdateLink(ctx context.Context, link *model.BuyerSupplierLink) error {
	return GetDB(ctx, r.db).Save(link).Error
}
