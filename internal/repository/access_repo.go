package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccessRepository defines the interface for data access of dashboard access rows
type AccessRepository interface {
	// Ensure creates the row at pre_kyc when missing; existing rows are untouched.
	Ensure(ctx context.Context, access *model.DashboardAccess) error
	GetByUserID(ctx context.Context, userID string) (*model.DashboardAccess, error)
	Update(ctx context.Context, access *model.DashboardAccess) error
}

type accessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) AccessRepository {
	return &accessRepository{db: db}
}

func (r *accessRepository) Ensure(ctx context.Context, access *model.DashboardAccess) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(access).Error
}

func (r *accessRepository) GetByUserID(ctx context.Context, userID string) (*model.DashboardAccess, error) {
	var access model.DashboardAccess
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&access).Error
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *accessRepository) Update(ctx context.Context, access *model.DashboardAccess) error {
	return GetDB(ctx, r.db).Save(access).Error
}
