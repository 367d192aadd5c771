package repository

import (
	"context"
	"strings"

	"finbridge/internal/model"

	"gorm.io/gorm"
)

// OTPRepository defines the interface for data access of one-time codes
type OTPRepository interface {
	Create(ctx context.Context, otp *model.OTPCode) error
	// GetActive returns the newest unverified, unexpired code for (email, purpose).
	GetActive(ctx context.Context, email, purpose string) (*model.OTPCode, error)
	// GetLatestForEmail returns the newest unverified unexpired code for an email
	// regardless of purpose, used to hint callers at the right flow.
	GetLatestForEmail(ctx context.Context, email string) (*model.OTPCode, error)
	Update(ctx context.Context, otp *model.OTPCode) error
	// InvalidateActive expires all unverified codes for (email, purpose).
	InvalidateActive(ctx context.Context, email, purpose string) error
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *model.OTPCode) error {
	return GetDB(ctx, r.db).Create(otp).Error
}

func (r *otpRepository) GetActive(ctx context.Context, email, purpose string) (*model.OTPCode, error) {
	var otp model.OTPCode
	err := GetDB(ctx, r.db).
		Where("LOWER(email) = ? AND purpose = ? AND verified = false AND expires_at > NOW()", strings.ToLower(email), purpose).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) GetLatestForEmail(ctx context.Context, email string) (*model.OTPCode, error) {
	var otp model.OTPCode
	err := GetDB(ctx, r.db).
		Where("LOWER(email) = ? AND verified = false AND expires_at > NOW()", strings.ToLower(email)).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) Update(ctx context.Context, otp *model.OTPCode) error {
	return GetDB(ctx, r.db).Save(otp).Error
}

func (r *otpRepository) InvalidateActive(ctx context.Context, email, purpose string) error {
	return GetDB(ctx, r.db).Model(&model.OTPCode{}).
		Where("LOWER(email) = ? AND purpose = ? AND verified = false", strings.ToLower(email), purpose).
		Update("expires_at", gorm.Expr("NOW()")).Error
}
