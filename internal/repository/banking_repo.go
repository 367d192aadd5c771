package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BankingRepository defines the interface for data access of banking details
type BankingRepository interface {
	// Upsert writes the one banking row per user, replacing prior submissions.
	Upsert(ctx context.Context, details *model.BankingDetails) error
	GetByID(ctx context.Context, id string) (*model.BankingDetails, error)
	GetByUserID(ctx context.Context, userID string) (*model.BankingDetails, error)
	Update(ctx context.Context, details *model.BankingDetails) error
	List(ctx context.Context, status string, page, limit int) ([]model.BankingDetails, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type bankingRepository struct {
	db *gorm.DB
}

func NewBankingRepository(db *gorm.DB) BankingRepository {
	return &bankingRepository{db: db}
}

func (r *bankingRepository) Upsert(ctx context.Context, details *model.BankingDetails) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"bank_name", "account_number", "routing_number", "account_holder_name",
			"status", "verification_notes", "submission_date", "updated_at",
		}),
	}).Create(details).Error
}

func (r *bankingRepository) GetByID(ctx context.Context, id string) (*model.BankingDetails, error) {
	var details model.BankingDetails
	if err := GetDB(ctx, r.db).Preload("User").First(&details, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &details, nil
}

func (r *bankingRepository) GetByUserID(ctx context.Context, userID string) (*model.BankingDetails, error) {
	var details model.BankingDetails
	if err := GetDB(ctx, r.db).First(&details, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &details, nil
}

func (r *bankingRepository) Update(ctx context.Context, details *model.BankingDetails) error {
	return GetDB(ctx, r.db).Save(details).Error
}

func (r *bankingRepository) List(ctx context.Context, status string, page, limit int) ([]model.BankingDetails, int64, error) {
	var rows []model.BankingDetails
	var total int64

	query := GetDB(ctx, r.db).Model(&model.BankingDetails{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("User").Order("submission_date DESC").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *bankingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.BankingDetails{}).
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
