package repository

import (
	"context"

	"finbridge/internal/model"

	"gorm.io/gorm"
)

// AuditFilter narrows audit event listings.
type AuditFilter struct {
	Query       string
	Action      string
	ActorUserID string
	Limit       int
	Offset      int
}

// AuditRepository defines the interface for data access of audit events.
// Events are append-only; there is no update or delete.
type AuditRepository interface {
	Create(ctx context.Context, event *model.AuditEvent) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditEvent, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, event *model.AuditEvent) error {
	return GetDB(ctx, r.db).Create(event).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditEvent, int64, error) {
	var events []model.AuditEvent
	var total int64

	query := GetDB(ctx, r.db).Model(&model.AuditEvent{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ActorUserID != "" {
		query = query.Where("actor_user_id = ?", filter.ActorUserID)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where("action ILIKE ? OR target_type ILIKE ? OR target_id ILIKE ? OR metadata::text ILIKE ?",
			like, like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	err := query.Preload("Actor").
		Order("created_at DESC").
		Offset(filter.Offset).Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
