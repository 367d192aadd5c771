package service

import (
	"context"
	"encoding/json"

	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RiskOverrideRequest records a manual risk decision outside the normal flow.
type RiskOverrideRequest struct {
	TargetType string                 `json:"target_type" binding:"required"`
	TargetID   string                 `json:"target_id" binding:"required"`
	Reason     string                 `json:"reason" binding:"required"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// AuditService defines the interface for the append-only audit trail.
// Record never returns an error to callers of business flows; a failed audit
// write is logged and the primary request proceeds.
type AuditService interface {
	Record(ctx context.Context, actorUserID *uuid.UUID, action, targetType, targetID string, metadata map[string]interface{}, ip, userAgent string)
	List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditEvent, int64, error)
	RiskOverride(ctx context.Context, adminID string, req RiskOverrideRequest, ip, userAgent string) (*model.AuditEvent, error)
}

type auditService struct {
	audits repository.AuditRepository
	logger *zap.Logger
}

func NewAuditService(audits repository.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{audits: audits, logger: logger}
}

func (s *auditService) Record(ctx context.Context, actorUserID *uuid.UUID, action, targetType, targetID string, metadata map[string]interface{}, ip, userAgent string) {
	payload := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			payload = string(b)
		}
	}

	event := &model.AuditEvent{
		ActorUserID: actorUserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Metadata:    payload,
		IPAddress:   ip,
		UserAgent:   userAgent,
	}
	if err := s.audits.Create(ctx, event); err != nil {
		s.logger.Error("audit write failed",
			zap.String("action", action), zap.String("target_id", targetID), zap.Error(err))
	}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditEvent, int64, error) {
	return s.audits.List(ctx, filter)
}

func (s *auditService) RiskOverride(ctx context.Context, adminID string, req RiskOverrideRequest, ip, userAgent string) (*model.AuditEvent, error) {
	actorID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	metadata := map[string]interface{}{"reason": req.Reason}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return nil, badRequest("Metadata is not serializable")
	}

	event := &model.AuditEvent{
		ActorUserID: &actorID,
		Action:      model.ActionRiskOverride,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		Metadata:    string(payload),
		IPAddress:   ip,
		UserAgent:   userAgent,
	}
	if err := s.audits.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}
