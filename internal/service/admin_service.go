package service

import (
	"context"

	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DTOs for Request validation
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=buyer supplier admin fm_admin fa_admin"`
}

// OverviewReport aggregates platform counts for the admin reports page.
type OverviewReport struct {
	KYCByStatus     map[string]int64 `json:"kyc_by_status"`
	BankingByStatus map[string]int64 `json:"banking_by_status"`
	OffersByStatus  map[string]int64 `json:"offers_by_status"`
}

// AdminService defines the interface for user administration and reporting
type AdminService interface {
	ListUsers(ctx context.Context, role string, page, limit int) ([]model.User, int64, error)
	ChangeRole(ctx context.Context, adminID, userID string, req ChangeRoleRequest, ip, userAgent string) (*model.User, error)
	Overview(ctx context.Context) (*OverviewReport, error)
}

type adminService struct {
	users   repository.UserRepository
	kyc     repository.KYCRepository
	banking repository.BankingRepository
	offers  repository.OfferRepository
	audit   AuditService
	logger  *zap.Logger
}

func NewAdminService(
	users repository.UserRepository,
	kyc repository.KYCRepository,
	banking repository.BankingRepository,
	offers repository.OfferRepository,
	audit AuditService,
	logger *zap.Logger,
) AdminService {
	return &adminService{
		users:   users,
		kyc:     kyc,
		banking: banking,
		offers:  offers,
		audit:   audit,
		logger:  logger,
	}
}

func (s *adminService) ListUsers(ctx context.Context, role string, page, limit int) ([]model.User, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.users.List(ctx, role, page, limit)
}

func (s *adminService) ChangeRole(ctx context.Context, adminID, userID string, req ChangeRoleRequest, ip, userAgent string) (*model.User, error) {
	actorID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("Account not found")
	}

	previous := user.Role
	if previous == req.Role {
		return user, nil
	}
	if err := s.users.UpdateRole(ctx, userID, req.Role); err != nil {
		return nil, err
	}
	user.Role = req.Role

	s.audit.Record(ctx, &actorID, model.ActionRoleChanged, "user", userID, map[string]interface{}{
		"from": previous,
		"to":   req.Role,
	}, ip, userAgent)

	return user, nil
}

func (s *adminService) Overview(ctx context.Context) (*OverviewReport, error) {
	kycCounts, err := s.kyc.CountRecordsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	bankingCounts, err := s.banking.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	offerCounts, err := s.offers.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &OverviewReport{
		KYCByStatus:     kycCounts,
		BankingByStatus: bankingCounts,
		OffersByStatus:  offerCounts,
	}, nil
}
