package service

import (
	"context"
	"errors"
	"math"
	"time"

	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionStatus reports the three onboarding milestones.
type CompletionStatus struct {
	KYCCompleted     bool `json:"kyc_completed"`
	BankingSubmitted bool `json:"banking_submitted"`
	AgreementsSigned bool `json:"agreements_signed"`
}

// OnboardingProgress summarizes how far through onboarding a user is.
type OnboardingProgress struct {
	Percentage     int    `json:"percentage"`
	CompletedSteps int    `json:"completed_steps"`
	TotalSteps     int    `json:"total_steps"`
	CurrentStep    string `json:"current_step"`
}

// AccessResult is the resolver output gating every dashboard load.
type AccessResult struct {
	User               *model.User        `json:"user"`
	CanAccess          bool               `json:"can_access"`
	RequiredStep       string             `json:"required_step,omitempty"`
	CurrentLevel       string             `json:"current_level"`
	CompletionStatus   CompletionStatus   `json:"completion_status"`
	RedirectTo         string             `json:"redirect_to,omitempty"`
	OnboardingProgress OnboardingProgress `json:"onboarding_progress"`
}

// Onboarding step identifiers returned in required_step, current_step and
// the checklist. The frontend routes on these exact values.
const (
	StepCompleteKYC    = "complete_kyc"
	StepSubmitBanking  = "submit_banking"
	StepSignAgreements = "sign_agreements"
)

// ChecklistStep is one row of the onboarding checklist.
type ChecklistStep struct {
	Step      string `json:"step"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
	Locked    bool   `json:"locked"`
}

// AccessService resolves the onboarding gate for a user and owns the
// persisted dashboard_access row.
type AccessService interface {
	ResolveAccess(ctx context.Context, userID string) (*AccessResult, error)
	Checklist(ctx context.Context, userID string) ([]ChecklistStep, error)
	DashboardStatus(ctx context.Context, userID string) (*model.DashboardAccess, error)
	// EnsureRow creates the pre_kyc dashboard_access row if missing.
	EnsureRow(ctx context.Context, userID uuid.UUID, kycID *uuid.UUID) error
	// RaiseLevel advances the persisted level; lower or equal levels are no-ops.
	RaiseLevel(ctx context.Context, userID uuid.UUID, level string) error
}

type accessService struct {
	users      repository.UserRepository
	kyc        repository.KYCRepository
	banking    repository.BankingRepository
	agreements repository.AgreementRepository
	access     repository.AccessRepository
	logger     *zap.Logger
}

func NewAccessService(
	users repository.UserRepository,
	kyc repository.KYCRepository,
	banking repository.BankingRepository,
	agreements repository.AgreementRepository,
	access repository.AccessRepository,
	logger *zap.Logger,
) AccessService {
	return &accessService{
		users:      users,
		kyc:        kyc,
		banking:    banking,
		agreements: agreements,
		access:     access,
		logger:     logger,
	}
}

// RequiredAgreementType maps a portal role to the contract it must sign.
func RequiredAgreementType(role string) string {
	if role == model.RoleSupplier {
		return model.AgreementSupplierTerms
	}
	return model.AgreementBuyerTerms
}

func (s *accessService) completion(ctx context.Context, user *model.User) CompletionStatus {
	var status CompletionStatus

	record, err := s.kyc.GetRecordByUserID(ctx, user.ID.String())
	if err == nil {
		status.KYCCompleted = record.Status == model.KYCApproved
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		// Fail closed: any lookup error reads as incomplete.
		s.logger.Error("kyc lookup failed during access resolution",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	banking, err := s.banking.GetByUserID(ctx, user.ID.String())
	if err == nil {
		status.BankingSubmitted = banking.Status == model.BankingVerified || banking.Status == model.BankingPending
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("banking lookup failed during access resolution",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	signed, err := s.agreements.HasSigned(ctx, user.ID.String(), RequiredAgreementType(user.Role))
	if err != nil {
		s.logger.Error("agreement lookup failed during access resolution",
			zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	status.AgreementsSigned = signed

	return status
}

func deriveLevel(cs CompletionStatus) string {
	switch {
	case cs.KYCCompleted && cs.BankingSubmitted && cs.AgreementsSigned:
		return model.AccessAgreementSigned
	case cs.KYCCompleted && cs.BankingSubmitted:
		return model.AccessBankingSubmitted
	case cs.KYCCompleted:
		return model.AccessKYCApproved
	default:
		return model.AccessPreKYC
	}
}

func (s *accessService) ResolveAccess(ctx context.Context, userID string) (*AccessResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("Account not found")
	}

	// Admin roles bypass onboarding entirely.
	if model.IsAdminRole(user.Role) {
		return &AccessResult{
			User:         user,
			CanAccess:    true,
			CurrentLevel: model.AccessBankingVerified,
			CompletionStatus: CompletionStatus{
				KYCCompleted: true, BankingSubmitted: true, AgreementsSigned: true,
			},
			RedirectTo: "/dashboard/admin",
			OnboardingProgress: OnboardingProgress{
				Percentage: 100, CompletedSteps: 3, TotalSteps: 3, CurrentStep: "complete",
			},
		}, nil
	}

	cs := s.completion(ctx, user)

	completed := 0
	for _, done := range []bool{cs.KYCCompleted, cs.BankingSubmitted, cs.AgreementsSigned} {
		if done {
			completed++
		}
	}

	result := &AccessResult{
		User:             user,
		CurrentLevel:     deriveLevel(cs),
		CompletionStatus: cs,
		OnboardingProgress: OnboardingProgress{
			Percentage:     int(math.Round(float64(completed) * 100 / 3)),
			CompletedSteps: completed,
			TotalSteps:     3,
		},
	}

	switch {
	case !cs.KYCCompleted:
		result.RequiredStep = StepCompleteKYC
		result.RedirectTo = "/onboarding/kyc"
	case !cs.BankingSubmitted:
		result.RequiredStep = StepSubmitBanking
		result.RedirectTo = "/onboarding/banking"
	case !cs.AgreementsSigned:
		result.RequiredStep = StepSignAgreements
		result.RedirectTo = "/onboarding/agreement"
	default:
		result.CanAccess = true
		result.RedirectTo = "/dashboard/" + user.Role
		result.OnboardingProgress.Percentage = 100
		result.OnboardingProgress.CurrentStep = "complete"
		return result, nil
	}
	result.OnboardingProgress.CurrentStep = result.RequiredStep

	return result, nil
}

func (s *accessService) Checklist(ctx context.Context, userID string) ([]ChecklistStep, error) {
	result, err := s.ResolveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	cs := result.CompletionStatus

	steps := []ChecklistStep{
		{Step: StepCompleteKYC, Title: "Verify your business", Completed: cs.KYCCompleted},
		{Step: StepSubmitBanking, Title: "Add banking details", Completed: cs.BankingSubmitted},
		{Step: StepSignAgreements, Title: "Sign your agreement", Completed: cs.AgreementsSigned},
	}

	currentSeen := false
	for i := range steps {
		if !steps[i].Completed && !currentSeen {
			steps[i].Current = true
			currentSeen = true
			continue
		}
		if !steps[i].Completed && currentSeen {
			steps[i].Locked = true
		}
	}
	return steps, nil
}

func (s *accessService) DashboardStatus(ctx context.Context, userID string) (*model.DashboardAccess, error) {
	access, err := s.access.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("No dashboard access record")
		}
		return nil, err
	}
	return access, nil
}

func (s *accessService) EnsureRow(ctx context.Context, userID uuid.UUID, kycID *uuid.UUID) error {
	return s.access.Ensure(ctx, &model.DashboardAccess{
		UserID:      userID,
		KYCID:       kycID,
		AccessLevel: model.AccessPreKYC,
	})
}

func (s *accessService) RaiseLevel(ctx context.Context, userID uuid.UUID, level string) error {
	if err := s.EnsureRow(ctx, userID, nil); err != nil {
		return err
	}
	access, err := s.access.GetByUserID(ctx, userID.String())
	if err != nil {
		return err
	}

	if model.AccessLevelRank(level) <= model.AccessLevelRank(access.AccessLevel) {
		return nil
	}

	now := time.Now()
	access.AccessLevel = level
	access.LastLevelChange = &now
	switch level {
	case model.AccessBankingSubmitted:
		access.BankingSubmissionDate = &now
	case model.AccessAgreementSigned:
		access.AgreementSigningDate = &now
	case model.AccessBankingVerified:
		access.BankingVerificationDate = &now
	}
	return s.access.Update(ctx, access)
}
