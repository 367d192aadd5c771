package service

import (
	"context"
	"errors"
	"time"

	"finbridge/internal/email"
	"finbridge/internal/model"
	"finbridge/internal/repository"
	"finbridge/pkg/crypto"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs for Request validation
type BankingSubmitRequest struct {
	BankName          string `json:"bank_name" binding:"required"`
	AccountNumber     string `json:"account_number" binding:"required,min=4"`
	RoutingNumber     string `json:"routing_number" binding:"required,min=4"`
	AccountHolderName string `json:"account_holder_name" binding:"required"`
}

type BankingVerifyRequest struct {
	Decision string  `json:"decision" binding:"required,oneof=verify reject resubmission_required"`
	Notes    *string `json:"notes"`
}

// BankingDetailsResponse carries decrypted numbers for the owner or an admin
// detail view. List views get the masked variant instead.
type BankingDetailsResponse struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	BankName          string     `json:"bank_name"`
	AccountNumber     string     `json:"account_number"`
	RoutingNumber     string     `json:"routing_number"`
	AccountHolderName string     `json:"account_holder_name"`
	Status            string     `json:"status"`
	VerificationNotes *string    `json:"verification_notes"`
	ResubmissionCount int        `json:"resubmission_count"`
	SubmissionDate    time.Time  `json:"submission_date"`
	VerificationDate  *time.Time `json:"verification_date"`
}

// BankingService defines the interface for the banking verification workflow
type BankingService interface {
	Submit(ctx context.Context, userID string, req BankingSubmitRequest) (*model.BankingDetails, error)
	// Details returns the owner's banking record with decrypted numbers.
	Details(ctx context.Context, userID string) (*BankingDetailsResponse, error)
	// AdminList returns records with masked account numbers.
	AdminList(ctx context.Context, status string, page, limit int) ([]BankingDetailsResponse, int64, error)
	// AdminDetail returns one record with decrypted numbers.
	AdminDetail(ctx context.Context, bankingID string) (*BankingDetailsResponse, error)
	Verify(ctx context.Context, adminID, bankingID string, req BankingVerifyRequest) (*model.BankingDetails, error)
}

type bankingService struct {
	banking     repository.BankingRepository
	kyc         repository.KYCRepository
	users       repository.UserRepository
	invitations repository.InvitationRepository
	access      AccessService
	agreements  AgreementService
	cipher      *crypto.FieldCipher
	mailer      email.Sender
	hub         Broadcaster
	logger      *zap.Logger
}

func NewBankingService(
	banking repository.BankingRepository,
	kyc repository.KYCRepository,
	users repository.UserRepository,
	invitations repository.InvitationRepository,
	access AccessService,
	agreements AgreementService,
	cipher *crypto.FieldCipher,
	mailer email.Sender,
	hub Broadcaster,
	logger *zap.Logger,
) BankingService {
	return &bankingService{
		banking:     banking,
		kyc:         kyc,
		users:       users,
		invitations: invitations,
		access:      access,
		agreements:  agreements,
		cipher:      cipher,
		mailer:      mailer,
		hub:         hub,
		logger:      logger,
	}
}

func (s *bankingService) Submit(ctx context.Context, userID string, req BankingSubmitRequest) (*model.BankingDetails, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	record, err := s.kyc.GetRecordByUserID(ctx, userID)
	if err != nil || record.Status != model.KYCApproved {
		return nil, badRequest("Banking details require an approved verification application")
	}

	encAccount, err := s.cipher.Encrypt(req.AccountNumber)
	if err != nil {
		return nil, err
	}
	encRouting, err := s.cipher.Encrypt(req.RoutingNumber)
	if err != nil {
		return nil, err
	}

	details := &model.BankingDetails{
		UserID:            uid,
		BankName:          req.BankName,
		AccountNumber:     encAccount,
		RoutingNumber:     encRouting,
		AccountHolderName: req.AccountHolderName,
		Status:            model.BankingPending,
		SubmissionDate:    time.Now(),
	}
	if err := s.banking.Upsert(ctx, details); err != nil {
		return nil, err
	}

	if err := s.access.RaiseLevel(ctx, uid, model.AccessBankingSubmitted); err != nil {
		s.logger.Error("failed to raise access level after banking submission",
			zap.String("user_id", userID), zap.Error(err))
	}

	s.notifyInvitingBuyer(ctx, userID,
		"Your supplier submitted banking details",
		"Banking details submitted",
		"Banking details have been submitted and are awaiting verification.")

	s.hub.BroadcastEvent("banking_submitted", map[string]interface{}{
		"user_id": uid,
	})

	saved, err := s.banking.GetByUserID(ctx, userID)
	if err != nil {
		return details, nil
	}
	return saved, nil
}

// notifyInvitingBuyer emails the buyer who invited this supplier, if any.
func (s *bankingService) notifyInvitingBuyer(ctx context.Context, supplierUserID, subject, heading, body string) {
	inv, err := s.invitations.GetBySupplierUserID(ctx, supplierUserID)
	if err != nil {
		return
	}
	buyer, err := s.users.GetByID(ctx, inv.BuyerID.String())
	if err != nil {
		return
	}
	if err := s.mailer.SendMilestone(buyer.Email, subject, heading, []string{body}); err != nil {
		s.logger.Warn("buyer milestone email failed", zap.Error(err))
	}
}

func (s *bankingService) toResponse(details *model.BankingDetails, decrypt bool) *BankingDetailsResponse {
	resp := &BankingDetailsResponse{
		ID:                details.ID,
		UserID:            details.UserID,
		BankName:          details.BankName,
		AccountHolderName: details.AccountHolderName,
		Status:            details.Status,
		VerificationNotes: details.VerificationNotes,
		ResubmissionCount: details.ResubmissionCount,
		SubmissionDate:    details.SubmissionDate,
		VerificationDate:  details.VerificationDate,
	}

	account, errA := s.cipher.Decrypt(details.AccountNumber)
	routing, errR := s.cipher.Decrypt(details.RoutingNumber)
	if errA != nil || errR != nil {
		s.logger.Error("failed to decrypt banking fields", zap.String("banking_id", details.ID.String()))
		resp.AccountNumber = "unavailable"
		resp.RoutingNumber = "unavailable"
		return resp
	}

	if decrypt {
		resp.AccountNumber = account
		resp.RoutingNumber = routing
	} else {
		resp.AccountNumber = crypto.Mask(account, 4)
		resp.RoutingNumber = crypto.Mask(routing, 4)
	}
	return resp
}

func (s *bankingService) Details(ctx context.Context, userID string) (*BankingDetailsResponse, error) {
	details, err := s.banking.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("No banking details on file")
		}
		return nil, err
	}
	return s.toResponse(details, true), nil
}

func (s *bankingService) AdminList(ctx context.Context, status string, page, limit int) ([]BankingDetailsResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	rows, total, err := s.banking.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]BankingDetailsResponse, 0, len(rows))
	for i := range rows {
		responses = append(responses, *s.toResponse(&rows[i], false))
	}
	return responses, total, nil
}

func (s *bankingService) AdminDetail(ctx context.Context, bankingID string) (*BankingDetailsResponse, error) {
	details, err := s.banking.GetByID(ctx, bankingID)
	if err != nil {
		return nil, notFound("Banking record not found")
	}
	return s.toResponse(details, true), nil
}

// Verify applies the admin decision and runs the post-verification cascade.
// The cascade steps run sequentially without a wrapping transaction; a
// mid-cascade failure leaves earlier steps committed.
func (s *bankingService) Verify(ctx context.Context, adminID, bankingID string, req BankingVerifyRequest) (*model.BankingDetails, error) {
	details, err := s.banking.GetByID(ctx, bankingID)
	if err != nil {
		return nil, notFound("Banking record not found")
	}

	verifierID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}
	now := time.Now()
	details.AdminVerifierID = &verifierID
	details.VerificationNotes = req.Notes

	switch req.Decision {
	case "verify":
		details.Status = model.BankingVerified
		details.VerificationDate = &now
		if err := s.banking.Update(ctx, details); err != nil {
			return nil, err
		}

		if err := s.access.RaiseLevel(ctx, details.UserID, model.AccessBankingVerified); err != nil {
			s.logger.Error("failed to raise access level after verification",
				zap.String("banking_id", bankingID), zap.Error(err))
		}

		supplier, err := s.users.GetByID(ctx, details.UserID.String())
		if err == nil && supplier.Role == model.RoleSupplier {
			var buyerID *uuid.UUID
			if inv, err := s.invitations.GetBySupplierUserID(ctx, supplier.ID.String()); err == nil {
				buyerID = &inv.BuyerID
			}
			if _, err := s.agreements.PresentSupplierTerms(ctx, supplier.ID, buyerID); err != nil {
				s.logger.Error("failed to auto-present supplier terms",
					zap.String("user_id", supplier.ID.String()), zap.Error(err))
			}
			s.notifyInvitingBuyer(ctx, supplier.ID.String(),
				"Your supplier's banking details were verified",
				"Banking verified",
				"Banking details have been verified. The supplier agreement is ready to sign.")
		}

	case "reject":
		details.Status = model.BankingRejected
		if err := s.banking.Update(ctx, details); err != nil {
			return nil, err
		}

	case "resubmission_required":
		details.Status = model.BankingResubmissionRequired
		details.ResubmissionCount++
		if err := s.banking.Update(ctx, details); err != nil {
			return nil, err
		}

		if owner, err := s.users.GetByID(ctx, details.UserID.String()); err == nil {
			if err := s.mailer.SendBankingResubmission(owner.Email, details.AccountHolderName, req.Notes); err != nil {
				s.logger.Warn("resubmission email failed", zap.Error(err))
			}
		}
	}

	return details, nil
}
