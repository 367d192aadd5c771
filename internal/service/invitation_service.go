package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"finbridge/internal/email"
	"finbridge/internal/model"
	"finbridge/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs for Request validation
type SendInvitationRequest struct {
	CompanyName string  `json:"company_name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Message     *string `json:"message"`
}

// InvitationView adds the computed expiry flag to a stored invitation.
type InvitationView struct {
	model.SupplierInvitation
	Expired bool `json:"expired"`
}

// ValidateResult is what the public invitation landing page sees.
type ValidateResult struct {
	InvitedCompanyName string  `json:"invited_company_name"`
	InvitedEmail       string  `json:"invited_email"`
	BuyerEmail         string  `json:"buyer_email"`
	Message            *string `json:"message"`
	Status             string  `json:"status"`
	ExpiresAt          string  `json:"expires_at"`
}

// InvitationService defines the interface for the supplier invitation lifecycle
type InvitationService interface {
	Send(ctx context.Context, buyerID string, req SendInvitationRequest) (*model.SupplierInvitation, error)
	ListForBuyer(ctx context.Context, buyerID string, page, limit int) ([]InvitationView, int64, error)
	Cancel(ctx context.Context, buyerID, invitationID string) error
	Validate(ctx context.Context, token string) (*ValidateResult, error)
}

type invitationService struct {
	invitations repository.InvitationRepository
	users       repository.UserRepository
	agreements  AgreementService
	mailer      email.Sender
	logger      *zap.Logger
}

func NewInvitationService(
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	agreements AgreementService,
	mailer email.Sender,
	logger *zap.Logger,
) InvitationService {
	return &invitationService{
		invitations: invitations,
		users:       users,
		agreements:  agreements,
		mailer:      mailer,
		logger:      logger,
	}
}

func generateInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *invitationService) Send(ctx context.Context, buyerID string, req SendInvitationRequest) (*model.SupplierInvitation, error) {
	buyer, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	// Buyers must complete their own onboarding before inviting suppliers.
	result, err := s.agreements.ListForUser(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	signed := false
	for _, a := range result {
		if a.AgreementType == model.AgreementBuyerTerms && a.Status == model.AgreementSigned {
			signed = true
			break
		}
	}
	if !signed {
		return nil, forbidden("Sign your platform agreement before inviting suppliers")
	}

	if _, err := s.invitations.GetActiveByBuyerAndEmail(ctx, buyerID, req.Email); err == nil {
		return nil, conflict("An active invitation already exists for this email")
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, err
	}

	inv := &model.SupplierInvitation{
		BuyerID:             buyer.ID,
		InvitedCompanyName:  req.CompanyName,
		InvitedEmail:        req.Email,
		InvitationMessage:   req.Message,
		InvitationToken:     token,
		Status:              model.InvitationSent,
		EmailDeliveryStatus: "pending",
		ExpiresAt:           time.Now().Add(model.InvitationTTL),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	// A supplier who already holds an account skips the registration leg:
	// link them now and put their buyer-scoped agreement in front of them.
	if supplier, err := s.users.GetByEmail(ctx, req.Email); err == nil && supplier.Role == model.RoleSupplier {
		inv.SupplierUserID = &supplier.ID
		inv.Status = model.InvitationRegistered
		if err := s.invitations.Update(ctx, inv); err != nil {
			s.logger.Warn("failed to link existing supplier to invitation", zap.Error(err))
		}
		if err := s.invitations.UpsertLink(ctx, &model.BuyerSupplierLink{
			BuyerID:        buyer.ID,
			SupplierUserID: supplier.ID,
			InvitationID:   &inv.ID,
		}); err != nil {
			s.logger.Warn("failed to upsert buyer-supplier link", zap.Error(err))
		}
		if _, err := s.agreements.PresentSupplierTerms(ctx, supplier.ID, &buyer.ID); err != nil {
			s.logger.Warn("failed to present supplier terms for existing supplier", zap.Error(err))
		}
	}

	if err := s.mailer.SendInvitation(buyer.Email, req.Email, req.CompanyName, token, req.Message); err != nil {
		inv.EmailDeliveryStatus = "failed"
		if uerr := s.invitations.Update(ctx, inv); uerr != nil {
			s.logger.Error("failed to record email delivery failure", zap.Error(uerr))
		}
		return nil, newError(http.StatusInternalServerError, "Failed to deliver invitation email")
	}

	inv.EmailDeliveryStatus = "delivered"
	if err := s.invitations.Update(ctx, inv); err != nil {
		s.logger.Warn("failed to record email delivery", zap.Error(err))
	}

	return inv, nil
}

func (s *invitationService) ListForBuyer(ctx context.Context, buyerID string, page, limit int) ([]InvitationView, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	invs, total, err := s.invitations.ListByBuyer(ctx, buyerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	views := make([]InvitationView, 0, len(invs))
	for _, inv := range invs {
		views = append(views, InvitationView{
			SupplierInvitation: inv,
			Expired:            inv.IsExpired(now),
		})
	}
	return views, total, nil
}

func (s *invitationService) Cancel(ctx context.Context, buyerID, invitationID string) error {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil || inv.BuyerID.String() != buyerID {
		return notFound("Invitation not found")
	}
	if inv.Status == model.InvitationCompleted {
		return badRequest("Completed invitations cannot be cancelled")
	}
	inv.Status = model.InvitationCancelled
	return s.invitations.Update(ctx, inv)
}

func (s *invitationService) Validate(ctx context.Context, token string) (*ValidateResult, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Invitation not found")
		}
		return nil, err
	}

	if inv.IsExpired(time.Now()) {
		return nil, badRequest("Invitation expired")
	}

	if inv.Status == model.InvitationSent {
		now := time.Now()
		inv.Status = model.InvitationOpened
		inv.OpenedAt = &now
		if err := s.invitations.Update(ctx, inv); err != nil {
			s.logger.Warn("failed to mark invitation opened", zap.Error(err))
		}
	}

	buyerEmail := ""
	if inv.Buyer != nil {
		buyerEmail = inv.Buyer.Email
	}

	return &ValidateResult{
		InvitedCompanyName: inv.InvitedCompanyName,
		InvitedEmail:       inv.InvitedEmail,
		BuyerEmail:         buyerEmail,
		Message:            inv.InvitationMessage,
		Status:             inv.Status,
		ExpiresAt:          inv.ExpiresAt.Format(time.RFC3339),
	}, nil
}
