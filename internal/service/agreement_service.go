package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"finbridge/internal/email"
	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs for Request validation
type TemplateRequest struct {
	TemplateType    string `json:"template_type" binding:"required,oneof=supplier_terms buyer_terms"`
	Title           string `json:"title" binding:"required"`
	ContentTemplate string `json:"content_template" binding:"required"`
	IsActive        *bool  `json:"is_active"`
}

type PresentAgreementRequest struct {
	AgreementType      string  `json:"agreement_type" binding:"required,oneof=supplier_terms buyer_terms"`
	CounterpartyUserID *string `json:"counterparty_user_id" binding:"omitempty,uuid"`
}

type SignAgreementRequest struct {
	SignatoryName  string  `json:"signatory_name" binding:"required"`
	SignatoryTitle *string `json:"signatory_title"`
	SignatureData  *string `json:"signature_data"`
	Consent        bool    `json:"consent"`
}

// AgreementService defines the interface for contract presentation and e-signing
type AgreementService interface {
	CreateTemplate(ctx context.Context, adminID string, req TemplateRequest) (*model.AgreementTemplate, error)
	ListTemplates(ctx context.Context, templateType string) ([]model.AgreementTemplate, error)
	SetTemplateActive(ctx context.Context, templateID string, active bool) (*model.AgreementTemplate, error)

	ListForUser(ctx context.Context, userID string) ([]model.Agreement, error)
	Present(ctx context.Context, userID string, req PresentAgreementRequest) (*model.Agreement, error)
	Sign(ctx context.Context, userID, agreementID, ipAddress string, req SignAgreementRequest) (*model.Agreement, error)

	// PresentSupplierTerms auto-presents the supplier contract scoped to the
	// inviting buyer, unless one is already presented or signed.
	PresentSupplierTerms(ctx context.Context, supplierUserID uuid.UUID, buyerID *uuid.UUID) (*model.Agreement, error)
}

type agreementService struct {
	agreements  repository.AgreementRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository
	access      AccessService
	mailer      email.Sender
	logger      *zap.Logger
}

func NewAgreementService(
	agreements repository.AgreementRepository,
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	access AccessService,
	mailer email.Sender,
	logger *zap.Logger,
) AgreementService {
	return &agreementService{
		agreements:  agreements,
		invitations: invitations,
		users:       users,
		access:      access,
		mailer:      mailer,
		logger:      logger,
	}
}

func (s *agreementService) CreateTemplate(ctx context.Context, adminID string, req TemplateRequest) (*model.AgreementTemplate, error) {
	creatorID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	version := 1
	if latest, err := s.agreements.LatestActiveTemplate(ctx, req.TemplateType); err == nil {
		version = latest.Version + 1
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	tpl := &model.AgreementTemplate{
		TemplateType:    req.TemplateType,
		Version:         version,
		Title:           req.Title,
		ContentTemplate: req.ContentTemplate,
		IsActive:        active,
		CreatedBy:       &creatorID,
	}
	if err := s.agreements.CreateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *agreementService) ListTemplates(ctx context.Context, templateType string) ([]model.AgreementTemplate, error) {
	return s.agreements.ListTemplates(ctx, templateType)
}

func (s *agreementService) SetTemplateActive(ctx context.Context, templateID string, active bool) (*model.AgreementTemplate, error) {
	tpl, err := s.agreements.GetTemplateByID(ctx, templateID)
	if err != nil {
		return nil, notFound("Template not found")
	}
	tpl.IsActive = active
	if err := s.agreements.UpdateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *agreementService) ListForUser(ctx context.Context, userID string) ([]model.Agreement, error) {
	return s.agreements.ListByUser(ctx, userID)
}

// buildContent resolves the newest active template for a type, falling back
// to the built-in clause when no template row exists.
func (s *agreementService) buildContent(ctx context.Context, agreementType string) (content string, version int, templateID *uuid.UUID) {
	tpl, err := s.agreements.LatestActiveTemplate(ctx, agreementType)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("template lookup failed", zap.String("type", agreementType), zap.Error(err))
		}
		return model.FallbackSupplierTerms, 1, nil
	}
	return tpl.ContentTemplate, tpl.Version, &tpl.ID
}

func (s *agreementService) Present(ctx context.Context, userID string, req PresentAgreementRequest) (*model.Agreement, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	if existing, err := s.agreements.FindExisting(ctx, userID, req.CounterpartyUserID, req.AgreementType); err == nil {
		return existing, nil
	}

	content, version, templateID := s.buildContent(ctx, req.AgreementType)

	agreement := &model.Agreement{
		UserID:           uid,
		AgreementType:    req.AgreementType,
		AgreementVersion: version,
		TemplateID:       templateID,
		AgreementContent: content,
		Status:           model.AgreementPresented,
	}
	if req.CounterpartyUserID != nil {
		cid, err := uuid.Parse(*req.CounterpartyUserID)
		if err != nil {
			return nil, badRequest("Invalid counterparty id")
		}
		agreement.CounterpartyUserID = &cid
	}

	if err := s.agreements.Create(ctx, agreement); err != nil {
		return nil, err
	}
	return agreement, nil
}

func (s *agreementService) PresentSupplierTerms(ctx context.Context, supplierUserID uuid.UUID, buyerID *uuid.UUID) (*model.Agreement, error) {
	var counterparty *string
	if buyerID != nil {
		v := buyerID.String()
		counterparty = &v
	}

	if existing, err := s.agreements.FindExisting(ctx, supplierUserID.String(), counterparty, model.AgreementSupplierTerms); err == nil {
		return existing, nil
	}

	content, version, templateID := s.buildContent(ctx, model.AgreementSupplierTerms)

	var link *model.BuyerSupplierLink
	if buyerID != nil {
		if l, err := s.invitations.GetLink(ctx, buyerID.String(), supplierUserID.String()); err == nil {
			link = l
		}
	}

	agreement := &model.Agreement{
		UserID:             supplierUserID,
		CounterpartyUserID: buyerID,
		AgreementType:      model.AgreementSupplierTerms,
		AgreementVersion:   version,
		TemplateID:         templateID,
		AgreementContent:   content,
		Status:             model.AgreementPresented,
	}
	if link != nil {
		agreement.BuyerSupplierLinkID = &link.ID
	}

	if err := s.agreements.Create(ctx, agreement); err != nil {
		return nil, err
	}
	return agreement, nil
}

func (s *agreementService) Sign(ctx context.Context, userID, agreementID, ipAddress string, req SignAgreementRequest) (*model.Agreement, error) {
	if !req.Consent {
		return nil, badRequest("Consent is required to sign")
	}
	if strings.TrimSpace(req.SignatoryName) == "" {
		return nil, badRequest("Signatory name is required")
	}

	agreement, err := s.agreements.GetByID(ctx, agreementID)
	if err != nil || agreement.UserID.String() != userID {
		return nil, notFound("Agreement not found")
	}
	if agreement.Status != model.AgreementPresented {
		return nil, notFound("No agreement pending signature")
	}

	now := time.Now()
	method := "click_to_sign"
	agreement.Status = model.AgreementSigned
	agreement.SignedAt = &now
	agreement.SignatureMethod = &method
	agreement.SignatoryName = &req.SignatoryName
	agreement.SignatoryTitle = req.SignatoryTitle
	agreement.SignatoryIPAddress = &ipAddress
	agreement.SignatureData = req.SignatureData

	if err := s.agreements.Update(ctx, agreement); err != nil {
		return nil, err
	}

	if err := s.access.RaiseLevel(ctx, agreement.UserID, model.AccessAgreementSigned); err != nil {
		s.logger.Error("failed to raise access level after signing",
			zap.String("agreement_id", agreementID), zap.Error(err))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err == nil && user.Role == model.RoleSupplier {
		s.completeSupplierOnboarding(ctx, user, agreement)
	}

	return agreement, nil
}

// completeSupplierOnboarding finishes the invitation lifecycle once the
// supplier signs: invitation → completed, trading link → active, buyer notified.
// Each step is best effort; the signature itself is already committed.
func (s *agreementService) completeSupplierOnboarding(ctx context.Context, supplier *model.User, agreement *model.Agreement) {
	inv, err := s.invitations.GetBySupplierUserID(ctx, supplier.ID.String())
	if err != nil {
		return
	}

	now := time.Now()
	if inv.Status != model.InvitationCompleted && inv.Status != model.InvitationCancelled {
		inv.Status = model.InvitationCompleted
		inv.CompletedAt = &now
		if err := s.invitations.Update(ctx, inv); err != nil {
			s.logger.Warn("failed to complete invitation", zap.Error(err))
		}
	}

	if link, err := s.invitations.GetLink(ctx, inv.BuyerID.String(), supplier.ID.String()); err == nil {
		if link.Status != "active" {
			link.Status = "active"
			if err := s.invitations.UpdateLink(ctx, link); err != nil {
				s.logger.Warn("failed to activate buyer-supplier link", zap.Error(err))
			}
		}
	} else {
		if err := s.invitations.UpsertLink(ctx, &model.BuyerSupplierLink{
			BuyerID:        inv.BuyerID,
			SupplierUserID: supplier.ID,
			InvitationID:   &inv.ID,
			Status:         "active",
		}); err != nil {
			s.logger.Warn("failed to create buyer-supplier link", zap.Error(err))
		}
	}

	if buyer, err := s.users.GetByID(ctx, inv.BuyerID.String()); err == nil {
		if err := s.mailer.SendMilestone(buyer.Email,
			"Your supplier completed onboarding",
			"Supplier onboarding complete",
			[]string{supplier.Email + " has signed their agreement and is ready to trade on the platform."},
		); err != nil {
			s.logger.Warn("buyer milestone email failed", zap.Error(err))
		}
	}
}
