package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finbridge/internal/email"
	"finbridge/internal/filestore"
	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxDocumentSize = 10 << 20 // 10MB

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// Broadcaster fans realtime events out to connected admin dashboards.
type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{})
}

// DTOs for Request validation
type ApplicationRequest struct {
	CompanyName        string `json:"company_name" binding:"required"`
	RegistrationNumber string `json:"registration_number" binding:"required"`
	TaxNumber          string `json:"tax_number" binding:"required"`
	Email              string `json:"email" binding:"required,email"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	CompanyType        string `json:"company_type" binding:"required,oneof=buyer supplier"`
}

type DocumentReviewRequest struct {
	Action string  `json:"action" binding:"required,oneof=start_review verify reject"`
	Notes  *string `json:"notes"`
}

type KYCDecisionRequest struct {
	Decision string  `json:"decision" binding:"required,oneof=approve reject"`
	Notes    *string `json:"notes" binding:"omitempty,max=2000"`
}

type ApplicationResponse struct {
	Record    *model.KYCRecord `json:"record"`
	Documents []model.Document `json:"documents"`
}

// KYCService defines the interface for business logic of the verification workflow
type KYCService interface {
	SubmitApplication(ctx context.Context, userID string, req ApplicationRequest) (*model.KYCRecord, error)
	GetApplication(ctx context.Context, userID string) (*ApplicationResponse, error)
	UploadDocument(ctx context.Context, userID, docType, filename, mimeType string, data []byte) (*model.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]model.Document, error)
	Submit(ctx context.Context, userID string) (*model.KYCRecord, error)

	ReviewDocument(ctx context.Context, adminID, docID string, req DocumentReviewRequest) (*model.Document, error)
	Decide(ctx context.Context, adminID, kycID string, req KYCDecisionRequest) (*model.KYCRecord, error)
	ListApplications(ctx context.Context, status string, page, limit int) ([]model.KYCRecord, int64, error)
	ListAllDocuments(ctx context.Context, status, docType string, page, limit int) ([]model.Document, int64, error)
	DocumentFile(ctx context.Context, docID string) (*model.Document, []byte, error)
}

type kycService struct {
	kyc         repository.KYCRepository
	companies   repository.CompanyRepository
	users       repository.UserRepository
	invitations repository.InvitationRepository
	access      AccessService
	files       *filestore.Store
	mailer      email.Sender
	hub         Broadcaster
	logger      *zap.Logger
}

func NewKYCService(
	kyc repository.KYCRepository,
	companies repository.CompanyRepository,
	users repository.UserRepository,
	invitations repository.InvitationRepository,
	access AccessService,
	files *filestore.Store,
	mailer email.Sender,
	hub Broadcaster,
	logger *zap.Logger,
) KYCService {
	return &kycService{
		kyc:         kyc,
		companies:   companies,
		users:       users,
		invitations: invitations,
		access:      access,
		files:       files,
		mailer:      mailer,
		hub:         hub,
		logger:      logger,
	}
}

func (s *kycService) SubmitApplication(ctx context.Context, userID string, req ApplicationRequest) (*model.KYCRecord, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	company, err := s.companies.GetByRegistration(ctx, req.RegistrationNumber, req.CompanyType)
	switch {
	case err == nil:
		// A draft (no owner yet) is claimed by the submitting user; a company
		// owned by someone else is a duplicate registration.
		if company.UserID != nil && *company.UserID != uid {
			return nil, &Error{
				Status:  http.StatusBadRequest,
				Code:    "DUPLICATE_COMPANY",
				Message: "A company with this registration number is already registered",
			}
		}
		company.UserID = &uid
		company.CompanyName = req.CompanyName
		company.TaxNumber = req.TaxNumber
		company.Email = strings.ToLower(req.Email)
		company.Phone = req.Phone
		company.Address = req.Address
		if err := s.companies.Update(ctx, company); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		company = &model.Company{
			UserID:             &uid,
			CompanyName:        req.CompanyName,
			RegistrationNumber: req.RegistrationNumber,
			TaxNumber:          req.TaxNumber,
			Email:              strings.ToLower(req.Email),
			Phone:              req.Phone,
			Address:            req.Address,
			CompanyType:        req.CompanyType,
		}
		if err := s.companies.Create(ctx, company); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	record, err := s.kyc.GetRecordByCompanyID(ctx, company.ID.String())
	switch {
	case err == nil:
		record.UserID = &uid
		// Resubmission after rejection restarts the review cycle.
		if record.Status == model.KYCRejected {
			record.Status = model.KYCPending
			record.SubmittedAt = nil
			record.ReviewedAt = nil
			record.DecidedAt = nil
			record.DecisionNotes = nil
		}
		if err := s.kyc.UpdateRecord(ctx, record); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = &model.KYCRecord{
			UserID:    &uid,
			CompanyID: &company.ID,
			Status:    model.KYCPending,
		}
		if err := s.kyc.CreateRecord(ctx, record); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.access.EnsureRow(ctx, uid, &record.ID); err != nil {
		s.logger.Warn("failed to ensure dashboard access row",
			zap.String("user_id", userID), zap.Error(err))
	}

	record.Company = company
	return record, nil
}

func (s *kycService) GetApplication(ctx context.Context, userID string) (*ApplicationResponse, error) {
	record, err := s.kyc.GetRecordByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("No verification application found")
		}
		return nil, err
	}
	docs, err := s.kyc.CurrentDocuments(ctx, record.ID.String())
	if err != nil {
		return nil, err
	}
	return &ApplicationResponse{Record: record, Documents: docs}, nil
}

func (s *kycService) UploadDocument(ctx context.Context, userID, docType, filename, mimeType string, data []byte) (*model.Document, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	validType := false
	for _, t := range model.RequiredDocumentTypes(user.Role) {
		if t == docType {
			validType = true
			break
		}
	}
	if !validType {
		return nil, badRequest("Invalid document type for your account")
	}
	if len(data) == 0 || len(data) > maxDocumentSize {
		return nil, badRequest("File must be between 1 byte and 10MB")
	}
	if !allowedMimeTypes[strings.ToLower(mimeType)] {
		return nil, badRequest("Only PDF, JPG and PNG files are accepted")
	}

	record, err := s.kyc.GetRecordByUserID(ctx, userID)
	if err != nil {
		return nil, badRequest("Submit your company application before uploading documents")
	}

	stored := filestore.SanitizeFilename(filename)
	relPath, err := s.files.SaveDocument(record.ID.String(), stored, data)
	if err != nil {
		return nil, err
	}

	// Resolve the live version before inserting the new one, so the lookup
	// cannot return the row we are about to create.
	prior, err := s.kyc.CurrentDocumentOfType(ctx, record.ID.String(), docType)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	doc := &model.Document{
		KYCID:        record.ID,
		DocumentType: docType,
		Filename:     filename,
		FilePath:     relPath,
		FileSize:     int64(len(data)),
		MimeType:     mimeType,
		Status:       model.DocUploaded,
	}
	if err := s.kyc.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	// Re-upload supersedes the prior version; the old row stays for audit.
	if prior != nil {
		prior.ReplacedBy = &doc.ID
		if err := s.kyc.UpdateDocument(ctx, prior); err != nil {
			return nil, err
		}
	}

	s.hub.BroadcastEvent("document_uploaded", map[string]interface{}{
		"kyc_id":        record.ID,
		"document_id":   doc.ID,
		"document_type": docType,
	})

	return doc, nil
}

func (s *kycService) ListDocuments(ctx context.Context, userID string) ([]model.Document, error) {
	record, err := s.kyc.GetRecordByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.Document{}, nil
		}
		return nil, err
	}
	return s.kyc.CurrentDocuments(ctx, record.ID.String())
}

// missingDocumentTypes returns required types without a live upload.
func missingDocumentTypes(required []string, docs []model.Document) []string {
	present := make(map[string]bool, len(docs))
	for _, d := range docs {
		present[d.DocumentType] = true
	}
	var missing []string
	for _, t := range required {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	return missing
}

func (s *kycService) Submit(ctx context.Context, userID string) (*model.KYCRecord, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	record, err := s.kyc.GetRecordByUserID(ctx, userID)
	if err != nil {
		return nil, badRequest("Submit your company application before requesting review")
	}
	if record.Status != model.KYCPending {
		return nil, badRequest("Application has already been submitted")
	}

	docs, err := s.kyc.CurrentDocuments(ctx, record.ID.String())
	if err != nil {
		return nil, err
	}

	if user.Role == model.RoleSupplier {
		if len(docs) < model.SupplierMinDocuments {
			return nil, &Error{
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("At least %d documents are required", model.SupplierMinDocuments),
			}
		}
	} else {
		if missing := missingDocumentTypes(model.BuyerDocumentTypes, docs); len(missing) > 0 {
			return nil, &Error{
				Status:  http.StatusBadRequest,
				Message: "Required documents are missing",
				Details: map[string]interface{}{"missing_documents": missing},
			}
		}
	}

	// Link the invitation this supplier is onboarding under, if any.
	var invitingBuyerID *uuid.UUID
	if user.Role == model.RoleSupplier {
		if inv, err := s.invitations.GetLatestActiveForEmail(ctx, user.Email); err == nil {
			record.InvitationID = &inv.ID
			invitingBuyerID = &inv.BuyerID
		}
	}

	now := time.Now()
	record.Status = model.KYCUnderReview
	record.SubmittedAt = &now
	if err := s.kyc.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}
	if err := s.kyc.UpdateDocumentStatuses(ctx, record.ID.String(), model.DocUploaded, model.DocPending); err != nil {
		return nil, err
	}

	if invitingBuyerID != nil {
		if buyer, err := s.users.GetByID(ctx, invitingBuyerID.String()); err == nil {
			if err := s.mailer.SendMilestone(buyer.Email,
				"Your supplier submitted verification documents",
				"Supplier verification in progress",
				[]string{fmt.Sprintf("%s has submitted their verification documents for review.", user.Email)},
			); err != nil {
				s.logger.Warn("buyer milestone email failed", zap.Error(err))
			}
		}
	}

	s.hub.BroadcastEvent("kyc_submitted", map[string]interface{}{
		"kyc_id":  record.ID,
		"user_id": user.ID,
		"role":    user.Role,
	})

	return record, nil
}

func (s *kycService) ReviewDocument(ctx context.Context, adminID, docID string, req DocumentReviewRequest) (*model.Document, error) {
	doc, err := s.kyc.GetDocumentByID(ctx, docID)
	if err != nil {
		return nil, notFound("Document not found")
	}
	if doc.ReplacedBy != nil {
		return nil, badRequest("Document has been superseded by a newer upload")
	}

	reviewerID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}
	now := time.Now()

	switch req.Action {
	case "start_review":
		if doc.Status != model.DocPending {
			return nil, badRequest("Review can only start on a pending document")
		}
		doc.Status = model.DocUnderReview
		doc.ReviewerID = &reviewerID

		// First document pulled for review moves the application along.
		if record, err := s.kyc.GetRecordByID(ctx, doc.KYCID.String()); err == nil && record.Status == model.KYCPending {
			record.Status = model.KYCUnderReview
			if err := s.kyc.UpdateRecord(ctx, record); err != nil {
				return nil, err
			}
		}

	case "verify", "reject":
		if doc.Status != model.DocUnderReview {
			return nil, badRequest("Document must be under review before a decision")
		}
		if req.Action == "verify" {
			doc.Status = model.DocVerified
		} else {
			doc.Status = model.DocRejected
		}
		doc.ReviewerID = &reviewerID
		doc.ReviewDate = &now
		doc.ReviewNotes = req.Notes
	}

	if err := s.kyc.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	if doc.Status == model.DocVerified || doc.Status == model.DocRejected {
		if err := s.maybeReadyForDecision(ctx, doc.KYCID.String()); err != nil {
			return nil, err
		}
	}

	s.hub.BroadcastEvent("document_reviewed", map[string]interface{}{
		"document_id": doc.ID,
		"kyc_id":      doc.KYCID,
		"status":      doc.Status,
	})

	return doc, nil
}

// maybeReadyForDecision promotes the application once every live document has
// a verify/reject outcome.
func (s *kycService) maybeReadyForDecision(ctx context.Context, kycID string) error {
	record, err := s.kyc.GetRecordByID(ctx, kycID)
	if err != nil {
		return err
	}
	if record.Status != model.KYCUnderReview {
		return nil
	}

	docs, err := s.kyc.CurrentDocuments(ctx, kycID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	for _, d := range docs {
		if d.Status != model.DocVerified && d.Status != model.DocRejected {
			return nil
		}
	}

	now := time.Now()
	record.Status = model.KYCReadyForDecision
	record.ReviewedAt = &now
	return s.kyc.UpdateRecord(ctx, record)
}

func (s *kycService) Decide(ctx context.Context, adminID, kycID string, req KYCDecisionRequest) (*model.KYCRecord, error) {
	record, err := s.kyc.GetRecordByID(ctx, kycID)
	if err != nil {
		return nil, notFound("Application not found")
	}
	if record.Status != model.KYCReadyForDecision {
		return nil, badRequest("Application is not ready for a decision")
	}

	now := time.Now()
	switch req.Decision {
	case "approve":
		docs, err := s.kyc.CurrentDocuments(ctx, kycID)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if d.Status == model.DocPending || d.Status == model.DocUnderReview {
				return nil, conflict("All documents must be reviewed before approval")
			}
		}
		record.Status = model.KYCApproved
	case "reject":
		if req.Notes == nil || strings.TrimSpace(*req.Notes) == "" {
			return nil, badRequest("Rejection notes are required")
		}
		record.Status = model.KYCRejected
	}
	record.DecidedAt = &now
	record.DecisionNotes = req.Notes

	if err := s.kyc.UpdateRecord(ctx, record); err != nil {
		return nil, err
	}

	if record.Status == model.KYCApproved && record.UserID != nil {
		if err := s.access.RaiseLevel(ctx, *record.UserID, model.AccessKYCApproved); err != nil {
			s.logger.Error("failed to raise access level after approval",
				zap.String("kyc_id", kycID), zap.Error(err))
		}
	}

	return record, nil
}

func (s *kycService) ListApplications(ctx context.Context, status string, page, limit int) ([]model.KYCRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.kyc.ListRecords(ctx, status, page, limit)
}

func (s *kycService) ListAllDocuments(ctx context.Context, status, docType string, page, limit int) ([]model.Document, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.kyc.ListDocuments(ctx, status, docType, page, limit)
}

func (s *kycService) DocumentFile(ctx context.Context, docID string) (*model.Document, []byte, error) {
	doc, err := s.kyc.GetDocumentByID(ctx, docID)
	if err != nil {
		return nil, nil, notFound("Document not found")
	}
	data, err := s.files.Open(doc.FilePath)
	if err != nil {
		return nil, nil, notFound("Stored file is unavailable")
	}
	return doc, data, nil
}
