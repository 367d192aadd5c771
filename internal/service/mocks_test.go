package service

import (
	"context"

	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Shared testify mocks for the repository and mailer surfaces the service
// tests exercise.

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, role string, page, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, role, page, limit)
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	return m.Called(ctx, id, role).Error(0)
}

type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) Create(ctx context.Context, otp *model.OTPCode) error {
	return m.Called(ctx, otp).Error(0)
}

func (m *MockOTPRepository) GetActive(ctx context.Context, email, purpose string) (*model.OTPCode, error) {
	args := m.Called(ctx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OTPCode), args.Error(1)
}

func (m *MockOTPRepository) GetLatestForEmail(ctx context.Context, email string) (*model.OTPCode, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OTPCode), args.Error(1)
}

func (m *MockOTPRepository) Update(ctx context.Context, otp *model.OTPCode) error {
	return m.Called(ctx, otp).Error(0)
}

func (m *MockOTPRepository) InvalidateActive(ctx context.Context, email, purpose string) error {
	return m.Called(ctx, email, purpose).Error(0)
}

type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, inv *model.SupplierInvitation) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, id string) (*model.SupplierInvitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SupplierInvitation), args.Error(1)
}

func (m *MockInvitationRepository) GetByToken(ctx context.Context, token string) (*model.SupplierInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SupplierInvitation), args.Error(1)
}

func (m *MockInvitationRepository) GetActiveByBuyerAndEmail(ctx context.Context, buyerID, email string) (*model.SupplierInvitation, error) {
	args := m.Called(ctx, buyerID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SupplierInvitation), args.Error(1)
}

func (m *MockInvitationRepository) GetLatestActiveForEmail(ctx context.Context, email string) (*model.SupplierInvitation, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SupplierInvitation), args.Error(1)
}

func (m *MockInvitationRepository) GetBySupplierUserID(ctx context.Context, supplierUserID string) (*model.SupplierInvitation, error) {
	args := m.Called(ctx, supplierUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SupplierInvitation), args.Error(1)
}

func (m *MockInvitationRepository) ListByBuyer(ctx context.Context, buyerID string, page, limit int) ([]model.SupplierInvitation, int64, error) {
	args := m.Called(ctx, buyerID, page, limit)
	return args.Get(0).([]model.SupplierInvitation), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvitationRepository) Update(ctx context.Context, inv *model.SupplierInvitation) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *MockInvitationRepository) UpsertLink(ctx context.Context, link *model.BuyerSupplierLink) error {
	return m.Called(ctx, link).Error(0)
}

func (m *MockInvitationRepository) GetLink(ctx context.Context, buyerID, supplierUserID string) (*model.BuyerSupplierLink, error) {
	args := m.Called(ctx, buyerID, supplierUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BuyerSupplierLink), args.Error(1)
}

func (m *MockInvitationRepository) UpdateLink(ctx context.Context, link *model.BuyerSupplierLink) error {
	return m.Called(ctx, link).Error(0)
}

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *model.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id string) (*model.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByUserID(ctx context.Context, userID string) (*model.Company, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetByRegistration(ctx context.Context, regNumber, companyType string) (*model.Company, error) {
	args := m.Called(ctx, regNumber, companyType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyRepository) Update(ctx context.Context, company *model.Company) error {
	return m.Called(ctx, company).Error(0)
}

type MockKYCRepository struct {
	mock.Mock
}

func (m *MockKYCRepository) CreateRecord(ctx context.Context, record *model.KYCRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockKYCRepository) GetRecordByID(ctx context.Context, id string) (*model.KYCRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.KYCRecord), args.Error(1)
}

func (m *MockKYCRepository) GetRecordByUserID(ctx context.Context, userID string) (*model.KYCRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.KYCRecord), args.Error(1)
}

func (m *MockKYCRepository) GetRecordByCompanyID(ctx context.Context, companyID string) (*model.KYCRecord, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.KYCRecord), args.Error(1)
}

func (m *MockKYCRepository) UpdateRecord(ctx context.Context, record *model.KYCRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockKYCRepository) ListRecords(ctx context.Context, status string, page, limit int) ([]model.KYCRecord, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]model.KYCRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockKYCRepository) CreateDocument(ctx context.Context, doc *model.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockKYCRepository) GetDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockKYCRepository) CurrentDocuments(ctx context.Context, kycID string) ([]model.Document, error) {
	args := m.Called(ctx, kycID)
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockKYCRepository) CurrentDocumentOfType(ctx context.Context, kycID, docType string) (*model.Document, error) {
	args := m.Called(ctx, kycID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockKYCRepository) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockKYCRepository) ListDocuments(ctx context.Context, status, docType string, page, limit int) ([]model.Document, int64, error) {
	args := m.Called(ctx, status, docType, page, limit)
	return args.Get(0).([]model.Document), args.Get(1).(int64), args.Error(2)
}

func (m *MockKYCRepository) UpdateDocumentStatuses(ctx context.Context, kycID, from, to string) error {
	return m.Called(ctx, kycID, from, to).Error(0)
}

func (m *MockKYCRepository) CountRecordsByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

type MockBankingRepository struct {
	mock.Mock
}

func (m *MockBankingRepository) Upsert(ctx context.Context, details *model.BankingDetails) error {
	return m.Called(ctx, details).Error(0)
}

func (m *MockBankingRepository) GetByID(ctx context.Context, id string) (*model.BankingDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BankingDetails), args.Error(1)
}

func (m *MockBankingRepository) GetByUserID(ctx context.Context, userID string) (*model.BankingDetails, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BankingDetails), args.Error(1)
}

func (m *MockBankingRepository) Update(ctx context.Context, details *model.BankingDetails) error {
	return m.Called(ctx, details).Error(0)
}

func (m *MockBankingRepository) List(ctx context.Context, status string, page, limit int) ([]model.BankingDetails, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]model.BankingDetails), args.Get(1).(int64), args.Error(2)
}

func (m *MockBankingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

type MockAgreementRepository struct {
	mock.Mock
}

func (m *MockAgreementRepository) CreateTemplate(ctx context.Context, tpl *model.AgreementTemplate) error {
	return m.Called(ctx, tpl).Error(0)
}

func (m *MockAgreementRepository) GetTemplateByID(ctx context.Context, id string) (*model.AgreementTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AgreementTemplate), args.Error(1)
}

func (m *MockAgreementRepository) LatestActiveTemplate(ctx context.Context, templateType string) (*model.AgreementTemplate, error) {
	args := m.Called(ctx, templateType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AgreementTemplate), args.Error(1)
}

func (m *MockAgreementRepository) ListTemplates(ctx context.Context, templateType string) ([]model.AgreementTemplate, error) {
	args := m.Called(ctx, templateType)
	return args.Get(0).([]model.AgreementTemplate), args.Error(1)
}

func (m *MockAgreementRepository) UpdateTemplate(ctx context.Context, tpl *model.AgreementTemplate) error {
	return m.Called(ctx, tpl).Error(0)
}

func (m *MockAgreementRepository) Create(ctx context.Context, agreement *model.Agreement) error {
	return m.Called(ctx, agreement).Error(0)
}

func (m *MockAgreementRepository) GetByID(ctx context.Context, id string) (*model.Agreement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) ListByUser(ctx context.Context, userID string) ([]model.Agreement, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) FindExisting(ctx context.Context, userID string, counterpartyID *string, agreementType string) (*model.Agreement, error) {
	args := m.Called(ctx, userID, counterpartyID, agreementType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agreement), args.Error(1)
}

func (m *MockAgreementRepository) HasSigned(ctx context.Context, userID, agreementType string) (bool, error) {
	args := m.Called(ctx, userID, agreementType)
	return args.Bool(0), args.Error(1)
}

func (m *MockAgreementRepository) Update(ctx context.Context, agreement *model.Agreement) error {
	return m.Called(ctx, agreement).Error(0)
}

type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) Ensure(ctx context.Context, access *model.DashboardAccess) error {
	return m.Called(ctx, access).Error(0)
}

func (m *MockAccessRepository) GetByUserID(ctx context.Context, userID string) (*model.DashboardAccess, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardAccess), args.Error(1)
}

func (m *MockAccessRepository) Update(ctx context.Context, access *model.DashboardAccess) error {
	return m.Called(ctx, access).Error(0)
}

type MockAPRepository struct {
	mock.Mock
}

func (m *MockAPRepository) CreateBatch(ctx context.Context, batch *model.APBatch) error {
	return m.Called(ctx, batch).Error(0)
}

func (m *MockAPRepository) CreateRows(ctx context.Context, rows []model.APBatchRow) error {
	return m.Called(ctx, rows).Error(0)
}

func (m *MockAPRepository) ListRowsByBuyer(ctx context.Context, buyerID string, page, limit int) ([]model.APBatchRow, int64, error) {
	args := m.Called(ctx, buyerID, page, limit)
	return args.Get(0).([]model.APBatchRow), args.Get(1).(int64), args.Error(2)
}

func (m *MockAPRepository) GetRowByID(ctx context.Context, id string) (*model.APBatchRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APBatchRow), args.Error(1)
}

func (m *MockAPRepository) UpdateRow(ctx context.Context, row *model.APBatchRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *MockAPRepository) AcceptedUnmatchedRows(ctx context.Context, buyerID string) ([]model.APBatchRow, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]model.APBatchRow), args.Error(1)
}

func (m *MockAPRepository) AcceptedRowsForSupplier(ctx context.Context, supplierUserID string) ([]model.APBatchRow, error) {
	args := m.Called(ctx, supplierUserID)
	return args.Get(0).([]model.APBatchRow), args.Error(1)
}

func (m *MockAPRepository) UpsertConsent(ctx context.Context, consent *model.VendorConsent) error {
	return m.Called(ctx, consent).Error(0)
}

func (m *MockAPRepository) GetConsent(ctx context.Context, buyerID, vendorNumber string) (*model.VendorConsent, error) {
	args := m.Called(ctx, buyerID, vendorNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VendorConsent), args.Error(1)
}

func (m *MockAPRepository) ListConsentsByBuyer(ctx context.Context, buyerID string) ([]model.VendorConsent, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]model.VendorConsent), args.Error(1)
}

func (m *MockAPRepository) ConsentedCount(ctx context.Context, buyerID string) (int64, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAPRepository) ListUnassignedConsents(ctx context.Context, buyerID string) ([]model.VendorConsent, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]model.VendorConsent), args.Error(1)
}

type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Upsert(ctx context.Context, offer *model.EarlyPaymentOffer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *MockOfferRepository) GetByID(ctx context.Context, id string) (*model.EarlyPaymentOffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EarlyPaymentOffer), args.Error(1)
}

func (m *MockOfferRepository) GetByRowAndSupplier(ctx context.Context, invoiceRowID, supplierUserID string) (*model.EarlyPaymentOffer, error) {
	args := m.Called(ctx, invoiceRowID, supplierUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EarlyPaymentOffer), args.Error(1)
}

func (m *MockOfferRepository) ListBySupplier(ctx context.Context, supplierUserID string) ([]model.EarlyPaymentOffer, error) {
	args := m.Called(ctx, supplierUserID)
	return args.Get(0).([]model.EarlyPaymentOffer), args.Error(1)
}

func (m *MockOfferRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.EarlyPaymentOffer, int64, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).([]model.EarlyPaymentOffer), args.Get(1).(int64), args.Error(2)
}

func (m *MockOfferRepository) Update(ctx context.Context, offer *model.EarlyPaymentOffer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *MockOfferRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockSender records outbound mail without delivering anything.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendOTP(to, code, purpose string) error {
	return m.Called(to, code, purpose).Error(0)
}

func (m *MockSender) SendInvitation(buyerEmail, to, companyName, token string, message *string) error {
	return m.Called(buyerEmail, to, companyName, token, message).Error(0)
}

func (m *MockSender) SendMilestone(to, subject, heading string, paragraphs []string) error {
	return m.Called(to, subject, heading, paragraphs).Error(0)
}

func (m *MockSender) SendBankingResubmission(to, companyName string, notes *string) error {
	return m.Called(to, companyName, notes).Error(0)
}

// fakeTxManager runs the callback inline without a real transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// noopBroadcaster drops realtime events on the floor.
type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastEvent(string, interface{}) {}

// stubAccessService records level raises without touching storage.
type stubAccessService struct {
	raised []string
}

func (s *stubAccessService) ResolveAccess(context.Context, string) (*AccessResult, error) {
	return nil, nil
}

func (s *stubAccessService) Checklist(context.Context, string) ([]ChecklistStep, error) {
	return nil, nil
}

func (s *stubAccessService) DashboardStatus(context.Context, string) (*model.DashboardAccess, error) {
	return nil, nil
}

func (s *stubAccessService) EnsureRow(context.Context, uuid.UUID, *uuid.UUID) error { return nil }

func (s *stubAccessService) RaiseLevel(_ context.Context, _ uuid.UUID, level string) error {
	s.raised = append(s.raised, level)
	return nil
}

// noopAudit satisfies AuditService for flows where the trail is incidental.
type noopAudit struct{}

func (noopAudit) Record(context.Context, *uuid.UUID, string, string, string, map[string]interface{}, string, string) {
}

func (noopAudit) List(context.Context, repository.AuditFilter) ([]model.AuditEvent, int64, error) {
	return nil, 0, nil
}

func (noopAudit) RiskOverride(context.Context, string, RiskOverrideRequest, string, string) (*model.AuditEvent, error) {
	return nil, nil
}
