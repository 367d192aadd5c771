package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"finbridge/internal/model"
	"finbridge/pkg/crypto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type bankingFixture struct {
	banking     *MockBankingRepository
	kyc         *MockKYCRepository
	users       *MockUserRepository
	invitations *MockInvitationRepository
	access      *stubAccessService
	agreements  *stubAgreements
	mailer      *MockSender
	cipher      *crypto.FieldCipher
	svc         BankingService
}

func newBankingFixture(t *testing.T) *bankingFixture {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cipher, err := crypto.NewFieldCipher(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	f := &bankingFixture{
		banking:     new(MockBankingRepository),
		kyc:         new(MockKYCRepository),
		users:       new(MockUserRepository),
		invitations: new(MockInvitationRepository),
		access:      &stubAccessService{},
		agreements:  &stubAgreements{},
		mailer:      new(MockSender),
		cipher:      cipher,
	}
	f.svc = NewBankingService(f.banking, f.kyc, f.users, f.invitations, f.access,
		f.agreements, cipher, f.mailer, noopBroadcaster{}, zap.NewNop())
	return f
}

func TestBankingSubmit_RequiresApprovedKYC(t *testing.T) {
	f := newBankingFixture(t)
	userID := uuid.New()

	f.kyc.On("GetRecordByUserID", mock.Anything, userID.String()).
		Return(&model.KYCRecord{Status: model.KYCUnderReview}, nil)

	_, err := f.svc.Submit(context.Background(), userID.String(), BankingSubmitRequest{
		BankName:          "First Bank",
		AccountNumber:     "1234567890",
		RoutingNumber:     "044000037",
		AccountHolderName: "Acme Ltd",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "approved verification application")
	f.banking.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestBankingSubmit_EncryptsAtRest(t *testing.T) {
	f := newBankingFixture(t)
	userID := uuid.New()

	f.kyc.On("GetRecordByUserID", mock.Anything, userID.String()).
		Return(&model.KYCRecord{Status: model.KYCApproved}, nil)

	var stored *model.BankingDetails
	f.banking.On("Upsert", mock.Anything, mock.AnythingOfType("*model.BankingDetails")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*model.BankingDetails) }).
		Return(nil)
	f.banking.On("GetByUserID", mock.Anything, userID.String()).Return(nil, gorm.ErrRecordNotFound)
	f.invitations.On("GetBySupplierUserID", mock.Anything, userID.String()).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.Submit(context.Background(), userID.String(), BankingSubmitRequest{
		BankName:          "First Bank",
		AccountNumber:     "1234567890",
		RoutingNumber:     "044000037",
		AccountHolderName: "Acme Ltd",
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "1234567890", stored.AccountNumber)
	assert.Contains(t, stored.AccountNumber, "v1:gcm:")
	assert.Equal(t, model.BankingPending, stored.Status)
	assert.Equal(t, []string{model.AccessBankingSubmitted}, f.access.raised)

	account, err := f.cipher.Decrypt(stored.AccountNumber)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", account)
}

func encryptedDetails(t *testing.T, f *bankingFixture, userID uuid.UUID) *model.BankingDetails {
	t.Helper()
	account, err := f.cipher.Encrypt("1234567890")
	require.NoError(t, err)
	routing, err := f.cipher.Encrypt("044000037")
	require.NoError(t, err)
	return &model.BankingDetails{
		ID:                uuid.New(),
		UserID:            userID,
		BankName:          "First Bank",
		AccountNumber:     account,
		RoutingNumber:     routing,
		AccountHolderName: "Acme Ltd",
		Status:            model.BankingPending,
	}
}

func TestBankingDetails_OwnerSeesPlaintext(t *testing.T) {
	f := newBankingFixture(t)
	userID := uuid.New()
	details := encryptedDetails(t, f, userID)

	f.banking.On("GetByUserID", mock.Anything, userID.String()).Return(details, nil)

	resp, err := f.svc.Details(context.Background(), userID.String())

	require.NoError(t, err)
	assert.Equal(t, "1234567890", resp.AccountNumber)
	assert.Equal(t, "044000037", resp.RoutingNumber)
}

func TestBankingAdminList_Masked(t *testing.T) {
	f := newBankingFixture(t)
	details := encryptedDetails(t, f, uuid.New())

	f.banking.On("List", mock.Anything, "", 1, 10).
		Return([]model.BankingDetails{*details}, int64(1), nil)

	rows, total, err := f.svc.AdminList(context.Background(), "", 0, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "******7890", rows[0].AccountNumber)
	assert.Equal(t, "*****0037", rows[0].RoutingNumber)
}

func TestBankingVerify_Cascade(t *testing.T) {
	f := newBankingFixture(t)
	supplierID := uuid.New()
	buyerID := uuid.New()
	adminID := uuid.New()
	details := encryptedDetails(t, f, supplierID)

	f.banking.On("GetByID", mock.Anything, details.ID.String()).Return(details, nil)
	f.banking.On("Update", mock.Anything, details).Return(nil)
	f.users.On("GetByID", mock.Anything, supplierID.String()).
		Return(&model.User{ID: supplierID, Role: model.RoleSupplier, Email: "s@example.com"}, nil)
	f.users.On("GetByID", mock.Anything, buyerID.String()).
		Return(&model.User{ID: buyerID, Role: model.RoleBuyer, Email: "b@example.com"}, nil)
	f.invitations.On("GetBySupplierUserID", mock.Anything, supplierID.String()).
		Return(&model.SupplierInvitation{BuyerID: buyerID}, nil)
	f.mailer.On("SendMilestone", "b@example.com", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.Verify(context.Background(), adminID.String(), details.ID.String(), BankingVerifyRequest{Decision: "verify"})

	require.NoError(t, err)
	assert.Equal(t, model.BankingVerified, got.Status)
	assert.NotNil(t, got.VerificationDate)
	assert.Equal(t, []string{model.AccessBankingVerified}, f.access.raised)
	assert.Equal(t, []uuid.UUID{supplierID}, f.agreements.presented)
	f.mailer.AssertExpectations(t)
}

func TestBankingVerify_ResubmissionRequired(t *testing.T) {
	f := newBankingFixture(t)
	userID := uuid.New()
	adminID := uuid.New()
	details := encryptedDetails(t, f, userID)
	notes := "account name does not match the registered company"

	f.banking.On("GetByID", mock.Anything, details.ID.String()).Return(details, nil)
	f.banking.On("Update", mock.Anything, details).Return(nil)
	f.users.On("GetByID", mock.Anything, userID.String()).
		Return(&model.User{ID: userID, Email: "s@example.com"}, nil)
	f.mailer.On("SendBankingResubmission", "s@example.com", "Acme Ltd", &notes).Return(nil)

	got, err := f.svc.Verify(context.Background(), adminID.String(), details.ID.String(), BankingVerifyRequest{
		Decision: "resubmission_required",
		Notes:    &notes,
	})

	require.NoError(t, err)
	assert.Equal(t, model.BankingResubmissionRequired, got.Status)
	assert.Equal(t, 1, got.ResubmissionCount)
	assert.Equal(t, &notes, got.VerificationNotes)
	f.mailer.AssertExpectations(t)
}
