package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"finbridge/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubAgreements reports a fixed agreement list and records presentations.
type stubAgreements struct {
	AgreementService
	agreements []model.Agreement
	presented  []uuid.UUID
}

func (s *stubAgreements) ListForUser(context.Context, string) ([]model.Agreement, error) {
	return s.agreements, nil
}

func (s *stubAgreements) PresentSupplierTerms(_ context.Context, supplierUserID uuid.UUID, _ *uuid.UUID) (*model.Agreement, error) {
	s.presented = append(s.presented, supplierUserID)
	return &model.Agreement{}, nil
}

func signedBuyerTerms() []model.Agreement {
	return []model.Agreement{{AgreementType: model.AgreementBuyerTerms, Status: model.AgreementSigned}}
}

func newInvitationFixture(agreements *stubAgreements) (*MockInvitationRepository, *MockUserRepository, *MockSender, InvitationService) {
	invitations := new(MockInvitationRepository)
	users := new(MockUserRepository)
	mailer := new(MockSender)
	svc := NewInvitationService(invitations, users, agreements, mailer, zap.NewNop())
	return invitations, users, mailer, svc
}

func TestSendInvitation_RequiresSignedBuyerTerms(t *testing.T) {
	invitations, users, _, svc := newInvitationFixture(&stubAgreements{
		agreements: []model.Agreement{{AgreementType: model.AgreementBuyerTerms, Status: model.AgreementPresented}},
	})

	buyer := &model.User{ID: uuid.New(), Email: "buyer@example.com", Role: model.RoleBuyer}
	users.On("GetByID", mock.Anything, buyer.ID.String()).Return(buyer, nil)

	_, err := svc.Send(context.Background(), buyer.ID.String(), SendInvitationRequest{
		CompanyName: "Acme Supplies",
		Email:       "supplier@example.com",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
	invitations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendInvitation_DuplicateActive(t *testing.T) {
	invitations, users, _, svc := newInvitationFixture(&stubAgreements{agreements: signedBuyerTerms()})

	buyer := &model.User{ID: uuid.New(), Email: "buyer@example.com", Role: model.RoleBuyer}
	users.On("GetByID", mock.Anything, buyer.ID.String()).Return(buyer, nil)
	invitations.On("GetActiveByBuyerAndEmail", mock.Anything, buyer.ID.String(), "supplier@example.com").
		Return(&model.SupplierInvitation{}, nil)

	_, err := svc.Send(context.Background(), buyer.ID.String(), SendInvitationRequest{
		CompanyName: "Acme Supplies",
		Email:       "supplier@example.com",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestSendInvitation_Success(t *testing.T) {
	invitations, users, mailer, svc := newInvitationFixture(&stubAgreements{agreements: signedBuyerTerms()})

	buyer := &model.User{ID: uuid.New(), Email: "buyer@example.com", Role: model.RoleBuyer}
	users.On("GetByID", mock.Anything, buyer.ID.String()).Return(buyer, nil)
	users.On("GetByEmail", mock.Anything, "supplier@example.com").Return(nil, gorm.ErrRecordNotFound)
	invitations.On("GetActiveByBuyerAndEmail", mock.Anything, buyer.ID.String(), "supplier@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	invitations.On("Create", mock.Anything, mock.AnythingOfType("*model.SupplierInvitation")).Return(nil)
	invitations.On("Update", mock.Anything, mock.AnythingOfType("*model.SupplierInvitation")).Return(nil)
	mailer.On("SendInvitation", "buyer@example.com", "supplier@example.com", "Acme Supplies",
		mock.AnythingOfType("string"), (*string)(nil)).Return(nil)

	inv, err := svc.Send(context.Background(), buyer.ID.String(), SendInvitationRequest{
		CompanyName: "Acme Supplies",
		Email:       "supplier@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, model.InvitationSent, inv.Status)
	assert.Equal(t, "delivered", inv.EmailDeliveryStatus)
	assert.Len(t, inv.InvitationToken, 64)
	assert.WithinDuration(t, time.Now().Add(model.InvitationTTL), inv.ExpiresAt, 2*time.Second)
}

func TestSendInvitation_ExistingSupplierIsLinked(t *testing.T) {
	agreements := &stubAgreements{agreements: signedBuyerTerms()}
	invitations, users, mailer, svc := newInvitationFixture(agreements)

	buyer := &model.User{ID: uuid.New(), Email: "buyer@example.com", Role: model.RoleBuyer}
	supplier := &model.User{ID: uuid.New(), Email: "supplier@example.com", Role: model.RoleSupplier}
	users.On("GetByID", mock.Anything, buyer.ID.String()).Return(buyer, nil)
	users.On("GetByEmail", mock.Anything, "supplier@example.com").Return(supplier, nil)
	invitations.On("GetActiveByBuyerAndEmail", mock.Anything, buyer.ID.String(), "supplier@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	invitations.On("Create", mock.Anything, mock.AnythingOfType("*model.SupplierInvitation")).Return(nil)
	invitations.On("Update", mock.Anything, mock.AnythingOfType("*model.SupplierInvitation")).Return(nil)
	invitations.On("UpsertLink", mock.Anything, mock.AnythingOfType("*model.BuyerSupplierLink")).Return(nil)
	mailer.On("SendInvitation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	inv, err := svc.Send(context.Background(), buyer.ID.String(), SendInvitationRequest{
		CompanyName: "Acme Supplies",
		Email:       "supplier@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, model.InvitationRegistered, inv.Status)
	require.NotNil(t, inv.SupplierUserID)
	assert.Equal(t, supplier.ID, *inv.SupplierUserID)
	assert.Equal(t, []uuid.UUID{supplier.ID}, agreements.presented)
}

func TestSendInvitation_EmailFailureRecorded(t *testing.T) {
	invitations, users, mailer, svc := newInvitationFixture(&stubAgreements{agreements: signedBuyerTerms()})

	buyer := &model.User{ID: uuid.New(), Email: "buyer@example.com", Role: model.RoleBuyer}
	users.On("GetByID", mock.Anything, buyer.ID.String()).Return(buyer, nil)
	users.On("GetByEmail", mock.Anything, "supplier@example.com").Return(nil, gorm.ErrRecordNotFound)
	invitations.On("GetActiveByBuyerAndEmail", mock.Anything, buyer.ID.String(), "supplier@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	invitations.On("Create", mock.Anything, mock.AnythingOfType("*model.SupplierInvitation")).Return(nil)

	var updated *model.SupplierInvitation
	invitations.On("Update", mock.Anything, mock.AnythingOfType("*model.SupplierInvitation")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(*model.SupplierInvitation) }).
		Return(nil)
	mailer.On("SendInvitation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	_, err := svc.Send(context.Background(), buyer.ID.String(), SendInvitationRequest{
		CompanyName: "Acme Supplies",
		Email:       "supplier@example.com",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
	require.NotNil(t, updated)
	assert.Equal(t, "failed", updated.EmailDeliveryStatus)
}

func TestValidate(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		invitations, _, _, svc := newInvitationFixture(&stubAgreements{})
		invitations.On("GetByToken", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Validate(context.Background(), "nope")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	})

	t.Run("expired", func(t *testing.T) {
		invitations, _, _, svc := newInvitationFixture(&stubAgreements{})
		invitations.On("GetByToken", mock.Anything, "tok").Return(&model.SupplierInvitation{
			Status:    model.InvitationSent,
			ExpiresAt: time.Now().Add(-time.Hour),
		}, nil)

		_, err := svc.Validate(context.Background(), "tok")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})

	t.Run("first open marks opened", func(t *testing.T) {
		invitations, _, _, svc := newInvitationFixture(&stubAgreements{})
		inv := &model.SupplierInvitation{
			Buyer:              &model.User{Email: "buyer@example.com"},
			InvitedCompanyName: "Acme Supplies",
			InvitedEmail:       "supplier@example.com",
			Status:             model.InvitationSent,
			ExpiresAt:          time.Now().Add(24 * time.Hour),
		}
		invitations.On("GetByToken", mock.Anything, "tok").Return(inv, nil)
		invitations.On("Update", mock.Anything, inv).Return(nil)

		result, err := svc.Validate(context.Background(), "tok")

		require.NoError(t, err)
		assert.Equal(t, model.InvitationOpened, result.Status)
		assert.Equal(t, "buyer@example.com", result.BuyerEmail)
		assert.NotNil(t, inv.OpenedAt)
	})
}

func TestCancel(t *testing.T) {
	t.Run("completed cannot be cancelled", func(t *testing.T) {
		invitations, _, _, svc := newInvitationFixture(&stubAgreements{})
		buyerID := uuid.New()
		invitations.On("GetByID", mock.Anything, "inv-1").Return(&model.SupplierInvitation{
			BuyerID: buyerID,
			Status:  model.InvitationCompleted,
		}, nil)

		err := svc.Cancel(context.Background(), buyerID.String(), "inv-1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be cancelled")
	})

	t.Run("another buyer's invitation reads as missing", func(t *testing.T) {
		invitations, _, _, svc := newInvitationFixture(&stubAgreements{})
		invitations.On("GetByID", mock.Anything, "inv-1").Return(&model.SupplierInvitation{
			BuyerID: uuid.New(),
			Status:  model.InvitationSent,
		}, nil)

		err := svc.Cancel(context.Background(), uuid.New().String(), "inv-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	})
}
