package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
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

func newPaymentFixture(t *testing.T) (*MockOfferRepository, *MockBankingRepository, *MockUserRepository, *crypto.FieldCipher, PaymentService) {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cipher, err := crypto.NewFieldCipher(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)

	offers := new(MockOfferRepository)
	banking := new(MockBankingRepository)
	users := new(MockUserRepository)
	svc := NewPaymentService(offers, banking, users, cipher, noopAudit{}, zap.NewNop())
	return offers, banking, users, cipher, svc
}

func TestPaymentQueue_JoinsMaskedBanking(t *testing.T) {
	offers, banking, users, cipher, svc := newPaymentFixture(t)
	supplierID := uuid.New()
	account, err := cipher.Encrypt("1234567890")
	require.NoError(t, err)

	offer := model.EarlyPaymentOffer{ID: uuid.New(), SupplierUserID: supplierID, Status: model.OfferAccepted}
	offers.On("ListByStatus", mock.Anything, model.OfferAccepted, 1, 20).
		Return([]model.EarlyPaymentOffer{offer}, int64(1), nil)
	users.On("GetByID", mock.Anything, supplierID.String()).
		Return(&model.User{ID: supplierID, Email: "s@example.com"}, nil)
	banking.On("GetByUserID", mock.Anything, supplierID.String()).
		Return(&model.BankingDetails{BankName: "First Bank", AccountNumber: account, RoutingNumber: account, Status: model.BankingVerified}, nil)

	entries, total, err := svc.Queue(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "s@example.com", entries[0].SupplierEmail)
	assert.Equal(t, "******7890", entries[0].MaskedAccount)
	assert.True(t, entries[0].BankingVerified)
}

func TestPaymentQueue_MissingBankingIsNotFatal(t *testing.T) {
	offers, banking, users, _, svc := newPaymentFixture(t)
	supplierID := uuid.New()

	offer := model.EarlyPaymentOffer{ID: uuid.New(), SupplierUserID: supplierID, Status: model.OfferAccepted}
	offers.On("ListByStatus", mock.Anything, model.OfferAccepted, 1, 20).
		Return([]model.EarlyPaymentOffer{offer}, int64(1), nil)
	users.On("GetByID", mock.Anything, supplierID.String()).
		Return(&model.User{ID: supplierID, Email: "s@example.com"}, nil)
	banking.On("GetByUserID", mock.Anything, supplierID.String()).Return(nil, gorm.ErrRecordNotFound)

	entries, _, err := svc.Queue(context.Background(), 0, 0)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].BankingVerified)
	assert.Empty(t, entries[0].MaskedAccount)
}

func TestPaymentTransitions(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		act        func(PaymentService, string, string) (*model.EarlyPaymentOffer, error)
		wantErr    bool
		wantStatus string
	}{
		{
			name:    "approve accepted offer",
			current: model.OfferAccepted,
			act: func(svc PaymentService, admin, id string) (*model.EarlyPaymentOffer, error) {
				return svc.Approve(context.Background(), admin, id, "1.2.3.4", "tests")
			},
			wantStatus: model.OfferApproved,
		},
		{
			name:    "execute approved offer",
			current: model.OfferApproved,
			act: func(svc PaymentService, admin, id string) (*model.EarlyPaymentOffer, error) {
				return svc.Execute(context.Background(), admin, id, "1.2.3.4", "tests")
			},
			wantStatus: model.OfferExecuted,
		},
		{
			name:    "approve declined offer conflicts",
			current: model.OfferDeclined,
			act: func(svc PaymentService, admin, id string) (*model.EarlyPaymentOffer, error) {
				return svc.Approve(context.Background(), admin, id, "1.2.3.4", "tests")
			},
			wantErr: true,
		},
		{
			name:    "execute accepted offer skips approval and conflicts",
			current: model.OfferAccepted,
			act: func(svc PaymentService, admin, id string) (*model.EarlyPaymentOffer, error) {
				return svc.Execute(context.Background(), admin, id, "1.2.3.4", "tests")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers, _, _, _, svc := newPaymentFixture(t)
			offer := &model.EarlyPaymentOffer{ID: uuid.New(), SupplierUserID: uuid.New(), Status: tt.current}
			offers.On("GetByID", mock.Anything, offer.ID.String()).Return(offer, nil)
			offers.On("Update", mock.Anything, offer).Return(nil).Maybe()

			got, err := tt.act(svc, uuid.New().String(), offer.ID.String())

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusConflict, HTTPStatus(err))
				offers.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}
